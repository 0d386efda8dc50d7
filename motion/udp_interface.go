package motion

import (
	"net"
	"sync"
	"time"
)

// UDPSocket is the subset of *net.UDPConn the listener needs, so tests can
// substitute a scripted socket.
type UDPSocket interface {
	ReadFromUDP(b []byte) (n int, addr *net.UDPAddr, err error)
	SetReadDeadline(t time.Time) error
	Close() error
	LocalAddr() net.Addr
}

type UDPSocketFactory interface {
	ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error)
}

// RealUDPSocketFactory binds real sockets with net.ListenUDP.
type RealUDPSocketFactory struct{}

func (RealUDPSocketFactory) ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error) {
	conn, err := net.ListenUDP(network, laddr)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// MockUDPPacket is one scripted datagram.
type MockUDPPacket struct {
	Data []byte
	Addr *net.UDPAddr
}

// MockUDPSocket replays Packets in order. Once they run out it behaves like
// an idle socket: each read waits for the deadline and then times out.
type MockUDPSocket struct {
	mu           sync.Mutex
	packets      []MockUDPPacket
	readIndex    int
	closed       bool
	readDeadline time.Time
	readError    error
	localAddr    *net.UDPAddr
}

func NewMockUDPSocket(packets []MockUDPPacket) *MockUDPSocket {
	return &MockUDPSocket{
		packets:   packets,
		localAddr: &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: DefaultPort},
	}
}

func (m *MockUDPSocket) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, nil, net.ErrClosed
	}
	if m.readError != nil {
		err := m.readError
		m.readError = nil
		m.mu.Unlock()
		return 0, nil, err
	}
	if m.readIndex < len(m.packets) {
		pkt := m.packets[m.readIndex]
		m.readIndex++
		m.mu.Unlock()
		return copy(b, pkt.Data), pkt.Addr, nil
	}
	wait := time.Until(m.readDeadline)
	m.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
	return 0, nil, &net.OpError{Op: "read", Net: "udp", Err: timeoutError{}}
}

// FailNextRead makes the next ReadFromUDP return err.
func (m *MockUDPSocket) FailNextRead(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readError = err
}

func (m *MockUDPSocket) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readDeadline = t
	return nil
}

func (m *MockUDPSocket) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockUDPSocket) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Remaining is the number of scripted packets not yet read.
func (m *MockUDPSocket) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.packets) - m.readIndex
}

func (m *MockUDPSocket) LocalAddr() net.Addr { return m.localAddr }

// MockUDPSocketFactory hands out Socket and records each bind request.
type MockUDPSocketFactory struct {
	Socket      *MockUDPSocket
	Error       error
	ListenCalls []*net.UDPAddr
}

func (f *MockUDPSocketFactory) ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error) {
	f.ListenCalls = append(f.ListenCalls, laddr)
	if f.Error != nil {
		return nil, f.Error
	}
	return f.Socket, nil
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
