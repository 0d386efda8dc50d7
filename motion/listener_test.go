package motion

import (
	"context"
	"errors"
	"math"
	"net"
	"testing"
	"time"

	"github.com/Tutortoise/ascii-vtuber/faults"
	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/stretchr/testify/require"
)

func startListener(t *testing.T, l *UDPListener) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Start(ctx) }()
	return cancel, done
}

func TestListenerDecodesAndDrops(t *testing.T) {
	good := models.MotionRecord{Pitch: 0.1, Yaw: -0.2, Roll: 0}
	later := models.MotionRecord{Pitch: 0.3, Yaw: 0.4, Roll: 0}
	sock := NewMockUDPSocket([]MockUDPPacket{
		{Data: Encode(good)},
		{Data: []byte{1, 2, 3, 4, 5}},
		{Data: Encode(later)},
		{Data: make([]byte, 20)},
	})
	factory := &MockUDPSocketFactory{Socket: sock}
	cache := NewLastKnown(nil)
	l := NewUDPListener(ListenerConfig{
		Cache:         cache,
		SocketFactory: factory,
		ReadTimeout:   5 * time.Millisecond,
	})

	cancel, done := startListener(t, l)
	require.Eventually(t, func() bool { return sock.Remaining() == 0 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	require.Equal(t, ListenerStats{Received: 2, Dropped: 2}, l.Stats())
	rec, ok := cache.Latest()
	require.True(t, ok)
	require.Equal(t, later, rec)
	require.True(t, sock.Closed())
	require.Len(t, factory.ListenCalls, 1)
	require.Equal(t, DefaultPort, factory.ListenCalls[0].Port)
}

func TestListenerMalformedKeepsPriorPose(t *testing.T) {
	cache := NewLastKnown(nil)
	l := NewUDPListener(ListenerConfig{Cache: cache})
	want := models.MotionRecord{Yaw: 1}
	require.NoError(t, l.HandleDatagram(Encode(want)))
	require.Error(t, l.HandleDatagram([]byte{0}))

	rec, ok := cache.Latest()
	require.True(t, ok)
	require.Equal(t, want, rec)
}

func TestListenerNonFiniteKeepsPriorPose(t *testing.T) {
	cache := NewLastKnown(nil)
	l := NewUDPListener(ListenerConfig{Cache: cache})
	want := models.MotionRecord{Pitch: 0.1, Yaw: -0.3}
	require.NoError(t, l.HandleDatagram(Encode(want)))

	nan := float32(math.NaN())
	err := l.HandleDatagram(Encode(models.MotionRecord{Pitch: nan, Yaw: 0.2}))
	require.True(t, faults.Is(err, faults.ProtocolDecodeFault))
	err = l.HandleDatagram(Encode(models.MotionRecord{Roll: float32(math.Inf(-1))}))
	require.True(t, faults.Is(err, faults.ProtocolDecodeFault))

	rec, ok := cache.Latest()
	require.True(t, ok)
	require.Equal(t, want, rec)
	require.Equal(t, ListenerStats{Received: 1, Dropped: 2}, l.Stats())
}

func TestListenerSurvivesReadError(t *testing.T) {
	sock := NewMockUDPSocket([]MockUDPPacket{{Data: Encode(models.MotionRecord{Roll: 1})}})
	sock.FailNextRead(errors.New("transient"))
	cache := NewLastKnown(nil)
	l := NewUDPListener(ListenerConfig{
		Cache:         cache,
		SocketFactory: &MockUDPSocketFactory{Socket: sock},
		ReadTimeout:   5 * time.Millisecond,
	})

	cancel, done := startListener(t, l)
	require.Eventually(t, func() bool {
		_, ok := cache.Latest()
		return ok
	}, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestListenerBindError(t *testing.T) {
	l := NewUDPListener(ListenerConfig{
		Cache:         NewLastKnown(nil),
		SocketFactory: &MockUDPSocketFactory{Error: errors.New("address in use")},
	})
	err := l.Start(context.Background())
	require.ErrorContains(t, err, "address in use")
}

func TestSenderToListenerLoopback(t *testing.T) {
	cache := NewLastKnown(nil)
	sock, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	l := NewUDPListener(ListenerConfig{
		Cache:         cache,
		SocketFactory: &fixedFactory{sock: sock},
		ReadTimeout:   10 * time.Millisecond,
	})
	cancel, done := startListener(t, l)
	defer func() {
		cancel()
		<-done
	}()

	s, err := NewSender(sock.LocalAddr().String())
	require.NoError(t, err)
	defer s.Close()

	want := models.MotionRecord{Pitch: -0.25, Yaw: 0.5, Roll: 0}
	require.Eventually(t, func() bool {
		if s.Send(context.Background(), want) != nil {
			return false
		}
		got, ok := cache.Latest()
		return ok && got == want
	}, 2*time.Second, 10*time.Millisecond)

	sent, failed := s.Counts()
	require.NotZero(t, sent)
	require.Zero(t, failed)
}

func TestSenderWithoutReceiver(t *testing.T) {
	// Nothing listens on the discard port; an unconnected socket still
	// reports success for every datagram.
	s, err := NewSender("127.0.0.1:9")
	require.NoError(t, err)
	defer s.Close()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Send(context.Background(), models.MotionRecord{}))
	}
}

type fixedFactory struct {
	sock *net.UDPConn
}

func (f *fixedFactory) ListenUDP(string, *net.UDPAddr) (UDPSocket, error) {
	return f.sock, nil
}
