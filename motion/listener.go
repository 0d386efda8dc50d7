package motion

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/Tutortoise/ascii-vtuber/logger"
	"github.com/pkg/errors"
)

const (
	defaultReadTimeout = 100 * time.Millisecond
	maxDatagram        = 2048
)

type ListenerConfig struct {
	Address       string
	Cache         *LastKnown
	SocketFactory UDPSocketFactory
	// ReadTimeout bounds how long a read blocks before the context is
	// checked again.
	ReadTimeout time.Duration
	// LogInterval enables periodic receive statistics when positive.
	LogInterval time.Duration
}

// ListenerStats counts datagrams since Start.
type ListenerStats struct {
	Received uint64
	Dropped  uint64
}

// UDPListener decodes motion datagrams into a LastKnown cache. Malformed
// datagrams are counted and dropped; the cached pose is left as it was.
type UDPListener struct {
	cfg      ListenerConfig
	received atomic.Uint64
	dropped  atomic.Uint64
}

func NewUDPListener(cfg ListenerConfig) *UDPListener {
	if cfg.Address == "" {
		cfg.Address = DefaultAddr
	}
	if cfg.SocketFactory == nil {
		cfg.SocketFactory = RealUDPSocketFactory{}
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	return &UDPListener{cfg: cfg}
}

// Start binds the socket and receives until ctx is cancelled, returning
// ctx.Err(). Bind failures are returned immediately.
func (l *UDPListener) Start(ctx context.Context) error {
	log := logger.Entry(ctx).WithField("listen", l.cfg.Address)

	addr, err := net.ResolveUDPAddr("udp", l.cfg.Address)
	if err != nil {
		return errors.Wrap(err, "resolve listen address")
	}
	conn, err := l.cfg.SocketFactory.ListenUDP("udp", addr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	defer conn.Close()

	log.Info("motion listener started")
	if l.cfg.LogInterval > 0 {
		go l.logStats(ctx)
	}

	buffer := make([]byte, maxDatagram)
	for {
		select {
		case <-ctx.Done():
			log.Debug("motion listener stopping")
			return ctx.Err()
		default:
		}

		conn.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout))
		n, from, err := conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return errors.Wrap(err, "motion socket closed")
			}
			log.WithError(err).Warn("udp read error")
			continue
		}
		if err := l.HandleDatagram(buffer[:n]); err != nil {
			log.WithError(err).WithField("from", from).Debug("dropped motion datagram")
		}
	}
}

// HandleDatagram decodes one datagram into the cache. Wrong-length and
// non-finite records are dropped and the cached pose is left alone.
func (l *UDPListener) HandleDatagram(b []byte) error {
	rec, err := DecodeFinite(b)
	if err != nil {
		l.dropped.Add(1)
		return err
	}
	l.received.Add(1)
	l.cfg.Cache.Store(rec)
	return nil
}

func (l *UDPListener) Stats() ListenerStats {
	return ListenerStats{
		Received: l.received.Load(),
		Dropped:  l.dropped.Load(),
	}
}

func (l *UDPListener) logStats(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.LogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := l.Stats()
			logger.Entry(ctx).WithField("received", s.Received).
				WithField("dropped", s.Dropped).
				Info("motion listener stats")
		}
	}
}
