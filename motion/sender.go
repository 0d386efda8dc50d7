package motion

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/Tutortoise/ascii-vtuber/logger"
	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/pkg/errors"
)

// Sender emits one datagram per record over an unconnected socket, so a
// missing receiver never surfaces as ECONNREFUSED on later sends.
type Sender struct {
	conn   *net.UDPConn
	dst    *net.UDPAddr
	sent   atomic.Uint64
	failed atomic.Uint64
}

func NewSender(addr string) (*Sender, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	dst, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "resolve motion address")
	}
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, errors.Wrap(err, "open motion socket")
	}
	return &Sender{conn: conn, dst: dst}, nil
}

// Send writes rec once. Failures are logged and counted; the caller should
// carry on with the next frame.
func (s *Sender) Send(ctx context.Context, rec models.MotionRecord) error {
	if _, err := s.conn.WriteToUDP(Encode(rec), s.dst); err != nil {
		s.failed.Add(1)
		logger.Entry(ctx).WithError(err).WithField("dst", s.dst.String()).Warn("motion send failed")
		return errors.Wrap(err, "send motion record")
	}
	s.sent.Add(1)
	return nil
}

// Counts returns the number of successful and failed sends.
func (s *Sender) Counts() (sent, failed uint64) {
	return s.sent.Load(), s.failed.Load()
}

func (s *Sender) Close() error {
	return s.conn.Close()
}
