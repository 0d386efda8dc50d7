package motion

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/Tutortoise/ascii-vtuber/faults"
	"github.com/Tutortoise/ascii-vtuber/logger"
	"github.com/Tutortoise/ascii-vtuber/timeutil"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"
)

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// ReplayConfig drives a pcap replay into a LastKnown cache.
type ReplayConfig struct {
	Path  string
	Port  int
	Cache *LastKnown
	// Realtime sleeps between records according to capture timestamps.
	Realtime bool
	Clock    timeutil.Clock
}

type ReplayStats struct {
	Packets  int
	Records  int
	Dropped  int
	Duration time.Duration
}

// Replay feeds UDP payloads addressed to cfg.Port from a pcap or pcapng
// file through DecodeFinite and into the cache, in capture order.
func Replay(ctx context.Context, cfg ReplayConfig) (ReplayStats, error) {
	var stats ReplayStats
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	log := logger.Entry(ctx).WithField("replay", cfg.Path)

	f, err := os.Open(cfg.Path)
	if err != nil {
		return stats, errors.Wrap(err, "open capture")
	}
	defer f.Close()

	r, err := openPacketReader(f)
	if err != nil {
		return stats, err
	}

	var first, prev time.Time
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		data, ci, err := r.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, errors.Wrap(err, "read capture")
		}
		stats.Packets++

		payload, ok := udpPayload(data, r.LinkType(), cfg.Port)
		if !ok {
			continue
		}
		rec, err := DecodeFinite(payload)
		if err != nil {
			stats.Dropped++
			continue
		}

		if first.IsZero() {
			first = ci.Timestamp
		} else if cfg.Realtime {
			if err := cfg.Clock.SleepContext(ctx, ci.Timestamp.Sub(prev)); err != nil {
				return stats, err
			}
		}
		prev = ci.Timestamp
		cfg.Cache.Store(rec)
		stats.Records++
	}
	stats.Duration = prev.Sub(first)
	log.WithField("packets", stats.Packets).
		WithField("records", stats.Records).
		WithField("dropped", stats.Dropped).
		Info("replay complete")
	return stats, nil
}

func openPacketReader(f *os.File) (packetReader, error) {
	br := bufio.NewReader(f)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, faults.Wrap(faults.ProtocolDecodeFault, err, "read capture header")
	}
	// pcapng files open with a section header block.
	if magic[0] == 0x0a && magic[1] == 0x0d && magic[2] == 0x0d && magic[3] == 0x0a {
		r, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, faults.Wrap(faults.ProtocolDecodeFault, err, "pcapng header")
		}
		return r, nil
	}
	r, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, faults.Wrap(faults.ProtocolDecodeFault, err, "pcap header")
	}
	return r, nil
}

func udpPayload(data []byte, link layers.LinkType, port int) ([]byte, bool) {
	packet := gopacket.NewPacket(data, link, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return nil, false
	}
	udp, ok := udpLayer.(*layers.UDP)
	if !ok || int(udp.DstPort) != port {
		return nil, false
	}
	return udp.Payload, true
}
