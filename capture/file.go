package capture

import (
	"context"
	"io"
	"os"

	"github.com/Tutortoise/ascii-vtuber/faults"
	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/pkg/errors"
)

// FileSource replays a raw dump of back-to-back YUYV frames.
type FileSource struct {
	path   string
	f      *os.File
	format Format
	loop   bool
	seq    uint64
}

// OpenFile opens a raw YUYV dump whose frames have want's geometry. With
// loop set, reaching the end rewinds to the first frame.
func OpenFile(path string, want Format, loop bool) (*FileSource, error) {
	format := YUYVFormat(want.Width, want.Height)
	if format.Width <= 0 || format.Height <= 0 || format.Width%2 != 0 {
		return nil, faults.New(faults.HardwareUnavailable, "invalid frame geometry %dx%d", want.Width, want.Height)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, faults.Wrap(faults.HardwareUnavailable, err, "open frame dump")
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, faults.Wrap(faults.HardwareUnavailable, err, "stat frame dump")
	}
	if st.Size() < int64(format.FrameSize) {
		f.Close()
		return nil, faults.New(faults.HardwareUnavailable, "%s holds no complete %s frame", path, format)
	}
	return &FileSource{path: path, f: f, format: format, loop: loop}, nil
}

func (s *FileSource) Format() Format { return s.format }

func (s *FileSource) NextFrame(ctx context.Context) (models.RawFrame, error) {
	if err := ctx.Err(); err != nil {
		return models.RawFrame{}, err
	}
	buf := make([]byte, s.format.FrameSize)
	_, err := io.ReadFull(s.f, buf)
	if err == io.EOF && s.loop {
		if _, serr := s.f.Seek(0, io.SeekStart); serr != nil {
			return models.RawFrame{}, faults.Wrap(faults.StreamFault, serr, "rewind "+s.path)
		}
		_, err = io.ReadFull(s.f, buf)
	}
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return models.RawFrame{}, faults.New(faults.StreamFault, "truncated frame in %s", s.path)
		}
		return models.RawFrame{}, faults.Wrap(faults.StreamFault, err, "read "+s.path)
	}
	s.seq++
	return models.RawFrame{
		Width:  s.format.Width,
		Height: s.format.Height,
		Stride: s.format.Stride,
		Data:   buf,
		Seq:    s.seq,
	}, nil
}

func (s *FileSource) Close() error {
	return s.f.Close()
}
