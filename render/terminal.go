package render

import (
	"bytes"
	"io"
	"sync"

	"github.com/pkg/errors"
)

const (
	DefaultCols = 80
	DefaultRows = 24

	escHome       = "\x1b[H"
	escClear      = "\x1b[2J"
	escHideCursor = "\x1b[?25l"
	escShowCursor = "\x1b[?25h"
	escReset      = "\x1b[0m"
)

// Terminal writes whole frames to an ANSI terminal.
type Terminal struct {
	out io.Writer
	fd  int
	buf bytes.Buffer
}

// NewTerminal writes to out and queries the window size of fd.
func NewTerminal(out io.Writer, fd int) *Terminal {
	return &Terminal{out: out, fd: fd}
}

// Size reports the viewport in character cells.
func (t *Terminal) Size() (cols, rows int, err error) {
	cols, rows, err = termSize(t.fd)
	if err != nil {
		return 0, 0, err
	}
	if cols <= 0 || rows <= 0 {
		return 0, 0, errors.Errorf("terminal reports %dx%d", cols, rows)
	}
	return cols, rows, nil
}

// SizeOrDefault falls back to 80×24 when the size cannot be read.
func (t *Terminal) SizeOrDefault() (cols, rows int) {
	cols, rows, err := t.Size()
	if err != nil {
		return DefaultCols, DefaultRows
	}
	return cols, rows
}

// HideCursor clears the screen and hides the cursor. The returned function
// shows it again and is safe to call more than once.
func (t *Terminal) HideCursor() (restore func(), err error) {
	if _, err := io.WriteString(t.out, escClear+escHome+escHideCursor); err != nil {
		return func() {}, errors.Wrap(err, "hide cursor")
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			io.WriteString(t.out, escReset+escShowCursor+"\r\n")
		})
	}, nil
}

// Flush homes the cursor and writes every row of fb in a single write.
func (t *Terminal) Flush(fb *FrameBuffer) error {
	t.buf.Reset()
	t.buf.Grow(len(escHome) + fb.Height*(fb.Width+2))
	t.buf.WriteString(escHome)
	for y := 0; y < fb.Height; y++ {
		if y > 0 {
			t.buf.WriteString("\r\n")
		}
		t.buf.Write(fb.Row(y))
	}
	_, err := t.out.Write(t.buf.Bytes())
	return errors.Wrap(err, "write frame")
}
