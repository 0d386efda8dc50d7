//go:build linux && (amd64 || arm64)

package capture

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"github.com/Tutortoise/ascii-vtuber/faults"
	"github.com/Tutortoise/ascii-vtuber/models"
	"golang.org/x/sys/unix"
)

const (
	v4l2BufTypeVideoCapture = 1
	v4l2FieldAny            = 0

	v4l2CapVideoCapture = 0x00000001
	v4l2CapReadWrite    = 0x01000000
	v4l2CapDeviceCaps   = 0x80000000

	maxScanDevices = 10
)

type v4l2Capability struct {
	Driver       [16]uint8
	Card         [32]uint8
	BusInfo      [32]uint8
	Version      uint32
	Capabilities uint32
	DeviceCaps   uint32
	Reserved     [3]uint32
}

type v4l2PixFormat struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	Field        uint32
	BytesPerLine uint32
	SizeImage    uint32
	Colorspace   uint32
	Priv         uint32
	Flags        uint32
	YcbcrEnc     uint32
	Quantization uint32
	XferFunc     uint32
}

// v4l2Format mirrors struct v4l2_format on 64-bit kernels, where the
// 200-byte union is 8-byte aligned.
type v4l2Format struct {
	Type uint32
	_    uint32
	Pix  v4l2PixFormat
	_    [200 - unsafe.Sizeof(v4l2PixFormat{})]byte
}

var (
	vidiocQueryCap = ioc(2, 0, unsafe.Sizeof(v4l2Capability{}))
	vidiocSetFmt   = ioc(3, 5, unsafe.Sizeof(v4l2Format{}))
)

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | uintptr('V')<<8 | nr
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
		if errno == unix.EINTR {
			continue
		}
		if errno != 0 {
			return errno
		}
		return nil
	}
}

// Device is an open V4L2 capture device using read() I/O.
type Device struct {
	path      string
	card      string
	fd        int
	format    Format
	seq       uint64
	closeOnce sync.Once
	closeErr  error
}

// OpenDevice opens path, or the first capture-capable /dev/videoN when path
// is empty, and negotiates packed YUYV at want's resolution.
func OpenDevice(path string, want Format) (Source, error) {
	var (
		d   *Device
		err error
	)
	if path != "" {
		d, err = openDevice(path)
	} else {
		for i := 0; i < maxScanDevices; i++ {
			d, err = openDevice(fmt.Sprintf("/dev/video%d", i))
			if err == nil {
				break
			}
		}
		if d == nil {
			return nil, faults.New(faults.HardwareUnavailable,
				"no suitable video capture device found (tried /dev/video0 to /dev/video%d)", maxScanDevices-1)
		}
	}
	if err != nil {
		return nil, err
	}
	if err := d.negotiate(want); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func openDevice(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, faults.Wrap(faults.HardwareUnavailable, err, "open "+path)
	}
	var caps v4l2Capability
	if err := ioctl(fd, vidiocQueryCap, unsafe.Pointer(&caps)); err != nil {
		unix.Close(fd)
		return nil, faults.Wrap(faults.HardwareUnavailable, err, "VIDIOC_QUERYCAP "+path)
	}
	c := caps.Capabilities
	if c&v4l2CapDeviceCaps != 0 {
		c = caps.DeviceCaps
	}
	if c&v4l2CapVideoCapture == 0 {
		unix.Close(fd)
		return nil, faults.New(faults.HardwareUnavailable, "%s is not a video capture device", path)
	}
	if c&v4l2CapReadWrite == 0 {
		unix.Close(fd)
		return nil, faults.New(faults.HardwareUnavailable, "%s does not support read() I/O", path)
	}
	return &Device{
		path: path,
		card: cString(caps.Card[:]),
		fd:   fd,
	}, nil
}

func (d *Device) negotiate(want Format) error {
	f := v4l2Format{Type: v4l2BufTypeVideoCapture}
	f.Pix.Width = uint32(want.Width)
	f.Pix.Height = uint32(want.Height)
	f.Pix.PixelFormat = PixelFormatYUYV
	f.Pix.Field = v4l2FieldAny
	if err := ioctl(d.fd, vidiocSetFmt, unsafe.Pointer(&f)); err != nil {
		return faults.Wrap(faults.HardwareUnavailable, err, "VIDIOC_S_FMT "+d.path)
	}

	granted := Format{
		Width:       int(f.Pix.Width),
		Height:      int(f.Pix.Height),
		Stride:      int(f.Pix.BytesPerLine),
		FrameSize:   int(f.Pix.SizeImage),
		PixelFormat: f.Pix.PixelFormat,
	}
	if granted.PixelFormat != PixelFormatYUYV {
		return faults.New(faults.HardwareUnavailable, "%s rejected YUYV, granted %s", d.path, granted)
	}
	if granted.Width <= 0 || granted.Height <= 0 || granted.Width%2 != 0 {
		return faults.New(faults.HardwareUnavailable, "%s granted unusable geometry %s", d.path, granted)
	}
	if granted.Stride < granted.Width*2 {
		granted.Stride = granted.Width * 2
	}
	if granted.FrameSize < granted.Stride*granted.Height {
		granted.FrameSize = granted.Stride * granted.Height
	}
	d.format = granted
	return nil
}

func (d *Device) Format() Format { return d.format }

// Card is the driver-reported device name.
func (d *Device) Card() string { return d.card }

// NextFrame blocks in read(2) until the driver hands over one frame.
func (d *Device) NextFrame(ctx context.Context) (models.RawFrame, error) {
	if err := ctx.Err(); err != nil {
		return models.RawFrame{}, err
	}
	buf := make([]byte, d.format.FrameSize)
	var (
		n   int
		err error
	)
	for {
		n, err = unix.Read(d.fd, buf)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return models.RawFrame{}, faults.Wrap(faults.StreamFault, err, "read "+d.path)
	}
	f := d.format
	if n < f.Stride*(f.Height-1)+f.Width*2 {
		return models.RawFrame{}, faults.New(faults.StreamFault, "short read from %s: %d of %d bytes", d.path, n, f.FrameSize)
	}
	d.seq++
	return models.RawFrame{
		Width:  f.Width,
		Height: f.Height,
		Stride: f.Stride,
		Data:   buf[:n],
		Seq:    d.seq,
	}, nil
}

func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = unix.Close(d.fd)
	})
	return d.closeErr
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
