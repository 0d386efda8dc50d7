//go:build !(linux && (amd64 || arm64))

package capture

import (
	"runtime"

	"github.com/Tutortoise/ascii-vtuber/faults"
)

// OpenDevice is only implemented for 64-bit Linux V4L2.
func OpenDevice(path string, want Format) (Source, error) {
	return nil, faults.New(faults.HardwareUnavailable, "V4L2 capture is not supported on %s/%s", runtime.GOOS, runtime.GOARCH)
}
