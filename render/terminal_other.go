//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package render

import "github.com/pkg/errors"

func termSize(int) (int, int, error) {
	return 0, 0, errors.New("terminal size not supported on this platform")
}
