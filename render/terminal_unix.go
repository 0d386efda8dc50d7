//go:build linux || darwin || freebsd || netbsd || openbsd

package render

import "golang.org/x/sys/unix"

func termSize(fd int) (int, int, error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Col), int(ws.Row), nil
}
