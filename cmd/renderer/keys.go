package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/Tutortoise/ascii-vtuber/logger"
	"github.com/Tutortoise/ascii-vtuber/motion"
	"github.com/Tutortoise/ascii-vtuber/render"
	"github.com/mattn/go-tty"
)

type kmt = map[rune]struct {
	cb   func(context.Context)
	desc string
}

func keyMap(quit context.CancelFunc, r *render.Renderer, cache *motion.LastKnown) kmt {
	keys := kmt{
		'q': {
			cb:   func(context.Context) { quit() },
			desc: "Quit",
		},
		's': {
			cb: func(ctx context.Context) {
				logger.Entry(ctx).WithField("shade", r.ToggleShade()).Debug("shading toggled")
			},
			desc: "Toggle shading",
		},
		'r': {
			cb: func(context.Context) {
				cache.Reset()
				r.ResetRotation()
			},
			desc: "Forget the pose and restart auto-rotation",
		},
	}
	keys['?'] = struct {
		cb   func(context.Context)
		desc string
	}{
		desc: "Help",
		cb: func(context.Context) {
			runes := make([]rune, 0, len(keys))
			for k := range keys {
				runes = append(runes, k)
			}
			sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
			for _, k := range runes {
				fmt.Fprintf(os.Stderr, "%s\t%s\r\n", string(k), keys[k].desc)
			}
		},
	}
	return keys
}

type runeReader interface {
	ReadRune() (rune, error)
}

// openKeys puts the controlling terminal into raw key mode. The caller owns
// the returned tty and must Close it to restore echo and line mode.
func openKeys(ctx context.Context) *tty.TTY {
	t, err := tty.Open()
	if err != nil {
		logger.Entry(ctx).WithError(err).Warn("keys disabled")
		return nil
	}
	return t
}

// scanKeys dispatches key presses until the reader fails. Closing the tty
// is what unblocks it.
func scanKeys(ctx context.Context, in runeReader, keys kmt) {
	for {
		r, err := in.ReadRune()
		if err != nil {
			if ctx.Err() == nil {
				logger.Entry(ctx).WithError(err).Warn("key input stopped")
			}
			return
		}
		h, ok := keys[r]
		if !ok {
			continue
		}
		h.cb(ctx)
	}
}
