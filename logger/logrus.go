package logger

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

type ctxKey int

const (
	ctxKeyLog ctxKey = iota
)

// New builds the process logger. Debug lowers the level so per-frame timings are emitted.
func New(out io.Writer, debug bool) *logrus.Logger {
	log := logrus.New()
	log.Out = out
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	log.Level = logrus.InfoLevel
	if debug {
		log.Level = logrus.DebugLevel
	}
	return log
}

// Entry returns the entry stored by WithLogEntry, or an entry on the standard logger.
func Entry(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(ctxKeyLog).(*logrus.Entry); ok {
		return e
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func WithLogEntry(ctx context.Context, e *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKeyLog, e)
}
