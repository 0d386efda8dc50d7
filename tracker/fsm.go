package tracker

import (
	"context"

	"github.com/Tutortoise/ascii-vtuber/logger"
	"github.com/looplab/fsm"
)

const (
	StateSearching = "searching"
	StateTracking  = "tracking"

	EventFound  = "found"
	EventMissed = "missed"
)

func newFSM(ctx context.Context, m *Metrics) *fsm.FSM {
	return fsm.NewFSM(
		StateSearching,
		fsm.Events{
			{Name: EventFound, Src: []string{StateSearching, StateTracking}, Dst: StateTracking},
			{Name: EventMissed, Src: []string{StateSearching, StateTracking}, Dst: StateSearching},
		},
		fsm.Callbacks{
			"after_event": func(e *fsm.Event) {
				if e.Src == e.Dst {
					return
				}
				m.setState(e.Dst)
				logger.Entry(ctx).WithField("from", e.Src).
					WithField("to", e.Dst).
					Infof("[%s -> %s] %s", e.Src, e.Dst, e.Event)
			},
		},
	)
}

func (t *Tracker) pushEvent(ctx context.Context, event string) {
	err := t.fsm.Event(event)
	if _, ok := err.(fsm.NoTransitionError); err != nil && !ok {
		logger.Entry(ctx).WithError(err).WithField("state", t.fsm.Current()).Warn("state machine event")
	}
}
