package motion

import (
	"sync"
	"time"

	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/Tutortoise/ascii-vtuber/timeutil"
)

// Snapshot is the cached record plus local bookkeeping. Seq counts accepted
// records since start; Age is measured on the cache's clock.
type Snapshot struct {
	Record   models.MotionRecord
	Seq      uint64
	Received time.Time
	Age      time.Duration
}

// LastKnown holds the most recent decoded record. It is the only state
// shared between the receiving goroutine and the render loop.
type LastKnown struct {
	mu       sync.RWMutex
	clock    timeutil.Clock
	record   models.MotionRecord
	seq      uint64
	received time.Time
}

func NewLastKnown(clock timeutil.Clock) *LastKnown {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &LastKnown{clock: clock}
}

// Store replaces the cached record and returns its sequence number.
func (c *LastKnown) Store(rec models.MotionRecord) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.record = rec
	c.received = c.clock.Now()
	return c.seq
}

// Latest returns the cached record, or false before the first Store.
func (c *LastKnown) Latest() (models.MotionRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record, c.seq > 0
}

func (c *LastKnown) Snapshot() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.seq == 0 {
		return Snapshot{}, false
	}
	return Snapshot{
		Record:   c.record,
		Seq:      c.seq,
		Received: c.received,
		Age:      c.clock.Since(c.received),
	}, true
}

// Reset forgets the cached record.
func (c *LastKnown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record = models.MotionRecord{}
	c.seq = 0
	c.received = time.Time{}
}
