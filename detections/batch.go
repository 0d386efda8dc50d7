package detections

import "fmt"

// BatchStrategy fills the batch dimension of an input tensor from the newest
// single-frame tensor.
type BatchStrategy interface {
	Fill(dst, frame []float32, n int)
	Name() string
}

const (
	StrategyReplicate = "replicate"
	StrategyRing      = "ring"
)

func NewBatchStrategy(name string, n int) (BatchStrategy, error) {
	switch name {
	case "", StrategyReplicate:
		return Replicate{}, nil
	case StrategyRing:
		return NewRingBuffer(n), nil
	default:
		return nil, fmt.Errorf("unknown batch strategy %q", name)
	}
}

// Replicate copies the newest frame into every batch slot. It is not a
// temporal batch; it only satisfies a fixed batch-size network.
type Replicate struct{}

func (Replicate) Name() string { return StrategyReplicate }

func (Replicate) Fill(dst, frame []float32, n int) {
	for i := 0; i < n; i++ {
		copy(dst[i*len(frame):(i+1)*len(frame)], frame)
	}
}

// RingBuffer keeps the last n frames and lays them out oldest first. Until n
// frames have been seen, the leading slots repeat the oldest frame.
type RingBuffer struct {
	frames [][]float32
	next   int
	count  int
}

func NewRingBuffer(n int) *RingBuffer {
	if n < 1 {
		n = 1
	}
	return &RingBuffer{frames: make([][]float32, n)}
}

func (r *RingBuffer) Name() string { return StrategyRing }

func (r *RingBuffer) Fill(dst, frame []float32, n int) {
	size := len(r.frames)
	if r.frames[r.next] == nil || len(r.frames[r.next]) != len(frame) {
		r.frames[r.next] = make([]float32, len(frame))
	}
	copy(r.frames[r.next], frame)
	r.next = (r.next + 1) % size
	if r.count < size {
		r.count++
	}

	oldest := (r.next - r.count + size) % size
	pad := n - r.count
	for slot := 0; slot < n; slot++ {
		idx := oldest
		if slot >= pad {
			idx = (oldest + slot - pad) % size
		}
		copy(dst[slot*len(frame):(slot+1)*len(frame)], r.frames[idx])
	}
}
