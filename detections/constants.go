package detections

const (
	InputWidth    = 32
	InputHeight   = 32
	InputChannels = 3
	DefaultBatch  = 1
	ConfThreshold = 0.5
)
