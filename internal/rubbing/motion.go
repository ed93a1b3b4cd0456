package rubbing

// MotionTracker keeps a bounded history of a tracked point and reports its
// smoothed velocity. It is not safe for concurrent use.
type MotionTracker struct {
	history  []Point2D
	capacity int
}

// NewMotionTracker creates a tracker that remembers at most capacity
// positions. A capacity below 1 is treated as 1.
func NewMotionTracker(capacity int) *MotionTracker {
	if capacity < 1 {
		capacity = 1
	}
	return &MotionTracker{
		history:  make([]Point2D, 0, capacity),
		capacity: capacity,
	}
}

// Observe records p and returns the mean distance between consecutive
// positions in the window, in pixels. With fewer than two positions recorded
// it returns 0.
func (m *MotionTracker) Observe(p Point2D) float64 {
	if len(m.history) == m.capacity {
		copy(m.history, m.history[1:])
		m.history = m.history[:m.capacity-1]
	}
	m.history = append(m.history, p)

	if len(m.history) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(m.history); i++ {
		total += distance(m.history[i-1], m.history[i])
	}
	return total / float64(len(m.history)-1)
}

// Reset forgets every recorded position.
func (m *MotionTracker) Reset() {
	m.history = m.history[:0]
}

// Len returns the number of recorded positions.
func (m *MotionTracker) Len() int {
	return len(m.history)
}

// Capacity returns the maximum number of positions kept.
func (m *MotionTracker) Capacity() int {
	return m.capacity
}
