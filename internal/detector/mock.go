package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results, either as a single
// fixed observation or as a script consumed one frame at a time.
type MockDetector struct {
	mu     sync.Mutex
	obs    *Observation
	script []*Observation
	err    error
	calls  int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetObservation sets the observation returned by every Detect call.
func (m *MockDetector) SetObservation(obs *Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = obs
}

// SetScript queues observations returned by successive Detect calls. Once the
// script is exhausted the fixed observation is returned.
func (m *MockDetector) SetScript(script []*Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append([]*Observation(nil), script...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next scripted observation, the fixed observation or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next, nil
	}
	if m.obs == nil {
		return &Observation{}, nil
	}
	return m.obs, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// FaceFixture returns a face whose left and right eye landmarks all sit on the
// given image-relative positions at the given depth. Every other landmark is
// placed between the eyes at the same depth.
func FaceFixture(leftX, leftY, rightX, rightY, depth float64) *FaceLandmarks {
	face := &FaceLandmarks{}

	mid := Point3D{X: (leftX + rightX) / 2, Y: (leftY + rightY) / 2, Z: depth}
	for i := range face.Points {
		face.Points[i] = mid
	}
	for _, idx := range LeftEyeIndices {
		face.Points[idx] = Point3D{X: leftX, Y: leftY, Z: depth}
	}
	for _, idx := range RightEyeIndices {
		face.Points[idx] = Point3D{X: rightX, Y: rightY, Z: depth}
	}

	return face
}

// HandAt returns a hand whose index fingertip is at (x, y, z). The remaining
// landmarks trail below the fingertip like a raised pointing finger.
func HandAt(handedness string, x, y, z float64) HandLandmarks {
	hand := HandLandmarks{
		Handedness: handedness,
		Score:      0.95,
	}

	for i := 0; i < NumLandmarks; i++ {
		hand.Points[i] = Point3D{X: x, Y: y + 0.02*float64(NumLandmarks-i), Z: z}
	}
	hand.Points[IndexTip] = Point3D{X: x, Y: y, Z: z}

	return hand
}
