package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	sceneBlurSize      = 21
	scenePixelDelta    = 25
	sceneMaxPercentage = 100.0
)

// SceneGate tells whether a frame differs visibly from the previous one.
// Frames are compared as blurred grayscale images; a pixel counts as changed
// when its intensity moved by more than 25 levels.
type SceneGate struct {
	threshold float64
	prev      gocv.Mat
	primed    bool
	mu        sync.Mutex
}

// NewSceneGate creates a gate that reports a change when more than
// threshold percent of the pixels changed.
func NewSceneGate(threshold float64) *SceneGate {
	return &SceneGate{
		threshold: threshold,
		prev:      gocv.NewMat(),
	}
}

// Changed compares frame with the previous frame and remembers it. The first
// frame, and every frame after Reset, counts as changed.
func (g *SceneGate) Changed(frame *gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: sceneBlurSize, Y: sceneBlurSize}, 0, 0, gocv.BorderDefault)

	if !g.primed || g.prev.Rows() != blurred.Rows() || g.prev.Cols() != blurred.Cols() {
		g.swap(blurred)
		return true, sceneMaxPercentage
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prev, &diff)
	gocv.Threshold(diff, &diff, scenePixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	g.swap(blurred)

	return changed > g.threshold, changed
}

// swap makes m the reference frame, taking ownership of it.
func (g *SceneGate) swap(m gocv.Mat) {
	g.prev.Close()
	g.prev = m
	g.primed = true
}

// Reset forgets the reference frame.
func (g *SceneGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prev.Close()
	g.prev = gocv.NewMat()
	g.primed = false
}

// Close releases the reference frame.
func (g *SceneGate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.primed = false
	return g.prev.Close()
}
