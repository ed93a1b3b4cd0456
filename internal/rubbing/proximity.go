package rubbing

import "math"

// Eye identifies which eye a fingertip was found near.
type Eye string

const (
	EyeNone  Eye = ""
	EyeLeft  Eye = "left"
	EyeRight Eye = "right"
)

// Fingertip is the proximity probe: a pixel position plus the raw landmark depth.
type Fingertip struct {
	Pos   Point2D `json:"pos"`
	Depth float64 `json:"depth"`
}

// IsNearEye reports whether tip is close to eye both in the image plane and in
// depth. The planar distance is normalized by the frame width. A hand passing
// in front of the face is close in 2D but not in depth, and is not near.
func IsNearEye(tip Fingertip, eye EyeRegion, frameWidth int, eyeRubThreshold, depthThreshold float64) bool {
	normalizedDist := distance(tip.Pos, eye.Center) / float64(frameWidth)
	depthDiff := math.Abs(tip.Depth - eye.Depth)
	return normalizedDist < eyeRubThreshold && depthDiff <= depthThreshold
}

// NearestEye applies IsNearEye to both eyes. When the fingertip qualifies for
// both, the closer eye in the image plane is reported; the left eye wins ties.
func NearestEye(tip Fingertip, left, right EyeRegion, frameWidth int, eyeRubThreshold, depthThreshold float64) Eye {
	nearLeft := IsNearEye(tip, left, frameWidth, eyeRubThreshold, depthThreshold)
	nearRight := IsNearEye(tip, right, frameWidth, eyeRubThreshold, depthThreshold)

	switch {
	case nearLeft && nearRight:
		if distance(tip.Pos, right.Center) < distance(tip.Pos, left.Center) {
			return EyeRight
		}
		return EyeLeft
	case nearLeft:
		return EyeLeft
	case nearRight:
		return EyeRight
	default:
		return EyeNone
	}
}
