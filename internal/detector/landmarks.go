// Package detector provides face and hand landmark types and the perception
// interfaces that produce them.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// HandConnections lists the landmark pairs joined when a hand skeleton is drawn.
var HandConnections = [][2]int{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// NumFaceLandmarks is the size of a MediaPipe face mesh with refined iris landmarks.
const NumFaceLandmarks = 478

// Eye contour subsets of the face mesh. The points sit around the center of
// each eye opening; their mean is used as the eye center.
var (
	LeftEyeIndices  = [7]int{33, 133, 160, 159, 158, 157, 173}
	RightEyeIndices = [7]int{362, 263, 387, 386, 385, 384, 398}
)

// Point3D represents a 3D point in space with x, y, z coordinates.
// For landmarks x and y are image-relative in [0,1] and z is a relative
// depth where more negative values are closer to the camera.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// IsFinite reports whether all three coordinates are finite numbers.
func (p Point3D) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Z) && !math.IsInf(p.Z, 0)
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// FaceLandmarks represents a single face mesh.
type FaceLandmarks struct {
	Points [NumFaceLandmarks]Point3D `json:"points"`
}

// Observation is everything the perception pipeline found in one frame.
// Face is nil when no face was detected.
type Observation struct {
	Face  *FaceLandmarks  `json:"face,omitempty"`
	Hands []HandLandmarks `json:"hands"`
}

// HasFace reports whether a face was detected.
func (o *Observation) HasFace() bool {
	return o != nil && o.Face != nil
}

// HasHands reports whether at least one hand was detected.
func (o *Observation) HasHands() bool {
	return o != nil && len(o.Hands) > 0
}
