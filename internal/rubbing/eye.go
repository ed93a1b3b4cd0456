package rubbing

import "github.com/jedawel/lenssafe/internal/detector"

// EyeRegion is the pixel-space center and mean landmark depth of one eye.
type EyeRegion struct {
	Center Point2D `json:"center"`
	Depth  float64 `json:"depth"`
}

// ExtractEyeRegions derives both eye regions from a face mesh for a frame of
// the given pixel size. Centers are scaled to pixels; depths stay in the raw
// landmark z units.
func ExtractEyeRegions(face *detector.FaceLandmarks, width, height int) (left, right EyeRegion) {
	left = eyeRegion(face, detector.LeftEyeIndices, width, height)
	right = eyeRegion(face, detector.RightEyeIndices, width, height)
	return left, right
}

func eyeRegion(face *detector.FaceLandmarks, indices [7]int, width, height int) EyeRegion {
	var sx, sy, sz float64
	for _, idx := range indices {
		p := face.Points[idx]
		sx += p.X * float64(width)
		sy += p.Y * float64(height)
		sz += p.Z
	}

	n := float64(len(indices))
	return EyeRegion{
		Center: Point2D{X: sx / n, Y: sy / n},
		Depth:  sz / n,
	}
}
