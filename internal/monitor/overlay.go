package monitor

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/jedawel/lenssafe/internal/detector"
	"github.com/jedawel/lenssafe/internal/rubbing"
)

const statusBarHeight = 40

var (
	colorBlack  = color.RGBA{0, 0, 0, 0}
	colorRed    = color.RGBA{255, 0, 0, 0}
	colorGreen  = color.RGBA{0, 255, 0, 0}
	colorGray   = color.RGBA{128, 128, 128, 0}
	colorWhite  = color.RGBA{255, 255, 255, 0}
	colorYellow = color.RGBA{255, 255, 0, 0}
)

// overlay is what gets drawn over one frame.
type overlay struct {
	paused    bool
	rubbing   bool
	showFPS   bool
	fps       float64
	face      *detector.FaceLandmarks
	hands     []detector.HandLandmarks
	decisions []rubbing.Decision
}

// drawOverlays annotates frame in place: eye centers, hand skeletons, the
// fingertip of a rubbing hand, then the status bar and detection indicators.
func drawOverlays(frame *gocv.Mat, o overlay) {
	width, height := frame.Cols(), frame.Rows()

	if o.face != nil {
		left, right := rubbing.ExtractEyeRegions(o.face, width, height)
		gocv.Circle(frame, pixel(left.Center), 5, colorYellow, -1)
		gocv.Circle(frame, pixel(right.Center), 5, colorYellow, -1)
	}

	for i := range o.hands {
		drawHand(frame, &o.hands[i], width, height)
	}
	for _, d := range o.decisions {
		if d.Rubbing {
			gocv.Circle(frame, pixel(d.Fingertip.Pos), 8, colorRed, 2)
		}
	}

	status, statusColor := "Monitoring...", colorGreen
	switch {
	case o.paused:
		status, statusColor = "Paused", colorGray
	case o.rubbing:
		status, statusColor = "EYE RUBBING DETECTED!", colorRed
	}

	gocv.Rectangle(frame, image.Rect(0, 0, width, statusBarHeight), colorBlack, -1)
	gocv.PutText(frame, status, image.Pt(10, 25), gocv.FontHersheySimplex, 0.7, statusColor, 2)

	if o.showFPS {
		gocv.PutText(frame, fmt.Sprintf("FPS: %.1f", o.fps), image.Pt(width-120, 25),
			gocv.FontHersheySimplex, 0.6, colorWhite, 2)
	}

	faceFound := o.face != nil
	handsFound := len(o.hands) > 0
	gocv.PutText(frame, "Face: "+mark(faceFound), image.Pt(10, 50),
		gocv.FontHersheySimplex, 0.5, indicatorColor(faceFound), 2)
	gocv.PutText(frame, "Hands: "+mark(handsFound), image.Pt(100, 50),
		gocv.FontHersheySimplex, 0.5, indicatorColor(handsFound), 2)
}

func drawHand(frame *gocv.Mat, hand *detector.HandLandmarks, width, height int) {
	at := func(i int) image.Point {
		p := hand.Points[i]
		return pixel(rubbing.Point2D{X: p.X * float64(width), Y: p.Y * float64(height)})
	}

	for _, c := range detector.HandConnections {
		gocv.Line(frame, at(c[0]), at(c[1]), colorWhite, 2)
	}
	for i := range hand.Points {
		gocv.Circle(frame, at(i), 3, colorGreen, -1)
	}
}

func pixel(p rubbing.Point2D) image.Point {
	return image.Pt(int(p.X), int(p.Y))
}

func mark(found bool) string {
	if found {
		return "yes"
	}
	return "no"
}

func indicatorColor(found bool) color.RGBA {
	if found {
		return colorGreen
	}
	return colorGray
}
