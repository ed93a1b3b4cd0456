package monitor

import "gocv.io/x/gocv"

// Display shows annotated frames to a local viewer. Run calls Show and Close
// from a single OS thread.
type Display interface {
	// Show presents frame and reports false once the viewer asked to stop.
	Show(frame *gocv.Mat) bool
	Close() error
}

// Window is a Display backed by a HighGUI window. Pressing q closes it.
// The window is created on the first Show so that it lives on the thread
// that draws it.
type Window struct {
	name   string
	window *gocv.Window
}

// NewWindow returns a Window titled name.
func NewWindow(name string) *Window {
	return &Window{name: name}
}

// Show draws frame and polls the keyboard for one millisecond.
func (w *Window) Show(frame *gocv.Mat) bool {
	if w.window == nil {
		w.window = gocv.NewWindow(w.name)
	}
	w.window.IMShow(*frame)
	return w.window.WaitKey(1)&0xFF != 'q'
}

// Close destroys the window if it was ever shown.
func (w *Window) Close() error {
	if w.window == nil {
		return nil
	}
	return w.window.Close()
}
