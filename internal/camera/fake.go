package camera

import (
	"errors"

	"github.com/sweeney/marker-interlock/internal/logic"
)

// FakeFrame is a frame whose markers are scripted rather than detected.
type FakeFrame struct {
	Markers []Marker
	Width   int
	Height  int
	Closed  bool
}

// Size returns the scripted frame size.
func (f *FakeFrame) Size() (int, int) {
	return f.Width, f.Height
}

// Close marks the frame as closed.
func (f *FakeFrame) Close() error {
	f.Closed = true
	return nil
}

// FakeSource is a test double that returns scripted frames.
type FakeSource struct {
	// Frames contains the frames to return, in order. Each call to Read()
	// consumes the next frame; once exhausted Read returns ErrExhausted.
	Frames []*FakeFrame

	// index tracks current position in Frames
	index int

	// Reads counts calls to Read.
	Reads int

	// ReadError, if set, will be returned by Read()
	ReadError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeSource creates a FakeSource with the given frames.
func NewFakeSource(frames []*FakeFrame) *FakeSource {
	return &FakeSource{Frames: frames}
}

// FramesWith builds one frame per entry, each holding markers with the
// given ids.
func FramesWith(ids ...[]int) []*FakeFrame {
	frames := make([]*FakeFrame, len(ids))
	for i, set := range ids {
		f := &FakeFrame{Width: 640, Height: 480}
		for _, id := range set {
			f.Markers = append(f.Markers, Marker{ID: logic.MarkerID(id)})
		}
		frames[i] = f
	}
	return frames
}

// Read returns the next scripted frame.
func (f *FakeSource) Read() (Frame, error) {
	f.Reads++
	if f.ReadError != nil {
		return nil, f.ReadError
	}
	if f.index >= len(f.Frames) {
		return nil, ErrExhausted
	}
	frame := f.Frames[f.index]
	f.index++
	return frame, nil
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the source to the first frame.
func (f *FakeSource) Reset() {
	f.index = 0
	f.Reads = 0
	f.Closed = false
}

// FakeDetector reports the markers scripted on a FakeFrame.
type FakeDetector struct {
	// DetectError, if set, will be returned by Detect.
	DetectError error

	// Calls counts calls to Detect.
	Calls int

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDetector creates a FakeDetector.
func NewFakeDetector() *FakeDetector {
	return &FakeDetector{}
}

// Detect returns the frame's scripted markers.
func (d *FakeDetector) Detect(f Frame) ([]Marker, error) {
	d.Calls++
	if d.DetectError != nil {
		return nil, d.DetectError
	}
	ff, ok := f.(*FakeFrame)
	if !ok {
		return nil, errors.New("fake detector: not a FakeFrame")
	}
	return ff.Markers, nil
}

// Close marks the detector as closed.
func (d *FakeDetector) Close() error {
	d.Closed = true
	return nil
}
