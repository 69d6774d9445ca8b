// Package camera provides frame capture and fiducial marker detection with
// hardware abstraction.
// The real implementation uses OpenCV through gocv and is only compiled with
// the "opencv" build tag. The fake implementation allows testing without a
// camera.
package camera

import (
	"errors"

	"github.com/sweeney/marker-interlock/internal/logic"
)

var (
	// ErrNoFrame is returned when the camera delivered no image.
	ErrNoFrame = errors.New("camera: unable to read frame")

	// ErrExhausted is returned by sources that have no more frames.
	ErrExhausted = errors.New("camera: source exhausted")

	// ErrNotSupported is returned when the binary was built without OpenCV.
	ErrNotSupported = errors.New("camera: not supported (build with -tags opencv)")
)

// Frame is a single captured image. Frames may hold native memory and must
// be closed once detection is done.
type Frame interface {
	Size() (width, height int)
	Close() error
}

// Source yields frames on request.
type Source interface {
	// Read blocks until the next frame is available.
	Read() (Frame, error)

	// Close releases the camera.
	Close() error
}

// Detector finds fiducial markers in a frame.
type Detector interface {
	// Detect returns the markers visible in f, possibly none.
	Detect(f Frame) ([]Marker, error)

	// Close releases detector resources.
	Close() error
}

// Point is an image coordinate in pixels.
type Point struct {
	X, Y float64
}

// Marker is one detected fiducial: its id and its four corners in
// clockwise order starting top-left.
type Marker struct {
	ID      logic.MarkerID
	Corners [4]Point
}

// Center returns the mean of the corners.
func (m Marker) Center() Point {
	var c Point
	for _, p := range m.Corners {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= 4
	c.Y /= 4
	return c
}

// ToDetection collects the marker ids into a detection.
func ToDetection(markers []Marker) logic.Detection {
	ids := make([]logic.MarkerID, len(markers))
	for i, m := range markers {
		ids[i] = m.ID
	}
	return logic.NewDetection(ids...)
}
