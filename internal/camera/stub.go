//go:build !opencv

package camera

// RealSource is not available without OpenCV.
type RealSource struct{}

// OpenSource returns ErrNotSupported when built without the opencv tag.
func OpenSource(device, width, height int) (*RealSource, error) {
	return nil, ErrNotSupported
}

// Read is not implemented without OpenCV.
func (s *RealSource) Read() (Frame, error) {
	return nil, ErrNotSupported
}

// Close is not implemented without OpenCV.
func (s *RealSource) Close() error {
	return nil
}

// ArucoDetector is not available without OpenCV.
type ArucoDetector struct{}

// NewArucoDetector returns ErrNotSupported when built without the opencv tag.
func NewArucoDetector(dict Dictionary) (*ArucoDetector, error) {
	return nil, ErrNotSupported
}

// Detect is not implemented without OpenCV.
func (a *ArucoDetector) Detect(f Frame) ([]Marker, error) {
	return nil, ErrNotSupported
}

// Close is not implemented without OpenCV.
func (a *ArucoDetector) Close() error {
	return nil
}
