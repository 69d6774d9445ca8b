//go:build opencv

package camera

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/sweeney/marker-interlock/internal/logic"
)

// matFrame is a frame backed by an OpenCV matrix.
type matFrame struct {
	mat gocv.Mat
}

func (f *matFrame) Size() (int, int) {
	return f.mat.Cols(), f.mat.Rows()
}

func (f *matFrame) Close() error {
	return f.mat.Close()
}

// RealSource reads frames from a V4L2/DirectShow/AVFoundation camera.
type RealSource struct {
	capture *gocv.VideoCapture
	device  int
}

// OpenSource opens the camera at the given device index. A zero width or
// height keeps the camera's default.
func OpenSource(device, width, height int) (*RealSource, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open camera %d: device not available", device)
	}

	if width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
	}
	if height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}

	return &RealSource{capture: vc, device: device}, nil
}

// Read grabs the next frame.
func (s *RealSource) Read() (Frame, error) {
	m := gocv.NewMat()
	if ok := s.capture.Read(&m); !ok || m.Empty() {
		m.Close()
		return nil, fmt.Errorf("camera %d: %w", s.device, ErrNoFrame)
	}
	return &matFrame{mat: m}, nil
}

// Close releases the camera.
func (s *RealSource) Close() error {
	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.capture = nil
	return err
}

var arucoCodes = map[Dictionary]gocv.ArucoDictionaryCode{
	Dict4x4_50:   gocv.ArucoDict4x4_50,
	Dict4x4_100:  gocv.ArucoDict4x4_100,
	Dict4x4_250:  gocv.ArucoDict4x4_250,
	Dict4x4_1000: gocv.ArucoDict4x4_1000,
	Dict5x5_50:   gocv.ArucoDict5x5_50,
	Dict5x5_100:  gocv.ArucoDict5x5_100,
	Dict5x5_250:  gocv.ArucoDict5x5_250,
	Dict5x5_1000: gocv.ArucoDict5x5_1000,
	Dict6x6_50:   gocv.ArucoDict6x6_50,
	Dict6x6_100:  gocv.ArucoDict6x6_100,
	Dict6x6_250:  gocv.ArucoDict6x6_250,
	Dict6x6_1000: gocv.ArucoDict6x6_1000,
	Dict7x7_50:   gocv.ArucoDict7x7_50,
	Dict7x7_100:  gocv.ArucoDict7x7_100,
	Dict7x7_250:  gocv.ArucoDict7x7_250,
	Dict7x7_1000: gocv.ArucoDict7x7_1000,
	DictOriginal: gocv.ArucoDictArucoOriginal,
}

// ArucoDetector uses OpenCV's ArucoDetector with default parameters.
type ArucoDetector struct {
	detector gocv.ArucoDetector
}

// NewArucoDetector creates a detector for the given dictionary.
func NewArucoDetector(dict Dictionary) (*ArucoDetector, error) {
	code, ok := arucoCodes[dict]
	if !ok {
		return nil, fmt.Errorf("aruco: unknown dictionary %q", dict)
	}
	d := gocv.GetPredefinedDictionary(code)
	params := gocv.NewArucoDetectorParameters()
	return &ArucoDetector{
		detector: gocv.NewArucoDetectorWithParams(d, params),
	}, nil
}

// Detect finds markers in a frame produced by RealSource.
func (a *ArucoDetector) Detect(f Frame) ([]Marker, error) {
	mf, ok := f.(*matFrame)
	if !ok {
		return nil, fmt.Errorf("aruco: unsupported frame type %T", f)
	}
	if mf.mat.Empty() {
		return nil, nil
	}

	corners, ids, _ := a.detector.DetectMarkers(mf.mat)

	markers := make([]Marker, 0, len(ids))
	for i, id := range ids {
		m := Marker{ID: logic.MarkerID(id)}
		if i < len(corners) {
			for j := 0; j < 4 && j < len(corners[i]); j++ {
				m.Corners[j] = Point{X: float64(corners[i][j].X), Y: float64(corners[i][j].Y)}
			}
		}
		markers = append(markers, m)
	}
	return markers, nil
}

// Close releases the detector.
func (a *ArucoDetector) Close() error {
	return a.detector.Close()
}
