package camera

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/marker-interlock/internal/logic"
)

func TestFakeSourceRead(t *testing.T) {
	src := NewFakeSource(FramesWith([]int{1}, nil, []int{2, 3}))

	for i, wantLen := range []int{1, 0, 2} {
		f, err := src.Read()
		if err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
		ff := f.(*FakeFrame)
		if len(ff.Markers) != wantLen {
			t.Errorf("frame %d: expected %d markers, got %d", i, wantLen, len(ff.Markers))
		}
	}

	if _, err := src.Read(); !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted after last frame, got %v", err)
	}
	if src.Reads != 4 {
		t.Errorf("expected 4 reads, got %d", src.Reads)
	}
}

func TestFakeSourceError(t *testing.T) {
	src := NewFakeSource(FramesWith([]int{1}))
	src.ReadError = errors.New("simulated error")

	if _, err := src.Read(); err == nil || err.Error() != "simulated error" {
		t.Errorf("expected simulated error, got %v", err)
	}
}

func TestFakeSourceCloseAndReset(t *testing.T) {
	src := NewFakeSource(FramesWith([]int{1}))
	src.Read()
	src.Close()
	if !src.Closed {
		t.Error("should be closed after Close()")
	}

	src.Reset()
	if src.Closed {
		t.Error("Reset should clear Closed")
	}
	if _, err := src.Read(); err != nil {
		t.Errorf("expected first frame again after Reset, got %v", err)
	}
}

func TestFakeDetector(t *testing.T) {
	det := NewFakeDetector()
	frame := FramesWith([]int{0, 2})[0]

	markers, err := det.Detect(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := ToDetection(markers)
	if !d.Contains(0) || !d.Contains(2) || d.Contains(1) {
		t.Errorf("unexpected detection %v", d.IDs())
	}

	det.DetectError = errors.New("bad frame")
	if _, err := det.Detect(frame); err == nil {
		t.Error("expected detect error")
	}
	if det.Calls != 2 {
		t.Errorf("expected 2 calls, got %d", det.Calls)
	}
}

func TestMarkerCenter(t *testing.T) {
	m := Marker{Corners: [4]Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}}
	c := m.Center()
	if c.X != 5 || c.Y != 5 {
		t.Errorf("Center: got %+v, want {5 5}", c)
	}
}

func TestToDetectionEmpty(t *testing.T) {
	if !ToDetection(nil).Empty() {
		t.Error("no markers should give an empty detection")
	}
}

func TestParseDictionary(t *testing.T) {
	tests := []struct {
		in   string
		want Dictionary
	}{
		{"4x4_250", Dict4x4_250},
		{"DICT_4X4_250", Dict4x4_250},
		{" 5x5_100 ", Dict5x5_100},
		{"original", DictOriginal},
		{"DICT_ARUCO_ORIGINAL", DictOriginal},
	}
	for _, tt := range tests {
		got, err := ParseDictionary(tt.in)
		if err != nil {
			t.Errorf("ParseDictionary(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDictionary(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseDictionary("3x3_10"); err == nil {
		t.Error("expected error for unknown dictionary")
	}
	if Dict4x4_250.Size() != 250 {
		t.Errorf("Size: got %d, want 250", Dict4x4_250.Size())
	}
}

func TestDictionaryCheckMarkers(t *testing.T) {
	tests := []struct {
		dict    Dictionary
		markers string
		ok      bool
	}{
		{Dict4x4_50, "0-3", true},
		{Dict4x4_50, "0-49", true},
		{Dict4x4_50, "0-99", false},
		{Dict4x4_50, "75", false},
		{Dict4x4_1000, "0-99", true},
		{DictOriginal, "1023", true},
	}
	for _, tt := range tests {
		set, err := logic.ParseMarkerSet(tt.markers)
		if err != nil {
			t.Fatalf("ParseMarkerSet(%q): %v", tt.markers, err)
		}
		err = tt.dict.CheckMarkers(set)
		if (err == nil) != tt.ok {
			t.Errorf("%s.CheckMarkers(%s): got %v, want ok=%v", tt.dict, tt.markers, err, tt.ok)
		}
	}
}

// flakySource fails the first n reads.
type flakySource struct {
	inner Source
	fails int
	calls int
}

func (s *flakySource) Read() (Frame, error) {
	s.calls++
	if s.calls <= s.fails {
		return nil, ErrNoFrame
	}
	return s.inner.Read()
}

func (s *flakySource) Close() error { return s.inner.Close() }

func TestRetrySourceRecovers(t *testing.T) {
	flaky := &flakySource{inner: NewFakeSource(FramesWith([]int{1})), fails: 2}
	src := NewRetrySource(flaky, 3, time.Millisecond)

	f, err := src.Read()
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if f == nil {
		t.Fatal("expected a frame")
	}
	if flaky.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", flaky.calls)
	}
}

func TestRetrySourceGivesUp(t *testing.T) {
	flaky := &flakySource{inner: NewFakeSource(FramesWith([]int{1})), fails: 10}
	src := NewRetrySource(flaky, 2, time.Millisecond)

	_, err := src.Read()
	if !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame, got %v", err)
	}
	if flaky.calls != 3 {
		t.Errorf("expected 1 attempt + 2 retries, got %d", flaky.calls)
	}
}

func TestRetrySourceZeroRetriesIsFatal(t *testing.T) {
	flaky := &flakySource{inner: NewFakeSource(FramesWith([]int{1})), fails: 1}
	src := NewRetrySource(flaky, 0, time.Millisecond)

	if _, err := src.Read(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected immediate ErrNoFrame, got %v", err)
	}
	if flaky.calls != 1 {
		t.Errorf("expected a single attempt, got %d", flaky.calls)
	}
}

func TestRetrySourceDoesNotRetryExhausted(t *testing.T) {
	inner := NewFakeSource(nil)
	src := NewRetrySource(inner, 5, time.Millisecond)

	if _, err := src.Read(); !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted, got %v", err)
	}
	if inner.Reads != 1 {
		t.Errorf("expected no retries for exhausted source, got %d reads", inner.Reads)
	}

	src.Close()
	if !inner.Closed {
		t.Error("Close should close the wrapped source")
	}
}
