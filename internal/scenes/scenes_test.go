package scenes

import (
	"math"
	"testing"
)

func TestBuildIntervals(t *testing.T) {
	intervals := BuildIntervals([]float64{2.5, 7.0, 11.25}, 20.0, 25)

	if len(intervals) != 4 {
		t.Fatalf("got %d intervals, want 4", len(intervals))
	}

	// Full coverage: starts at 0, ends at duration, each start equals
	// the previous end
	if intervals[0].Start.Seconds != 0 {
		t.Errorf("first interval starts at %v", intervals[0].Start.Seconds)
	}
	if intervals[len(intervals)-1].End.Seconds != 20.0 {
		t.Errorf("last interval ends at %v", intervals[len(intervals)-1].End.Seconds)
	}
	for i := 1; i < len(intervals); i++ {
		if intervals[i].Start.Seconds != intervals[i-1].End.Seconds {
			t.Errorf("gap between interval %d and %d: %v != %v",
				i-1, i, intervals[i-1].End.Seconds, intervals[i].Start.Seconds)
		}
	}
	for i, iv := range intervals {
		if iv.Duration() <= 0 {
			t.Errorf("interval %d has non-positive duration %v", i, iv.Duration())
		}
	}
}

func TestBuildIntervalsNoChanges(t *testing.T) {
	intervals := BuildIntervals(nil, 12.5, 30)

	if len(intervals) != 1 {
		t.Fatalf("got %d intervals, want 1", len(intervals))
	}
	if intervals[0].Start.Seconds != 0 || intervals[0].End.Seconds != 12.5 {
		t.Errorf("single interval = [%v, %v)", intervals[0].Start.Seconds, intervals[0].End.Seconds)
	}
}

func TestBuildIntervalsDropsBadChangePoints(t *testing.T) {
	// Duplicates, zeros, and points at or past the end are ignored
	intervals := BuildIntervals([]float64{0, 3.0, 3.0, 10.0, 15.0}, 10.0, 30)

	if len(intervals) != 2 {
		t.Fatalf("got %d intervals, want 2", len(intervals))
	}
	if intervals[1].Start.Seconds != 3.0 || intervals[1].End.Seconds != 10.0 {
		t.Errorf("final interval = [%v, %v)", intervals[1].Start.Seconds, intervals[1].End.Seconds)
	}
}

func TestBuildIntervalsEmptyVideo(t *testing.T) {
	if got := BuildIntervals([]float64{1.0}, 0, 30); got != nil {
		t.Errorf("zero duration returned %v", got)
	}
}

func TestTimecodeString(t *testing.T) {
	tc := Timecode{Seconds: 90.0, FPS: 30}
	if got := tc.String(); got != "0:01:30.000" {
		t.Errorf("String() = %q", got)
	}

	tc = Timecode{Seconds: 3600.5, FPS: 30}
	if got := tc.String(); got != "1:00:00.500" {
		t.Errorf("String() = %q", got)
	}
}

func TestTimecodeFrameIndex(t *testing.T) {
	tests := []struct {
		seconds float64
		fps     float64
		want    int
	}{
		{0, 30, 0},
		{1.0, 30, 30},
		{2.5, 24, 60},
		{1.0, 29.97, 30},
	}

	for _, tt := range tests {
		tc := Timecode{Seconds: tt.seconds, FPS: tt.fps}
		if got := tc.FrameIndex(); got != tt.want {
			t.Errorf("FrameIndex(%v @ %v fps) = %d, want %d", tt.seconds, tt.fps, got, tt.want)
		}
	}
}

func TestOrderedIndices(t *testing.T) {
	m := map[int]*Classification{
		4: {}, 0: {}, 2: {},
	}
	got := OrderedIndices(m)
	want := []int{0, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("OrderedIndices = %v, want %v", got, want)
		}
	}
}

func TestFrameValid(t *testing.T) {
	valid := &Frame{Width: 2, Height: 2, Pix: make([]byte, 12)}
	if !valid.Valid() {
		t.Error("complete frame reported invalid")
	}

	var nilFrame *Frame
	if nilFrame.Valid() {
		t.Error("nil frame reported valid")
	}

	short := &Frame{Width: 2, Height: 2, Pix: make([]byte, 11)}
	if short.Valid() {
		t.Error("truncated frame reported valid")
	}

	empty := &Frame{}
	if empty.Valid() {
		t.Error("zero-size frame reported valid")
	}
}

func TestFrameRGBASwapsChannels(t *testing.T) {
	// One pure-blue pixel in BGR is (255, 0, 0)
	f := &Frame{Width: 1, Height: 1, Pix: []byte{255, 0, 0}}

	img := f.RGBA()
	r, g, b, a := img.At(0, 0).RGBA()
	if r>>8 != 0 || g>>8 != 0 || b>>8 != 255 || a>>8 != 255 {
		t.Errorf("RGBA() = (%d, %d, %d, %d), want (0, 0, 255, 255)", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestFrameJPEG(t *testing.T) {
	f := &Frame{Width: 8, Height: 8, Pix: make([]byte, 8*8*3)}

	data, err := f.JPEG(80)
	if err != nil {
		t.Fatalf("JPEG: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty JPEG output")
	}
	// JPEG SOI marker
	if data[0] != 0xff || data[1] != 0xd8 {
		t.Errorf("missing JPEG magic, got % x", data[:2])
	}

	bad := &Frame{Width: 4, Height: 4, Pix: []byte{1, 2, 3}}
	if _, err := bad.JPEG(80); err == nil {
		t.Error("expected error for truncated frame")
	}
}

func TestIntervalDuration(t *testing.T) {
	iv := Interval{
		Start: Timecode{Seconds: 1.5, FPS: 30},
		End:   Timecode{Seconds: 4.0, FPS: 30},
	}
	if math.Abs(iv.Duration()-2.5) > 1e-9 {
		t.Errorf("Duration() = %v", iv.Duration())
	}
}
