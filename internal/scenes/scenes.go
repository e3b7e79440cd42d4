package scenes

import (
	"math"
	"sort"

	"github.com/keagan/sceneforge/pkg/util"
)

// Category labels assigned by the classifier
const (
	CategoryAction  = "Action Scene"
	CategoryContext = "Context Scene"
)

// Timecode is a position in a video, in seconds from the start, paired
// with the frame rate of the stream it was measured against
type Timecode struct {
	Seconds float64
	FPS     float64
}

// String renders the timecode in H:MM:SS.mmm form
func (t Timecode) String() string {
	return util.FormatSeconds(t.Seconds)
}

// FrameIndex returns the nearest frame number for this timecode
func (t Timecode) FrameIndex() int {
	return int(math.Round(t.Seconds * t.FPS))
}

// Interval is a half-open scene span [Start, End)
type Interval struct {
	Start Timecode
	End   Timecode
}

// Duration returns the interval length in seconds
func (iv Interval) Duration() float64 {
	return iv.End.Seconds - iv.Start.Seconds
}

// BuildIntervals converts detected change points into ordered,
// non-overlapping intervals covering [0, duration). Change points at or
// beyond the end of the video, and out-of-order duplicates, are dropped.
// Zero change points yield a single interval spanning the whole video.
func BuildIntervals(changes []float64, duration, fps float64) []Interval {
	if duration <= 0 {
		return nil
	}

	intervals := make([]Interval, 0, len(changes)+1)

	lastBoundary := 0.0
	for _, t := range changes {
		if t <= lastBoundary || t >= duration {
			continue
		}
		intervals = append(intervals, Interval{
			Start: Timecode{Seconds: lastBoundary, FPS: fps},
			End:   Timecode{Seconds: t, FPS: fps},
		})
		lastBoundary = t
	}

	// Final segment up to the end of the video
	intervals = append(intervals, Interval{
		Start: Timecode{Seconds: lastBoundary, FPS: fps},
		End:   Timecode{Seconds: duration, FPS: fps},
	})

	return intervals
}

// Bundle groups the decoded frames of one detected scene
type Bundle struct {
	Index      int
	Interval   Interval
	Frames     []*Frame
	FirstFrame *Frame
}

// Classification is the final per-scene result
type Classification struct {
	Category        string  `json:"category"`
	Confidence      float64 `json:"confidence"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	Duration        float64 `json:"duration"`
	BestDescription string  `json:"best_description"`
	FirstFrame      *Frame  `json:"-"`
}

// OrderedIndices returns the scene indices of a result map in ascending order
func OrderedIndices(m map[int]*Classification) []int {
	indices := make([]int, 0, len(m))
	for i := range m {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}
