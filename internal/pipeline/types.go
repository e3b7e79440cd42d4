package pipeline

import (
	"time"

	"github.com/keagan/sceneforge/internal/ffmpeg"
	"github.com/keagan/sceneforge/internal/scenes"
)

// Analysis is the outcome of scene analysis on one video
type Analysis struct {
	InputPath string
	Video     *ffmpeg.VideoInfo
	Intervals []scenes.Interval
	Records   map[int]*scenes.Classification
	CreatedAt time.Time
}

// Ordered returns the classified scene indices in playback order
func (a *Analysis) Ordered() []int {
	return scenes.OrderedIndices(a.Records)
}

// AnalyzeOptions overrides analysis settings from the config. Zero
// values fall back to the configured defaults.
type AnalyzeOptions struct {
	Threshold   float64
	DetectWidth int
	FrameWidth  int
}

// CutOptions configures scene cutting. An empty Category cuts every
// classified scene.
type CutOptions struct {
	OutputDir string
	Category  string
}

// RunOptions configures a full pipeline run
type RunOptions struct {
	Analyze        AnalyzeOptions
	Category       string
	Output         string
	Caption        string
	AudioPath      string
	NormalizeAudio bool
	KeepClips      bool
}

// RunResult reports the artifacts of a full pipeline run
type RunResult struct {
	RunDir   string
	Input    string
	JSONPath string
	Clips    []string
	Output   string
}
