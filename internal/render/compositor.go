package render

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/keagan/sceneforge/internal/ffmpeg"
	"github.com/keagan/sceneforge/pkg/util"
	"github.com/rs/zerolog"
)

// Compositor assembles rendered clips into a final video with an
// optional burned-in caption and replacement audio track.
type Compositor struct {
	logger zerolog.Logger
	ffmpeg *ffmpeg.Executor
	style  ffmpeg.CaptionStyle
	crf    int
	preset string
}

// NewCompositor creates a compositor using the given caption style and
// quality settings for the final encode.
func NewCompositor(logger zerolog.Logger, exec *ffmpeg.Executor, style ffmpeg.CaptionStyle, crf int, preset string) *Compositor {
	return &Compositor{
		logger: logger.With().Str("component", "compose").Logger(),
		ffmpeg: exec,
		style:  style,
		crf:    crf,
		preset: preset,
	}
}

// ComposeRequest describes one final assembly
type ComposeRequest struct {
	Clips          []string
	Output         string
	Caption        string
	AudioPath      string
	NormalizeAudio bool
}

// Compose concatenates the clips in order and writes the final video.
// Every input clip must exist before any encoding starts.
func (c *Compositor) Compose(ctx context.Context, req ComposeRequest) error {
	if len(req.Clips) == 0 {
		return fmt.Errorf("no clips to compose")
	}
	if req.Output == "" {
		return fmt.Errorf("no output path given")
	}
	for _, clip := range req.Clips {
		if !util.FileExists(clip) {
			return fmt.Errorf("clip not found: %s", clip)
		}
	}
	if req.AudioPath != "" && !util.FileExists(req.AudioPath) {
		return fmt.Errorf("audio file not found: %s", req.AudioPath)
	}

	if dir := filepath.Dir(req.Output); dir != "." {
		if err := util.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	c.logger.Info().
		Int("clips", len(req.Clips)).
		Str("output", req.Output).
		Bool("caption", req.Caption != "").
		Bool("audio", req.AudioPath != "").
		Msg("composing final video")

	return c.ffmpeg.Compose(ctx, ffmpeg.ComposeOptions{
		Inputs:         req.Clips,
		Output:         req.Output,
		Caption:        req.Caption,
		CaptionStyle:   c.style,
		AudioPath:      req.AudioPath,
		NormalizeAudio: req.NormalizeAudio,
		CRF:            c.crf,
		Preset:         c.preset,
	})
}
