package render

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/keagan/sceneforge/internal/ffmpeg"
	"github.com/keagan/sceneforge/internal/scenes"
	"github.com/keagan/sceneforge/pkg/util"
	"github.com/rs/zerolog"
)

// Renderer cuts classified scenes out of the source video into
// individual clip files.
type Renderer struct {
	logger zerolog.Logger
	ffmpeg *ffmpeg.Executor
	crf    int
	preset string
}

// New creates a renderer encoding with the given quality settings
func New(logger zerolog.Logger, exec *ffmpeg.Executor, crf int, preset string) *Renderer {
	return &Renderer{
		logger: logger.With().Str("component", "render").Logger(),
		ffmpeg: exec,
		crf:    crf,
		preset: preset,
	}
}

// ClipFilename returns the deterministic clip name for a scene. Scene
// numbering in filenames is one-based.
func ClipFilename(sceneIndex int, category string) string {
	return fmt.Sprintf("scene_%d_%s.mp4", sceneIndex+1, strings.ReplaceAll(category, " ", "_"))
}

// SaveClip extracts one classified scene into its own file under
// outputDir and returns the clip path. Zero-length intervals are
// rejected rather than encoded. The output file is verified to exist
// after encoding; a silently failed encode returns an error.
func (r *Renderer) SaveClip(ctx context.Context, videoPath string, record *scenes.Classification, sceneIndex int, outputDir string) (string, error) {
	start, err := util.ParseTimestamp(record.StartTime)
	if err != nil {
		return "", fmt.Errorf("bad scene start time %q: %w", record.StartTime, err)
	}
	end, err := util.ParseTimestamp(record.EndTime)
	if err != nil {
		return "", fmt.Errorf("bad scene end time %q: %w", record.EndTime, err)
	}
	if end <= start {
		return "", fmt.Errorf("refusing zero-length cut: start %q, end %q", record.StartTime, record.EndTime)
	}

	if err := util.EnsureDir(outputDir); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(outputDir, ClipFilename(sceneIndex, record.Category))

	r.logger.Info().
		Int("scene", sceneIndex).
		Str("category", record.Category).
		Str("output", outputPath).
		Msg("cutting scene")

	err = r.ffmpeg.ExtractClip(ctx, videoPath, ffmpeg.ClipOptions{
		Start:  start,
		End:    end,
		Output: outputPath,
		CRF:    r.crf,
		Preset: r.preset,
	})
	if err != nil {
		return "", fmt.Errorf("failed to cut scene %d: %w", sceneIndex, err)
	}

	if !util.FileExists(outputPath) {
		return "", fmt.Errorf("encode produced no file at %s", outputPath)
	}

	return outputPath, nil
}
