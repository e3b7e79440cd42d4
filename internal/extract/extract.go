package extract

import (
	"context"
	"fmt"
	"math"

	"github.com/keagan/sceneforge/internal/ffmpeg"
	"github.com/keagan/sceneforge/internal/scenes"
	"github.com/rs/zerolog"
)

// DefaultWidth is the analysis width frames are downscaled to
const DefaultWidth = 320

// Extractor decodes per-scene frame bundles from a source video
type Extractor struct {
	logger zerolog.Logger
	ffmpeg *ffmpeg.Executor
	width  int
}

// New creates a frame extractor decoding at the given analysis width
func New(logger zerolog.Logger, exec *ffmpeg.Executor, width int) *Extractor {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Extractor{
		logger: logger.With().Str("component", "extract").Logger(),
		ffmpeg: exec,
		width:  width,
	}
}

// ExtractBundles decodes every interval into a frame bundle keyed by
// scene index. A scene whose decode fails still gets a bundle, with no
// frames; downstream stages decide whether to skip it.
func (x *Extractor) ExtractBundles(ctx context.Context, videoPath string, info *ffmpeg.VideoInfo, intervals []scenes.Interval) (map[int]*scenes.Bundle, error) {
	w, h := frameDimensions(info.Width, info.Height, x.width)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("cannot derive frame dimensions from %dx%d", info.Width, info.Height)
	}

	x.logger.Info().
		Str("video", videoPath).
		Int("intervals", len(intervals)).
		Int("frame_width", w).
		Int("frame_height", h).
		Msg("extracting scene frames")

	bundles := make(map[int]*scenes.Bundle, len(intervals))

	for i, iv := range intervals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bundle := &scenes.Bundle{Index: i, Interval: iv}
		bundles[i] = bundle

		raw, err := x.ffmpeg.StreamRawFrames(ctx, videoPath, ffmpeg.FrameStreamOptions{
			Start:    iv.Start.Seconds,
			Duration: iv.Duration(),
			Width:    w,
			Height:   h,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			x.logger.Error().
				Err(err).
				Int("scene", i).
				Str("start", iv.Start.String()).
				Msg("frame decoding failed, scene will have no frames")
			continue
		}

		frames := make([]*scenes.Frame, 0, len(raw))
		for _, pix := range raw {
			frames = append(frames, &scenes.Frame{Width: w, Height: h, Pix: pix})
		}
		bundle.Frames = frames
		if len(frames) > 0 {
			bundle.FirstFrame = frames[0]
		}

		x.logger.Debug().
			Int("scene", i).
			Int("frames", len(frames)).
			Msg("scene frames decoded")
	}

	return bundles, nil
}

// frameDimensions scales the source dimensions to the target analysis
// width, preserving aspect ratio and forcing even dimensions. Sources
// narrower than the target are never upscaled.
func frameDimensions(srcW, srcH, targetW int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0
	}

	w := targetW
	if w <= 0 || w > srcW {
		w = srcW
	}
	if w%2 != 0 {
		w--
	}
	if w <= 0 {
		return 0, 0
	}

	h := int(math.Round(float64(srcH) * float64(w) / float64(srcW)))
	if h%2 != 0 {
		h++
	}
	return w, h
}
