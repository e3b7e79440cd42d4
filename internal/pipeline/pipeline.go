package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/keagan/sceneforge/internal/classify"
	"github.com/keagan/sceneforge/internal/config"
	"github.com/keagan/sceneforge/internal/extract"
	"github.com/keagan/sceneforge/internal/fetch"
	"github.com/keagan/sceneforge/internal/ffmpeg"
	"github.com/keagan/sceneforge/internal/render"
	"github.com/keagan/sceneforge/internal/scenes"
	"github.com/keagan/sceneforge/pkg/util"
	"github.com/rs/zerolog"
)

// Pipeline orchestrates the fetch, analyze, cut, and compose stages
type Pipeline struct {
	logger     zerolog.Logger
	config     *config.Config
	ffmpeg     *ffmpeg.Executor
	renderer   *render.Renderer
	compositor *render.Compositor
}

// New creates a pipeline instance. ffmpeg and ffprobe must be on PATH;
// the downloader and the model are resolved lazily by the stages that
// need them.
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	ffmpegExec, err := ffmpeg.New(logger, cfg.FFmpeg.Threads)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	style := ffmpeg.CaptionStyle{
		FontFile:  cfg.Caption.FontFile,
		FontSize:  cfg.Caption.FontSize,
		FontColor: cfg.Caption.FontColor,
		BoxColor:  cfg.Caption.BoxColor,
	}

	return &Pipeline{
		logger:     logger.With().Str("component", "pipeline").Logger(),
		config:     cfg,
		ffmpeg:     ffmpegExec,
		renderer:   render.New(logger, ffmpegExec, cfg.FFmpeg.CRF, cfg.FFmpeg.Preset),
		compositor: render.NewCompositor(logger, ffmpegExec, style, cfg.FFmpeg.CRF, cfg.FFmpeg.Preset),
	}, nil
}

// Fetch downloads a remote video into the storage directory and
// returns the local path. An empty path without error means no
// matching stream exists for the URL.
func (p *Pipeline) Fetch(ctx context.Context, url string) (string, error) {
	fetcher, err := fetch.New(p.logger, p.config.Fetch.Binary, p.config.Fetch.Format)
	if err != nil {
		return "", err
	}
	return fetcher.Download(ctx, url, p.config.StorageDir)
}

// Analyze runs scene detection, frame extraction, and classification
// on a local video file.
func (p *Pipeline) Analyze(ctx context.Context, input string, opts AnalyzeOptions) (*Analysis, error) {
	if input == "" {
		return nil, fmt.Errorf("input path cannot be empty")
	}
	if !util.FileExists(input) {
		return nil, fmt.Errorf("input video not found: %s", input)
	}

	p.logger.Info().Str("input", input).Msg("starting analysis")

	info, err := p.ffmpeg.ProbeVideo(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}

	p.logger.Info().
		Float64("duration", info.Duration).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Msg("video metadata extracted")

	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = p.config.Scenes.Threshold
	}
	detectWidth := opts.DetectWidth
	if detectWidth <= 0 {
		detectWidth = p.config.Scenes.DetectWidth
	}
	frameWidth := opts.FrameWidth
	if frameWidth <= 0 {
		frameWidth = p.config.Classify.FrameWidth
	}

	changes, err := p.ffmpeg.DetectSceneChanges(ctx, input, threshold, detectWidth)
	if err != nil {
		return nil, fmt.Errorf("scene detection failed: %w", err)
	}

	intervals := scenes.BuildIntervals(changes, info.Duration, info.FPS)
	if len(intervals) == 0 {
		return nil, fmt.Errorf("no scenes found in %s", input)
	}

	p.logger.Info().
		Int("scenes", len(intervals)).
		Int("change_points", len(changes)).
		Msg("scene boundaries detected")

	extractor := extract.New(p.logger, p.ffmpeg, frameWidth)
	bundles, err := extractor.ExtractBundles(ctx, input, info, intervals)
	if err != nil {
		return nil, fmt.Errorf("frame extraction failed: %w", err)
	}

	vocab, err := classify.FromPartition(p.config.Classify.ActionPhrases, p.config.Classify.ContextPhrases)
	if err != nil {
		return nil, fmt.Errorf("invalid phrase vocabulary: %w", err)
	}

	encoder, err := classify.NewClipEncoder(p.logger, p.config.Classify.ModelPath, p.config.Classify.TokenizerPath, vocab)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	defer encoder.Close()

	classifier := classify.New(p.logger, encoder, vocab)
	records, err := classifier.ClassifyScenes(ctx, bundles)
	if err != nil {
		return nil, err
	}

	return &Analysis{
		InputPath: input,
		Video:     info,
		Intervals: intervals,
		Records:   records,
		CreatedAt: time.Now(),
	}, nil
}

// CutScenes renders each classified scene into its own clip file,
// optionally keeping only one category. A scene that fails to cut is
// logged and skipped.
func (p *Pipeline) CutScenes(ctx context.Context, videoPath string, analysis *Analysis, opts CutOptions) ([]string, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}

	var paths []string
	for _, i := range analysis.Ordered() {
		record := analysis.Records[i]
		if opts.Category != "" && record.Category != opts.Category {
			continue
		}

		path, err := p.renderer.SaveClip(ctx, videoPath, record, i, opts.OutputDir)
		if err != nil {
			if ctx.Err() != nil {
				return paths, ctx.Err()
			}
			p.logger.Error().Err(err).Int("scene", i).Msg("failed to cut scene, skipping")
			continue
		}
		paths = append(paths, path)
	}

	p.logger.Info().
		Int("clips", len(paths)).
		Str("dir", opts.OutputDir).
		Msg("scene cutting complete")

	return paths, nil
}

// Compose assembles clips into the final output video
func (p *Pipeline) Compose(ctx context.Context, req render.ComposeRequest) error {
	return p.compositor.Compose(ctx, req)
}

// Run executes the full pipeline under runDir: fetch when the source
// is a URL, analyze, write the analysis sidecar, cut the matching
// scenes, and compose them into the final video.
func (p *Pipeline) Run(ctx context.Context, source, runDir string, opts RunOptions) (*RunResult, error) {
	if err := util.EnsureDir(runDir); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	input := source
	if IsRemote(source) {
		path, err := p.Fetch(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("download failed: %w", err)
		}
		if path == "" {
			return nil, fmt.Errorf("no downloadable stream for %s", source)
		}
		input = path
	}

	analysis, err := p.Analyze(ctx, input, opts.Analyze)
	if err != nil {
		return nil, err
	}

	jsonPath := filepath.Join(runDir, util.StemName(input)+".scenes.json")
	if err := WriteJSON(analysis, jsonPath); err != nil {
		p.logger.Warn().Err(err).Str("path", jsonPath).Msg("failed to write analysis sidecar")
		jsonPath = ""
	}

	category := opts.Category
	if category == "" {
		category = scenes.CategoryAction
	}

	clips, err := p.CutScenes(ctx, input, analysis, CutOptions{
		OutputDir: filepath.Join(runDir, "clips"),
		Category:  category,
	})
	if err != nil {
		return nil, err
	}
	if len(clips) == 0 {
		return nil, fmt.Errorf("no %q scenes to compose", category)
	}

	output := opts.Output
	if output == "" {
		output = filepath.Join(runDir, "final.mp4")
	}

	err = p.Compose(ctx, render.ComposeRequest{
		Clips:          clips,
		Output:         output,
		Caption:        opts.Caption,
		AudioPath:      opts.AudioPath,
		NormalizeAudio: opts.NormalizeAudio,
	})
	if err != nil {
		return nil, fmt.Errorf("composition failed: %w", err)
	}

	if !opts.KeepClips {
		util.CleanupFiles(clips...)
	}

	p.logger.Info().
		Str("output", output).
		Int("scenes", len(analysis.Records)).
		Int("clips", len(clips)).
		Msg("pipeline run complete")

	return &RunResult{
		RunDir:   runDir,
		Input:    input,
		JSONPath: jsonPath,
		Clips:    clips,
		Output:   output,
	}, nil
}

// NewRunDir returns a fresh run directory path under the storage root
func NewRunDir(storageDir string) string {
	return filepath.Join(storageDir, "run_"+uuid.NewString()[:8])
}

// IsRemote reports whether the source is a URL rather than a local path
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
