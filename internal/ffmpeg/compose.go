package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLoudnessTarget is the integrated loudness for normalized audio, in LUFS
const DefaultLoudnessTarget = -16.0

// ComposeOptions defines final assembly parameters
type ComposeOptions struct {
	Inputs         []string
	Output         string
	Caption        string // burned into every frame when non-empty
	CaptionStyle   CaptionStyle
	AudioPath      string // replacement audio track, looped or cut to the video length
	NormalizeAudio bool
	LoudnessTarget float64 // LUFS, used when NormalizeAudio is set
	VideoCodec     string
	AudioCodec     string
	CRF            int
	Preset         string
	ProgressFunc   ProgressFunc
}

// Compose concatenates clips into one output in a single encode pass,
// optionally burning in a caption and replacing the audio track
func (e *Executor) Compose(ctx context.Context, opts ComposeOptions) error {
	if len(opts.Inputs) == 0 {
		return fmt.Errorf("no input files provided")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Int("inputs", len(opts.Inputs)).
		Str("output", opts.Output).
		Bool("caption", opts.Caption != "").
		Bool("replace_audio", opts.AudioPath != "").
		Msg("composing output video")

	// Create temporary concat file list
	concatFile, err := e.createConcatFile(opts.Inputs)
	if err != nil {
		return fmt.Errorf("failed to create concat file: %w", err)
	}
	defer os.Remove(concatFile)

	runOpts := RunOptions{
		Args:            buildComposeArgs(concatFile, opts),
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("composing")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("composition failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("composition complete")
	return nil
}

// buildComposeArgs assembles the single-pass concat+caption+audio invocation
func buildComposeArgs(concatFile string, opts ComposeOptions) []string {
	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", concatFile,
	}

	if opts.AudioPath != "" {
		// Loop the replacement track; -shortest cuts it at the video end
		args = append(args, "-stream_loop", "-1", "-i", opts.AudioPath)
	}

	if opts.Caption != "" {
		args = append(args, "-vf", DrawtextFilter(opts.Caption, opts.CaptionStyle))
	}

	if opts.AudioPath != "" {
		args = append(args, "-map", "0:v:0", "-map", "1:a:0")
		if opts.NormalizeAudio {
			target := opts.LoudnessTarget
			if target == 0 {
				target = DefaultLoudnessTarget
			}
			args = append(args, "-af", NewFilterBuilder().Loudnorm(target).Build())
		}
		args = append(args, "-shortest")
	}

	codec := opts.VideoCodec
	if codec == "" {
		codec = DefaultVideoCodec
	}
	args = append(args, "-c:v", codec)

	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	args = append(args, "-crf", fmt.Sprintf("%d", crf))

	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	args = append(args, "-preset", preset)

	audioCodec := opts.AudioCodec
	if audioCodec == "" {
		audioCodec = DefaultAudioCodec
	}
	args = append(args, "-c:a", audioCodec)

	args = append(args, "-movflags", "+faststart", opts.Output)
	return args
}

// createConcatFile generates a temporary file list for ffmpeg concat
func (e *Executor) createConcatFile(inputs []string) (string, error) {
	tmpFile, err := os.CreateTemp("", "sceneforge-concat-*.txt")
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	for _, input := range inputs {
		absPath, err := filepath.Abs(input)
		if err != nil {
			return "", err
		}
		if _, err := fmt.Fprintf(tmpFile, "file '%s'\n", absPath); err != nil {
			return "", err
		}
	}

	return tmpFile.Name(), nil
}
