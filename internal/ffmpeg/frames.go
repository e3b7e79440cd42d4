package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/keagan/sceneforge/pkg/util"
)

// FrameStreamOptions defines raw frame decoding parameters
type FrameStreamOptions struct {
	Start    float64 // seconds
	Duration float64 // seconds
	Width    int
	Height   int
}

// StreamRawFrames decodes a span of video into raw BGR24 frames, scaled
// to the requested dimensions. Each returned slice is one complete frame
// of Width*Height*3 bytes, row-major. A truncated trailing frame at the
// end of the stream is dropped.
func (e *Executor) StreamRawFrames(ctx context.Context, input string, opts FrameStreamOptions) ([][]byte, error) {
	if input == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", opts.Width, opts.Height)
	}
	if opts.Duration <= 0 {
		return nil, fmt.Errorf("invalid frame stream duration: %f", opts.Duration)
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", util.FormatSeconds(opts.Start),
		"-t", util.FormatSeconds(opts.Duration),
		"-i", input,
		"-vf", NewFilterBuilder().Scale(opts.Width, opts.Height).Build(),
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"pipe:1",
	}

	e.logger.Debug().
		Str("input", input).
		Float64("start", opts.Start).
		Float64("duration", opts.Duration).
		Int("width", opts.Width).
		Int("height", opts.Height).
		Msg("streaming raw frames")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	frames, readErr := readFrames(stdout, opts.Width, opts.Height)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// A decode error after some complete frames is partial output,
		// not total failure
		if len(frames) == 0 {
			return nil, fmt.Errorf("frame decoding failed: %w (%s)", err, lastLine(stderrBuf.String()))
		}
		e.logger.Warn().
			Err(err).
			Int("frames", len(frames)).
			Msg("frame decoding ended early, keeping decoded frames")
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read frame stream: %w", readErr)
	}

	e.logger.Debug().Int("frames", len(frames)).Msg("raw frame streaming complete")
	return frames, nil
}

// readFrames chunks a raw BGR24 byte stream into fixed-size frames. A
// trailing partial frame is dropped.
func readFrames(r io.Reader, width, height int) ([][]byte, error) {
	frameSize := width * height * 3
	var frames [][]byte

	for {
		buf := make([]byte, frameSize)
		_, err := io.ReadFull(r, buf)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			// Short read at end of stream
			break
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, buf)
	}

	return frames, nil
}

// lastLine trims stderr to its final non-empty line for error messages
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "no stderr output"
}
