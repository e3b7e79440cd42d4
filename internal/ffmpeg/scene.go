package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// DetectSceneChanges finds shot boundaries using ffmpeg scene detection.
// Detection runs on a stream downscaled to detectWidth (0 disables
// downscaling); returned change points are seconds from the start of the
// video.
func (e *Executor) DetectSceneChanges(ctx context.Context, input string, threshold float64, detectWidth int) ([]float64, error) {
	e.logger.Info().
		Str("input", input).
		Float64("threshold", threshold).
		Int("detect_width", detectWidth).
		Msg("detecting scene changes")

	filter := NewFilterBuilder().
		Scale(detectWidth, -2).
		Custom(fmt.Sprintf("select='gt(scene,%f)'", threshold)).
		Custom("showinfo").
		Build()

	var stderrBuf bytes.Buffer
	var mu sync.Mutex

	opts := RunOptions{
		Args: []string{
			"-i", input,
			"-vf", filter,
			"-f", "null",
			"-",
		},
		// showinfo logs its frame lines at info
		LogLevel: "info",
		LogHandler: func(line string) {
			mu.Lock()
			stderrBuf.WriteString(line + "\n")
			mu.Unlock()
		},
	}

	err := e.Run(ctx, opts)

	mu.Lock()
	output := stderrBuf.String()
	mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !strings.Contains(err.Error(), "Conversion failed") &&
			!strings.Contains(err.Error(), "Invalid return value") &&
			!strings.Contains(err.Error(), "Output file is empty") {
			return nil, fmt.Errorf("scene detection failed: %w", err)
		}
	}

	changes := parseSceneChanges(output)
	e.logger.Info().Int("change_points", len(changes)).Msg("scene detection complete")
	return changes, nil
}

// parseSceneChanges extracts change-point timestamps from showinfo output
func parseSceneChanges(output string) []float64 {
	var changes []float64

	lines := strings.Split(output, "\n")
	for _, line := range lines {
		if strings.Contains(line, "pts_time:") {
			parts := strings.Split(line, "pts_time:")
			if len(parts) == 2 {
				timeStr := strings.Fields(strings.TrimSpace(parts[1]))[0]
				if seconds, err := strconv.ParseFloat(timeStr, 64); err == nil {
					changes = append(changes, seconds)
				}
			}
		}
	}

	return changes
}
