package ffmpeg_test

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/keagan/sceneforge/internal/ffmpeg"
	"github.com/rs/zerolog"
)

// local helper (cannot use unexported ones from ffmpeg package)
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

func makeClip(t *testing.T, path, color string, seconds float64) {
	t.Helper()
	src := fmt.Sprintf("color=c=%s:duration=%.1f:size=320x240:rate=10", color, seconds)
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", src,
		"-pix_fmt", "yuv420p", "-y", path)
	if err := cmd.Run(); err != nil {
		t.Skipf("could not generate clip: %v", err)
	}
}

// Composing two clips with a caption yields one video whose duration is
// the sum of the inputs
func TestIntegration_ComposeDuration(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	clipA := filepath.Join(dir, "a.mp4")
	clipB := filepath.Join(dir, "b.mp4")
	output := filepath.Join(dir, "final.mp4")

	makeClip(t, clipA, "red", 1)
	makeClip(t, clipB, "blue", 2)

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).With().Str("test", "integration_compose").Logger()

	e, err := ffmpeg.New(logger, 2)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	ctx := context.Background()
	err = e.Compose(ctx, ffmpeg.ComposeOptions{
		Inputs:  []string{clipA, clipB},
		Output:  output,
		Caption: "Final Cut",
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	info, err := e.ProbeVideo(ctx, output)
	if err != nil {
		t.Fatalf("probe of composed output failed: %v", err)
	}

	if math.Abs(info.Duration-3.0) > 0.5 {
		t.Errorf("composed duration = %.2fs, want ~3.0s", info.Duration)
	}
	if info.VideoCodec != "h264" {
		t.Errorf("composed codec = %s, want h264", info.VideoCodec)
	}

	t.Logf("composed %s: %.2fs %s %dx%d",
		output, info.Duration, info.VideoCodec, info.Width, info.Height)
}

// Replacing audio keeps the output length pinned to the video track
func TestIntegration_ComposeWithAudio(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	clipA := filepath.Join(dir, "a.mp4")
	audio := filepath.Join(dir, "tone.wav")
	output := filepath.Join(dir, "final.mp4")

	makeClip(t, clipA, "green", 2)

	// Short tone, forcing the loop path
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i",
		"sine=frequency=440:duration=0.5", "-y", audio)
	if err := cmd.Run(); err != nil {
		t.Skipf("could not generate test audio: %v", err)
	}

	logger := zerolog.New(os.Stderr)
	e, err := ffmpeg.New(logger, 2)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	ctx := context.Background()
	err = e.Compose(ctx, ffmpeg.ComposeOptions{
		Inputs:    []string{clipA},
		Output:    output,
		AudioPath: audio,
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	info, err := e.ProbeVideo(ctx, output)
	if err != nil {
		t.Fatalf("probe of composed output failed: %v", err)
	}

	if math.Abs(info.Duration-2.0) > 0.5 {
		t.Errorf("composed duration = %.2fs, want ~2.0s", info.Duration)
	}
	if !info.HasAudio {
		t.Error("composed output has no audio stream")
	}
	if info.AudioCodec != "aac" {
		t.Errorf("audio codec = %s, want aac", info.AudioCodec)
	}
}
