package extract

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/keagan/sceneforge/internal/ffmpeg"
	"github.com/keagan/sceneforge/internal/logging"
	"github.com/keagan/sceneforge/internal/scenes"
	"github.com/rs/zerolog"
)

func TestFrameDimensions(t *testing.T) {
	tests := []struct {
		name    string
		srcW    int
		srcH    int
		targetW int
		wantW   int
		wantH   int
	}{
		{"1080p to 320", 1920, 1080, 320, 320, 180},
		{"720p to 320", 1280, 720, 320, 320, 180},
		{"4:3 to 320", 640, 480, 320, 320, 240},
		{"odd aspect rounds even", 854, 480, 320, 320, 180},
		{"no upscale", 160, 120, 320, 160, 120},
		{"odd target width floors even", 640, 480, 321, 320, 240},
		{"zero target uses source", 640, 480, 0, 640, 480},
		{"vertical video", 720, 1280, 320, 320, 570},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := frameDimensions(tt.srcW, tt.srcH, tt.targetW)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("frameDimensions(%d, %d, %d) = %dx%d, want %dx%d",
					tt.srcW, tt.srcH, tt.targetW, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestFrameDimensionsInvalidSource(t *testing.T) {
	w, h := frameDimensions(0, 480, 320)
	if w != 0 || h != 0 {
		t.Errorf("expected 0x0 for zero source width, got %dx%d", w, h)
	}
	w, h = frameDimensions(640, -1, 320)
	if w != 0 || h != 0 {
		t.Errorf("expected 0x0 for negative source height, got %dx%d", w, h)
	}
}

func TestNewDefaultWidth(t *testing.T) {
	x := New(zerolog.Nop(), nil, 0)
	if x.width != DefaultWidth {
		t.Errorf("expected default width %d, got %d", DefaultWidth, x.width)
	}
	x = New(zerolog.Nop(), nil, 160)
	if x.width != 160 {
		t.Errorf("expected width 160, got %d", x.width)
	}
}

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping")
	}
}

func makeTestVideo(t *testing.T, path string, seconds float64) {
	t.Helper()
	cmd := exec.Command("ffmpeg", "-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=size=320x240:rate=10",
		"-t", fmt.Sprintf("%g", seconds),
		"-pix_fmt", "yuv420p",
		path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test video: %v\n%s", err, out)
	}
}

func TestExtractBundles(t *testing.T) {
	skipIfNoFFmpeg(t)

	logger := logging.NewLogger()
	videoPath := filepath.Join(t.TempDir(), "input.mp4")
	makeTestVideo(t, videoPath, 2.0)

	executor, err := ffmpeg.New(logger, 0)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	info, err := executor.ProbeVideo(context.Background(), videoPath)
	if err != nil {
		t.Fatalf("failed to probe test video: %v", err)
	}

	intervals := scenes.BuildIntervals([]float64{1.0}, info.Duration, info.FPS)
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(intervals))
	}

	x := New(logger, executor, 160)
	bundles, err := x.ExtractBundles(context.Background(), videoPath, info, intervals)
	if err != nil {
		t.Fatalf("ExtractBundles failed: %v", err)
	}
	if len(bundles) != 2 {
		t.Fatalf("expected 2 bundles, got %d", len(bundles))
	}

	for i := 0; i < 2; i++ {
		b, ok := bundles[i]
		if !ok {
			t.Fatalf("missing bundle for scene %d", i)
		}
		if len(b.Frames) == 0 {
			t.Errorf("scene %d has no frames", i)
			continue
		}
		if b.FirstFrame == nil {
			t.Errorf("scene %d has frames but no first frame", i)
		}
		if !b.FirstFrame.Valid() {
			t.Errorf("scene %d first frame is invalid", i)
		}
		if b.FirstFrame.Width != 160 || b.FirstFrame.Height != 120 {
			t.Errorf("scene %d frame is %dx%d, want 160x120",
				i, b.FirstFrame.Width, b.FirstFrame.Height)
		}
	}
}

func TestExtractBundlesBadVideo(t *testing.T) {
	skipIfNoFFmpeg(t)

	logger := zerolog.Nop()
	executor, err := ffmpeg.New(logger, 0)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	info := &ffmpeg.VideoInfo{Width: 320, Height: 240, Duration: 2.0, FPS: 10}
	intervals := scenes.BuildIntervals(nil, info.Duration, info.FPS)

	x := New(logger, executor, 160)
	bundles, err := x.ExtractBundles(context.Background(), "/nonexistent/video.mp4", info, intervals)
	if err != nil {
		t.Fatalf("expected per-scene failure to be absorbed, got %v", err)
	}
	b, ok := bundles[0]
	if !ok {
		t.Fatal("missing bundle for failed scene")
	}
	if len(b.Frames) != 0 || b.FirstFrame != nil {
		t.Error("failed scene should have an empty bundle")
	}
}
