package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/keagan/sceneforge/pkg/util"
	"github.com/rs/zerolog"
)

// DefaultFormat selects the best progressive (combined audio+video) mp4 stream
const DefaultFormat = "b[ext=mp4]"

// Downloader acquires remote videos through yt-dlp
type Downloader struct {
	logger  zerolog.Logger
	binPath string
	format  string
}

// New creates a downloader, resolving the yt-dlp binary
func New(logger zerolog.Logger, binary, format string) (*Downloader, error) {
	if binary == "" {
		binary = "yt-dlp"
	}
	binPath, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", binary, err)
	}

	if format == "" {
		format = DefaultFormat
	}

	return &Downloader{
		logger:  logger.With().Str("component", "fetch").Logger(),
		binPath: binPath,
		format:  format,
	}, nil
}

// Download fetches the highest-resolution stream matching the configured
// format into destDir and returns the local file path. A video with no
// matching stream yields ("", nil); tool and transport failures yield an
// error. The returned path is verified to exist on disk.
func (d *Downloader) Download(ctx context.Context, url, destDir string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("url is required")
	}
	if err := util.EnsureDir(destDir); err != nil {
		return "", fmt.Errorf("failed to create download dir: %w", err)
	}

	args := buildDownloadArgs(d.format, destDir, url)

	d.logger.Info().
		Str("url", url).
		Str("format", d.format).
		Str("dest", destDir).
		Msg("downloading video")
	d.logger.Debug().Strs("args", args).Msg("executing yt-dlp")

	cmd := exec.CommandContext(ctx, d.binPath, args...)

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		stderr := errBuf.String()
		if isFormatUnavailable(stderr) {
			d.logger.Warn().Str("url", url).Msg("no stream matches the requested format")
			return "", nil
		}
		detail := strings.TrimSpace(stderr)
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("yt-dlp failed: %s", detail)
	}

	path := printedFilePath(outBuf.String())
	if path == "" {
		return "", fmt.Errorf("yt-dlp reported no output file")
	}
	if !util.FileExists(path) {
		return "", fmt.Errorf("downloaded file missing: %s", path)
	}

	d.logger.Info().Str("path", path).Msg("download complete")
	return path, nil
}

// buildDownloadArgs assembles the yt-dlp invocation. Sorting by res
// makes resolution the primary stream selection key.
func buildDownloadArgs(format, destDir, url string) []string {
	return []string{
		"--no-playlist",
		"--no-warnings",
		"-f", format,
		"-S", "res",
		"--paths", destDir,
		"-o", "%(title)s.%(ext)s",
		"--no-simulate",
		"--print", "after_move:filepath",
		url,
	}
}

// printedFilePath extracts the downloaded file path from yt-dlp stdout
func printedFilePath(stdout string) string {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// isFormatUnavailable reports whether stderr indicates no stream matches
// the requested format for this video
func isFormatUnavailable(stderr string) bool {
	return strings.Contains(stderr, "Requested format is not available")
}
