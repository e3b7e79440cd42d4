package ffmpeg

import (
	"fmt"
	"strings"
)

// CaptionStyle styles the drawtext caption burn-in
type CaptionStyle struct {
	FontFile  string
	FontSize  int
	FontColor string
	BoxColor  string
}

// Default caption styling
const (
	DefaultCaptionFontSize  = 48
	DefaultCaptionFontColor = "yellow"
	DefaultCaptionBoxColor  = "black"
)

// DrawtextFilter builds a drawtext filter that burns the text into every
// frame, centered, on an opaque box sized to the text bounds
func DrawtextFilter(text string, style CaptionStyle) string {
	fontSize := style.FontSize
	if fontSize <= 0 {
		fontSize = DefaultCaptionFontSize
	}
	fontColor := style.FontColor
	if fontColor == "" {
		fontColor = DefaultCaptionFontColor
	}
	boxColor := style.BoxColor
	if boxColor == "" {
		boxColor = DefaultCaptionBoxColor
	}

	parts := []string{
		fmt.Sprintf("text=%s", escapeDrawtext(text)),
	}
	if style.FontFile != "" {
		parts = append(parts, fmt.Sprintf("fontfile=%s", escapeDrawtext(style.FontFile)))
	}
	parts = append(parts,
		fmt.Sprintf("fontsize=%d", fontSize),
		fmt.Sprintf("fontcolor=%s", fontColor),
		"box=1",
		fmt.Sprintf("boxcolor=%s", boxColor),
		"boxborderw=10",
		"x=(w-text_w)/2",
		"y=(h-text_h)/2",
	)

	return "drawtext=" + strings.Join(parts, ":")
}

// escapeDrawtext escapes characters that terminate or corrupt a drawtext
// filter argument
func escapeDrawtext(s string) string {
	escaped := strings.ReplaceAll(s, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, ":", "\\:")
	escaped = strings.ReplaceAll(escaped, "'", "\\'")
	escaped = strings.ReplaceAll(escaped, ",", "\\,")
	escaped = strings.ReplaceAll(escaped, "%", "\\%")
	return escaped
}
