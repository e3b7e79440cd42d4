package ffmpeg

import (
	"fmt"
	"strings"
)

// FilterBuilder helps construct ffmpeg filter chains
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// Scale adds a scale filter. A height of -2 preserves aspect ratio with
// even dimensions; width <= 0 skips the filter so chaining can continue.
func (fb *FilterBuilder) Scale(width, height int) *FilterBuilder {
	if width <= 0 || height == 0 || height < -2 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("scale=%d:%d", width, height))
	return fb
}

// Loudnorm adds a loudness normalization filter targeting the given
// integrated loudness in LUFS
func (fb *FilterBuilder) Loudnorm(targetLevel float64) *FilterBuilder {
	fb.filters = append(fb.filters, fmt.Sprintf("loudnorm=I=%f:TP=-1.5:LRA=11", targetLevel))
	return fb
}

// Custom adds a custom filter string
func (fb *FilterBuilder) Custom(filter string) *FilterBuilder {
	fb.filters = append(fb.filters, filter)
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}
