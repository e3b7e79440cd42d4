package pipeline

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"time"
)

// thumbnailQuality is the JPEG quality for embedded scene thumbnails
const thumbnailQuality = 80

type sceneReport struct {
	Scene           int     `json:"scene"`
	Category        string  `json:"category"`
	Confidence      float64 `json:"confidence"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	Duration        float64 `json:"duration"`
	BestDescription string  `json:"best_description"`
	Thumbnail       string  `json:"thumbnail,omitempty"`
}

type analysisReport struct {
	Input     string        `json:"input"`
	Duration  float64       `json:"duration"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	FPS       float64       `json:"fps"`
	CreatedAt time.Time     `json:"created_at"`
	Scenes    []sceneReport `json:"scenes"`
}

// buildReport flattens an analysis into its serializable form. Each
// scene's representative frame is embedded as a base64 JPEG thumbnail;
// a frame that fails to encode simply leaves the field empty.
func buildReport(a *Analysis) *analysisReport {
	report := &analysisReport{
		Input:     a.InputPath,
		CreatedAt: a.CreatedAt,
		Scenes:    make([]sceneReport, 0, len(a.Records)),
	}
	if a.Video != nil {
		report.Duration = a.Video.Duration
		report.Width = a.Video.Width
		report.Height = a.Video.Height
		report.FPS = a.Video.FPS
	}

	for _, i := range a.Ordered() {
		record := a.Records[i]
		entry := sceneReport{
			Scene:           i,
			Category:        record.Category,
			Confidence:      record.Confidence,
			StartTime:       record.StartTime,
			EndTime:         record.EndTime,
			Duration:        record.Duration,
			BestDescription: record.BestDescription,
		}
		if record.FirstFrame != nil {
			if data, err := record.FirstFrame.JPEG(thumbnailQuality); err == nil {
				entry.Thumbnail = base64.StdEncoding.EncodeToString(data)
			}
		}
		report.Scenes = append(report.Scenes, entry)
	}

	return report
}

// WriteJSON writes the analysis sidecar file
func WriteJSON(a *Analysis, path string) error {
	data, err := json.MarshalIndent(buildReport(a), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
