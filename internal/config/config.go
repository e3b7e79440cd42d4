package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	StorageDir string `yaml:"storage_dir"`

	// Acquisition settings
	Fetch FetchConfig `yaml:"fetch"`

	// Scene detection settings
	Scenes SceneConfig `yaml:"scenes"`

	// Classifier settings
	Classify ClassifyConfig `yaml:"classify"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Caption burn-in settings
	Caption CaptionConfig `yaml:"caption"`
}

type FetchConfig struct {
	Binary string `yaml:"binary"`
	Format string `yaml:"format"`
}

type SceneConfig struct {
	Threshold   float64 `yaml:"threshold"`
	DetectWidth int     `yaml:"detect_width"`
}

type ClassifyConfig struct {
	ModelPath      string   `yaml:"model_path"`
	TokenizerPath  string   `yaml:"tokenizer_path"`
	FrameWidth     int      `yaml:"frame_width"`
	ActionPhrases  []string `yaml:"action_phrases"`
	ContextPhrases []string `yaml:"context_phrases"`
}

type FFmpegConfig struct {
	Threads int    `yaml:"threads"`
	Preset  string `yaml:"preset"`
	CRF     int    `yaml:"crf"`
}

type CaptionConfig struct {
	FontFile  string `yaml:"font_file"`
	FontSize  int    `yaml:"font_size"`
	FontColor string `yaml:"font_color"`
	BoxColor  string `yaml:"box_color"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		StorageDir: "./videos",
		Fetch: FetchConfig{
			Binary: "yt-dlp",
			Format: "b[ext=mp4]",
		},
		Scenes: SceneConfig{
			Threshold:   0.4,
			DetectWidth: 320,
		},
		Classify: ClassifyConfig{
			ModelPath:     "./models/clip-vit-base-patch32.onnx",
			TokenizerPath: "./models/tokenizer.json",
			FrameWidth:    320,
			ActionPhrases: []string{
				"people fighting",
				"a car chase",
				"a person running",
				"an explosion",
				"a gun battle",
				"people dancing energetically",
				"a sports match in action",
				"a crowd panicking",
				"someone jumping between buildings",
				"a high speed pursuit",
			},
			ContextPhrases: []string{
				"people having a conversation",
				"a scenic landscape",
				"a person sitting quietly",
				"an empty room",
				"a city street at night",
				"people eating at a table",
				"a slow establishing shot of a building",
				"a person reading",
			},
		},
		FFmpeg: FFmpegConfig{
			Threads: 0,
			Preset:  "medium",
			CRF:     23,
		},
		Caption: CaptionConfig{
			FontFile:  "",
			FontSize:  48,
			FontColor: "yellow",
			BoxColor:  "black",
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./sceneforge.yaml",
		"./sceneforge.yml",
		filepath.Join(os.Getenv("HOME"), ".sceneforge", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
