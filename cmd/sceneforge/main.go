package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/keagan/sceneforge/internal/config"
	"github.com/keagan/sceneforge/internal/deps"
	"github.com/keagan/sceneforge/internal/logging"
	"github.com/keagan/sceneforge/internal/pipeline"
	"github.com/keagan/sceneforge/internal/render"
	"github.com/keagan/sceneforge/pkg/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sceneforge",
	Short: "sceneforge - scene classification and recutting toolkit",
	Long:  "Segments a video into scenes, classifies each one with a vision-language model, and recuts the matching scenes into a final video.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sceneforge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(cutCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [url]",
	Short: "Download a video into the storage directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		path, err := pipe.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if path == "" {
			return fmt.Errorf("no downloadable mp4 stream for %s", args[0])
		}

		log.Info().Str("path", path).Msg("download complete")
		return nil
	},
}

var (
	analyzeThreshold float64
	analyzeJSON      string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [video]",
	Short: "Detect and classify scenes in a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		analysis, err := pipe.Analyze(cmd.Context(), args[0], pipeline.AnalyzeOptions{
			Threshold: analyzeThreshold,
		})
		if err != nil {
			return err
		}

		printAnalysis(analysis)

		jsonPath := analyzeJSON
		if jsonPath == "" {
			jsonPath = filepath.Join(filepath.Dir(args[0]), util.StemName(args[0])+".scenes.json")
		}
		if err := pipeline.WriteJSON(analysis, jsonPath); err != nil {
			return fmt.Errorf("failed to write analysis sidecar: %w", err)
		}

		log.Info().Str("path", jsonPath).Msg("analysis sidecar written")
		return nil
	},
}

var (
	cutDir       string
	cutCategory  string
	cutThreshold float64
)

var cutCmd = &cobra.Command{
	Use:   "cut [video]",
	Short: "Cut classified scenes into individual clips",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		analysis, err := pipe.Analyze(cmd.Context(), args[0], pipeline.AnalyzeOptions{
			Threshold: cutThreshold,
		})
		if err != nil {
			return err
		}

		clips, err := pipe.CutScenes(cmd.Context(), args[0], analysis, pipeline.CutOptions{
			OutputDir: cutDir,
			Category:  cutCategory,
		})
		if err != nil {
			return err
		}
		if len(clips) == 0 {
			return fmt.Errorf("no matching scenes to cut")
		}

		for _, clip := range clips {
			fmt.Println(clip)
		}
		return nil
	},
}

var (
	composeOutput    string
	composeCaption   string
	composeAudio     string
	composeNormalize bool
)

var composeCmd = &cobra.Command{
	Use:   "compose [clips...]",
	Short: "Concatenate clips into a final video",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		err = pipe.Compose(cmd.Context(), render.ComposeRequest{
			Clips:          args,
			Output:         composeOutput,
			Caption:        composeCaption,
			AudioPath:      composeAudio,
			NormalizeAudio: composeNormalize,
		})
		if err != nil {
			return err
		}

		log.Info().Str("output", composeOutput).Msg("composition complete")
		return nil
	},
}

var (
	runOutput    string
	runCaption   string
	runAudio     string
	runNormalize bool
	runCategory  string
	runKeepClips bool
	runThreshold float64
)

var runCmd = &cobra.Command{
	Use:   "run [url or video]",
	Short: "Run the full pipeline: fetch, analyze, cut, compose",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		runDir := pipeline.NewRunDir(cfg.StorageDir)
		if err := util.EnsureDir(runDir); err != nil {
			return err
		}

		// Tee this run's logs into the run directory.
		logger := log.Logger
		if fw, err := logging.FileWriter(filepath.Join(runDir, "run.log")); err == nil {
			defer fw.Close()
			console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
			logger = logging.NewLogger(console, fw)
		}

		pipe, err := pipeline.New(logger, cfg)
		if err != nil {
			return err
		}

		result, err := pipe.Run(cmd.Context(), args[0], runDir, pipeline.RunOptions{
			Analyze:        pipeline.AnalyzeOptions{Threshold: runThreshold},
			Category:       runCategory,
			Output:         runOutput,
			Caption:        runCaption,
			AudioPath:      runAudio,
			NormalizeAudio: runNormalize,
			KeepClips:      runKeepClips,
		})
		if err != nil {
			return err
		}

		logger.Info().
			Str("output", result.Output).
			Str("run_dir", result.RunDir).
			Str("sidecar", result.JSONPath).
			Msg("run complete")
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check external binaries and model files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		statuses := deps.CheckBinaries([]deps.Requirement{
			{Name: "ffmpeg", Command: "ffmpeg", Description: "video decoding and encoding"},
			{Name: "ffprobe", Command: "ffprobe", Description: "stream metadata probing"},
			{Name: "downloader", Command: cfg.Fetch.Binary, Description: "remote video download", Optional: true},
		})
		statuses = append(statuses, deps.CheckFiles([]deps.FileRequirement{
			{Name: "clip model", Path: cfg.Classify.ModelPath, Description: "CLIP ONNX export"},
			{Name: "tokenizer", Path: cfg.Classify.TokenizerPath, Description: "CLIP BPE tokenizer"},
		})...)

		rows := make([][]string, 0, len(statuses))
		for _, s := range statuses {
			state := "ok"
			if !s.Available {
				state = "missing"
				if s.Optional {
					state = "missing (optional)"
				}
			}
			rows = append(rows, []string{s.Name, state, s.Command, s.Detail})
		}
		fmt.Println(renderTable(
			[]string{"Dependency", "Status", "Target", "Detail"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
		))

		if missing := deps.Missing(statuses); len(missing) > 0 {
			return fmt.Errorf("%d required dependencies missing", len(missing))
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to ./sceneforge.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		path := "./sceneforge.yaml"
		if util.FileExists(path) {
			return fmt.Errorf("%s already exists", path)
		}
		if err := cfg.Save(path); err != nil {
			return err
		}

		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Float64Var(&analyzeThreshold, "threshold", 0, "scene change threshold (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeJSON, "json", "", "analysis sidecar path (default: next to the input)")

	cutCmd.Flags().StringVarP(&cutDir, "out", "o", "./clips", "output directory for scene clips")
	cutCmd.Flags().StringVar(&cutCategory, "category", "", "only cut scenes of this category, e.g. \"Action Scene\"")
	cutCmd.Flags().Float64Var(&cutThreshold, "threshold", 0, "scene change threshold (default from config)")

	composeCmd.Flags().StringVarP(&composeOutput, "output", "o", "final.mp4", "output video path")
	composeCmd.Flags().StringVar(&composeCaption, "caption", "", "caption to burn into every frame")
	composeCmd.Flags().StringVar(&composeAudio, "audio", "", "replacement audio track")
	composeCmd.Flags().BoolVar(&composeNormalize, "normalize-audio", false, "loudness-normalize the final audio")

	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "final video path (default: <run dir>/final.mp4)")
	runCmd.Flags().StringVar(&runCaption, "caption", "", "caption to burn into every frame")
	runCmd.Flags().StringVar(&runAudio, "audio", "", "replacement audio track")
	runCmd.Flags().BoolVar(&runNormalize, "normalize-audio", false, "loudness-normalize the final audio")
	runCmd.Flags().StringVar(&runCategory, "category", "", "scene category to keep (default: \"Action Scene\")")
	runCmd.Flags().BoolVar(&runKeepClips, "keep-clips", false, "keep the intermediate scene clips")
	runCmd.Flags().Float64Var(&runThreshold, "threshold", 0, "scene change threshold (default from config)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func printAnalysis(a *pipeline.Analysis) {
	headers := []string{"Scene", "Category", "Confidence", "Start", "End", "Duration", "Best Match"}
	rows := make([][]string, 0, len(a.Records))

	for _, i := range a.Ordered() {
		r := a.Records[i]
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Category,
			fmt.Sprintf("%.3f", r.Confidence),
			r.StartTime,
			r.EndTime,
			fmt.Sprintf("%.2fs", r.Duration),
			r.BestDescription,
		})
	}

	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft}
	fmt.Println(renderTable(headers, rows, aligns))
}
