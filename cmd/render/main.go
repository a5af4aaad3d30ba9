// Command render is the headless chart-to-video renderer (spec.md §5/§6).
// It loads a chart document, migrates it to the current format if needed,
// validates it, and drives a frame-by-frame render through internal/render,
// checkpointing progress to internal/renderqueue so an interrupted render
// can be resumed with --resume.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/phichain-go/phichain/internal/chart"
	"github.com/phichain-go/phichain/internal/config"
	"github.com/phichain-go/phichain/internal/migration"
	"github.com/phichain-go/phichain/internal/render"
	"github.com/phichain-go/phichain/internal/renderqueue"
)

// Exit codes, per spec.md §7's taxonomy.
const (
	exitOK            = 0
	exitIOOrDecode    = 1
	exitDomainInvalid = 2
)

func main() {
	cfg := config.ParseRender()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	os.Exit(run(cfg, logger))
}

func run(cfg *config.RenderConfig, logger *slog.Logger) int {
	if cfg.Path == "" || cfg.Output == "" {
		logger.Error("--path and --output are required")
		return exitIOOrDecode
	}

	doc, err := loadDocument(filepath.Join(cfg.Path, "chart.json"))
	if err != nil {
		logger.Error("failed to load chart", "path", cfg.Path, "error", err)
		return exitIOOrDecode
	}

	if err := doc.Validate(); err != nil {
		logger.Error("chart failed domain validation", "error", err)
		return exitDomainInvalid
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Error("failed to create data directory", "path", cfg.DataDir, "error", err)
		return exitIOOrDecode
	}
	db, err := renderqueue.Open(cfg.DataDir, logger)
	if err != nil {
		logger.Error("failed to open render job ledger", "error", err)
		return exitIOOrDecode
	}
	defer db.Close()

	to := cfg.To
	if to == 0 {
		to, err = doc.BPM.TimeAt(doc.LastBeat())
		if err != nil {
			logger.Error("failed to compute chart end time", "error", err)
			return exitDomainInvalid
		}
	}

	jobID, startFrame, err := resolveJob(db, cfg, doc, to)
	if err != nil {
		logger.Error("failed to resolve render job", "error", err)
		return exitIOOrDecode
	}

	r, err := render.New(doc)
	if err != nil {
		logger.Error("failed to prepare renderer", "error", err)
		return exitDomainInvalid
	}

	enc, err := render.NewFFmpegEncoder(cfg.VideoWidth, cfg.VideoHeight, cfg.VideoFPS, cfg.Output)
	if err != nil {
		logger.Error("failed to start ffmpeg encoder", "error", err)
		return exitIOOrDecode
	}

	opts := render.Options{Width: cfg.VideoWidth, Height: cfg.VideoHeight, FPS: cfg.VideoFPS, From: cfg.From, To: to}
	checkpoint := func(frame int64) error { return db.CheckpointFrame(jobID, frame) }

	if err := r.Run(opts, enc, checkpoint, startFrame); err != nil {
		logger.Error("render failed", "job", jobID, "error", err)
		if failErr := db.FailJob(jobID, err); failErr != nil {
			logger.Error("failed to record job failure", "error", failErr)
		}
		return exitIOOrDecode
	}

	if err := db.CompleteJob(jobID); err != nil {
		logger.Error("failed to record job completion", "error", err)
	}
	logger.Info("render complete", "job", jobID, "output", cfg.Output)
	return exitOK
}

func resolveJob(db *renderqueue.DB, cfg *config.RenderConfig, doc *chart.Document, to float64) (jobID string, startFrame int64, err error) {
	if cfg.Resume != "" {
		job, err := db.Get(cfg.Resume)
		if err != nil {
			return "", 0, fmt.Errorf("resume job %s: %w", cfg.Resume, err)
		}
		return job.ID, job.LastFrame, nil
	}

	fromBeat, err := doc.BPM.BeatAt(cfg.From)
	if err != nil {
		return "", 0, fmt.Errorf("resolve start beat: %w", err)
	}
	toBeat, err := doc.BPM.BeatAt(to)
	if err != nil {
		return "", 0, fmt.Errorf("resolve end beat: %w", err)
	}

	id, err := db.CreateJob(cfg.Path, cfg.Output, fromBeat, toBeat)
	if err != nil {
		return "", 0, err
	}
	return id, 0, nil
}

func loadDocument(path string) (*chart.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart file: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode chart JSON: %w", err)
	}

	migrated, err := migration.Migrate(raw)
	if err != nil {
		return nil, fmt.Errorf("migrate chart: %w", err)
	}

	migratedData, err := json.Marshal(migrated)
	if err != nil {
		return nil, fmt.Errorf("re-encode migrated chart: %w", err)
	}

	var doc chart.Document
	if err := json.Unmarshal(migratedData, &doc); err != nil {
		return nil, fmt.Errorf("decode migrated chart: %w", err)
	}
	return &doc, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
