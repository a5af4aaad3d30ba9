package config

import (
	"flag"
	"os"
)

// RenderConfig holds the flags for cmd/render, the headless chart-to-video
// renderer.
type RenderConfig struct {
	// Chart settings
	Path   string
	Output string

	// Video settings
	VideoWidth  int
	VideoHeight int
	VideoFPS    int

	// Range settings, in seconds of song time
	From float64
	To   float64

	// Job ledger settings
	DataDir string
	Resume  string

	LogLevel string
}

// ParseRender parses cmd/render's flags from os.Args.
func ParseRender() *RenderConfig {
	cfg := &RenderConfig{}

	flag.StringVar(&cfg.Path, "path", "", "chart project directory")
	flag.StringVar(&cfg.Output, "output", "", "output video file")

	flag.IntVar(&cfg.VideoWidth, "video.width", 1920, "output video width in pixels")
	flag.IntVar(&cfg.VideoHeight, "video.height", 1080, "output video height in pixels")
	flag.IntVar(&cfg.VideoFPS, "video.fps", 60, "output video frame rate")

	flag.Float64Var(&cfg.From, "from", 0, "render range start, in seconds")
	flag.Float64Var(&cfg.To, "to", 0, "render range end, in seconds (0 means end of chart)")

	flag.StringVar(&cfg.DataDir, "data-dir", defaultDataDir(), "render-job ledger directory")
	flag.StringVar(&cfg.Resume, "resume", "", "resume a previously interrupted render job by ID")

	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	flag.Parse()
	return cfg
}

func defaultDataDir() string {
	if dir := os.Getenv("PHICHAIN_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".phichain"
	}
	return home + "/.phichain"
}
