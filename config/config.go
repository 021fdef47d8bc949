// Package config resolves runtime settings from flags, environment variables
// and an optional .env file. Flags set the defaults; environment variables
// override them, which matches how the containers are deployed.
package config

import (
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// TargetURL is the app entry point.
	TargetURL string
	// ImageURL is an optional remote image to upload.
	ImageURL string
	// ImagePath is an optional local image to upload.
	ImagePath string
	// Prompt, when set, enables the prompt-driven image generation stage.
	Prompt string

	Email    string
	Password string

	Headed      bool
	Debug       bool
	SkipInstall bool

	// Serve switches from one-shot mode to the HTTP job service.
	Serve    bool
	HTTPAddr string
	Workers  int

	RedisURL string
	NATSURL  string

	// OutputDir receives exported artifacts and the run record.
	OutputDir string
	// ExportAttempts bounds the export retry loop.
	ExportAttempts int
}

// Load parses args (without the program name) and applies environment
// overrides. A .env file in the working directory is honoured when present.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	fs := flag.NewFlagSet("vizactor", flag.ContinueOnError)
	fs.StringVar(&cfg.TargetURL, "target", "https://app.vizcom.ai/files", "App entry URL")
	fs.StringVar(&cfg.ImageURL, "image-url", "", "Remote image to upload")
	fs.StringVar(&cfg.ImagePath, "image", "", "Local image to upload")
	fs.StringVar(&cfg.Prompt, "prompt", "", "Prompt for in-app image generation")
	fs.BoolVar(&cfg.Headed, "headed", false, "Run the browser with a visible window")
	fs.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&cfg.SkipInstall, "skip-install", false, "Skip the browser install check")
	fs.BoolVar(&cfg.Serve, "serve", false, "Run as an HTTP job service")
	fs.StringVar(&cfg.HTTPAddr, "http", ":8080", "HTTP listen addr")
	fs.IntVar(&cfg.Workers, "workers", 1, "Concurrent run workers in serve mode")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for artifact persistence (empty disables)")
	fs.StringVar(&cfg.NATSURL, "nats", "", "NATS URL for run events (empty disables)")
	fs.StringVar(&cfg.OutputDir, "out", "output", "Directory for exported artifacts")
	fs.IntVar(&cfg.ExportAttempts, "export-attempts", 60, "Export retry budget")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Environment overrides, deployment style.
	applyEnv(&cfg.TargetURL, "TARGET_URL")
	applyEnv(&cfg.ImageURL, "IMAGE_URL")
	applyEnv(&cfg.ImagePath, "UPLOAD_IMAGE_PATH")
	applyEnv(&cfg.Prompt, "GENERATION_PROMPT")
	applyEnv(&cfg.RedisURL, "REDIS_URL")
	applyEnv(&cfg.NATSURL, "NATS_URL")
	applyEnv(&cfg.OutputDir, "OUTPUT_DIR")
	if port := os.Getenv("PORT"); port != "" {
		cfg.HTTPAddr = ":" + port
	}
	if v := os.Getenv("EXPORT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ExportAttempts = n
		}
	}
	cfg.Email = os.Getenv("VIZCOM_USER")
	cfg.Password = os.Getenv("VIZCOM_PASSWORD")
	return cfg, nil
}

func applyEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
