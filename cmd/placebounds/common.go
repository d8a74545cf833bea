package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ligustah/placebounds/internal/config"
	"github.com/ligustah/placebounds/internal/fetcher"
	pbhttp "github.com/ligustah/placebounds/internal/http"
	"github.com/ligustah/placebounds/internal/logger"
	"github.com/ligustah/placebounds/internal/metrics"
	"github.com/ligustah/placebounds/internal/progress"
	"github.com/ligustah/placebounds/internal/publish"
	"github.com/ligustah/placebounds/internal/regions"
)

// settings holds the flags shared by every command. Flag values override
// the config file and PLACEBOUNDS_ environment variables.
type settings struct {
	fs         *flag.FlagSet
	configPath string
	envFile    string
	regions    string
	override   config.Config
}

func newSettings(fs *flag.FlagSet) *settings {
	s := &settings{fs: fs}
	o := &s.override

	fs.StringVar(&s.configPath, "config", "", "YAML config file")
	fs.StringVar(&s.envFile, "env-file", ".env", "Env file loaded before reading PLACEBOUNDS_ variables")
	fs.StringVar(&s.regions, "regions", "", "Comma-separated region codes or IDs (default: all)")
	fs.StringVar(&o.OutputDir, "output-dir", "", "Directory for boundary files (default: .)")
	fs.StringVar(&o.CacheDir, "cache-dir", "", "Directory for cached archives (default: zips)")
	fs.StringVar(&o.TempDir, "temp-dir", "", "Parent directory for scratch space")
	fs.StringVar(&o.URLTemplate, "url-template", "", "Archive URL with a {code} placeholder")
	fs.StringVar(&o.UserAgent, "user-agent", "", "User-Agent header for downloads")
	fs.StringVar(&o.Bucket, "bucket", "", "Bucket URL to publish boundary files to")
	fs.StringVar(&o.BucketPrefix, "bucket-prefix", "", "Object key prefix for published files")
	fs.StringVar(&o.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	fs.DurationVar(&o.Pause, "pause", 0, "Pause between regions (default: 1s)")
	fs.IntVar(&o.Retry.Attempts, "retry-attempts", 0, "Download attempts per archive (default: 3)")
	fs.DurationVar(&o.Retry.Backoff, "retry-backoff", 0, "Backoff unit between attempts (default: 5s)")
	fs.BoolVar(&o.Strict, "strict", false, "Exit non-zero when any region fails")

	return s
}

// load resolves the configuration: defaults, then the config file, then
// the environment, then flags.
func (s *settings) load() (config.Config, []regions.Region, error) {
	if s.envFile != "" {
		if err := config.LoadDotEnv(s.envFile); err != nil {
			return config.Config{}, nil, err
		}
	}

	cfg := config.Default()
	if s.configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(s.configPath); err != nil {
			return config.Config{}, nil, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, nil, err
	}

	cfg = cfg.Merge(s.override)
	s.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pause":
			cfg.Pause = s.override.Pause
		case "strict":
			cfg.Strict = s.override.Strict
		}
	})
	if s.regions != "" {
		cfg.Regions = config.SplitList(s.regions)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	regs, err := regions.Select(cfg.Regions)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, regs, nil
}

// parse parses args and loads the configuration, printing errors.
func (s *settings) parse(args []string) (config.Config, []regions.Region, bool) {
	if err := s.fs.Parse(args); err != nil {
		return config.Config{}, nil, false
	}
	if s.fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected arguments: %v\n", s.fs.Args())
		s.fs.Usage()
		return config.Config{}, nil, false
	}

	cfg, regs, err := s.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return config.Config{}, nil, false
	}
	return cfg, regs, true
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\n[placebounds] Received interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// newLogger returns the process logger tagged with a fresh run ID.
func newLogger(command string) (*slog.Logger, string) {
	runID := uuid.NewString()
	return logger.Setup(os.Stderr).With("run_id", runID, "command", command), runID
}

// writeManifest records published objects in the bucket manifest.
func writeManifest(ctx context.Context, pub *publish.Publisher, results []publish.Result, cfg config.Config, runID string, log *slog.Logger) error {
	if len(results) == 0 {
		return nil
	}
	m, err := pub.WriteManifest(ctx, results, map[string]string{
		"run_id":       runID,
		"url_template": cfg.URLTemplate,
	})
	if err != nil {
		return err
	}
	log.Info("manifest written", "files", len(m.Files), "bytes", m.TotalSize)
	return nil
}

func newClient(cfg config.Config) *pbhttp.Client {
	return pbhttp.NewClient(pbhttp.Options{
		UserAgent:      cfg.UserAgent,
		ConnectTimeout: cfg.HTTP.ConnectTimeout,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
	})
}

// newFetcher wires download events into the console and metrics. Either
// may be nil.
func newFetcher(cfg config.Config, reporter *progress.Reporter, rec *metrics.Recorder, log *slog.Logger) *fetcher.Fetcher {
	return fetcher.New(newClient(cfg), fetcher.Options{
		CacheDir:    cfg.CacheDir,
		URLTemplate: cfg.URLTemplate,
		MinSize:     cfg.MinArchiveSize,
		ChunkSize:   int(cfg.ChunkSize),
		Attempts:    cfg.Retry.Attempts,
		Backoff:     pbhttp.LinearBackoff(cfg.Retry.Backoff),
		OnRetry: func(attempt int, delay time.Duration, err error) {
			if reporter != nil {
				reporter.AttemptFailed(attempt, err)
			}
			if rec != nil {
				rec.AttemptFailed()
			}
		},
		OnDownload: func(size int64) {
			if rec != nil {
				rec.Downloaded(size)
			}
		},
		Logger: log,
	})
}
