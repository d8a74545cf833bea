package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ligustah/placebounds/internal/progress"
)

// DefaultURLTemplate is the TIGER/Line 2020 place archive location.
// {code} is replaced with the two-digit FIPS code.
const DefaultURLTemplate = "https://www2.census.gov/geo/tiger/TIGER2020/PLACE/tl_2020_{code}_place.zip"

// EnvPrefix prefixes every environment variable read by LoadFromEnv.
const EnvPrefix = "PLACEBOUNDS_"

// Config defines configuration for the placebounds CLI.
type Config struct {
	OutputDir       string        `yaml:"output_dir"`
	CacheDir        string        `yaml:"cache_dir"`
	TempDir         string        `yaml:"temp_dir"`
	URLTemplate     string        `yaml:"url_template"`
	UserAgent       string        `yaml:"user_agent"`
	MinArchiveSize  int64         `yaml:"min_archive_size"`
	ChunkSize       int64         `yaml:"chunk_size"`
	Pause           time.Duration `yaml:"pause"`
	Tolerance       float64       `yaml:"tolerance"`
	CoarseTolerance float64       `yaml:"coarse_tolerance"`
	NameField       string        `yaml:"name_field"`
	Regions         []string      `yaml:"regions"`
	Bucket          string        `yaml:"bucket"`
	BucketPrefix    string        `yaml:"bucket_prefix"`
	MetricsFile     string        `yaml:"metrics_file"`
	Strict          bool          `yaml:"strict"`
	HTTP            HTTPConfig    `yaml:"http"`
	Retry           RetryConfig   `yaml:"retry"`
}

// HTTPConfig defines transport timeouts.
type HTTPConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
}

// RetryConfig defines retry behavior for archive downloads.
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Backoff  time.Duration `yaml:"backoff"`
}

// Default returns the built-in configuration. A run with no file, no
// environment and no flags behaves exactly like this.
func Default() Config {
	return Config{
		OutputDir:       ".",
		CacheDir:        "zips",
		URLTemplate:     DefaultURLTemplate,
		MinArchiveSize:  1000,
		ChunkSize:       8 * 1024,
		Pause:           time.Second,
		Tolerance:       0.001,
		CoarseTolerance: 0.002,
		NameField:       "NAME",
		HTTP: HTTPConfig{
			ConnectTimeout: 30 * time.Second,
			ReadTimeout:    300 * time.Second,
		},
		Retry: RetryConfig{
			Attempts: 3,
			Backoff:  5 * time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	OutputDir       string          `yaml:"output_dir"`
	CacheDir        string          `yaml:"cache_dir"`
	TempDir         string          `yaml:"temp_dir"`
	URLTemplate     string          `yaml:"url_template"`
	UserAgent       string          `yaml:"user_agent"`
	MinArchiveSize  string          `yaml:"min_archive_size"`
	ChunkSize       string          `yaml:"chunk_size"`
	Pause           string          `yaml:"pause"`
	Tolerance       float64         `yaml:"tolerance"`
	CoarseTolerance float64         `yaml:"coarse_tolerance"`
	NameField       string          `yaml:"name_field"`
	Regions         []string        `yaml:"regions"`
	Bucket          string          `yaml:"bucket"`
	BucketPrefix    string          `yaml:"bucket_prefix"`
	MetricsFile     string          `yaml:"metrics_file"`
	Strict          bool            `yaml:"strict"`
	HTTP            yamlHTTPConfig  `yaml:"http"`
	Retry           yamlRetryConfig `yaml:"retry"`
}

type yamlHTTPConfig struct {
	ConnectTimeout string `yaml:"connect_timeout"`
	ReadTimeout    string `yaml:"read_timeout"`
}

type yamlRetryConfig struct {
	Attempts int    `yaml:"attempts"`
	Backoff  string `yaml:"backoff"`
}

// LoadFromFile loads configuration from a YAML file on top of Default.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.OutputDir != "" {
		cfg.OutputDir = yc.OutputDir
	}
	if yc.CacheDir != "" {
		cfg.CacheDir = yc.CacheDir
	}
	if yc.TempDir != "" {
		cfg.TempDir = yc.TempDir
	}
	if yc.URLTemplate != "" {
		cfg.URLTemplate = yc.URLTemplate
	}
	if yc.UserAgent != "" {
		cfg.UserAgent = yc.UserAgent
	}
	if yc.MinArchiveSize != "" {
		size, err := progress.ParseBytes(yc.MinArchiveSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse min_archive_size: %w", err)
		}
		cfg.MinArchiveSize = size
	}
	if yc.ChunkSize != "" {
		size, err := progress.ParseBytes(yc.ChunkSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse chunk_size: %w", err)
		}
		cfg.ChunkSize = size
	}
	if yc.Pause != "" {
		d, err := time.ParseDuration(yc.Pause)
		if err != nil {
			return Config{}, fmt.Errorf("parse pause: %w", err)
		}
		cfg.Pause = d
	}
	if yc.Tolerance != 0 {
		cfg.Tolerance = yc.Tolerance
	}
	if yc.CoarseTolerance != 0 {
		cfg.CoarseTolerance = yc.CoarseTolerance
	}
	if yc.NameField != "" {
		cfg.NameField = yc.NameField
	}
	if len(yc.Regions) > 0 {
		cfg.Regions = yc.Regions
	}
	if yc.Bucket != "" {
		cfg.Bucket = yc.Bucket
	}
	if yc.BucketPrefix != "" {
		cfg.BucketPrefix = yc.BucketPrefix
	}
	if yc.MetricsFile != "" {
		cfg.MetricsFile = yc.MetricsFile
	}
	cfg.Strict = yc.Strict
	if yc.HTTP.ConnectTimeout != "" {
		d, err := time.ParseDuration(yc.HTTP.ConnectTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse http.connect_timeout: %w", err)
		}
		cfg.HTTP.ConnectTimeout = d
	}
	if yc.HTTP.ReadTimeout != "" {
		d, err := time.ParseDuration(yc.HTTP.ReadTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse http.read_timeout: %w", err)
		}
		cfg.HTTP.ReadTimeout = d
	}
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}

	return cfg, nil
}

// LoadDotEnv loads variables from an env file into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the PLACEBOUNDS_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := getenv("OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := getenv("CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := getenv("TEMP_DIR"); v != "" {
		c.TempDir = v
	}
	if v := getenv("URL_TEMPLATE"); v != "" {
		c.URLTemplate = v
	}
	if v := getenv("USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := getenv("MIN_ARCHIVE_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse %sMIN_ARCHIVE_SIZE: %w", EnvPrefix, err)
		}
		c.MinArchiveSize = size
	}
	if v := getenv("CHUNK_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse %sCHUNK_SIZE: %w", EnvPrefix, err)
		}
		c.ChunkSize = size
	}
	if v := getenv("PAUSE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %sPAUSE: %w", EnvPrefix, err)
		}
		c.Pause = d
	}
	if v := getenv("TOLERANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse %sTOLERANCE: %w", EnvPrefix, err)
		}
		c.Tolerance = f
	}
	if v := getenv("COARSE_TOLERANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse %sCOARSE_TOLERANCE: %w", EnvPrefix, err)
		}
		c.CoarseTolerance = f
	}
	if v := getenv("NAME_FIELD"); v != "" {
		c.NameField = v
	}
	if v := getenv("REGIONS"); v != "" {
		c.Regions = SplitList(v)
	}
	if v := getenv("BUCKET"); v != "" {
		c.Bucket = v
	}
	if v := getenv("BUCKET_PREFIX"); v != "" {
		c.BucketPrefix = v
	}
	if v := getenv("METRICS_FILE"); v != "" {
		c.MetricsFile = v
	}
	if v := getenv("STRICT"); v != "" {
		c.Strict = v == "true" || v == "1"
	}
	if v := getenv("CONNECT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %sCONNECT_TIMEOUT: %w", EnvPrefix, err)
		}
		c.HTTP.ConnectTimeout = d
	}
	if v := getenv("READ_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %sREAD_TIMEOUT: %w", EnvPrefix, err)
		}
		c.HTTP.ReadTimeout = d
	}
	if v := getenv("RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %sRETRY_ATTEMPTS: %w", EnvPrefix, err)
		}
		c.Retry.Attempts = n
	}
	if v := getenv("RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %sRETRY_BACKOFF: %w", EnvPrefix, err)
		}
		c.Retry.Backoff = d
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("config: output_dir is required")
	}
	if c.CacheDir == "" {
		return errors.New("config: cache_dir is required")
	}
	if !strings.Contains(c.URLTemplate, "{code}") {
		return errors.New("config: url_template must contain {code}")
	}
	if c.MinArchiveSize < 0 {
		return errors.New("config: min_archive_size must not be negative")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: chunk_size must be positive")
	}
	if c.Pause < 0 {
		return errors.New("config: pause must not be negative")
	}
	if c.Tolerance <= 0 || c.CoarseTolerance <= 0 {
		return errors.New("config: tolerances must be positive")
	}
	if c.NameField == "" {
		return errors.New("config: name_field is required")
	}
	if c.Retry.Attempts <= 0 {
		return errors.New("config: retry.attempts must be positive")
	}
	if c.Retry.Backoff < 0 {
		return errors.New("config: retry.backoff must not be negative")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.OutputDir != "" {
		c.OutputDir = override.OutputDir
	}
	if override.CacheDir != "" {
		c.CacheDir = override.CacheDir
	}
	if override.TempDir != "" {
		c.TempDir = override.TempDir
	}
	if override.URLTemplate != "" {
		c.URLTemplate = override.URLTemplate
	}
	if override.UserAgent != "" {
		c.UserAgent = override.UserAgent
	}
	if override.MinArchiveSize != 0 {
		c.MinArchiveSize = override.MinArchiveSize
	}
	if override.ChunkSize != 0 {
		c.ChunkSize = override.ChunkSize
	}
	if override.Pause != 0 {
		c.Pause = override.Pause
	}
	if override.Tolerance != 0 {
		c.Tolerance = override.Tolerance
	}
	if override.CoarseTolerance != 0 {
		c.CoarseTolerance = override.CoarseTolerance
	}
	if override.NameField != "" {
		c.NameField = override.NameField
	}
	if len(override.Regions) > 0 {
		c.Regions = override.Regions
	}
	if override.Bucket != "" {
		c.Bucket = override.Bucket
	}
	if override.BucketPrefix != "" {
		c.BucketPrefix = override.BucketPrefix
	}
	if override.MetricsFile != "" {
		c.MetricsFile = override.MetricsFile
	}
	if override.Strict {
		c.Strict = override.Strict
	}
	if override.HTTP.ConnectTimeout != 0 {
		c.HTTP.ConnectTimeout = override.HTTP.ConnectTimeout
	}
	if override.HTTP.ReadTimeout != 0 {
		c.HTTP.ReadTimeout = override.HTTP.ReadTimeout
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	return c
}

// SplitList splits a comma separated list, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenv(name string) string {
	return os.Getenv(EnvPrefix + name)
}
