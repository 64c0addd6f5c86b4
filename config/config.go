// Package config loads settings from an optional YAML file, the environment and
// command line flags, in that order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"
)

const (
	DefaultAPIURL = "http://localhost:3000/api/v1"
	FileName      = "config.yaml"
)

// Duration is a time.Duration that reads "30s" style strings or plain seconds.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n float64
		if err2 := json.Unmarshal(b, &n); err2 != nil {
			return fmt.Errorf("duration: %w", err)
		}
		*d = Duration(time.Duration(n * float64(time.Second)))
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) D() time.Duration { return time.Duration(d) }

type Config struct {
	APIURL        string   `json:"apiUrl"`
	Timeout       Duration `json:"timeout"`
	StateDir      string   `json:"stateDir"`
	Listen        string   `json:"listen"`
	MetricsListen string   `json:"metricsListen"`
	PageSize      int      `json:"pageSize"`
	ViewTTL       Duration `json:"viewTTL"`
	LogLevel      string   `json:"logLevel"`
	OTLPEndpoint  string   `json:"otlpEndpoint"`
}

func Default() Config {
	dir := ".homyadmin"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".homyadmin")
	}
	return Config{
		APIURL:        DefaultAPIURL,
		Timeout:       Duration(30 * time.Second),
		StateDir:      dir,
		Listen:        ":8080",
		MetricsListen: ":27667",
		PageSize:      10,
		ViewTTL:       Duration(10 * time.Minute),
		LogLevel:      "info",
	}
}

// Load starts from Default, merges the YAML file at path and then the environment.
// An empty path means <state dir>/config.yaml, which may be absent.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if dir := os.Getenv("HOMY_STATE_DIR"); dir != "" {
			cfg.StateDir = dir
		}
		path = filepath.Join(cfg.StateDir, FileName)
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("HOMY_API_URL"); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := lookup("HOMY_STATE_DIR"); ok && v != "" {
		c.StateDir = v
	}
	if v, ok := lookup("HOMY_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("HOMY_PAGE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HOMY_PAGE_SIZE: %w", err)
		}
		c.PageSize = n
	}
	if v, ok := lookup("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
		c.OTLPEndpoint = v
	}
	return nil
}

// BindFlags registers overrides for the fields on fs. Call after Load so the
// loaded values show up as flag defaults.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.APIURL, "api-url", c.APIURL, "marketplace API base url")
	fs.DurationVar((*time.Duration)(&c.Timeout), "timeout", c.Timeout.D(), "upstream request timeout")
	fs.StringVar(&c.StateDir, "state-dir", c.StateDir, "directory holding the session and view preferences")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.IntVar(&c.PageSize, "page-size", c.PageSize, "default rows per page")
}

// BindServerFlags registers the flags only the HTTP server uses.
func (c *Config) BindServerFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Listen, "listen", c.Listen, "address of the view API")
	fs.StringVar(&c.MetricsListen, "metrics-listen", c.MetricsListen, "address of /healthz and /metrics")
	fs.DurationVar((*time.Duration)(&c.ViewTTL), "view-ttl", c.ViewTTL.D(), "idle time before a view is torn down")
	fs.StringVar(&c.OTLPEndpoint, "otlp-endpoint", c.OTLPEndpoint, "OTLP gRPC collector, empty disables tracing export")
}

func (c Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("config: apiUrl must not be empty")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("config: apiUrl %q is not an http url", c.APIURL)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("config: pageSize must be positive, got %d", c.PageSize)
	}
	if c.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return l, fmt.Errorf("config: bad log level %q", s)
	}
	return l, nil
}

// Logger builds the process logger: tint on stderr at the configured level.
func (c Config) Logger() *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
