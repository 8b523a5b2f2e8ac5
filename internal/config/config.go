// Package config loads server configuration from YAML files and
// HTML2DOC_* environment variables. Precedence: flags > environment >
// file > defaults; flag merging is the caller's job.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/renderkit/html2doc/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidValue   = errors.New("invalid config value")
)

// Config holds all server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Render RenderConfig `yaml:"render"`
	Fonts  FontsConfig  `yaml:"fonts"`
	Assets AssetsConfig `yaml:"assets"`
	Log    LogConfig    `yaml:"log"`
}

// AssetsConfig defines stylesheet loading.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // custom style directory; empty = embedded only
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`         // listen address, default ":8080"
	CORSOrigins  []string `yaml:"corsOrigins"`  // default: allow all
	RateLimit    int      `yaml:"rateLimit"`    // requests per minute per client IP
	MaxBodyBytes int      `yaml:"maxBodyBytes"` // request body cap

	ShutdownGraceRaw string        `yaml:"shutdownGrace"` // e.g. "15s"
	ShutdownGrace    time.Duration `yaml:"-"`
}

// RenderConfig defines conversion behavior.
type RenderConfig struct {
	Workers        int    `yaml:"workers"`        // browser pool size; 0 = auto
	GlobalLimit    int    `yaml:"globalLimit"`    // simultaneous renders; 0 = derived
	DefaultBackend string `yaml:"defaultBackend"` // "paged" or "browser"
	BrowserBin     string `yaml:"browserBin"`     // Chromium binary path

	TimeoutRaw   string        `yaml:"timeout"`   // per-render deadline
	QueueWaitRaw string        `yaml:"queueWait"` // slot wait before 503
	Timeout      time.Duration `yaml:"-"`
	QueueWait    time.Duration `yaml:"-"`
}

// FontsConfig defines the startup font scan.
type FontsConfig struct {
	Dirs    []string `yaml:"dirs"`    // nil = platform defaults
	Default string   `yaml:"default"` // generic fallback family
	CJK     string   `yaml:"cjk"`     // CJK-capable fallback family
	Strict  bool     `yaml:"strict"`  // fail on missing glyph coverage
}

// LogConfig defines structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // "json" or "console"
}

// Defaults applied where the file and environment are silent.
const (
	DefaultAddr          = ":8080"
	DefaultRateLimit     = 60
	DefaultMaxBodyBytes  = 16 << 20
	DefaultShutdownGrace = 15 * time.Second
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
)

// Default returns a fully-populated default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          DefaultAddr,
			RateLimit:     DefaultRateLimit,
			MaxBodyBytes:  DefaultMaxBodyBytes,
			ShutdownGrace: DefaultShutdownGrace,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path is operator input
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finalize parses the raw duration strings and validates enums.
func (c *Config) finalize() error {
	var err error
	if c.Server.ShutdownGrace, err = parseDuration(c.Server.ShutdownGraceRaw, DefaultShutdownGrace); err != nil {
		return fmt.Errorf("%w: shutdownGrace: %v", ErrInvalidValue, err)
	}
	if c.Render.Timeout, err = parseDuration(c.Render.TimeoutRaw, 0); err != nil {
		return fmt.Errorf("%w: render timeout: %v", ErrInvalidValue, err)
	}
	if c.Render.QueueWait, err = parseDuration(c.Render.QueueWaitRaw, 0); err != nil {
		return fmt.Errorf("%w: queueWait: %v", ErrInvalidValue, err)
	}

	switch strings.ToLower(c.Render.DefaultBackend) {
	case "", "auto", "paged", "browser":
	default:
		return fmt.Errorf("%w: defaultBackend %q", ErrInvalidValue, c.Render.DefaultBackend)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidValue, c.Log.Format)
	}
	return nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", raw)
	}
	return d, nil
}

// knownEnvVars lists valid HTML2DOC_* environment variables, used to
// warn about typos.
var knownEnvVars = map[string]bool{
	"HTML2DOC_CONFIG":          true,
	"HTML2DOC_ADDR":            true,
	"HTML2DOC_CORS_ORIGINS":    true,
	"HTML2DOC_RATE_LIMIT":      true,
	"HTML2DOC_MAX_BODY_BYTES":  true,
	"HTML2DOC_SHUTDOWN_GRACE":  true,
	"HTML2DOC_WORKERS":         true,
	"HTML2DOC_GLOBAL_LIMIT":    true,
	"HTML2DOC_DEFAULT_BACKEND": true,
	"HTML2DOC_BROWSER_BIN":     true,
	"HTML2DOC_RENDER_TIMEOUT":  true,
	"HTML2DOC_QUEUE_WAIT":      true,
	"HTML2DOC_FONT_DIRS":       true,
	"HTML2DOC_ASSETS_DIR":      true,
	"HTML2DOC_FONT_DEFAULT":    true,
	"HTML2DOC_FONT_CJK":        true,
	"HTML2DOC_FONT_STRICT":     true,
	"HTML2DOC_LOG_LEVEL":       true,
	"HTML2DOC_LOG_FORMAT":      true,
}

// applyEnv overrides file values with HTML2DOC_* environment variables.
func applyEnv(c *Config) {
	setString(&c.Server.Addr, "HTML2DOC_ADDR")
	setString(&c.Render.BrowserBin, "HTML2DOC_BROWSER_BIN")
	setString(&c.Render.DefaultBackend, "HTML2DOC_DEFAULT_BACKEND")
	setString(&c.Render.TimeoutRaw, "HTML2DOC_RENDER_TIMEOUT")
	setString(&c.Render.QueueWaitRaw, "HTML2DOC_QUEUE_WAIT")
	setString(&c.Server.ShutdownGraceRaw, "HTML2DOC_SHUTDOWN_GRACE")
	setString(&c.Fonts.Default, "HTML2DOC_FONT_DEFAULT")
	setString(&c.Assets.BasePath, "HTML2DOC_ASSETS_DIR")
	setString(&c.Fonts.CJK, "HTML2DOC_FONT_CJK")
	setString(&c.Log.Level, "HTML2DOC_LOG_LEVEL")
	setString(&c.Log.Format, "HTML2DOC_LOG_FORMAT")

	setInt(&c.Server.RateLimit, "HTML2DOC_RATE_LIMIT")
	setInt(&c.Server.MaxBodyBytes, "HTML2DOC_MAX_BODY_BYTES")
	setInt(&c.Render.Workers, "HTML2DOC_WORKERS")
	setInt(&c.Render.GlobalLimit, "HTML2DOC_GLOBAL_LIMIT")

	setList(&c.Server.CORSOrigins, "HTML2DOC_CORS_ORIGINS", ",")
	setList(&c.Fonts.Dirs, "HTML2DOC_FONT_DIRS", string(os.PathListSeparator))

	setBool(&c.Fonts.Strict, "HTML2DOC_FONT_STRICT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setList(dst *[]string, key, sep string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, sep)
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}

// WarnUnknownEnvVars reports unrecognized HTML2DOC_* variables, catching
// typos like HTML2DOC_WORKER.
func WarnUnknownEnvVars(warn func(name string)) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "HTML2DOC_") {
			continue
		}
		name := strings.SplitN(env, "=", 2)[0]
		if !knownEnvVars[name] {
			warn(name)
		}
	}
}
