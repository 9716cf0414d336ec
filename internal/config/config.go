package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/observe/internal/errors"
	"github.com/vango-dev/observe/internal/scenario"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "observe.json"

	// DefaultPort is the default stream server port.
	DefaultPort = 8080

	// DefaultHost is the default stream server host.
	DefaultHost = "localhost"

	// DefaultWriteTimeout is the default per-message WebSocket write timeout.
	DefaultWriteTimeout = "10s"

	// DefaultQueueSize is the default per-client message queue length.
	DefaultQueueSize = 64

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "observe"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "observe"

	// DefaultSnapshotKey is the default object key of the snapshot.
	DefaultSnapshotKey = "array.json"
)

// Config represents the complete observe.json configuration.
type Config struct {
	// Server contains stream server configuration.
	Server ServerConfig `json:"server"`

	// Initial is the initial content of the served array.
	Initial []any `json:"initial,omitempty"`

	// Throttle delays change notifications of the served array
	// (e.g., "50ms"). Empty means no throttling.
	Throttle string `json:"throttle,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing"`

	// Snapshot contains S3 snapshot configuration.
	Snapshot SnapshotConfig `json:"snapshot"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains stream server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// WriteTimeout bounds each WebSocket write (e.g., "10s").
	WriteTimeout string `json:"writeTimeout,omitempty"`

	// QueueSize is the number of messages buffered per client before
	// messages are dropped.
	QueueSize int `json:"queueSize,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   *bool  `json:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty"`
	TracerName string `json:"tracerName,omitempty"`
}

// SnapshotConfig contains S3 snapshot settings. Snapshots are disabled while
// Bucket is empty.
type SnapshotConfig struct {
	Bucket string `json:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Key    string `json:"key,omitempty"`

	// Region, Endpoint and PathStyle configure the S3 client. Endpoint
	// points the sink at an S3-compatible store.
	Region    string `json:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	PathStyle bool   `json:"pathStyle,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads observe.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from path. A missing file yields the
// defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := New()
			cfg.configPath = path
			return cfg, nil
		}
		return nil, errors.New("O001").Wrap(err)
	}

	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes and validates configuration data. name is used in error
// locations.
func Parse(name string, data []byte) (*Config, error) {
	cfg := &Config{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		oe := errors.New("O002").
			Wrap(err).
			WithSuggestion("Check that " + filepath.Base(name) + " is valid JSON and only uses known fields")
		if line, col, ok := errorPosition(data, err); ok {
			oe.WithSource(name, data, line, col)
		}
		return nil, oe
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// errorPosition converts the byte offset of a JSON decode error into a line
// and column.
func errorPosition(data []byte, err error) (line, col int, ok bool) {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case stderrors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0, 0, false
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}

	before := data[:offset]
	line = bytes.Count(before, []byte("\n")) + 1
	col = int(offset) - bytes.LastIndexByte(before, '\n')
	return line, col, true
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.QueueSize == 0 {
		c.Server.QueueSize = DefaultQueueSize
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Snapshot.Key == "" {
		c.Snapshot.Key = DefaultSnapshotKey
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("O004").
			WithDetail("server.port is " + strconv.Itoa(c.Server.Port) + "; it must be between 1 and 65535")
	}
	if c.Server.QueueSize < 0 {
		return errors.Newf(errors.CategoryConfig, "server.queueSize must not be negative")
	}
	if _, err := time.ParseDuration(c.Server.WriteTimeout); err != nil {
		return errors.New("O003").
			Wrap(err).
			WithSuggestion(`Set server.writeTimeout to a duration such as "10s"`)
	}
	if c.Throttle != "" {
		if d, err := time.ParseDuration(c.Throttle); err != nil || d < 0 {
			oe := errors.New("O003").WithSuggestion(`Set throttle to a duration such as "50ms"`)
			if err != nil {
				oe.Wrap(err)
			}
			return oe
		}
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("O005").WithDetail("unknown log.level " + strconv.Quote(c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("O005").WithDetail("unknown log.format " + strconv.Quote(c.Log.Format))
	}
	if c.Snapshot.Bucket == "" && c.Snapshot.Prefix != "" {
		return errors.New("O006").WithSuggestion("Set snapshot.bucket or remove snapshot.prefix")
	}
	if err := scenario.CheckScalars(c.Initial); err != nil {
		return errors.New("O007").
			Wrap(err).
			WithSuggestion("Remove lists and objects from initial")
	}
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Address returns the host:port the stream server listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// WriteTimeout returns the parsed WebSocket write timeout.
func (c *Config) WriteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.WriteTimeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultWriteTimeout)
	}
	return d
}

// ThrottleDuration returns the parsed throttle, or zero when unset.
func (c *Config) ThrottleDuration() time.Duration {
	if c.Throttle == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Throttle)
	return d
}

// MetricsEnabled reports whether Prometheus metrics are on. They are on
// unless metrics.enabled is explicitly false.
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}

// HasSnapshot reports whether an S3 snapshot sink is configured.
func (c *Config) HasSnapshot() bool {
	return c.Snapshot.Bucket != ""
}

// SnapshotKey returns the full object key of the snapshot.
func (c *Config) SnapshotKey() string {
	return c.Snapshot.Prefix + c.Snapshot.Key
}

// NewLogger returns a slog logger writing to w with the configured level
// and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
