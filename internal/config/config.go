package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/patchwire/internal/errors"
	"github.com/vango-dev/patchwire/pkg/protocol"
)

// ConfigFileNames are looked up in order by Load.
var ConfigFileNames = []string{"patchwire.json", "patchwire.yaml", "patchwire.yml"}

const (
	// DefaultAddr is the default listen address of the serve command.
	DefaultAddr = "localhost:8080"

	// DefaultModelAttribute binds form controls to state fields.
	DefaultModelAttribute = "wire:model"

	// DefaultBackend is the default snapshot store.
	DefaultBackend = "memory"
)

// Environment variables that override file values.
const (
	EnvSecret          = "PATCHWIRE_SECRET"
	EnvAddr            = "PATCHWIRE_ADDR"
	EnvSnapshotBackend = "PATCHWIRE_SNAPSHOT_BACKEND"
	EnvLogLevel        = "PATCHWIRE_LOG_LEVEL"
)

// Config is the patchwire configuration file.
type Config struct {
	// Secret is the HMAC key for component state.
	Secret string `json:"secret,omitempty" yaml:"secret,omitempty" validate:"required,min=16"`

	Wire     WireConfig     `json:"wire" yaml:"wire"`
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Client   ClientConfig   `json:"client" yaml:"client"`
	Log      LogConfig      `json:"log" yaml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// WireConfig selects the wire shape and decoding limits.
type WireConfig struct {
	// Minify selects short keys on the wire.
	Minify bool `json:"minify,omitempty" yaml:"minify,omitempty"`

	// MaxPatches caps the patches in one decoded list. 0 uses the default.
	MaxPatches int `json:"maxPatches,omitempty" yaml:"maxPatches,omitempty" validate:"gte=0"`

	// MaxDepth caps node nesting. 0 uses the default.
	MaxDepth int `json:"maxDepth,omitempty" yaml:"maxDepth,omitempty" validate:"gte=0,lte=4096"`
}

// SnapshotConfig selects where rendered trees are kept between cycles.
type SnapshotConfig struct {
	// Backend is "memory", "badger" or "s3".
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty" validate:"oneof=memory badger s3"`

	// Dir is the badger data directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" validate:"required_if=Backend badger"`

	Bucket   string `json:"bucket,omitempty" yaml:"bucket,omitempty" validate:"required_if=Backend s3"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
}

// ServerConfig configures the HTTP and websocket channel.
type ServerConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" validate:"required,hostname_port"`

	// ReadTimeout and WriteTimeout are Go durations ("10s").
	ReadTimeout  string `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty" validate:"omitempty,duration"`
	WriteTimeout string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty" validate:"omitempty,duration"`

	// AllowedOrigins limits websocket upgrades. Empty allows same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

// ClientConfig configures the client applier.
type ClientConfig struct {
	ModelAttribute string `json:"modelAttribute,omitempty" yaml:"modelAttribute,omitempty" validate:"required"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty" validate:"oneof=debug info warn error"`
	Format string `json:"format,omitempty" yaml:"format,omitempty" validate:"oneof=text json"`
}

// New creates a Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the first config file found in dir. Without one it returns the
// defaults. Environment overrides are applied in both cases.
func Load(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	cfg := New()
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile reads configuration from path. The format follows the extension:
// .yaml and .yml are YAML, anything else JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("P004").Wrap(err)
	}

	cfg := &Config{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		e := errors.New("P001").Wrap(err)
		if line, col := errorPosition(data, err); line > 0 {
			e.WithLocation(path, line, col)
		}
		if isYAML(path) {
			return nil, e.WithSuggestion("Check that " + filepath.Base(path) + " is valid YAML")
		}
		return nil, e.WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path, as YAML or JSON by extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("P002").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.New("P004").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return "."
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = DefaultBackend
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Client.ModelAttribute == "" {
		c.Client.ModelAttribute = DefaultModelAttribute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSecret); v != "" {
		c.Secret = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvSnapshotBackend); v != "" {
		c.Snapshot.Backend = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// Mode returns the wire mode.
func (c *Config) Mode() protocol.Mode {
	if c.Wire.Minify {
		return protocol.ModeMinified
	}
	return protocol.ModeFull
}

// Limits returns the decoding limits.
func (c *Config) Limits() protocol.Limits {
	return protocol.Limits{
		VNodeDepth: c.Wire.MaxDepth,
		Patches:    c.Wire.MaxPatches,
	}
}

// ReadTimeout returns the parsed server read timeout, or 0.
func (c *Config) ReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ReadTimeout)
	return d
}

// WriteTimeout returns the parsed server write timeout, or 0.
func (c *Config) WriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.WriteTimeout)
	return d
}

// Level returns the slog level.
func (c *Config) Level() slog.Level {
	switch c.Log.Level {
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

// NewLogger builds a logger writing to w in the configured format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists reports whether dir holds a config file.
func Exists(dir string) bool {
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// errorPosition finds the line and column of a decode error, when the
// decoder reports one.
func errorPosition(data []byte, err error) (line, col int) {
	var syntax *json.SyntaxError
	if stderrors.As(err, &syntax) {
		return offsetPosition(data, syntax.Offset)
	}
	var typ *json.UnmarshalTypeError
	if stderrors.As(err, &typ) {
		return offsetPosition(data, typ.Offset)
	}
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		line, _ = strconv.Atoi(m[1])
		if strings.Contains(err.Error(), "tab character") {
			if tab := tabIndentedLine(data, line); tab > 0 {
				return tab, 1
			}
		}
		return line, 0
	}
	return 0, 0
}

// tabIndentedLine returns the first line at or after from that starts with
// a tab. yaml reports tab errors against the line before the tab.
func tabIndentedLine(data []byte, from int) int {
	for i, l := range strings.Split(string(data), "\n") {
		if i+1 >= from && strings.HasPrefix(l, "\t") {
			return i + 1
		}
	}
	return 0
}

func offsetPosition(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func (c *Config) String() string {
	secret := ""
	if c.Secret != "" {
		secret = "<redacted>"
	}
	return fmt.Sprintf("config(path=%q secret=%s backend=%s addr=%s mode=%s)",
		c.configPath, secret, c.Snapshot.Backend, c.Server.Addr, c.Mode())
}
