package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	perr "plancal/internal/errors"
	"plancal/internal/source"
)

// FileConfig is one plan document.
type FileConfig struct {
	// Path is a local file or an http(s) URL.
	Path string `yaml:"path" json:"path" validate:"required"`
	// ID names the document in entry IDs. Defaults to the base name of Path.
	ID string `yaml:"id,omitempty" json:"id,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Files lists the plan documents to read.
	Files []FileConfig `yaml:"files" json:"files" validate:"dive"`

	// Timezone is the IANA zone "today" and timed occurrences are
	// interpreted in. Empty means the TIMEZONE directive of the first
	// document, then the local zone.
	Timezone string `yaml:"timezone" json:"timezone" validate:"omitempty,timezone"`

	// DefaultRange is the range used when none is given, e.g. "today -- +1w".
	DefaultRange string `yaml:"default_range" json:"default_range" validate:"required"`

	// MaxOccurrences caps the expansion of one date spec.
	MaxOccurrences int `yaml:"max_occurrences" json:"max_occurrences" validate:"gte=1"`

	// Parallel is the number of entries resolved concurrently.
	Parallel int `yaml:"parallel" json:"parallel" validate:"gte=1,lte=256"`

	LogLevel  string `yaml:"log_level" json:"log_level" validate:"oneof=debug info error"`
	LogFormat string `yaml:"log_format" json:"log_format" validate:"oneof=console json"`

	// Listen is the HTTP listen address of the API.
	Listen string `yaml:"listen" json:"listen" validate:"required,hostname_port"`

	// RefreshCron is a cron schedule (e.g. "*/15 * * * *") for reloading
	// the plan documents while serving.
	RefreshCron string `yaml:"refresh" json:"refresh" validate:"required,cron"`

	// CacheDir holds cached copies of remote documents.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// BasicAuth, if set, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen  = "127.0.0.1:8080"
	defaultRange   = "today -- +1w"
	defaultRefresh = "*/15 * * * *"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Files:          []FileConfig{},
		DefaultRange:   defaultRange,
		MaxOccurrences: 5000,
		Parallel:       4,
		LogLevel:       "info",
		LogFormat:      "console",
		Listen:         defaultListen,
		RefreshCron:    defaultRefresh,
		CacheDir:       "./var/plan-cache",
	}
}

// Normalize fills in missing values so partially filled configs behave.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Files == nil {
		c.Files = d.Files
	}
	if strings.TrimSpace(c.DefaultRange) == "" {
		c.DefaultRange = d.DefaultRange
	}
	if c.MaxOccurrences <= 0 {
		c.MaxOccurrences = d.MaxOccurrences
	}
	if c.Parallel <= 0 {
		c.Parallel = d.Parallel
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	// Empty credentials disable auth.
	if c.BasicAuth != nil && (c.BasicAuth.Username == "" || c.BasicAuth.Password == "") {
		c.BasicAuth = nil
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
			_, err := cron.ParseStandard(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// Validate checks c field by field. The error lists every failing field.
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return perr.Wrap(err, perr.KindConfig, "validate config")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Namespace()+": failed '"+fe.Tag()+"'")
	}
	return perr.New(perr.KindConfig, "invalid config: "+strings.Join(msgs, "; "))
}

// Location loads the configured timezone; empty means fallback.
func (c *Config) Location(fallback string) (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = fallback
	}
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, perr.Wrapf(err, perr.KindConfig, "unknown timezone %q", name)
	}
	return loc, nil
}

// Sources converts Files for the document loader. Paths are resolved
// relative to base unless absolute or remote.
func (c *Config) Sources(base string) []source.Source {
	out := make([]source.Source, 0, len(c.Files))
	for _, f := range c.Files {
		src := source.Source{ID: f.ID, Location: f.Path}
		if !src.Remote() && base != "" && !filepath.IsAbs(f.Path) {
			src.Location = filepath.Join(base, f.Path)
		}
		if src.ID == "" {
			src.ID = filepath.Base(f.Path)
		}
		out = append(out, src)
	}
	return out
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is read, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, perr.New(perr.KindConfig, "config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg anyway so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, perr.Wrap(err, perr.KindIO, "read config")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, perr.Wrap(err, perr.KindConfig, "parse config")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory (0700) when needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return perr.New(perr.KindConfig, "config path is empty")
	}
	if cfg == nil {
		return perr.New(perr.KindConfig, "config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return perr.Wrap(err, perr.KindIO, "create config dir")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return perr.Wrap(err, perr.KindConfig, "encode config")
	}

	tmp, err := os.CreateTemp(dir, ".plancal-config-*.tmp")
	if err != nil {
		return perr.Wrap(err, perr.KindIO, "create temp config")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return perr.Wrap(err, perr.KindIO, "write config")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return perr.Wrap(err, perr.KindIO, "sync config")
	}
	if err := tmp.Close(); err != nil {
		return perr.Wrap(err, perr.KindIO, "close config")
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return perr.Wrap(err, perr.KindIO, "chmod config")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return perr.Wrap(err, perr.KindIO, "replace config")
	}
	return nil
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
