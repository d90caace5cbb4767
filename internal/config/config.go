package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

type ThemeName string

const (
	ThemeLight ThemeName = "light"
	ThemeDark  ThemeName = "dark"
)

type VideoBackend string

const (
	BackendFFmpeg VideoBackend = "ffmpeg"
	BackendOpenCV VideoBackend = "opencv"
)

const (
	DefaultConfigPath  string = "casevue.json"
	DefaultResultsRoot string = "classification_results/correct"
	DefaultManifest    string = "select_img.txt"

	envPrefix = "CASEVUE_"
)

var ThemesList = [...]string{
	string(ThemeLight),
	string(ThemeDark),
}

var BackendsList = [...]string{
	string(BackendFFmpeg),
	string(BackendOpenCV),
}

type VideoConfig struct {
	Backend VideoBackend `json:"backend"`
	FPS     uint         `json:"target_fps"`
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Loop    bool         `json:"loop"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type Config struct {
	mu sync.RWMutex

	ResultsRoot  string    `json:"results_root"`
	ManifestName string    `json:"manifest_name"`
	LogoPath     string    `json:"logo_path"`
	Theme        ThemeName `json:"theme"`

	Video VideoConfig `json:"video"`
	Log   LogConfig   `json:"log"`
}

func (c *Config) GetRoot() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ResultsRoot
}

func (c *Config) SetRoot(root string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ResultsRoot = root
}

func (c *Config) GetTheme() ThemeName {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Theme
}

func (c *Config) SetTheme(t ThemeName) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Theme = t
}

func (c *Config) GetVideo() VideoConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Video
}

func (c *Config) SetBackend(b VideoBackend) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Video.Backend = b
}

func (c *Config) SetLogLevel(level string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Log.Level = level
}

func (c *Config) GetLog() LogConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Log
}

// ManifestPath is the manifest location under the results root.
func (c *Config) ManifestPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filepath.Join(c.ResultsRoot, c.ManifestName)
}

func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []error

	if c.ResultsRoot == "" {
		errs = append(errs, errors.New("results_root is empty"))
	}
	if c.ManifestName == "" {
		errs = append(errs, errors.New("manifest_name is empty"))
	}
	switch c.Theme {
	case ThemeLight, ThemeDark:
	default:
		errs = append(errs, fmt.Errorf("unknown theme %q", c.Theme))
	}
	switch c.Video.Backend {
	case BackendFFmpeg, BackendOpenCV:
	default:
		errs = append(errs, fmt.Errorf("unknown video backend %q", c.Video.Backend))
	}
	if c.Video.FPS == 0 {
		errs = append(errs, errors.New("video target_fps must be positive"))
	}
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		errs = append(errs, fmt.Errorf("video size %dx%d must be positive", c.Video.Width, c.Video.Height))
	}

	return errors.Join(errs...)
}

func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config %s: %w", path, err)
	}

	return nil
}

// LoadConfigFile reads path on top of the defaults. A missing file is not
// an error; a file that exists but does not decode is.
func LoadConfigFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	return cfg, nil
}

// Load reads the config file, then applies .env and CASEVUE_* overrides.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}

	// .env is optional
	_ = godotenv.Load(envFiles...)

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides fields from CASEVUE_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(envPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("ROOT", &c.ResultsRoot)
	str("MANIFEST", &c.ManifestName)
	str("LOGO", &c.LogoPath)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	var theme, backend string
	str("THEME", &theme)
	str("VIDEO_BACKEND", &backend)
	if theme != "" {
		c.Theme = ThemeName(theme)
	}
	if backend != "" {
		c.Video.Backend = VideoBackend(backend)
	}

	if err := integer("VIDEO_WIDTH", &c.Video.Width); err != nil {
		return err
	}
	if err := integer("VIDEO_HEIGHT", &c.Video.Height); err != nil {
		return err
	}

	fps := int(c.Video.FPS)
	if err := integer("VIDEO_FPS", &fps); err != nil {
		return err
	}
	if fps < 0 {
		return fmt.Errorf("%sVIDEO_FPS: negative value %d", envPrefix, fps)
	}
	c.Video.FPS = uint(fps)

	if v, ok := lookup(envPrefix + "VIDEO_LOOP"); ok && v != "" {
		loop, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sVIDEO_LOOP: %w", envPrefix, err)
		}
		c.Video.Loop = loop
	}

	return nil
}

func NewDefaultConfig() *Config {
	return &Config{
		ResultsRoot:  DefaultResultsRoot,
		ManifestName: DefaultManifest,
		LogoPath:     "logo2.png",
		Theme:        ThemeLight,
		Video: VideoConfig{
			Backend: BackendFFmpeg,
			FPS:     24,
			Width:   300,
			Height:  250,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
