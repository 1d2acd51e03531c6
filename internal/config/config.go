package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	appName = "taskflow"

	// DefaultBaseURL is used when neither the config file nor
	// TASKFLOW_API_URL names the gateway
	DefaultBaseURL = "http://localhost:5000/api"

	// EnvBaseURL overrides api.base_url
	EnvBaseURL = "TASKFLOW_API_URL"
)

// Config is the effective client configuration
type Config struct {
	API     APIConfig `yaml:"api" mapstructure:"api"`
	UI      UIConfig  `yaml:"ui" mapstructure:"ui"`
	Log     LogConfig `yaml:"log" mapstructure:"log"`
	DataDir string    `yaml:"data_dir" mapstructure:"data_dir"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type UIConfig struct {
	// Debounce delays list queries while the user is still typing
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
	PageSize int           `yaml:"page_size" mapstructure:"page_size"`
}

type LogConfig struct {
	Debug bool   `yaml:"debug" mapstructure:"debug"`
	File  string `yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 15 * time.Second,
		},
		UI: UIConfig{
			Debounce: 300 * time.Millisecond,
			PageSize: 10,
		},
		Log: LogConfig{
			File: filepath.Join(xdgDir("XDG_STATE_HOME", ".local", "state"), appName, appName+".log"),
		},
		DataDir: filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), appName),
	}
}

// Load reads path (or the default location when empty) over the defaults
// and applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.BindEnv("api.base_url", EnvBaseURL); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.UI.PageSize <= 0 {
		cfg.UI.PageSize = 10
	}
	return cfg, nil
}

// DefaultPath is $XDG_CONFIG_HOME/taskflow/config.yaml
func DefaultPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), appName, "config.yaml")
}

// WriteDefault writes a commented default configuration to path
func WriteDefault(path string) error {
	content := `# TaskFlow client configuration

api:
  # Gateway base URL. TASKFLOW_API_URL overrides this.
  base_url: ` + DefaultBaseURL + `
  timeout: 15s

ui:
  # Delay before a filter change queries the server
  debounce: 300ms
  page_size: 10

log:
  # Write a debug log while the TUI is running
  debug: false
`
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// Render returns cfg as YAML
func Render(cfg *Config) (string, error) {
	out := struct {
		API     map[string]string `yaml:"api"`
		UI      map[string]string `yaml:"ui"`
		Log     LogConfig         `yaml:"log"`
		DataDir string            `yaml:"data_dir"`
	}{
		API: map[string]string{
			"base_url": cfg.API.BaseURL,
			"timeout":  cfg.API.Timeout.String(),
		},
		UI: map[string]string{
			"debounce":  cfg.UI.Debounce.String(),
			"page_size": fmt.Sprint(cfg.UI.PageSize),
		},
		Log:     cfg.Log,
		DataDir: cfg.DataDir,
	}
	b, err := yaml.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}
