// Package config loads the StudyBoard YAML configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	UserID        string          `yaml:"user_id"`
	AIURL         string          `yaml:"ai_url"`
	SessionURL    string          `yaml:"session_url"` // empty: local SQLite store
	DBPath        string          `yaml:"db_path"`
	SessionListen string          `yaml:"session_listen"` // host also serves the session API here
	AutosaveDelay time.Duration   `yaml:"autosave_delay"`
	Pen           PenConfig       `yaml:"pen"`
	Share         ShareConfig     `yaml:"share"`
	Translate     TranslateConfig `yaml:"translate"`
	Export        ExportConfig    `yaml:"export"`
}

// PenConfig is the initial stroke style.
type PenConfig struct {
	Color string  `yaml:"color"`
	Width float64 `yaml:"width"`
}

// ShareConfig controls LAN live share.
type ShareConfig struct {
	Port      int  `yaml:"port"`
	Advertise bool `yaml:"advertise"`
}

// TranslateConfig points at the note translation service.
type TranslateConfig struct {
	URL        string `yaml:"url"`
	SourceLang string `yaml:"source_lang"`
	TargetLang string `yaml:"target_lang"`
}

// ExportConfig tunes PDF export.
type ExportConfig struct {
	Font string `yaml:"font"` // TrueType file for non-Latin text
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		UserID:        defaultUser(),
		AIURL:         "http://localhost:5000",
		DBPath:        filepath.Join(dataDir(), "boards.db"),
		AutosaveDelay: 3 * time.Second,
		Pen:           PenConfig{Color: "#000000", Width: 3},
		Share:         ShareConfig{Port: 8888, Advertise: true},
		Translate: TranslateConfig{
			URL:        "http://localhost:5001",
			SourceLang: "eng_Latn",
			TargetLang: "hin_Deva",
		},
	}
}

func defaultUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}

func dataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "StudyBoard")
}

// DefaultPath is where LoadOrDefault looks for a config file.
func DefaultPath() string {
	return filepath.Join(dataDir(), "config.yaml")
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// LoadOrDefault loads path when it exists and falls back to the defaults
// otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		return cfg, cfg.Validate()
	}
	return LoadConfig(path)
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if err := checkURL("ai_url", c.AIURL, true); err != nil {
		return err
	}
	if err := checkURL("session_url", c.SessionURL, false); err != nil {
		return err
	}
	if c.SessionURL == "" && c.DBPath == "" {
		return fmt.Errorf("db_path is required when session_url is empty")
	}
	if c.AutosaveDelay <= 0 {
		return fmt.Errorf("autosave_delay must be > 0")
	}
	if c.Pen.Width <= 0 {
		return fmt.Errorf("pen.width must be > 0")
	}
	if c.Share.Port <= 0 || c.Share.Port > 65535 {
		return fmt.Errorf("share.port %d out of range", c.Share.Port)
	}
	if err := checkURL("translate.url", c.Translate.URL, false); err != nil {
		return err
	}
	if c.Translate.SourceLang == "" || c.Translate.TargetLang == "" {
		return fmt.Errorf("translate languages are required")
	}
	return nil
}

func checkURL(field, raw string, required bool) error {
	if raw == "" {
		if required {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s: %q is not an http(s) URL", field, raw)
	}
	return nil
}
