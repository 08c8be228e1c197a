// Package config holds the persistent report settings: date and
// time patterns, number locale, separators and the cursor database.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"www.velocidex.com/golang/go-usnjournal/parser"
)

type Config struct {
	Report  ReportConfig  `yaml:"report"`
	Scan    ScanConfig    `yaml:"scan"`
	Cursor  CursorConfig  `yaml:"cursor"`
	Logging LoggingConfig `yaml:"logging"`
}

// ReportConfig controls how rows are rendered. Date and time use
// strftime patterns.
type ReportConfig struct {
	DateFormat string `yaml:"date_format"`
	TimeFormat string `yaml:"time_format"`
	Locale     string `yaml:"locale"`
	Separator  string `yaml:"separator"`
	DirLabel   string `yaml:"dir_label"`
	FormatChar string `yaml:"format_char"`
}

type ScanConfig struct {
	PageSize         int  `yaml:"page_size"`
	CacheFileLookups bool `yaml:"cache_file_lookups"`
}

type CursorConfig struct {
	Database string `yaml:"database"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console, json
}

func Default() *Config {
	return &Config{
		Report: ReportConfig{
			DateFormat: parser.DefaultDateFormat,
			TimeFormat: parser.DefaultTimeFormat,
			Locale:     parser.DefaultLocale,
			Separator:  " ",
			DirLabel:   "D",
			FormatChar: "%",
		},
		Scan: ScanConfig{
			PageSize:         parser.DefaultPageSize,
			CacheFileLookups: true,
		},
		Cursor: CursorConfig{
			Database: DefaultCursorDatabase(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "usnjournal")
}

// DefaultPath is config.yaml in the user's config directory.
func DefaultPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func DefaultCursorDatabase() string {
	return filepath.Join(configDir(), "cursor.db")
}

// Load reads the config file, or DefaultPath if path is empty. A
// missing file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %v: %w", path, err)
	}

	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Apply copies the settings into scan options. Empty settings keep
// the option defaults.
func (self *Config) Apply(options *parser.Options) {
	if self.Report.DateFormat != "" {
		options.DateFormat = self.Report.DateFormat
	}
	if self.Report.TimeFormat != "" {
		options.TimeFormat = self.Report.TimeFormat
	}
	if self.Report.Locale != "" {
		options.Locale = self.Report.Locale
	}
	if self.Report.Separator != "" {
		options.Separator = self.Report.Separator
	}
	if self.Report.DirLabel != "" {
		options.DirLabel = self.Report.DirLabel
	}
	for _, c := range self.Report.FormatChar {
		options.FormatChar = c
		break
	}
	if self.Scan.PageSize > 0 {
		options.PageSize = self.Scan.PageSize
	}
	options.CacheFileLookups = self.Scan.CacheFileLookups
}
