package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"www.velocidex.com/golang/go-usnjournal/parser"
)

func TestLoad_NotExists(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
report:
  date_format: "%Y-%m-%d"
  locale: de
  format_char: "#"
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "%Y-%m-%d", cfg.Report.DateFormat)
	assert.Equal(t, "de", cfg.Report.Locale)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Unset fields keep their defaults.
	assert.Equal(t, parser.DefaultTimeFormat, cfg.Report.TimeFormat)
	assert.True(t, cfg.Scan.CacheFileLookups)

	options := parser.GetDefaultOptions()
	cfg.Apply(&options)
	assert.Equal(t, '#', options.FormatChar)
	assert.Equal(t, "%Y-%m-%d", options.DateFormat)
	assert.Equal(t, "de", options.Locale)
	assert.Equal(t, parser.DefaultPageSize, options.PageSize)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report: [1, 2"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.Report.Separator = ", "
	cfg.Cursor.Database = "/tmp/cursor.db"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
