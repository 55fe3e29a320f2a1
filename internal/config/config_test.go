package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nconklindev/csvmaker/internal/types"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "delimited", cfg.Format)
	assert.Equal(t, ",", cfg.Delimiter)
	assert.True(t, cfg.Strict)
	assert.True(t, cfg.Header)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("CSVMAKER_DELIMITER", "|")
	t.Setenv("CSVMAKER_LOG_LEVEL", "debug")
	t.Setenv("CSVMAKER_WORKERS", "4")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "|", cfg.Delimiter)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Workers)
}

func TestReadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csvmaker.yaml")
	content := strings.Join([]string{
		"format: fixed-width",
		"widths: 2,3",
		"qualifier: '\"'",
		"output_dir: out",
		"log:",
		"  json: true",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	SetDefaults(v)
	require.NoError(t, ReadConfig(v, path))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "fixed-width", cfg.Format)
	assert.Equal(t, "2,3", cfg.Widths)
	assert.Equal(t, `"`, cfg.Qualifier)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.True(t, cfg.Log.JSON)
}

func TestReadConfig_MissingExplicitFile(t *testing.T) {
	v := viper.New()
	err := ReadConfig(v, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestReadConfig_SearchPathWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	v := viper.New()
	assert.NoError(t, ReadConfig(v, ""))
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{Format: "delimited", Delimiter: ",", Workers: 1, Strict: true}
	}

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"Valid delimited", func(c *Config) {}, false},
		{"Named delimiter", func(c *Config) { c.Delimiter = "tab" }, false},
		{"Empty delimiter", func(c *Config) { c.Delimiter = "" }, true},
		{"Two character delimiter", func(c *Config) { c.Delimiter = ";;" }, true},
		{"Unknown format", func(c *Config) { c.Format = "json" }, true},
		{"Fixed width without widths", func(c *Config) { c.Format = "fixed-width" }, true},
		{"Fixed width with widths", func(c *Config) { c.Format = "fixed-width"; c.Widths = "2,3" }, false},
		{"Fixed width bad widths", func(c *Config) { c.Format = "fixed-width"; c.Widths = "2,,3" }, true},
		{"Fixed width with layout", func(c *Config) { c.Format = "fixed-width"; c.Layout = "layout.txt" }, false},
		{"Whitespace qualifier", func(c *Config) { c.Qualifier = "  " }, true},
		{"Quote qualifier", func(c *Config) { c.Qualifier = `"` }, false},
		{"Zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"Tabular ignores delimiter", func(c *Config) { c.Format = "tabular"; c.Delimiter = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestJob(t *testing.T) {
	cfg := Config{
		Format:    "delimited",
		Delimiter: "pipe",
		Qualifier: `"`,
		CRLF:      true,
		Encoding:  "windows-1252",
		Workers:   1,
	}

	job, err := cfg.Job()
	require.NoError(t, err)
	assert.Equal(t, types.FormatDelimited, job.Format)
	assert.Equal(t, '|', job.Delimiter)
	assert.Equal(t, "windows-1252", job.Encoding)
	assert.Equal(t, types.Options{Qualifier: `"`, LineTerminator: "\r\n"}, job.Options)
}

func TestJob_LayoutFile(t *testing.T) {
	layout := strings.Repeat("header\n", 8) + "ID 4 1\nNAME 10 5\n"
	path := filepath.Join(t.TempDir(), "layout.txt")
	require.NoError(t, os.WriteFile(path, []byte(layout), 0o644))

	cfg := Config{Format: "fixed", Widths: "1,1", Layout: path, Strict: true, Workers: 1}
	job, err := cfg.Job()
	require.NoError(t, err)
	assert.Equal(t, types.FormatFixedWidth, job.Format)
	assert.Equal(t, types.FieldWidths{4, 10}, job.Widths)
	assert.True(t, job.Strict)

	cfg.Layout = filepath.Join(t.TempDir(), "missing.txt")
	_, err = cfg.Job()
	assert.Error(t, err)
}
