// Package config loads csvmaker settings from defaults, an optional
// csvmaker.{yaml,toml} file, CSVMAKER_* environment variables and command
// line flags, in increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/nconklindev/csvmaker/internal/converter"
	"github.com/nconklindev/csvmaker/internal/types"
)

// EnvPrefix is prepended to every environment variable, e.g. CSVMAKER_DELIMITER.
const EnvPrefix = "CSVMAKER"

// ConfigName is the config file base name searched for in each config path.
const ConfigName = "csvmaker"

type Config struct {
	Format    string `mapstructure:"format"`
	Delimiter string `mapstructure:"delimiter"`
	Widths    string `mapstructure:"widths"`
	Layout    string `mapstructure:"layout"`
	Qualifier string `mapstructure:"qualifier"`
	OutputDir string `mapstructure:"output_dir"`
	Encoding  string `mapstructure:"encoding"`
	Strict    bool   `mapstructure:"strict"`
	CRLF      bool   `mapstructure:"crlf"`
	Sheet     string `mapstructure:"sheet"`
	Header    bool   `mapstructure:"header"`
	Query     string `mapstructure:"query"`
	Workers   int    `mapstructure:"workers"`

	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig is used by the query command.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("format", "delimited")
	v.SetDefault("delimiter", ",")
	v.SetDefault("widths", "")
	v.SetDefault("layout", "")
	v.SetDefault("qualifier", "")
	v.SetDefault("output_dir", "")
	v.SetDefault("encoding", "utf-8")
	v.SetDefault("strict", true)
	v.SetDefault("crlf", false)
	v.SetDefault("sheet", "")
	v.SetDefault("header", true) // first worksheet row holds column names
	v.SetDefault("query", "")
	v.SetDefault("workers", 1)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.json", false)
}

// New returns a viper instance with defaults and environment binding set up.
// Config files are not read until ReadConfig is called.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// ReadConfig merges a config file into v. With an explicit path that file
// must exist; otherwise csvmaker.{yaml,toml} is looked up in the working
// directory and then ~/.config/csvmaker, and a missing file is not an error.
func ReadConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config file %s", path)
		}
		return nil
	}

	v.SetConfigName(ConfigName)
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", ConfigName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "read config file")
	}
	return nil
}

// Load unmarshals v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}

// Validate checks the settings a conversion depends on.
func (c *Config) Validate() error {
	format, err := types.ParseFormat(c.Format)
	if err != nil {
		return err
	}

	switch format {
	case types.FormatDelimited:
		if c.Delimiter == "" {
			return errors.WithHint(errors.New("no delimiter set"), "pass --delimiter, e.g. --delimiter '|'")
		}
		if _, err := converter.ParseDelimiter(c.Delimiter); err != nil {
			return err
		}
	case types.FormatFixedWidth:
		if c.Widths == "" && c.Layout == "" {
			return errors.WithHint(errors.New("no field widths set"),
				"pass --widths 15,31,24 or --layout <layout file>")
		}
		if c.Widths != "" {
			if _, err := converter.ParseFieldWidths(c.Widths); err != nil {
				return err
			}
		}
	}

	if c.Qualifier != "" && strings.TrimSpace(c.Qualifier) == "" {
		return errors.New("text qualifier cannot be whitespace")
	}
	if c.Workers < 1 {
		return errors.Newf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// Options returns the encoder options.
func (c *Config) Options() types.Options {
	opts := types.Options{Qualifier: c.Qualifier}
	if c.CRLF {
		opts.LineTerminator = "\r\n"
	}
	return opts
}

// Job validates the config and builds a conversion job from it. A layout
// file, when set, takes precedence over the widths list.
func (c *Config) Job() (converter.Job, error) {
	if err := c.Validate(); err != nil {
		return converter.Job{}, err
	}
	format, _ := types.ParseFormat(c.Format)

	job := converter.Job{
		Format:   format,
		Strict:   c.Strict,
		Encoding: c.Encoding,
		Sheet:    c.Sheet,
		Header:   c.Header,
		Query:    c.Query,
		Options:  c.Options(),
	}

	switch format {
	case types.FormatDelimited:
		job.Delimiter, _ = converter.ParseDelimiter(c.Delimiter)
	case types.FormatFixedWidth:
		widths, err := c.fieldWidths()
		if err != nil {
			return converter.Job{}, err
		}
		job.Widths = widths
	}
	return job, nil
}

func (c *Config) fieldWidths() (types.FieldWidths, error) {
	if c.Layout == "" {
		return converter.ParseFieldWidths(c.Widths)
	}

	f, err := os.Open(c.Layout)
	if err != nil {
		return nil, errors.Wrap(err, "open layout file")
	}
	defer f.Close()

	return converter.ParseLayoutFile(f)
}
