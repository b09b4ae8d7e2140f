package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Waveform WaveformConfig `mapstructure:"waveform"`
	Labels   LabelsConfig   `mapstructure:"labels"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	Mode          string        `mapstructure:"mode"` // gin mode: debug, release, test
	TemplatesGlob string        `mapstructure:"templates"`
	StaticDir     string        `mapstructure:"static"`
	DatasetDir    string        `mapstructure:"datasetdir"`
	AllowOrigins  []string      `mapstructure:"alloworigins"`
	ReadTimeout   time.Duration `mapstructure:"readtimeout"`
	WriteTimeout  time.Duration `mapstructure:"writetimeout"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // sqlite, mysql, postgres
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"loglevel"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwtsecret"`
	TokenTTL  time.Duration `mapstructure:"tokenttl"`
	HoldTTL   time.Duration `mapstructure:"holdttl"`
}

type WaveformConfig struct {
	TargetFS         float64       `mapstructure:"targetfs"`
	Length           float64       `mapstructure:"length"`
	TargetLeads      int           `mapstructure:"targetleads"`
	SourceFS         float64       `mapstructure:"sourcefs"`
	AmplitudeScale   float64       `mapstructure:"amplitudescale"`
	FillMissingLeads bool          `mapstructure:"fillmissingleads"`
	Denoise          bool          `mapstructure:"denoise"`
	LowCutoff        float64       `mapstructure:"lowcutoff"`
	HighCutoff       float64       `mapstructure:"highcutoff"`
	MaxConcurrent    int64         `mapstructure:"maxconcurrent"`
	Timeout          time.Duration `mapstructure:"timeout"`
	CacheTTL         time.Duration `mapstructure:"cachettl"`
}

type LabelsConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

// SetDefaults registers every key so environment overrides and Unmarshal see them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8090")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.templates", "templates/*")
	v.SetDefault("server.static", "./static")
	v.SetDefault("server.datasetdir", "./dataset")
	v.SetDefault("server.alloworigins", []string{"*"})
	v.SetDefault("server.readtimeout", 15*time.Second)
	v.SetDefault("server.writetimeout", 30*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "ecg.db")
	v.SetDefault("database.loglevel", "warn")

	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttl", 12*time.Hour)
	v.SetDefault("auth.holdttl", 30*time.Minute)

	v.SetDefault("waveform.targetfs", 200.0)
	v.SetDefault("waveform.length", 10.0)
	v.SetDefault("waveform.targetleads", 12)
	v.SetDefault("waveform.sourcefs", 500.0)
	v.SetDefault("waveform.amplitudescale", 1000.0)
	v.SetDefault("waveform.fillmissingleads", false)
	v.SetDefault("waveform.denoise", false)
	v.SetDefault("waveform.lowcutoff", 0.25)
	v.SetDefault("waveform.highcutoff", 60.0)
	v.SetDefault("waveform.maxconcurrent", 4)
	v.SetDefault("waveform.timeout", 10*time.Second)
	v.SetDefault("waveform.cachettl", 10*time.Minute)

	v.SetDefault("labels.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads defaults, then the optional config file, then ECGVIEWER_* environment variables.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("ECGVIEWER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q: expected sqlite, mysql or postgres", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is empty"))
	}
	if c.Waveform.TargetFS <= 0 {
		errs = append(errs, fmt.Errorf("waveform.targetfs must be positive, got %v", c.Waveform.TargetFS))
	}
	if c.Waveform.Length <= 0 {
		errs = append(errs, fmt.Errorf("waveform.length must be positive, got %v", c.Waveform.Length))
	}
	if c.Waveform.TargetLeads <= 0 {
		errs = append(errs, fmt.Errorf("waveform.targetleads must be positive, got %d", c.Waveform.TargetLeads))
	}
	if c.Waveform.SourceFS < 0 {
		errs = append(errs, fmt.Errorf("waveform.sourcefs must not be negative, got %v", c.Waveform.SourceFS))
	}
	if c.Waveform.AmplitudeScale == 0 {
		errs = append(errs, errors.New("waveform.amplitudescale must not be zero"))
	}
	if c.Waveform.HighCutoff <= c.Waveform.LowCutoff {
		errs = append(errs, fmt.Errorf("waveform.highcutoff %v must exceed lowcutoff %v", c.Waveform.HighCutoff, c.Waveform.LowCutoff))
	}

	return errors.Join(errs...)
}
