// Package config loads tubemerge settings from flags, environment and an
// optional config file, and resolves external binaries once at startup.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tubemerge/internal/dirs"
	"tubemerge/internal/downloader"
	"tubemerge/internal/model"
	"tubemerge/internal/util/deps"
)

// EnvPrefix is prepended to every environment variable, e.g. TUBEMERGE_OUT_DIR.
const EnvPrefix = "TUBEMERGE"

// Scratch modes.
const (
	ScratchPerRequest = "per-request"
	ScratchShared     = "shared"
)

// Config is the explicit settings struct handed to each component.
type Config struct {
	OutDir        string
	PublicBaseURL string

	Retention  time.Duration
	SweepGrace time.Duration

	PreferredLanguage string
	Container         string
	AudioCodec        string

	FFmpegPath     string
	Extractor      string
	DownloaderPath string
	Scratch        string

	ExtractTimeout  time.Duration
	DownloadTimeout time.Duration
	MergeTimeout    time.Duration

	Listen         string
	RequestTimeout time.Duration
	DownloadRate   float64 // merges per second across all clients; 0 disables limiting
	DownloadBurst  int

	LogLevel  string
	LogFormat string
	Verbose   bool
	Jobs      int
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"out-dir":    "out_dir",
	"verbose":    "verbose",
	"log-level":  "log_level",
	"log-format": "log_format",
	"extractor":  "extractor",
	"dl-binary":  "dl_binary",
	"ffmpeg":     "ffmpeg_path",
	"language":   "preferred_language",
	"jobs":       "jobs",
	"listen":     "listen",
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	out, err := dirs.DefaultOutputDir()
	if err != nil {
		out = "media"
	}
	v.SetDefault("out_dir", out)
	v.SetDefault("public_base_url", "/media/")
	v.SetDefault("retention", 7200*time.Second)
	v.SetDefault("sweep_grace", time.Minute)
	v.SetDefault("preferred_language", "pt")
	v.SetDefault("container", "mp4")
	v.SetDefault("audio_codec", "aac")
	v.SetDefault("ffmpeg_path", bundledFFmpeg())
	v.SetDefault("extractor", downloader.KindYouTube)
	v.SetDefault("dl_binary", "")
	v.SetDefault("scratch", ScratchPerRequest)
	v.SetDefault("extract_timeout", 30*time.Second)
	v.SetDefault("download_timeout", 10*time.Minute)
	v.SetDefault("merge_timeout", 10*time.Minute)
	v.SetDefault("listen", ":8000")
	v.SetDefault("request_timeout", 15*time.Minute)
	v.SetDefault("download_rate", 0.5)
	v.SetDefault("download_burst", 4)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("verbose", false)
	v.SetDefault("jobs", 1)
}

// Init wires v with defaults, config search paths, environment and flag
// bindings, then reads the config file. A missing config file is not an
// error; an explicit cfgFile that cannot be read is.
func Init(v *viper.Viper, flags *pflag.FlagSet, cfgFile string) error {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if cfgDir, err := dirs.ConfigDir(); err == nil {
			v.AddConfigPath(cfgDir)
		}
		v.AddConfigPath(".")
		v.SetConfigName("config") // supports config.{yaml|yml|json|toml}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		return &model.ConfigurationError{Key: "config", Err: err}
	}
	return nil
}

// Load builds a validated Config from v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		OutDir:            strings.TrimSpace(v.GetString("out_dir")),
		PublicBaseURL:     strings.TrimSpace(v.GetString("public_base_url")),
		Retention:         v.GetDuration("retention"),
		SweepGrace:        v.GetDuration("sweep_grace"),
		PreferredLanguage: strings.TrimSpace(v.GetString("preferred_language")),
		Container:         strings.TrimPrefix(strings.ToLower(strings.TrimSpace(v.GetString("container"))), "."),
		AudioCodec:        strings.TrimSpace(v.GetString("audio_codec")),
		FFmpegPath:        strings.TrimSpace(v.GetString("ffmpeg_path")),
		Extractor:         strings.ToLower(strings.TrimSpace(v.GetString("extractor"))),
		DownloaderPath:    strings.TrimSpace(v.GetString("dl_binary")),
		Scratch:           strings.ToLower(strings.TrimSpace(v.GetString("scratch"))),
		ExtractTimeout:    v.GetDuration("extract_timeout"),
		DownloadTimeout:   v.GetDuration("download_timeout"),
		MergeTimeout:      v.GetDuration("merge_timeout"),
		Listen:            strings.TrimSpace(v.GetString("listen")),
		RequestTimeout:    v.GetDuration("request_timeout"),
		DownloadRate:      v.GetFloat64("download_rate"),
		DownloadBurst:     v.GetInt("download_burst"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
		Verbose:           v.GetBool("verbose"),
		Jobs:              v.GetInt("jobs"),
	}

	if cfg.Verbose && cfg.LogLevel == "info" {
		cfg.LogLevel = "debug"
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	if cfg.PublicBaseURL != "" && !strings.HasSuffix(cfg.PublicBaseURL, "/") {
		cfg.PublicBaseURL += "/"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	invalid := func(key, format string, args ...any) error {
		return &model.ConfigurationError{Key: key, Err: fmt.Errorf(format, args...)}
	}
	switch {
	case c.OutDir == "":
		return invalid("out_dir", "must not be empty")
	case c.Container == "":
		return invalid("container", "must not be empty")
	case c.Retention <= 0:
		return invalid("retention", "must be positive, got %s", c.Retention)
	case c.SweepGrace < 0:
		return invalid("sweep_grace", "must not be negative")
	case c.DownloadRate < 0:
		return invalid("download_rate", "must not be negative")
	case c.DownloadRate > 0 && c.DownloadBurst < 1:
		return invalid("download_burst", "must be at least 1 when download_rate is set")
	}
	if !strings.HasPrefix(c.PublicBaseURL, "/") &&
		!strings.HasPrefix(c.PublicBaseURL, "http://") &&
		!strings.HasPrefix(c.PublicBaseURL, "https://") {
		return invalid("public_base_url", "must be an absolute path or http(s) URL, got %q", c.PublicBaseURL)
	}
	switch c.Scratch {
	case ScratchPerRequest, ScratchShared:
	default:
		return invalid("scratch", "must be %q or %q, got %q", ScratchPerRequest, ScratchShared, c.Scratch)
	}
	switch c.Extractor {
	case downloader.KindYouTube, downloader.KindYTDLP:
	default:
		return invalid("extractor", "must be %q or %q, got %q", downloader.KindYouTube, downloader.KindYTDLP, c.Extractor)
	}
	return nil
}

// Resolve locates external binaries. It is called once at startup; the
// returned Config carries absolute binary paths.
func Resolve(c Config) (Config, error) {
	ff, err := deps.FindFFmpeg(c.FFmpegPath)
	if err != nil {
		return c, &model.ConfigurationError{Key: "ffmpeg_path", Err: err}
	}
	c.FFmpegPath = ff

	if c.Extractor == downloader.KindYTDLP {
		dl, err := deps.FindDownloader(c.DownloaderPath)
		if err != nil {
			return c, &model.ConfigurationError{Key: "dl_binary", Err: err}
		}
		c.DownloaderPath = dl
	}
	return c, nil
}

func bundledFFmpeg() string {
	if runtime.GOOS == "windows" {
		return `bin\ffmpeg.exe`
	}
	return "bin/ffmpeg"
}
