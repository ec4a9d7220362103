package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tubemerge/internal/model"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	// Keep the user's real config directory out of the test.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	return viper.New()
}

func TestLoadDefaults(t *testing.T) {
	v := newViper(t)
	if err := Init(v, nil, ""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Retention != 7200*time.Second {
		t.Errorf("Retention = %v, want 2h", cfg.Retention)
	}
	if cfg.PublicBaseURL != "/media/" {
		t.Errorf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
	if cfg.PreferredLanguage != "pt" || cfg.Container != "mp4" || cfg.AudioCodec != "aac" {
		t.Errorf("media defaults = %q %q %q", cfg.PreferredLanguage, cfg.Container, cfg.AudioCodec)
	}
	if cfg.Scratch != ScratchPerRequest || cfg.Extractor != "youtube" {
		t.Errorf("Scratch = %q, Extractor = %q", cfg.Scratch, cfg.Extractor)
	}
	if cfg.Jobs != 1 {
		t.Errorf("Jobs = %d", cfg.Jobs)
	}
}

func TestLoadPrecedence(t *testing.T) {
	v := newViper(t)
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	content := "retention: 30m\ncontainer: .WEBM\npublic_base_url: https://cdn.example.com/files\nlog_level: warn\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TUBEMERGE_LOG_LEVEL", "error")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("out-dir", "", "")
	flags.Int("jobs", 1, "")
	if err := flags.Parse([]string{"--out-dir", dir, "--jobs", "3"}); err != nil {
		t.Fatal(err)
	}

	if err := Init(v, flags, cfgFile); err != nil {
		t.Fatalf("Init: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Retention != 30*time.Minute {
		t.Errorf("Retention = %v, want file value 30m", cfg.Retention)
	}
	if cfg.Container != "webm" {
		t.Errorf("Container = %q, want normalized webm", cfg.Container)
	}
	if cfg.PublicBaseURL != "https://cdn.example.com/files/" {
		t.Errorf("PublicBaseURL = %q, want trailing slash", cfg.PublicBaseURL)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, env should beat file", cfg.LogLevel)
	}
	if cfg.OutDir != dir || cfg.Jobs != 3 {
		t.Errorf("flags not applied: out=%q jobs=%d", cfg.OutDir, cfg.Jobs)
	}
}

func TestInitMissingExplicitFile(t *testing.T) {
	v := newViper(t)
	err := Init(v, nil, filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("err = %v, want configuration error", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			OutDir:        "/srv/media",
			PublicBaseURL: "/media/",
			Retention:     time.Hour,
			Container:     "mp4",
			Scratch:       ScratchPerRequest,
			Extractor:     "youtube",
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty out dir", mutate: func(c *Config) { c.OutDir = "" }, wantKey: "out_dir"},
		{name: "zero retention", mutate: func(c *Config) { c.Retention = 0 }, wantKey: "retention"},
		{name: "bad scratch", mutate: func(c *Config) { c.Scratch = "tmpfs" }, wantKey: "scratch"},
		{name: "bad extractor", mutate: func(c *Config) { c.Extractor = "pytube" }, wantKey: "extractor"},
		{name: "relative base url", mutate: func(c *Config) { c.PublicBaseURL = "media/" }, wantKey: "public_base_url"},
		{name: "rate without burst", mutate: func(c *Config) { c.DownloadRate = 1 }, wantKey: "download_burst"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantKey == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			var ce *model.ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *model.ConfigurationError", err)
			}
			if ce.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", ce.Key, tt.wantKey)
			}
		})
	}
}

func TestResolveFFmpeg(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir)

	c := Config{FFmpegPath: filepath.Join(dir, "bin", "ffmpeg"), Extractor: "youtube"}
	if _, err := Resolve(c); !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("Resolve without ffmpeg: err = %v", err)
	}

	onPath := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(onPath, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := Resolve(c)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.FFmpegPath != onPath {
		t.Errorf("FFmpegPath = %q, want PATH fallback %q", got.FFmpegPath, onPath)
	}

	c.Extractor = "ytdlp"
	var ce *model.ConfigurationError
	if _, err := Resolve(c); !errors.As(err, &ce) || ce.Key != "dl_binary" {
		t.Errorf("Resolve ytdlp without binary: err = %v", err)
	}
}
