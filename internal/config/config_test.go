package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// newFlagBinder creates a FlagSet with all config flags registered at their defaults.
func newFlagBinder(defaults Config) *fakeBinder {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	return &fakeBinder{fs: fs}
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}

	if cfg.Paths.CacheDir != "models" {
		t.Errorf("Paths.CacheDir = %q; want %q", cfg.Paths.CacheDir, "models")
	}

	if cfg.Runtime.ORTAPIVersion != 23 {
		t.Errorf("Runtime.ORTAPIVersion = %d; want 23", cfg.Runtime.ORTAPIVersion)
	}

	if cfg.Framing.TokenFrameLength != 9 {
		t.Errorf("Framing.TokenFrameLength = %d; want 9", cfg.Framing.TokenFrameLength)
	}

	if cfg.Framing.AudioSampleCount != 16000 {
		t.Errorf("Framing.AudioSampleCount = %d; want 16000", cfg.Framing.AudioSampleCount)
	}

	if cfg.Framing.VideoFrameCount != 30 {
		t.Errorf("Framing.VideoFrameCount = %d; want 30", cfg.Framing.VideoFrameCount)
	}

	if cfg.Framing.ImageSize != 256 {
		t.Errorf("Framing.ImageSize = %d; want 256", cfg.Framing.ImageSize)
	}

	if cfg.Framing.NoiseDim != 128 {
		t.Errorf("Framing.NoiseDim = %d; want 128", cfg.Framing.NoiseDim)
	}

	if cfg.Convert.PlaceholderOnError {
		t.Error("Convert.PlaceholderOnError = true; want false")
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":8080")
	}

	if cfg.Server.Workers != 2 {
		t.Errorf("Server.Workers = %d; want 2", cfg.Server.Workers)
	}
}

// --- Validate ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"empty cache dir", func(c *Config) { c.Paths.CacheDir = "" }, true},
		{"zero token frame", func(c *Config) { c.Framing.TokenFrameLength = 0 }, true},
		{"negative sample count", func(c *Config) { c.Framing.AudioSampleCount = -1 }, true},
		{"zero video frames", func(c *Config) { c.Framing.VideoFrameCount = 0 }, true},
		{"zero image size", func(c *Config) { c.Framing.ImageSize = 0 }, true},
		{"zero noise dim", func(c *Config) { c.Framing.NoiseDim = 0 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			err := Validate(cfg)
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Framing.TokenFrameLength != 9 {
		t.Errorf("TokenFrameLength = %d; want 9", cfg.Framing.TokenFrameLength)
	}
	if cfg.Paths.CacheDir != "models" {
		t.Errorf("CacheDir = %q; want %q", cfg.Paths.CacheDir, "models")
	}
}

func TestLoad_FlagsOverrideDefaults(t *testing.T) {
	binder := newFlagBinder(DefaultConfig())
	if err := binder.fs.Set("framing-audio-sample-count", "24000"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := binder.fs.Set("paths-cache-dir", "/tmp/models"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Framing.AudioSampleCount != 24000 {
		t.Errorf("AudioSampleCount = %d; want 24000", cfg.Framing.AudioSampleCount)
	}
	if cfg.Paths.CacheDir != "/tmp/models" {
		t.Errorf("CacheDir = %q; want %q", cfg.Paths.CacheDir, "/tmp/models")
	}
}

func TestLoad_AliasFlagLandsOnCanonicalKey(t *testing.T) {
	binder := newFlagBinder(DefaultConfig())
	if err := binder.fs.Set("ort-lib", "/opt/ort/libonnxruntime.so"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Runtime.ORTLibraryPath != "/opt/ort/libonnxruntime.so" {
		t.Errorf("ORTLibraryPath = %q; want alias flag value", cfg.Runtime.ORTLibraryPath)
	}
}

// Load without a flag set must keep every default reachable; alias
// registration is tied to bound flags so the canonical keys stay intact.
func TestLoad_NilCmdKeepsDefaults(t *testing.T) {
	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Paths.CacheDir != "models" {
		t.Errorf("CacheDir = %q; want %q", cfg.Paths.CacheDir, "models")
	}
	if cfg.Runtime.ORTAPIVersion != 23 {
		t.Errorf("ORTAPIVersion = %d; want 23", cfg.Runtime.ORTAPIVersion)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":8080")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crossmodal.yaml")
	content := []byte("framing:\n  token_frame_length: 12\nserver:\n  listen_addr: \":9999\"\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(LoadOptions{ConfigFile: path, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Framing.TokenFrameLength != 12 {
		t.Errorf("TokenFrameLength = %d; want 12", cfg.Framing.TokenFrameLength)
	}
	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":9999")
	}
	if cfg.Framing.AudioSampleCount != 16000 {
		t.Errorf("AudioSampleCount = %d; want default 16000", cfg.Framing.AudioSampleCount)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: filepath.Join(t.TempDir(), "missing.yaml"),
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crossmodal.yaml")
	if err := os.WriteFile(path, []byte("framing:\n  token_frame_length: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(LoadOptions{ConfigFile: path, Defaults: DefaultConfig()}); err == nil {
		t.Fatal("expected validation error")
	}
}
