package main

import (
	"testing"

	"github.com/example/crossmodal/internal/config"
)

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"convert", "model", "serve", "health", "doctor"}
	for _, name := range want {
		found := false

		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("expected subcommand %q not found in root", name)
		}
	}
}

func TestNewRootCmd_HasPersistentConfigFlag(t *testing.T) {
	root := NewRootCmd()
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("expected --config persistent flag to be registered")
	}
}

func TestSetupLogger_DoesNotPanic(_ *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		setupLogger(level)
	}
}

func TestSetupLogger_InvalidLevelFallsBackToInfo(_ *testing.T) {
	// Should not panic on invalid level.
	setupLogger("not-a-level")
}

func TestRequireConfig_FailsWhenNotInitialized(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	// Zero-value config has empty Paths.CacheDir → requireConfig returns error.
	activeCfg = config.Config{}

	_, err := requireConfig()
	if err == nil {
		t.Fatal("expected error when config is not loaded")
	}
}

func TestRequireConfig_SucceedsWhenLoaded(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.Config{
		Paths: config.PathsConfig{CacheDir: "/some/cache/dir"},
	}

	got, err := requireConfig()
	if err != nil {
		t.Fatalf("requireConfig returned unexpected error: %v", err)
	}

	if got.Paths.CacheDir != "/some/cache/dir" {
		t.Errorf("unexpected CacheDir: %q", got.Paths.CacheDir)
	}
}

func TestResolveModelIDs(t *testing.T) {
	all, err := resolveModelIDs("all")
	if err != nil {
		t.Fatalf("resolveModelIDs(all): %v", err)
	}
	if len(all) != 7 {
		t.Errorf("want 7 model IDs, got %d", len(all))
	}

	one, err := resolveModelIDs("acoustic-de")
	if err != nil {
		t.Fatalf("resolveModelIDs(acoustic-de): %v", err)
	}
	if len(one) != 1 || one[0] != "acoustic-de" {
		t.Errorf("unexpected IDs: %v", one)
	}

	if _, err := resolveModelIDs("no-such-model"); err == nil {
		t.Error("want error for unknown model ID")
	}
}
