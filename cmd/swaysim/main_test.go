package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/swaysim/internal/config"
	"github.com/san-kum/swaysim/internal/storage"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func TestConfigInitLayersPresetAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := execute(t, "config", "init", path, "--preset", "tuned", "--height", "120", "--log-level", "error"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Building.Height != 120 {
		t.Errorf("height = %v, want 120", cfg.Building.Height)
	}
	if want := config.GetPreset("tuned").Damper.Length; cfg.Damper.Length != want {
		t.Errorf("damper length = %v, want preset %v", cfg.Damper.Length, want)
	}

	if err := execute(t, "config", "init", path); err == nil {
		t.Error("expected refusal to overwrite without --force")
	}
}

func TestUnknownPreset(t *testing.T) {
	if err := execute(t, "tune", "--preset", "nope", "--log-level", "error"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestInvalidFlagRejected(t *testing.T) {
	if err := execute(t, "tune", "--damper-length", "0", "--log-level", "error"); err == nil {
		t.Error("expected error for zero damper length")
	}
}

func TestRunStoresAndExports(t *testing.T) {
	dir := t.TempDir()
	if err := execute(t, "run", "short", "--data", dir, "--time", "0.5", "--log-level", "error"); err != nil {
		t.Fatalf("run: %v", err)
	}

	runs, err := storage.New(dir).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Name != "short" || runs[0].Steps != 30 {
		t.Errorf("run = %s with %d steps, want short with 30", runs[0].Name, runs[0].Steps)
	}

	out := filepath.Join(t.TempDir(), "run.json")
	if err := execute(t, "export-json", runs[0].ID, "--data", dir, "-o", out); err != nil {
		t.Fatalf("export-json: %v", err)
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Errorf("export-json wrote nothing: %v", err)
	}
}
