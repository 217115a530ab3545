package main

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/royalcat/pointsregroup/regroup"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regroup.toml")
	data := `
point_layer = "entrances"
mode = "poisson"
rounded_keys = ["room"]
listen = ":9090"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PointLayer != "entrances" || cfg.Mode != regroup.ModePoisson || cfg.Listen != ":9090" {
		t.Fatalf("config not applied: %+v", cfg)
	}
	if cfg.PolygonLayer != "building-polygon" || cfg.ProcessedMarker != "/processed" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if !slices.Equal(cfg.RoundedKeys, []string{"room"}) || len(cfg.AreaKeys) != 6 {
		t.Fatalf("unexpected keys: %v %v", cfg.AreaKeys, cfg.RoundedKeys)
	}
}

func TestLoadConfigRejectsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regroup.toml")
	if err := os.WriteFile(path, []byte(`mode = "spiral"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); !errors.Is(err, regroup.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestParseRect(t *testing.T) {
	rect, err := parseRect("1, 2,3.5,4")
	if err != nil {
		t.Fatal(err)
	}
	if rect.Min.X() != 1 || rect.Min.Y() != 2 || rect.Max.X() != 3.5 || rect.Max.Y() != 4 {
		t.Fatalf("unexpected rect %v", rect)
	}
	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "3,0,1,1"} {
		if _, err := parseRect(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}
