package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" || cfg.City != "bangalore" || cfg.Year != 2025 || cfg.FoldMode != "all" {
		t.Errorf("defaults = %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestLoadNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
city: chennai
fold_mode: ANY
datasets:
  - city_name: Chennai
    slug: chennai
    years: [2026]
ics:
  - id: work
    url: https://example.com/work.ics
availability:
  - name: office
    rrule: FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR;BYHOUR=9
    duration_minutes: 480
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Year != 2026 {
		t.Errorf("year = %d, want first configured year", cfg.Year)
	}
	if cfg.FoldMode != "any" {
		t.Errorf("fold mode = %q", cfg.FoldMode)
	}
	if !cfg.HasDataset("chennai", 2026) || cfg.HasDataset("chennai", 2025) {
		t.Error("HasDataset mismatch")
	}
	if got := cfg.Availability[0].Duration().Hours(); got != 8 {
		t.Errorf("duration = %vh", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Nowhere/Invalid"
	cfg.ICS = []ICSConfig{{ID: "a", URL: "u"}, {ID: "a", URL: "v"}, {ID: "b"}}
	cfg.Availability = []AvailabilityConfig{{Name: "x"}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation errors")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	cfg.WindowDays = 14
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.BasicAuth == nil || got.BasicAuth.Username != "u" || got.WindowDays != 14 {
		t.Errorf("round trip = %+v", got)
	}
}
