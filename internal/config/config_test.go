package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("load missing config: %v", err)
	}
	if len(cfg.Panels) != len(KnownPanels()) {
		t.Fatalf("expected %d default panels, got %d", len(KnownPanels()), len(cfg.Panels))
	}
	for _, entry := range cfg.Panels {
		if !entry.Enabled {
			t.Fatalf("expected default panel %q enabled", entry.ID)
		}
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Logging.Level)
	}
	if cfg.Commands.Lock == "" {
		t.Fatalf("expected default lock command")
	}
}

func TestLoadNormalizesLegacyAndUnknownPanels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
		"panels": [
			{"id": "volume", "enabled": true},
			{"id": "wifi", "enabled": false},
			{"id": "teleporter", "enabled": true}
		],
		"ui": {"preferred_panel": "Volume"}
	}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Panels[0].ID != PanelAudio || !cfg.Panels[0].Enabled {
		t.Fatalf("expected legacy volume entry mapped to enabled audio, got %+v", cfg.Panels[0])
	}
	if cfg.Panels[1].ID != PanelWifi || cfg.Panels[1].Enabled {
		t.Fatalf("expected wifi disabled, got %+v", cfg.Panels[1])
	}
	for _, entry := range cfg.Panels {
		if entry.ID == "teleporter" {
			t.Fatalf("expected unknown panel dropped")
		}
	}
	if len(cfg.Panels) != len(KnownPanels()) {
		t.Fatalf("expected missing known panels appended, got %d entries", len(cfg.Panels))
	}
	if cfg.UI.PreferredPanel != PanelAudio {
		t.Fatalf("expected preferred panel normalized to audio, got %q", cfg.UI.PreferredPanel)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid log level to fail validation")
	}

	cfg = Default()
	for i := range cfg.Panels {
		cfg.Panels[i].Enabled = false
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected all-disabled panels to fail validation")
	}

	cfg = Default()
	cfg.UI.PreferredPanel = "teleporter"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown preferred panel to fail validation")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.UI.PreferredPanel = PanelWifi
	cfg.Logging.Level = "debug"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if loaded.UI.PreferredPanel != PanelWifi {
		t.Fatalf("expected preferred panel wifi, got %q", loaded.UI.PreferredPanel)
	}
	if loaded.Logging.Level != "debug" {
		t.Fatalf("expected log level debug, got %q", loaded.Logging.Level)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file removed after rename")
	}
}
