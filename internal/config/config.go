package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Known panel identifiers, in default sidebar order. Panel ids double as
// device domains everywhere below the UI.
const (
	PanelWifi      = "wifi"
	PanelBluetooth = "bluetooth"
	PanelAudio     = "audio"
	PanelDisplay   = "display"
	PanelPower     = "power"
)

func KnownPanels() []string {
	return []string{PanelWifi, PanelBluetooth, PanelAudio, PanelDisplay, PanelPower}
}

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level"`
	LogToFile bool   `json:"log_to_file"`
}

// PanelEntry is one sidebar slot: its id and whether it is enabled.
type PanelEntry struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

// UIConfig stores persistent UI preferences.
type UIConfig struct {
	PreferredPanel string `json:"preferred_panel"`
	MinimalMode    bool   `json:"minimal_mode"`
}

// NotificationConfig stores desktop notification preferences.
type NotificationConfig struct {
	Events NotificationEventsConfig `json:"events"`
}

// NotificationEventsConfig stores per-event notification toggles.
type NotificationEventsConfig struct {
	ConnectionChanged bool `json:"connection_changed"`
	ProbeFailure      bool `json:"probe_failure"`
	UpdateAvailable   bool `json:"update_available"`
}

// SessionCommands holds the user-overridable session/system action commands.
// Each value is a whitespace-separated command line.
type SessionCommands struct {
	Lock      string `json:"lock"`
	Shutdown  string `json:"shutdown"`
	Reboot    string `json:"reboot"`
	Suspend   string `json:"suspend"`
	Hibernate string `json:"hibernate"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Panels        []PanelEntry       `json:"panels"`
	UI            UIConfig           `json:"ui"`
	Logging       LoggingConfig      `json:"logging"`
	Notifications NotificationConfig `json:"notifications"`
	Commands      SessionCommands    `json:"commands"`
}

func Default() AppConfig {
	panels := make([]PanelEntry, 0, len(KnownPanels()))
	for _, id := range KnownPanels() {
		panels = append(panels, PanelEntry{ID: id, Enabled: true})
	}

	return AppConfig{
		Panels: panels,
		UI:     UIConfig{},
		Logging: LoggingConfig{
			Level:     "info",
			LogToFile: false,
		},
		Notifications: NotificationConfig{
			Events: NotificationEventsConfig{
				ConnectionChanged: true,
				ProbeFailure:      true,
				UpdateAvailable:   true,
			},
		},
		Commands: SessionCommands{
			Lock:      "loginctl lock-session",
			Shutdown:  "systemctl poweroff",
			Reboot:    "systemctl reboot",
			Suspend:   "systemctl suspend",
			Hibernate: "systemctl hibernate",
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by the app runtime inside the user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

// FillMissingDefaults normalizes a loaded config: unknown panel ids are
// dropped, missing known panels are appended disabled, and legacy names are
// mapped to their current ids.
func (c *AppConfig) FillMissingDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	defaults := Default()
	if c.Commands.Lock == "" {
		c.Commands.Lock = defaults.Commands.Lock
	}
	if c.Commands.Shutdown == "" {
		c.Commands.Shutdown = defaults.Commands.Shutdown
	}
	if c.Commands.Reboot == "" {
		c.Commands.Reboot = defaults.Commands.Reboot
	}
	if c.Commands.Suspend == "" {
		c.Commands.Suspend = defaults.Commands.Suspend
	}
	if c.Commands.Hibernate == "" {
		c.Commands.Hibernate = defaults.Commands.Hibernate
	}

	c.Panels = normalizePanels(c.Panels)
	c.UI.PreferredPanel = normalizePanelID(c.UI.PreferredPanel)
	if c.UI.PreferredPanel != "" && !isKnownPanel(c.UI.PreferredPanel) {
		c.UI.PreferredPanel = ""
	}
}

func normalizePanels(entries []PanelEntry) []PanelEntry {
	seen := make(map[string]bool, len(KnownPanels()))
	out := make([]PanelEntry, 0, len(KnownPanels()))
	for _, entry := range entries {
		id := normalizePanelID(entry.ID)
		if !isKnownPanel(id) || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, PanelEntry{ID: id, Enabled: entry.Enabled})
	}
	for _, id := range KnownPanels() {
		if !seen[id] {
			out = append(out, PanelEntry{ID: id, Enabled: len(entries) == 0})
		}
	}

	return out
}

func normalizePanelID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	// Pre-1.0 configs used the original project's tab name.
	if id == "volume" {
		return PanelAudio
	}

	return id
}

func isKnownPanel(id string) bool {
	for _, known := range KnownPanels() {
		if id == known {
			return true
		}
	}

	return false
}

// EnabledPanels returns the ordered ids of enabled panels.
func (c AppConfig) EnabledPanels() []string {
	out := make([]string, 0, len(c.Panels))
	for _, entry := range c.Panels {
		if entry.Enabled {
			out = append(out, entry.ID)
		}
	}

	return out
}

func (c AppConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported log level: %q", c.Logging.Level)
	}
	for _, entry := range c.Panels {
		if !isKnownPanel(entry.ID) {
			return fmt.Errorf("unknown panel id: %q", entry.ID)
		}
	}
	if c.UI.PreferredPanel != "" && !isKnownPanel(c.UI.PreferredPanel) {
		return fmt.Errorf("unknown preferred panel: %q", c.UI.PreferredPanel)
	}
	if len(c.EnabledPanels()) == 0 {
		return errors.New("at least one panel must be enabled")
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}
