package ui

import (
	"fmt"

	"fyne.io/fyne/v2"

	"uctl/internal/config"
	"uctl/internal/device"
)

// PanelInfo pairs a panel identifier with its display title and factory.
// Factories run off the UI thread; only the returned content is mounted.
type PanelInfo struct {
	ID      string
	Title   string
	Factory PanelFactory
}

// BuildPanels maps the enabled panels from configuration to factories over
// the runtime dependencies and appends the always-present settings panel.
// Panels whose device domain is unsupported on this host are skipped.
func BuildPanels(dep RuntimeDependencies, window func() fyne.Window) []PanelInfo {
	cfg := dep.Data.Config
	panels := make([]PanelInfo, 0, len(cfg.Panels)+1)

	for _, id := range cfg.EnabledPanels() {
		info, ok := devicePanel(dep, window, id)
		if !ok {
			appLogger.Warn("Panel unavailable on this host", "panel", id)

			continue
		}
		panels = append(panels, info)
	}

	panels = append(panels, PanelInfo{
		ID:    "settings",
		Title: "Settings",
		Factory: func() (fyne.CanvasObject, error) {
			return newSettingsTab(dep, window), nil
		},
	})

	return panels
}

func devicePanel(dep RuntimeDependencies, window func() fyne.Window, id string) (PanelInfo, bool) {
	controller, ok := dep.Data.Controller(device.Domain(id))
	if !ok {
		return PanelInfo{}, false
	}

	info := PanelInfo{ID: id, Title: panelTitle(id)}
	switch id {
	case config.PanelWifi:
		info.Factory = func() (fyne.CanvasObject, error) {
			return newWifiPanel(controller, window), nil
		}
	case config.PanelBluetooth:
		info.Factory = func() (fyne.CanvasObject, error) {
			return newBluetoothPanel(controller, dep.Platform.Scanner, window), nil
		}
	case config.PanelAudio:
		info.Factory = func() (fyne.CanvasObject, error) {
			return newAudioPanel(controller), nil
		}
	case config.PanelDisplay:
		info.Factory = func() (fyne.CanvasObject, error) {
			return newDisplayPanel(controller), nil
		}
	case config.PanelPower:
		info.Factory = func() (fyne.CanvasObject, error) {
			return newPowerPanel(controller, dep.Actions.Session, window), nil
		}
	default:
		info.Factory = func() (fyne.CanvasObject, error) {
			return nil, fmt.Errorf("unknown panel %q", id)
		}
	}

	return info, true
}
