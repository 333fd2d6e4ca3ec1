package ui

import (
	"context"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"uctl/internal/config"
	"uctl/internal/sysinfo"

	uapp "uctl/internal/app"
)

const sysinfoTimeout = 5 * time.Second

type settingsTab struct {
	dep    RuntimeDependencies
	window func() fyne.Window

	panelOrder     []string
	panelChecks    map[string]*widget.Check
	panelsBox      *fyne.Container
	preferredPanel *widget.Select
	minimalMode    *widget.Check
	logLevel       *widget.Select
	logToFile      *widget.Check
	notifyConn     *widget.Check
	notifyProbe    *widget.Check
	notifyUpdate   *widget.Check
	commandEntries map[string]*widget.Entry
}

func newSettingsTab(dep RuntimeDependencies, window func() fyne.Window) fyne.CanvasObject {
	tab := &settingsTab{
		dep:            dep,
		window:         window,
		panelChecks:    make(map[string]*widget.Check),
		commandEntries: make(map[string]*widget.Entry),
	}

	cfg := dep.Data.Config
	if dep.Data.CurrentConfig != nil {
		cfg = dep.Data.CurrentConfig()
	}

	tab.panelsBox = container.NewVBox()
	for _, entry := range cfg.Panels {
		check := widget.NewCheck(panelTitle(entry.ID), nil)
		check.SetChecked(entry.Enabled)
		tab.panelOrder = append(tab.panelOrder, entry.ID)
		tab.panelChecks[entry.ID] = check
	}
	tab.rebuildPanelRows()
	panelsBox := container.NewVBox(widget.NewLabel("Panels (order applies on restart)"), tab.panelsBox)

	preferredOptions := append([]string{"(none)"}, config.KnownPanels()...)
	tab.preferredPanel = widget.NewSelect(preferredOptions, nil)
	if cfg.UI.PreferredPanel == "" {
		tab.preferredPanel.SetSelected("(none)")
	} else {
		tab.preferredPanel.SetSelected(cfg.UI.PreferredPanel)
	}

	tab.minimalMode = widget.NewCheck("Minimal mode (single panel, no sidebar)", nil)
	tab.minimalMode.SetChecked(cfg.UI.MinimalMode)

	tab.logLevel = widget.NewSelect([]string{"debug", "info", "warn", "error"}, nil)
	tab.logLevel.SetSelected(cfg.Logging.Level)
	tab.logToFile = widget.NewCheck("Write log file", nil)
	tab.logToFile.SetChecked(cfg.Logging.LogToFile)

	tab.notifyConn = widget.NewCheck("Connection changes", nil)
	tab.notifyConn.SetChecked(cfg.Notifications.Events.ConnectionChanged)
	tab.notifyProbe = widget.NewCheck("Probe failures", nil)
	tab.notifyProbe.SetChecked(cfg.Notifications.Events.ProbeFailure)
	tab.notifyUpdate = widget.NewCheck("Available updates", nil)
	tab.notifyUpdate.SetChecked(cfg.Notifications.Events.UpdateAvailable)

	commandsBox := container.NewVBox(widget.NewLabel("Session commands"))
	for _, row := range []struct {
		key   string
		label string
		value string
	}{
		{"lock", "Lock", cfg.Commands.Lock},
		{"shutdown", "Shutdown", cfg.Commands.Shutdown},
		{"reboot", "Reboot", cfg.Commands.Reboot},
		{"suspend", "Suspend", cfg.Commands.Suspend},
		{"hibernate", "Hibernate", cfg.Commands.Hibernate},
	} {
		entry := widget.NewEntry()
		entry.SetText(row.value)
		tab.commandEntries[row.key] = entry
		commandsBox.Add(container.NewBorder(nil, nil, widget.NewLabel(row.label), nil, entry))
	}

	save := widget.NewButton("Save", tab.save)

	form := container.NewVBox(
		panelsBox,
		widget.NewSeparator(),
		container.NewBorder(nil, nil, widget.NewLabel("Preferred panel"), nil, tab.preferredPanel),
		tab.minimalMode,
		widget.NewSeparator(),
		container.NewBorder(nil, nil, widget.NewLabel("Log level"), nil, tab.logLevel),
		tab.logToFile,
		widget.NewSeparator(),
		widget.NewLabel("Notifications"),
		tab.notifyConn,
		tab.notifyProbe,
		tab.notifyUpdate,
		widget.NewSeparator(),
		commandsBox,
		save,
		widget.NewSeparator(),
		tab.aboutBox(),
	)

	return container.NewVScroll(form)
}

func (t *settingsTab) rebuildPanelRows() {
	t.panelsBox.Objects = nil
	for i, id := range t.panelOrder {
		index := i
		up := widget.NewButtonWithIcon("", theme.MoveUpIcon(), func() {
			t.movePanel(index, -1)
		})
		down := widget.NewButtonWithIcon("", theme.MoveDownIcon(), func() {
			t.movePanel(index, 1)
		})
		if i == 0 {
			up.Disable()
		}
		if i == len(t.panelOrder)-1 {
			down.Disable()
		}
		t.panelsBox.Add(container.NewBorder(nil, nil, nil, container.NewHBox(up, down), t.panelChecks[id]))
	}
	t.panelsBox.Refresh()
}

func (t *settingsTab) movePanel(index, delta int) {
	target := index + delta
	if target < 0 || target >= len(t.panelOrder) {
		return
	}
	t.panelOrder[index], t.panelOrder[target] = t.panelOrder[target], t.panelOrder[index]
	t.rebuildPanelRows()
}

func (t *settingsTab) save() {
	cfg := t.dep.Data.Config
	if t.dep.Data.CurrentConfig != nil {
		cfg = t.dep.Data.CurrentConfig()
	}

	panels := make([]config.PanelEntry, 0, len(t.panelOrder))
	for _, id := range t.panelOrder {
		check, ok := t.panelChecks[id]
		if !ok {
			continue
		}
		panels = append(panels, config.PanelEntry{ID: id, Enabled: check.Checked})
	}
	cfg.Panels = panels

	cfg.UI.PreferredPanel = t.preferredPanel.Selected
	if cfg.UI.PreferredPanel == "(none)" {
		cfg.UI.PreferredPanel = ""
	}
	cfg.UI.MinimalMode = t.minimalMode.Checked
	cfg.Logging.Level = t.logLevel.Selected
	cfg.Logging.LogToFile = t.logToFile.Checked
	cfg.Notifications.Events.ConnectionChanged = t.notifyConn.Checked
	cfg.Notifications.Events.ProbeFailure = t.notifyProbe.Checked
	cfg.Notifications.Events.UpdateAvailable = t.notifyUpdate.Checked
	cfg.Commands.Lock = t.commandEntries["lock"].Text
	cfg.Commands.Shutdown = t.commandEntries["shutdown"].Text
	cfg.Commands.Reboot = t.commandEntries["reboot"].Text
	cfg.Commands.Suspend = t.commandEntries["suspend"].Text
	cfg.Commands.Hibernate = t.commandEntries["hibernate"].Text

	if t.dep.Actions.OnSave == nil {
		return
	}
	if err := t.dep.Actions.OnSave(cfg); err != nil {
		dialog.ShowError(err, t.window())

		return
	}
	dialog.ShowInformation("Settings", "Saved. Panel changes apply on restart.", t.window())
}

// aboutBox shows version, update status and host facts. Host collection
// runs in the background so opening settings never blocks.
func (t *settingsTab) aboutBox() fyne.CanvasObject {
	version := widget.NewLabel("Version: " + uapp.BuildVersionWithDate())
	update := widget.NewLabel(updateStatusText(t.dep.Data.UpdateChecker))
	host := widget.NewLabel("Collecting host information…")
	host.Wrapping = fyne.TextWrapWord

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sysinfoTimeout)
		defer cancel()

		summary, err := sysinfo.Collect(ctx)
		text := hostInfoText(summary)
		if err != nil {
			text = "Host information unavailable"
		}
		fyne.Do(func() {
			host.SetText(text)
		})
	}()

	return container.NewVBox(widget.NewLabel("About"), version, update, host)
}

func updateStatusText(checker *uapp.UpdateChecker) string {
	if checker == nil {
		return "Updates: disabled"
	}

	snapshot, known := checker.CurrentSnapshot()
	switch {
	case !known:
		return "Updates: not checked yet"
	case snapshot.UpdateAvailable:
		return "Updates: " + snapshot.Latest.Version + " available"
	default:
		return "Updates: up to date"
	}
}

func hostInfoText(summary sysinfo.Summary) string {
	return fmt.Sprintf(
		"%s, %s\nKernel %s, up %s\nCPU: %s (%d threads)\nMemory: %s",
		summary.Hostname,
		summary.PlatformLine(),
		summary.KernelVersion,
		summary.UptimeLine(),
		summary.CPUModel,
		summary.CPUCount,
		summary.MemoryLine(),
	)
}

func panelTitle(id string) string {
	switch id {
	case config.PanelWifi:
		return "Wi-Fi"
	case config.PanelBluetooth:
		return "Bluetooth"
	case config.PanelAudio:
		return "Audio"
	case config.PanelDisplay:
		return "Display"
	case config.PanelPower:
		return "Power"
	default:
		return id
	}
}
