package ui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"uctl/internal/bluetoothutil"
	"uctl/internal/device"
)

type bluetoothPanel struct {
	controller DeviceController
	scanner    BluetoothScanner
	window     func() fyne.Window

	toggle *widget.Check
	status *widget.Label
	list   *widget.List
	scan   *widget.Button

	// UI thread only.
	items    []device.Item
	activeID string
	updating bool
}

func newBluetoothPanel(controller DeviceController, scanner BluetoothScanner, window func() fyne.Window) fyne.CanvasObject {
	panel := &bluetoothPanel{
		controller: controller,
		scanner:    scanner,
		window:     window,
		status:     widget.NewLabel(""),
	}
	panel.status.Wrapping = fyne.TextWrapWord

	panel.toggle = widget.NewCheck("Bluetooth enabled", func(enabled bool) {
		if panel.updating {
			return
		}
		verb := "disable"
		if enabled {
			verb = "enable"
		}
		panel.act(verb, "", nil)
	})

	panel.scan = widget.NewButtonWithIcon("Scan", theme.SearchIcon(), panel.startScan)
	if scanner == nil {
		panel.scan.Disable()
	}

	panel.list = widget.NewList(
		func() int { return len(panel.items) },
		func() fyne.CanvasObject {
			label := widget.NewLabel("")
			connect := widget.NewButton("Connect", nil)
			forget := widget.NewButton("Forget", nil)

			return container.NewBorder(nil, nil, nil, container.NewHBox(connect, forget), label)
		},
		func(id widget.ListItemID, object fyne.CanvasObject) {
			panel.renderRow(id, object)
		},
	)

	refresh := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), controller.RefreshAsync)
	header := container.NewBorder(nil, nil, panel.toggle, container.NewHBox(panel.scan, refresh))

	controller.Subscribe(panel)
	panel.apply(controller.GetSnapshot())
	controller.RefreshAsync()

	return container.NewBorder(container.NewVBox(header, panel.status), nil, nil, nil, panel.list)
}

func (p *bluetoothPanel) renderRow(id widget.ListItemID, object fyne.CanvasObject) {
	if id >= len(p.items) {
		return
	}
	item := p.items[id]

	border := object.(*fyne.Container)
	label := border.Objects[0].(*widget.Label)
	buttons := border.Objects[1].(*fyne.Container)
	connect := buttons.Objects[0].(*widget.Button)
	forget := buttons.Objects[1].(*widget.Button)

	text := item.Name
	if item.Active {
		text += " [connected]"
	}
	label.SetText(text)

	if item.Active {
		connect.SetText("Disconnect")
		connect.OnTapped = func() {
			p.act("disconnect", item.ID, nil)
		}
	} else {
		connect.SetText("Connect")
		connect.OnTapped = func() {
			p.act("connect", item.ID, nil)
		}
	}

	forget.OnTapped = func() {
		p.act("forget", item.ID, nil)
	}
}

// startScan runs discovery off the UI thread and shows the result list.
func (p *bluetoothPanel) startScan() {
	if p.scanner == nil {
		return
	}

	p.scan.Disable()
	p.status.SetText("Scanning for nearby devices…")

	go func() {
		devices, err := p.scanner.Scan(context.Background(), "")
		fyne.Do(func() {
			p.scan.Enable()
			p.status.SetText("")
			if err != nil {
				dialog.ShowError(fmt.Errorf("bluetooth scan: %w", err), p.window())

				return
			}
			p.showScanResults(devices)
		})
	}()
}

func (p *bluetoothPanel) showScanResults(devices []bluetoothutil.DiscoveredDevice) {
	if len(devices) == 0 {
		dialog.ShowInformation("Bluetooth scan", "No devices found.", p.window())

		return
	}

	entries := make([]string, 0, len(devices))
	for _, entry := range devices {
		entries = append(entries, formatDiscoveredDevice(entry))
	}

	list := widget.NewList(
		func() int { return len(entries) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, object fyne.CanvasObject) {
			object.(*widget.Label).SetText(entries[id])
		},
	)

	var popup dialog.Dialog
	list.OnSelected = func(id widget.ListItemID) {
		selected := devices[id]
		popup.Hide()
		p.act("connect", selected.Address, nil)
	}

	popup = dialog.NewCustom("Nearby devices", "Close", container.NewStack(list), p.window())
	popup.Resize(fyne.NewSize(420, 360))
	popup.Show()
}

func (p *bluetoothPanel) act(verb, target string, params map[string]string) {
	if err := p.controller.PerformAction(verb, target, params); err != nil {
		p.status.SetText(err.Error())
	}
}

func (p *bluetoothPanel) SnapshotChanged(snapshot device.Snapshot) {
	p.apply(snapshot)
}

func (p *bluetoothPanel) DeviceFailed(failure device.Failure) {
	p.status.SetText(failure.Err.Error())
}

func (p *bluetoothPanel) apply(snapshot device.Snapshot) {
	p.updating = true
	p.toggle.SetChecked(snapshot.Enabled)
	p.updating = false

	p.items = snapshot.Items
	p.activeID = snapshot.ActiveID
	p.status.SetText("")
	p.list.Refresh()
}

func formatDiscoveredDevice(entry bluetoothutil.DiscoveredDevice) string {
	name := entry.Name
	if name == "" {
		name = "(unnamed)"
	}
	text := fmt.Sprintf("%s  %s  RSSI %d", name, entry.Address, entry.RSSI)
	if entry.AudioCapable {
		text += "  [audio]"
	}

	return text
}
