package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"uctl/internal/device"
)

type wifiPanel struct {
	controller DeviceController
	window     func() fyne.Window

	toggle *widget.Check
	wired  *widget.Label
	status *widget.Label
	list   *widget.List

	// UI thread only.
	items    []device.Item
	activeID string
	updating bool
}

func newWifiPanel(controller DeviceController, window func() fyne.Window) fyne.CanvasObject {
	panel := &wifiPanel{
		controller: controller,
		window:     window,
		wired:      widget.NewLabel(""),
		status:     widget.NewLabel(""),
	}
	panel.status.Wrapping = fyne.TextWrapWord

	panel.toggle = widget.NewCheck("Wi-Fi enabled", func(enabled bool) {
		if panel.updating {
			return
		}
		verb := "disable"
		if enabled {
			verb = "enable"
		}
		panel.act(verb, "", nil)
	})

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
	header := container.NewBorder(nil, nil, panel.toggle, refresh, panel.wired)

	controller.Subscribe(panel)
	panel.apply(controller.GetSnapshot())
	controller.RefreshAsync()

	return container.NewBorder(container.NewVBox(header, panel.status), nil, nil, nil, panel.list)
}

func (p *wifiPanel) renderRow(id widget.ListItemID, object fyne.CanvasObject) {
	if id >= len(p.items) {
		return
	}
	item := p.items[id]

	border := object.(*fyne.Container)
	label := border.Objects[0].(*widget.Label)
	buttons := border.Objects[1].(*fyne.Container)
	connect := buttons.Objects[0].(*widget.Button)
	forget := buttons.Objects[1].(*widget.Button)

	label.SetText(formatWifiNetwork(item))

	if item.ID == p.activeID {
		connect.SetText("Disconnect")
		connect.OnTapped = func() {
			p.act("disconnect", item.ID, nil)
		}
	} else {
		connect.SetText("Connect")
		connect.OnTapped = func() {
			p.connectTo(item)
		}
	}

	forget.OnTapped = func() {
		p.act("forget", item.ID, nil)
	}
}

func (p *wifiPanel) connectTo(item device.Item) {
	if !item.Secured {
		p.act("connect", item.ID, nil)

		return
	}

	password := widget.NewPasswordEntry()
	form := dialog.NewForm(
		"Connect to "+item.Name,
		"Connect",
		"Cancel",
		[]*widget.FormItem{widget.NewFormItem("Password", password)},
		func(confirmed bool) {
			if !confirmed {
				return
			}
			p.act("connect", item.ID, map[string]string{"password": password.Text})
		},
		p.window(),
	)
	form.Show()
}

func (p *wifiPanel) act(verb, target string, params map[string]string) {
	if err := p.controller.PerformAction(verb, target, params); err != nil {
		p.status.SetText(err.Error())
	}
}

// SnapshotChanged runs on the UI thread.
func (p *wifiPanel) SnapshotChanged(snapshot device.Snapshot) {
	p.apply(snapshot)
}

func (p *wifiPanel) DeviceFailed(failure device.Failure) {
	p.status.SetText(failure.Err.Error())
}

func (p *wifiPanel) apply(snapshot device.Snapshot) {
	p.updating = true
	p.toggle.SetChecked(snapshot.Enabled)
	p.updating = false

	p.items = snapshot.Items
	p.activeID = snapshot.ActiveID
	if snapshot.WiredConnected {
		p.wired.SetText("Wired connection active")
	} else {
		p.wired.SetText("")
	}
	p.status.SetText("")
	p.list.Refresh()
}

func formatWifiNetwork(item device.Item) string {
	var marks []string
	if item.Secured {
		marks = append(marks, "secured")
	}
	if item.Active {
		marks = append(marks, "connected")
	}

	text := fmt.Sprintf("%s (%d%%)", item.Name, item.Signal)
	if len(marks) > 0 {
		text += " [" + strings.Join(marks, ", ") + "]"
	}

	return text
}
