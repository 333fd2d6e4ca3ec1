package ui

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"uctl/internal/device"
)

type displayPanel struct {
	controller DeviceController

	status *widget.Label
	rows   *fyne.Container

	updating bool
}

func newDisplayPanel(controller DeviceController) fyne.CanvasObject {
	panel := &displayPanel{
		controller: controller,
		status:     widget.NewLabel(""),
		rows:       container.NewVBox(),
	}
	panel.status.Wrapping = fyne.TextWrapWord

	refresh := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), controller.RefreshAsync)
	header := container.NewBorder(nil, nil, widget.NewLabel("Brightness"), refresh)

	controller.Subscribe(panel)
	panel.apply(controller.GetSnapshot())
	controller.RefreshAsync()

	return container.NewBorder(container.NewVBox(header, panel.status), nil, nil, nil, container.NewVScroll(panel.rows))
}

func (p *displayPanel) SnapshotChanged(snapshot device.Snapshot) {
	p.apply(snapshot)
}

func (p *displayPanel) DeviceFailed(failure device.Failure) {
	p.status.SetText(failure.Err.Error())
}

// apply rebuilds one labelled slider per brightness device. Sliders only
// send while a user drag ends, never while a snapshot updates them.
func (p *displayPanel) apply(snapshot device.Snapshot) {
	p.updating = true
	defer func() { p.updating = false }()

	p.rows.Objects = nil
	for _, item := range snapshot.Items {
		target := item.ID
		slider := widget.NewSlider(0, 100)
		slider.Step = 1
		slider.SetValue(float64(item.Signal))
		slider.OnChangeEnded = func(value float64) {
			if p.updating {
				return
			}
			p.act("set-level", target, map[string]string{"level": strconv.Itoa(int(value))})
		}

		label := widget.NewLabel(formatBrightnessDevice(item))
		p.rows.Add(container.NewVBox(label, slider))
	}
	p.status.SetText("")
	p.rows.Refresh()
}

func (p *displayPanel) act(verb, target string, params map[string]string) {
	if err := p.controller.PerformAction(verb, target, params); err != nil {
		p.status.SetText(err.Error())
	}
}

func formatBrightnessDevice(item device.Item) string {
	text := item.Name + " (" + strconv.Itoa(item.Signal) + "%)"
	if item.Detail != "" && item.Detail != "backlight" {
		text += " [" + item.Detail + "]"
	}

	return text
}
