package ui

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"uctl/internal/device"
)

type audioPanel struct {
	controller DeviceController

	mute   *widget.Check
	volume *widget.Slider
	level  *widget.Label
	status *widget.Label
	list   *widget.List

	// UI thread only.
	items    []device.Item
	activeID string
	updating bool
}

func newAudioPanel(controller DeviceController) fyne.CanvasObject {
	panel := &audioPanel{
		controller: controller,
		level:      widget.NewLabel(""),
		status:     widget.NewLabel(""),
	}
	panel.status.Wrapping = fyne.TextWrapWord

	panel.mute = widget.NewCheck("Mute", func(muted bool) {
		if panel.updating {
			return
		}
		panel.act("toggle-mute", "", nil)
	})

	panel.volume = widget.NewSlider(0, 100)
	panel.volume.Step = 1
	panel.volume.OnChanged = func(value float64) {
		panel.level.SetText(strconv.Itoa(int(value)) + "%")
	}
	panel.volume.OnChangeEnded = func(value float64) {
		if panel.updating {
			return
		}
		panel.act("set-level", "", map[string]string{"level": strconv.Itoa(int(value))})
	}

	panel.list = widget.NewList(
		func() int { return len(panel.items) },
		func() fyne.CanvasObject {
			label := widget.NewLabel("")
			use := widget.NewButton("Make default", nil)

			return container.NewBorder(nil, nil, nil, use, label)
		},
		func(id widget.ListItemID, object fyne.CanvasObject) {
			panel.renderRow(id, object)
		},
	)

	refresh := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), controller.RefreshAsync)
	controls := container.NewBorder(nil, nil, panel.mute, container.NewHBox(panel.level, refresh), panel.volume)

	controller.Subscribe(panel)
	panel.apply(controller.GetSnapshot())
	controller.RefreshAsync()

	return container.NewBorder(container.NewVBox(controls, panel.status), nil, nil, nil, panel.list)
}

func (p *audioPanel) renderRow(id widget.ListItemID, object fyne.CanvasObject) {
	if id >= len(p.items) {
		return
	}
	item := p.items[id]

	border := object.(*fyne.Container)
	label := border.Objects[0].(*widget.Label)
	use := border.Objects[1].(*widget.Button)

	text := item.Name
	if item.ID == p.activeID {
		text += " [default]"
		use.Disable()
	} else {
		use.Enable()
	}
	label.SetText(text)

	use.OnTapped = func() {
		p.act("set-default", item.ID, nil)
	}
}

func (p *audioPanel) act(verb, target string, params map[string]string) {
	if err := p.controller.PerformAction(verb, target, params); err != nil {
		p.status.SetText(err.Error())
	}
}

func (p *audioPanel) SnapshotChanged(snapshot device.Snapshot) {
	p.apply(snapshot)
}

func (p *audioPanel) DeviceFailed(failure device.Failure) {
	p.status.SetText(failure.Err.Error())
}

func (p *audioPanel) apply(snapshot device.Snapshot) {
	p.updating = true
	p.mute.SetChecked(snapshot.Muted)
	p.volume.SetValue(float64(snapshot.Level))
	p.updating = false

	p.level.SetText(strconv.Itoa(snapshot.Level) + "%")
	p.items = snapshot.Items
	p.activeID = snapshot.ActiveID
	p.status.SetText("")
	p.list.Refresh()
}
