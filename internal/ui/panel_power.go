package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"uctl/internal/device"
)

type powerPanel struct {
	controller DeviceController
	session    SessionController
	window     func() fyne.Window

	profiles *widget.RadioGroup
	status   *widget.Label

	updating bool
}

func newPowerPanel(controller DeviceController, session SessionController, window func() fyne.Window) fyne.CanvasObject {
	panel := &powerPanel{
		controller: controller,
		session:    session,
		window:     window,
		status:     widget.NewLabel(""),
	}
	panel.status.Wrapping = fyne.TextWrapWord

	panel.profiles = widget.NewRadioGroup(nil, func(selected string) {
		if panel.updating || selected == "" {
			return
		}
		panel.act("set-profile", selected, nil)
	})

	refresh := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), controller.RefreshAsync)
	profileBox := container.NewBorder(nil, nil, nil, refresh, widget.NewLabel("Power profile"))

	sessionBox := container.NewVBox(
		widget.NewLabel("Session"),
		panel.sessionButton("Lock screen", false, panel.session.Lock),
		panel.sessionButton("Suspend", false, panel.session.Suspend),
		panel.sessionButton("Hibernate", true, panel.session.Hibernate),
		panel.sessionButton("Reboot", true, panel.session.Reboot),
		panel.sessionButton("Shut down", true, panel.session.Shutdown),
	)

	controller.Subscribe(panel)
	panel.apply(controller.GetSnapshot())
	controller.RefreshAsync()

	return container.NewVBox(profileBox, panel.profiles, panel.status, widget.NewSeparator(), sessionBox)
}

// sessionButton wraps a session action, with a confirmation step for the
// ones that end the session.
func (p *powerPanel) sessionButton(label string, confirm bool, action func() error) *widget.Button {
	run := func() {
		if err := action(); err != nil {
			p.status.SetText(err.Error())
		}
	}

	return widget.NewButton(label, func() {
		if !confirm {
			run()

			return
		}
		dialog.ShowConfirm(label, label+"?", func(confirmed bool) {
			if confirmed {
				run()
			}
		}, p.window())
	})
}

func (p *powerPanel) act(verb, target string, params map[string]string) {
	if err := p.controller.PerformAction(verb, target, params); err != nil {
		p.status.SetText(err.Error())
	}
}

func (p *powerPanel) SnapshotChanged(snapshot device.Snapshot) {
	p.apply(snapshot)
}

func (p *powerPanel) DeviceFailed(failure device.Failure) {
	p.status.SetText(failure.Err.Error())
}

func (p *powerPanel) apply(snapshot device.Snapshot) {
	options := make([]string, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		options = append(options, item.ID)
	}

	p.updating = true
	p.profiles.Options = options
	p.profiles.SetSelected(snapshot.Profile)
	p.updating = false

	p.status.SetText("")
	p.profiles.Refresh()
}
