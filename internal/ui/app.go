package ui

import (
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

var newFyneApp = func() fyne.App {
	return fyneapp.NewWithID("uctl")
}

func Run(dep RuntimeDependencies) error {
	return runWithApp(dep, newFyneApp())
}

func runWithApp(dep RuntimeDependencies, fyApp fyne.App) error {
	minimal := dep.Launch.MinimalMode || dep.Data.Config.UI.MinimalMode
	appLogger.Info(
		"starting UI runtime",
		"initial_panel", dep.Launch.InitialPanel,
		"minimal", minimal,
	)

	window := fyApp.NewWindow("Control Panel")
	if minimal {
		window.Resize(fyne.NewSize(420, 520))
	} else {
		window.Resize(fyne.NewSize(760, 560))
	}

	panels := BuildPanels(dep, func() fyne.Window { return window })

	preferred := dep.Data.Config.UI.PreferredPanel
	if !hasPanel(panels, preferred) {
		preferred = ""
	}

	lifecycle := NewLifecycle(preferred, dep.RunOnUI)
	for _, panel := range panels {
		lifecycle.AddPanel(panel.ID, panel.Title, panel.Factory)
	}

	lifecycle.SetOnShown(func(id string) {
		if dep.Actions.OnPreferredPanel != nil && id != "settings" {
			dep.Actions.OnPreferredPanel(id)
		}
	})

	content := buildWindowContent(lifecycle, panels, minimal)
	window.SetContent(content)

	attachNotifications(dep, fyApp)

	var shutdownOnce sync.Once
	quit := func() {
		shutdownOnce.Do(func() {
			if dep.Actions.OnQuit != nil {
				dep.Actions.OnQuit()
			}
			fyApp.Quit()
		})
	}
	window.SetCloseIntercept(quit)

	showInitialPanel(lifecycle, panels, dep.Launch.InitialPanel, preferred)

	window.Show()
	fyApp.Run()
	shutdownOnce.Do(func() {
		if dep.Actions.OnQuit != nil {
			dep.Actions.OnQuit()
		}
	})

	return nil
}

func buildWindowContent(lifecycle *Lifecycle, panels []PanelInfo, minimal bool) fyne.CanvasObject {
	if minimal {
		return lifecycle.Stack()
	}

	left := container.NewVBox()
	for _, panel := range panels {
		id := panel.ID
		left.Add(widget.NewButton(panel.Title, func() {
			lifecycle.Activate(id)
		}))
	}
	left.Add(layout.NewSpacer())

	return container.NewBorder(nil, nil, left, nil, lifecycle.Stack())
}

// showInitialPanel picks the panel shown at startup. A panel named on the
// command line counts as an explicit user choice; otherwise the configured
// preferred panel (or the first one) is selected automatically.
func showInitialPanel(lifecycle *Lifecycle, panels []PanelInfo, requested, preferred string) {
	if requested != "" && hasPanel(panels, requested) {
		lifecycle.Activate(requested)

		return
	}
	if requested != "" {
		appLogger.Warn("Requested startup panel is not available", "panel", requested)
	}

	if preferred != "" {
		lifecycle.Select(preferred)

		return
	}
	if len(panels) > 0 {
		lifecycle.Select(panels[0].ID)
	}
}

func hasPanel(panels []PanelInfo, id string) bool {
	for _, panel := range panels {
		if panel.ID == id {
			return true
		}
	}

	return false
}

// attachNotifications wires desktop notifications with foreground tracking
// so events are only surfaced while the window is in the background.
func attachNotifications(dep RuntimeDependencies, fyApp fyne.App) {
	if dep.Actions.OnAttachNotifications == nil {
		return
	}

	var foreground atomic.Bool
	foreground.Store(true)
	fyApp.Lifecycle().SetOnEnteredForeground(func() {
		foreground.Store(true)
	})
	fyApp.Lifecycle().SetOnExitedForeground(func() {
		foreground.Store(false)
	})

	dep.Actions.OnAttachNotifications(newDesktopNotifier(fyApp), foreground.Load)
}
