package ui

import (
	"strings"

	"fyne.io/fyne/v2"

	uapp "uctl/internal/app"
)

// desktopNotifier delivers runtime notifications as native desktop
// notifications. Delivery hops to the UI thread because the runtime calls
// Notify from its event goroutine.
type desktopNotifier struct {
	app fyne.App
}

func newDesktopNotifier(app fyne.App) *desktopNotifier {
	return &desktopNotifier{app: app}
}

func (n *desktopNotifier) Notify(note uapp.Notification) {
	if n == nil || n.app == nil {
		return
	}

	title := strings.TrimSpace(note.Title)
	body := strings.TrimSpace(note.Body)
	if title == "" && body == "" {
		return
	}

	fyne.Do(func() {
		n.app.SendNotification(fyne.NewNotification(title, body))
	})
}
