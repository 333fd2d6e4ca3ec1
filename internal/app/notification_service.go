package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"uctl/internal/bus"
	"uctl/internal/config"
	"uctl/internal/device"
)

// Notification is one user-facing desktop notification.
type Notification struct {
	Title string
	Body  string
}

// NotificationSender delivers notifications through a platform backend.
// The UI provides one backed by the windowing toolkit.
type NotificationSender interface {
	Notify(n Notification)
}

// NotificationService listens to bus events and emits user-facing
// notifications: connection changes on wifi and bluetooth, probe failures,
// and available updates. Events are suppressed while the window is in the
// foreground since the panel already shows the state.
type NotificationService struct {
	bus           bus.MessageBus
	currentConfig func() config.AppConfig
	isForeground  func() bool
	sender        NotificationSender
	logger        *slog.Logger

	mu          sync.Mutex
	lastActive  map[device.Domain]string
	activeKnown map[device.Domain]bool
	lastFailure map[device.Domain]string
}

func NewNotificationService(
	messageBus bus.MessageBus,
	currentConfig func() config.AppConfig,
	isForeground func() bool,
	sender NotificationSender,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default().With("component", "app.notifications")
	}

	return &NotificationService{
		bus:           messageBus,
		currentConfig: currentConfig,
		isForeground:  isForeground,
		sender:        sender,
		logger:        logger,
		lastActive:    make(map[device.Domain]string),
		activeKnown:   make(map[device.Domain]bool),
		lastFailure:   make(map[device.Domain]string),
	}
}

func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || s.bus == nil || s.sender == nil {
		return
	}

	snapshotSub := s.bus.Subscribe(device.TopicSnapshot)
	failureSub := s.bus.Subscribe(device.TopicFailure)

	go func() {
		defer s.bus.Unsubscribe(snapshotSub, device.TopicSnapshot)
		defer s.bus.Unsubscribe(failureSub, device.TopicFailure)

		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-snapshotSub:
				if !ok {
					return
				}
				update, ok := raw.(device.SnapshotUpdate)
				if !ok {
					continue
				}
				s.handleSnapshot(update.Snapshot)
			case raw, ok := <-failureSub:
				if !ok {
					return
				}
				failure, ok := raw.(device.Failure)
				if !ok {
					continue
				}
				s.handleFailure(failure)
			}
		}
	}()
}

// handleSnapshot notifies on active connection changes. The first snapshot
// of a domain only records the baseline.
func (s *NotificationService) handleSnapshot(snapshot device.Snapshot) {
	domain := snapshot.Domain
	if domain != device.DomainWifi && domain != device.DomainBluetooth {
		return
	}

	s.mu.Lock()
	previous := s.lastActive[domain]
	known := s.activeKnown[domain]
	s.lastActive[domain] = snapshot.ActiveID
	s.activeKnown[domain] = true
	s.mu.Unlock()

	if !known || previous == snapshot.ActiveID {
		return
	}
	if !s.shouldNotify(s.prefs().Events.ConnectionChanged) {
		return
	}

	title := domainDisplayName(domain)
	content := "Disconnected"
	if snapshot.ActiveID != "" {
		name := snapshot.ActiveID
		if item, ok := snapshot.ActiveItem(); ok && strings.TrimSpace(item.Name) != "" {
			name = item.Name
		}
		content = fmt.Sprintf("Connected to %s", name)
	}

	s.send(Notification{Title: title, Body: content})
}

// handleFailure notifies once per distinct error text per domain so a
// flapping probe does not flood the desktop.
func (s *NotificationService) handleFailure(failure device.Failure) {
	if failure.Err == nil {
		return
	}

	errText := failure.Err.Error()
	s.mu.Lock()
	if s.lastFailure[failure.Domain] == errText {
		s.mu.Unlock()

		return
	}
	s.lastFailure[failure.Domain] = errText
	s.mu.Unlock()

	if !s.shouldNotify(s.prefs().Events.ProbeFailure) {
		return
	}

	verb := "status check"
	if failure.Kind == device.ErrorAction && failure.Verb != "" {
		verb = failure.Verb
	}

	s.send(Notification{
		Title: fmt.Sprintf("%s %s failed", domainDisplayName(failure.Domain), verb),
		Body:  errText,
	})
}

// NotifyUpdate announces a newly available release.
func (s *NotificationService) NotifyUpdate(snapshot UpdateSnapshot) {
	if s == nil || s.sender == nil || !snapshot.UpdateAvailable {
		return
	}
	if !s.prefs().Events.UpdateAvailable {
		return
	}

	s.send(Notification{
		Title: "Update available",
		Body:  fmt.Sprintf("Version %s is available (current: %s)", snapshot.Latest.Version, BuildVersion()),
	})
}

func (s *NotificationService) shouldNotify(kindEnabled bool) bool {
	if !kindEnabled {
		return false
	}
	if s.isForeground == nil {
		return true
	}

	return !s.isForeground()
}

func (s *NotificationService) prefs() config.NotificationConfig {
	cfg := config.Default()
	if s.currentConfig != nil {
		cfg = s.currentConfig()
		cfg.FillMissingDefaults()
	}

	return cfg.Notifications
}

func (s *NotificationService) send(n Notification) {
	title := strings.TrimSpace(n.Title)
	body := strings.TrimSpace(n.Body)
	if title == "" && body == "" {
		return
	}
	s.logger.Debug("sending notification", "title", title)
	s.sender.Notify(Notification{Title: title, Body: body})
}

func domainDisplayName(domain device.Domain) string {
	switch domain {
	case device.DomainWifi:
		return "Wi-Fi"
	case device.DomainBluetooth:
		return "Bluetooth"
	case device.DomainAudio:
		return "Audio"
	case device.DomainDisplay:
		return "Display"
	case device.DomainPower:
		return "Power"
	default:
		return string(domain)
	}
}
