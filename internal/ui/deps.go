package ui

import (
	"context"
	"log/slog"
	"time"

	"uctl/internal/bluetoothutil"
	"uctl/internal/bus"
	"uctl/internal/config"
	"uctl/internal/device"

	uapp "uctl/internal/app"
)

var appLogger = slog.With("component", "ui")

const bluetoothScanDuration = 10 * time.Second

// DeviceController is what panels need from a device manager.
type DeviceController interface {
	GetSnapshot() device.Snapshot
	RefreshAsync()
	PerformAction(verb, target string, params map[string]string) error
	Subscribe(observer device.Observer)
	Unsubscribe(observer device.Observer)
}

// SessionController runs the session/system commands behind the power panel
// buttons.
type SessionController interface {
	Lock() error
	Shutdown() error
	Reboot() error
	Suspend() error
	Hibernate() error
}

// BluetoothScanner discovers nearby devices for the pairing dialog.
type BluetoothScanner interface {
	Scan(ctx context.Context, adapterID string) ([]bluetoothutil.DiscoveredDevice, error)
}

type DataDependencies struct {
	Config        config.AppConfig
	Bus           bus.MessageBus
	CurrentConfig func() config.AppConfig
	Controller    func(domain device.Domain) (DeviceController, bool)
	UpdateChecker *uapp.UpdateChecker
}

type ActionDependencies struct {
	Session               SessionController
	OnSave                func(cfg config.AppConfig) error
	OnPreferredPanel      func(panelID string)
	OnAttachNotifications func(sender uapp.NotificationSender, isForeground func() bool)
	OnQuit                func()
}

type PlatformDependencies struct {
	Scanner BluetoothScanner
}

type LaunchOptions struct {
	InitialPanel string
	MinimalMode  bool
}

type RuntimeDependencies struct {
	Data     DataDependencies
	Actions  ActionDependencies
	Platform PlatformDependencies
	Launch   LaunchOptions

	// RunOnUI delivers a function to the UI thread through the runtime's
	// dispatch queue, the same channel command results arrive on.
	RunOnUI func(func())
}

func BuildRuntimeDependencies(rt *uapp.Runtime, launch LaunchOptions, onQuit func()) RuntimeDependencies {
	dep := RuntimeDependencies{
		Launch: launch,
		Actions: ActionDependencies{
			OnQuit: onQuit,
		},
	}

	if rt == nil {
		return dep
	}

	dep.Data = DataDependencies{
		Config:        rt.Config,
		Bus:           rt.Bus,
		CurrentConfig: rt.CurrentConfig,
		Controller: func(domain device.Domain) (DeviceController, bool) {
			manager, ok := rt.Manager(domain)
			if !ok {
				return nil, false
			}

			return manager, true
		},
		UpdateChecker: rt.UpdateChecker,
	}

	dep.RunOnUI = rt.Dispatch.Post

	dep.Actions.Session = rt.Session
	dep.Actions.OnSave = rt.SaveAndApplyConfig
	dep.Actions.OnPreferredPanel = rt.RememberPreferredPanel
	dep.Actions.OnAttachNotifications = rt.AttachNotifications

	dep.Platform = PlatformDependencies{
		Scanner: bluetoothutil.NewScanner(bluetoothScanDuration),
	}

	return dep
}
