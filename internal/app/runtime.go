package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"uctl/internal/bus"
	"uctl/internal/command"
	"uctl/internal/config"
	"uctl/internal/device"
	"uctl/internal/dispatch"
	"uctl/internal/logging"
	"uctl/internal/persistence"
	"uctl/internal/platform"
)

// Runtime owns every long-lived component below the UI: configuration,
// logging, the message bus, the dispatch queue, the command runner, one
// device manager per domain and the snapshot cache.
type Runtime struct {
	mu sync.RWMutex

	Ctx    context.Context
	cancel context.CancelFunc

	Paths  Paths
	Config config.AppConfig

	LogManager *logging.Manager
	Bus        *bus.PubSubBus
	DB         *sql.DB

	SnapshotRepo *persistence.SnapshotRepo
	WriterQueue  *persistence.WriterQueue

	Dispatch *dispatch.Queue
	Runner   *command.ExecRunner

	Session       *platform.SessionActions
	UpdateChecker *UpdateChecker
	Notifications *NotificationService

	managers map[device.Domain]*device.Manager
}

// Initialize wires the runtime. runOnUI is how completions reach the UI
// thread: fyne.Do for the desktop app, a direct call for headless use.
func Initialize(parent context.Context, runOnUI func(func())) (*Runtime, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:      ctx,
		cancel:   cancel,
		Paths:    paths,
		Config:   cfg,
		managers: make(map[device.Domain]*device.Manager),
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		_ = logMgr.Close()
		cancel()

		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	slog.Info("starting uctl runtime", "version", BuildVersion(), "build_date", BuildDateYMD())

	rt.Bus = bus.New(logMgr.Logger("bus"))

	rt.Dispatch = dispatch.NewQueue(runOnUI, logMgr.Logger("dispatch"))
	rt.Dispatch.Start(ctx)
	rt.Runner = command.NewExecRunner(rt.Dispatch, logMgr.Logger("command"))

	for _, domain := range device.Domains() {
		commands, err := device.NewCommandSet(domain)
		if err != nil {
			slog.Warn("domain unavailable on this platform", "domain", domain, "error", err)

			continue
		}
		rt.managers[domain] = device.NewManager(commands, rt.Runner, rt.Bus, logMgr.Logger("device"))
	}

	rt.Session = platform.NewSessionActions(cfg.Commands, logMgr.Logger("session"))

	// The snapshot cache is best effort. A broken cache db costs the
	// instant first paint, nothing else.
	db, err := persistence.Open(ctx, paths.DBFile)
	if err != nil {
		slog.Warn("snapshot cache unavailable", "error", err)
	} else {
		rt.DB = db
		rt.SnapshotRepo = persistence.NewSnapshotRepo(db)
		rt.WriterQueue = persistence.NewWriterQueue(logMgr.Logger("persistence"), 0)
		rt.WriterQueue.Start(ctx)
		persistence.NewSnapshotProjection(rt.Bus, rt.SnapshotRepo, rt.WriterQueue, logMgr.Logger("persistence")).Start(ctx)
		rt.primeManagers(ctx)
	}

	rt.UpdateChecker = NewUpdateChecker(UpdateCheckerConfig{
		CurrentVersion: BuildVersion(),
		Logger:         logMgr.Logger("updates"),
	})
	rt.UpdateChecker.Start(ctx)

	return rt, nil
}

func (r *Runtime) primeManagers(ctx context.Context) {
	cached, err := r.SnapshotRepo.LoadAll(ctx)
	if err != nil {
		slog.Warn("load cached snapshots", "error", err)

		return
	}

	for domain, snapshot := range cached {
		if manager, ok := r.managers[domain]; ok {
			manager.Prime(snapshot)
		}
	}
}

// Manager returns the device manager for domain, if the platform supports it.
func (r *Runtime) Manager(domain device.Domain) (*device.Manager, bool) {
	manager, ok := r.managers[domain]

	return manager, ok
}

// AttachNotifications starts desktop notifications once the UI exists to
// provide a sender and a foreground check.
func (r *Runtime) AttachNotifications(sender NotificationSender, isForeground func() bool) {
	r.Notifications = NewNotificationService(r.Bus, r.CurrentConfig, isForeground, sender, r.LogManager.Logger("notifications"))
	r.Notifications.Start(r.Ctx)

	go func() {
		for {
			select {
			case <-r.Ctx.Done():
				return
			case snapshot, ok := <-r.UpdateChecker.Snapshots():
				if !ok {
					return
				}
				r.Notifications.NotifyUpdate(snapshot)
			}
		}
	}()
}

func (r *Runtime) CurrentConfig() config.AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Config
}

func (r *Runtime) SaveAndApplyConfig(cfg config.AppConfig) error {
	cfg.FillMissingDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if err := config.Save(r.Paths.ConfigFile, cfg); err != nil {
		r.mu.Unlock()

		return err
	}
	r.Config = cfg
	r.mu.Unlock()

	if err := r.LogManager.Configure(cfg.Logging, r.Paths.LogFile); err != nil {
		return err
	}
	r.Session.ApplyCommands(cfg.Commands)

	return nil
}

// RememberPreferredPanel persists the panel the user explicitly opened.
func (r *Runtime) RememberPreferredPanel(panelID string) {
	r.mu.Lock()
	if r.Config.UI.PreferredPanel == panelID {
		r.mu.Unlock()

		return
	}
	cfg := r.Config
	cfg.UI.PreferredPanel = panelID
	if err := config.Save(r.Paths.ConfigFile, cfg); err != nil {
		r.mu.Unlock()
		slog.Warn("save preferred panel", "error", err)

		return
	}
	r.Config = cfg
	r.mu.Unlock()
}

func (r *Runtime) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.Bus != nil {
		r.Bus.Close()
	}
	if r.DB != nil {
		_ = r.DB.Close()
	}
	if r.LogManager != nil {
		_ = r.LogManager.Close()
	}

	return nil
}
