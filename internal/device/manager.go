package device

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"uctl/internal/bus"
	"uctl/internal/command"
	"uctl/internal/platform"
)

// Manager owns the observed state of one domain. All state transitions go
// through probes: RefreshAsync schedules one, PerformAction runs a mutation
// and then schedules one regardless of the action's outcome. Command output
// is never trusted as state on its own.
//
// Probe results carry the sequence number assigned at scheduling time and
// apply only when no newer result has been applied yet, so a slow probe can
// never overwrite the outcome of one started after it.
type Manager struct {
	domain   Domain
	commands CommandSet
	runner   command.Runner
	bus      bus.MessageBus
	logger   *slog.Logger

	mu        sync.Mutex
	snapshot  Snapshot
	seq       uint64
	applied   uint64
	observers []Observer
}

func NewManager(commands CommandSet, runner command.Runner, messageBus bus.MessageBus, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Manager{
		domain:   commands.Domain,
		commands: commands,
		runner:   runner,
		bus:      messageBus,
		logger:   logger.With("domain", string(commands.Domain)),
		snapshot: Snapshot{Domain: commands.Domain},
	}
}

func (m *Manager) Domain() Domain {
	return m.domain
}

// GetSnapshot returns a copy of the latest applied snapshot. Safe from any
// goroutine.
func (m *Manager) GetSnapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snapshot.Clone()
}

// Prime seeds the snapshot from a persisted cache. It is a no-op once any
// probe result has been applied, so a fast first probe always wins over
// stale cached state.
func (m *Manager) Prime(snapshot Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.applied != 0 || !m.snapshot.UpdatedAt.IsZero() {
		return
	}

	m.snapshot = snapshot.Clone()
	m.snapshot.Domain = m.domain
}

// RefreshAsync schedules a probe and returns immediately. The result is
// applied on the UI thread when the probe completes.
func (m *Manager) RefreshAsync() {
	spec, err := m.commands.Probe()
	if err != nil {
		m.logger.Error("Probe unavailable", "error", err)
		m.reportFailure(Failure{Domain: m.domain, Kind: ErrorProbe, Err: err}, nil)

		return
	}

	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	m.logger.Debug("Probe scheduled", "seq", seq)
	m.runner.Run(spec, func(res command.Result) {
		m.applyResult(seq, res)
	})
}

// PerformAction runs a mutating command against the device. The action's
// own output is discarded; a follow-up probe reconciles the snapshot with
// whatever actually happened, success or not. The returned error covers
// only request validation, not execution.
func (m *Manager) PerformAction(verb, target string, params map[string]string) error {
	spec, err := m.commands.Action(platform.ActionRequest{Verb: verb, Target: target, Params: params})
	if err != nil {
		return fmt.Errorf("%s %s: %w", m.domain, verb, err)
	}

	m.logger.Info("Action dispatched", "verb", verb, "target", target)
	m.runner.Run(spec, func(res command.Result) {
		if res.Err != nil {
			m.logger.Warn("Action failed", "verb", verb, "target", target, "error", res.Err)
			m.reportFailure(Failure{
				Domain: m.domain,
				Kind:   ErrorAction,
				Verb:   verb,
				Target: target,
				Err:    res.Err,
			}, nil)
		}

		m.RefreshAsync()
	})

	return nil
}

// Subscribe registers an observer. Callbacks arrive on the UI thread.
func (m *Manager) Subscribe(observer Observer) {
	if observer == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if slices.Contains(m.observers, observer) {
		return
	}

	m.observers = append(m.observers, observer)
}

func (m *Manager) Unsubscribe(observer Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.observers = slices.DeleteFunc(m.observers, func(o Observer) bool {
		return o == observer
	})
}

// applyResult runs on the UI thread when a probe completes.
func (m *Manager) applyResult(seq uint64, res command.Result) {
	m.mu.Lock()
	if seq <= m.applied {
		m.mu.Unlock()
		m.logger.Debug("Stale probe result discarded", "seq", seq, "applied", m.applied)

		return
	}
	m.applied = seq

	var failure error
	if res.Err != nil {
		failure = res.Err
	} else {
		snapshot, err := m.commands.Parse(res.Outputs)
		if err != nil {
			failure = err
		} else {
			snapshot.Domain = m.domain
			m.snapshot = snapshot
		}
	}

	observers := slices.Clone(m.observers)
	current := m.snapshot.Clone()
	m.mu.Unlock()

	if failure != nil {
		m.logger.Warn("Probe failed", "seq", seq, "error", failure)
		m.reportFailure(Failure{Domain: m.domain, Kind: ErrorProbe, Err: failure}, observers)

		return
	}

	m.logger.Debug("Snapshot applied", "seq", seq, "items", len(current.Items))
	for _, observer := range observers {
		observer.SnapshotChanged(current)
	}
	if m.bus != nil {
		m.bus.Publish(TopicSnapshot, SnapshotUpdate{Snapshot: current, Seq: seq})
	}
}

func (m *Manager) reportFailure(failure Failure, observers []Observer) {
	if observers == nil {
		m.mu.Lock()
		observers = slices.Clone(m.observers)
		m.mu.Unlock()
	}

	for _, observer := range observers {
		observer.DeviceFailed(failure)
	}
	if m.bus != nil {
		m.bus.Publish(TopicFailure, failure)
	}
}
