package device

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"uctl/internal/bus"
	"uctl/internal/command"
	"uctl/internal/platform"
)

type runnerCall struct {
	spec    command.Spec
	deliver func(command.Result)
}

// fakeRunner records scheduled commands and lets tests complete them in any
// order, which is how out-of-order probe completion is exercised.
type fakeRunner struct {
	calls []runnerCall
}

func (r *fakeRunner) Run(spec command.Spec, deliver func(result command.Result)) {
	r.calls = append(r.calls, runnerCall{spec: spec, deliver: deliver})
}

func (r *fakeRunner) complete(t *testing.T, index int, res command.Result) {
	t.Helper()

	if index >= len(r.calls) {
		t.Fatalf("no scheduled command at index %d, have %d", index, len(r.calls))
	}
	res.Spec = r.calls[index].spec
	r.calls[index].deliver(res)
}

type observerSpy struct {
	snapshots []Snapshot
	failures  []Failure
}

func (o *observerSpy) SnapshotChanged(snapshot Snapshot) {
	o.snapshots = append(o.snapshots, snapshot)
}

func (o *observerSpy) DeviceFailed(failure Failure) {
	o.failures = append(o.failures, failure)
}

type publishedMessage struct {
	topic   string
	payload any
}

type busSpy struct {
	mu        sync.Mutex
	published []publishedMessage
}

func (b *busSpy) Publish(topic string, msg any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, publishedMessage{topic: topic, payload: msg})
}

func (b *busSpy) Subscribe(topic string) bus.Subscription      { return nil }
func (b *busSpy) Unsubscribe(ch bus.Subscription, t ...string) {}
func (b *busSpy) Close()                                       {}

func (b *busSpy) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var topics []string
	for _, msg := range b.published {
		topics = append(topics, msg.topic)
	}

	return topics
}

func testCommandSet() CommandSet {
	return CommandSet{
		Domain: DomainWifi,
		Probe: func() (command.Spec, error) {
			return command.Spec{Domain: "wifi", Verb: "status"}, nil
		},
		Action: func(req platform.ActionRequest) (command.Spec, error) {
			if req.Verb == "connect" && req.Target == "" {
				return command.Spec{}, errors.New("connect requires a network")
			}

			return command.Spec{Domain: "wifi", Verb: req.Verb, Target: req.Target}, nil
		},
		Parse: parseWifi,
	}
}

func wifiProbeOutputs(enabled bool, networkLines string) []string {
	state := "disabled"
	if enabled {
		state = "enabled"
	}

	return []string{state + "\n", networkLines, "wifi:connected\n"}
}

func TestManagerRefreshAppliesSnapshot(t *testing.T) {
	runner := &fakeRunner{}
	messages := &busSpy{}
	manager := NewManager(testCommandSet(), runner, messages, nil)
	observer := &observerSpy{}
	manager.Subscribe(observer)

	manager.RefreshAsync()
	runner.complete(t, 0, command.Result{Outputs: wifiProbeOutputs(true, "*:homenet:87:WPA2\n:guest:41:--\n")})

	snapshot := manager.GetSnapshot()
	if !snapshot.Enabled {
		t.Error("expected enabled snapshot")
	}
	if len(snapshot.Items) != 2 {
		t.Fatalf("expected 2 networks, got %d", len(snapshot.Items))
	}
	if snapshot.ActiveID != "homenet" {
		t.Errorf("expected active network homenet, got %q", snapshot.ActiveID)
	}

	if len(observer.snapshots) != 1 {
		t.Fatalf("expected 1 observer notification, got %d", len(observer.snapshots))
	}
	if topics := messages.topics(); len(topics) != 1 || topics[0] != TopicSnapshot {
		t.Errorf("expected one %s publication, got %v", TopicSnapshot, topics)
	}
}

func TestManagerSlowProbeDoesNotOverwriteNewerResult(t *testing.T) {
	runner := &fakeRunner{}
	manager := NewManager(testCommandSet(), runner, nil, nil)
	observer := &observerSpy{}
	manager.Subscribe(observer)

	manager.RefreshAsync()
	manager.RefreshAsync()

	runner.complete(t, 1, command.Result{Outputs: wifiProbeOutputs(false, "")})
	runner.complete(t, 0, command.Result{Outputs: wifiProbeOutputs(true, "*:homenet:87:WPA2\n")})

	snapshot := manager.GetSnapshot()
	if snapshot.Enabled {
		t.Error("stale probe overwrote the newer disabled state")
	}
	if len(snapshot.Items) != 0 {
		t.Errorf("stale network list survived, got %d items", len(snapshot.Items))
	}
	if len(observer.snapshots) != 1 {
		t.Errorf("expected exactly 1 notification, got %d", len(observer.snapshots))
	}
}

func TestManagerFailedProbeKeepsSnapshot(t *testing.T) {
	runner := &fakeRunner{}
	manager := NewManager(testCommandSet(), runner, nil, nil)
	observer := &observerSpy{}
	manager.Subscribe(observer)

	manager.RefreshAsync()
	runner.complete(t, 0, command.Result{Outputs: wifiProbeOutputs(true, "*:homenet:87:WPA2\n")})

	manager.RefreshAsync()
	runner.complete(t, 1, command.Result{Err: errors.New("nmcli exited with status 1")})

	snapshot := manager.GetSnapshot()
	if !snapshot.Enabled || snapshot.ActiveID != "homenet" {
		t.Error("failed probe disturbed the prior snapshot")
	}

	if len(observer.failures) != 1 {
		t.Fatalf("expected 1 failure notification, got %d", len(observer.failures))
	}
	if observer.failures[0].Kind != ErrorProbe {
		t.Errorf("expected probe failure kind, got %v", observer.failures[0].Kind)
	}
}

func TestManagerUnparseableOutputIsProbeFailure(t *testing.T) {
	runner := &fakeRunner{}
	manager := NewManager(testCommandSet(), runner, nil, nil)
	observer := &observerSpy{}
	manager.Subscribe(observer)

	manager.RefreshAsync()
	runner.complete(t, 0, command.Result{Outputs: []string{"enabled\n"}})

	if len(observer.failures) != 1 {
		t.Fatalf("expected 1 failure notification, got %d", len(observer.failures))
	}
	if len(observer.snapshots) != 0 {
		t.Error("unparseable output produced a snapshot notification")
	}
}

func TestManagerActionSchedulesReconcilingProbe(t *testing.T) {
	runner := &fakeRunner{}
	manager := NewManager(testCommandSet(), runner, nil, nil)

	if err := manager.PerformAction("enable", "", nil); err != nil {
		t.Fatalf("PerformAction: %v", err)
	}
	if len(runner.calls) != 1 || runner.calls[0].spec.Verb != "enable" {
		t.Fatalf("expected one enable invocation, got %+v", runner.calls)
	}

	runner.complete(t, 0, command.Result{Outputs: []string{"ignored action output"}})

	if len(runner.calls) != 2 || runner.calls[1].spec.Verb != "status" {
		t.Fatalf("expected a follow-up probe, got %+v", runner.calls)
	}
}

// A probe that started before an action must not clobber the state the
// action's own reconciling probe observed.
func TestManagerStaleProbeAfterActionDiscarded(t *testing.T) {
	runner := &fakeRunner{}
	manager := NewManager(testCommandSet(), runner, nil, nil)

	manager.RefreshAsync()

	if err := manager.PerformAction("disable", "", nil); err != nil {
		t.Fatalf("PerformAction: %v", err)
	}
	runner.complete(t, 1, command.Result{})

	runner.complete(t, 2, command.Result{Outputs: wifiProbeOutputs(false, "")})
	runner.complete(t, 0, command.Result{Outputs: wifiProbeOutputs(true, "*:homenet:87:WPA2\n")})

	if snapshot := manager.GetSnapshot(); snapshot.Enabled {
		t.Error("probe started before the action overwrote the reconciled state")
	}
}

func TestManagerFailedActionStillReconciles(t *testing.T) {
	runner := &fakeRunner{}
	manager := NewManager(testCommandSet(), runner, nil, nil)
	observer := &observerSpy{}
	manager.Subscribe(observer)

	if err := manager.PerformAction("disable", "", nil); err != nil {
		t.Fatalf("PerformAction: %v", err)
	}
	runner.complete(t, 0, command.Result{Err: errors.New("nmcli exited with status 4")})

	if len(observer.failures) != 1 || observer.failures[0].Kind != ErrorAction {
		t.Fatalf("expected one action failure, got %+v", observer.failures)
	}
	if len(runner.calls) != 2 || runner.calls[1].spec.Verb != "status" {
		t.Fatal("failed action did not schedule a reconciling probe")
	}
}

func TestManagerActionValidationFailsFast(t *testing.T) {
	runner := &fakeRunner{}
	manager := NewManager(testCommandSet(), runner, nil, nil)

	if err := manager.PerformAction("connect", "", nil); err == nil {
		t.Fatal("expected a validation error for connect without a target")
	}
	if len(runner.calls) != 0 {
		t.Error("invalid action reached the runner")
	}
}

func TestManagerPrimeSeedsOnlyBeforeFirstProbe(t *testing.T) {
	runner := &fakeRunner{}
	manager := NewManager(testCommandSet(), runner, nil, nil)

	manager.Prime(Snapshot{Enabled: true, ActiveID: "cached", Items: []Item{{ID: "cached"}}})
	if snapshot := manager.GetSnapshot(); snapshot.ActiveID != "cached" {
		t.Fatalf("prime did not seed the snapshot, got %+v", snapshot)
	}
	if snapshot := manager.GetSnapshot(); snapshot.Domain != DomainWifi {
		t.Error("prime lost the manager's domain tag")
	}

	manager.RefreshAsync()
	runner.complete(t, 0, command.Result{Outputs: wifiProbeOutputs(true, "*:homenet:87:WPA2\n")})

	manager.Prime(Snapshot{ActiveID: "cached"})
	if snapshot := manager.GetSnapshot(); snapshot.ActiveID != "homenet" {
		t.Error("prime overwrote a probed snapshot")
	}
}

func TestManagerUnsubscribeStopsNotifications(t *testing.T) {
	runner := &fakeRunner{}
	manager := NewManager(testCommandSet(), runner, nil, nil)
	observer := &observerSpy{}
	manager.Subscribe(observer)
	manager.Subscribe(observer)
	manager.Unsubscribe(observer)

	manager.RefreshAsync()
	runner.complete(t, 0, command.Result{Outputs: wifiProbeOutputs(true, "")})

	if len(observer.snapshots) != 0 {
		t.Errorf("unsubscribed observer still notified %d times", len(observer.snapshots))
	}
}

func TestManagerSnapshotCopiesAreIndependent(t *testing.T) {
	runner := &fakeRunner{}
	manager := NewManager(testCommandSet(), runner, nil, nil)

	manager.RefreshAsync()
	runner.complete(t, 0, command.Result{Outputs: wifiProbeOutputs(true, "*:homenet:87:WPA2\n")})

	first := manager.GetSnapshot()
	first.Items[0].Name = "tampered"
	first.Enabled = false

	second := manager.GetSnapshot()
	if second.Items[0].Name != "homenet" || !second.Enabled {
		t.Error("mutating a returned snapshot leaked into the manager")
	}
}

func TestDomainsMatchPanelOrder(t *testing.T) {
	want := []Domain{DomainWifi, DomainBluetooth, DomainAudio, DomainDisplay, DomainPower}
	got := Domains()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Domains() = %v, want %v", got, want)
	}
}
