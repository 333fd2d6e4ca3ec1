package ui

import (
	"errors"
	"testing"

	"fyne.io/fyne/v2"
	fynetest "fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
)

// manualAsync captures factory tasks so tests decide when a load completes.
type manualAsync struct {
	tasks []func()
}

func (a *manualAsync) run(fn func()) {
	a.tasks = append(a.tasks, fn)
}

func (a *manualAsync) finishNext(t *testing.T) {
	t.Helper()

	if len(a.tasks) == 0 {
		t.Fatal("no pending panel load")
	}
	task := a.tasks[0]
	a.tasks = a.tasks[1:]
	task()
}

func newTestLifecycle(t *testing.T, preferred string) (*Lifecycle, *manualAsync) {
	t.Helper()

	app := fynetest.NewApp()
	t.Cleanup(app.Quit)

	async := &manualAsync{}
	lifecycle := NewLifecycle(preferred, func(fn func()) { fn() })
	lifecycle.runAsync = async.run

	return lifecycle, async
}

func countingFactory(calls *int, err error) PanelFactory {
	return func() (fyne.CanvasObject, error) {
		*calls++
		if err != nil {
			return nil, err
		}

		return widget.NewLabel("content"), nil
	}
}

func (l *Lifecycle) stateOf(id string) slotState {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.slots[id].state
}

func TestLifecyclePanelsStartAsPlaceholders(t *testing.T) {
	lifecycle, async := newTestLifecycle(t, "")

	var wifiCalls, powerCalls int
	lifecycle.AddPanel("wifi", "Wi-Fi", countingFactory(&wifiCalls, nil))
	lifecycle.AddPanel("power", "Power", countingFactory(&powerCalls, nil))

	if wifiCalls != 0 || powerCalls != 0 {
		t.Fatal("factories ran before any activation")
	}
	if len(async.tasks) != 0 {
		t.Fatal("loads scheduled before any activation")
	}
	if got := lifecycle.stateOf("wifi"); got != slotPlaceholder {
		t.Errorf("wifi state = %v, want placeholder", got)
	}
}

func TestLifecycleActivateLoadsOnce(t *testing.T) {
	lifecycle, async := newTestLifecycle(t, "")

	var calls int
	lifecycle.AddPanel("wifi", "Wi-Fi", countingFactory(&calls, nil))

	lifecycle.Activate("wifi")
	if got := lifecycle.stateOf("wifi"); got != slotLoading {
		t.Fatalf("state after activate = %v, want loading", got)
	}
	if !lifecycle.LoadInProgress() {
		t.Fatal("latch not held during load")
	}

	async.finishNext(t)
	if got := lifecycle.stateOf("wifi"); got != slotLoaded {
		t.Fatalf("state after load = %v, want loaded", got)
	}
	if lifecycle.LoadInProgress() {
		t.Fatal("latch still held after content swap")
	}

	lifecycle.Activate("wifi")
	if calls != 1 {
		t.Errorf("factory ran %d times, want 1", calls)
	}
}

func TestLifecycleSingleLoadAtATime(t *testing.T) {
	lifecycle, async := newTestLifecycle(t, "")

	var wifiCalls, powerCalls int
	lifecycle.AddPanel("wifi", "Wi-Fi", countingFactory(&wifiCalls, nil))
	lifecycle.AddPanel("power", "Power", countingFactory(&powerCalls, nil))

	lifecycle.Activate("wifi")
	lifecycle.Activate("power")

	if powerCalls != 0 {
		t.Fatal("second load started while the first held the latch")
	}
	if lifecycle.ActiveID() != "wifi" {
		t.Errorf("active panel = %q, want wifi", lifecycle.ActiveID())
	}

	async.finishNext(t)
	lifecycle.Activate("power")
	async.finishNext(t)

	if powerCalls != 1 || lifecycle.ActiveID() != "power" {
		t.Errorf("power not loaded after latch release: calls=%d active=%q", powerCalls, lifecycle.ActiveID())
	}
}

func TestLifecycleFailedLoadAllowsRetry(t *testing.T) {
	lifecycle, async := newTestLifecycle(t, "")

	var calls int
	loadErr := errors.New("probe tool missing")
	factory := func() (fyne.CanvasObject, error) {
		calls++
		if calls == 1 {
			return nil, loadErr
		}

		return widget.NewLabel("content"), nil
	}
	lifecycle.AddPanel("bluetooth", "Bluetooth", factory)

	lifecycle.Activate("bluetooth")
	async.finishNext(t)

	if got := lifecycle.stateOf("bluetooth"); got != slotFailed {
		t.Fatalf("state after failure = %v, want failed", got)
	}
	if lifecycle.LoadInProgress() {
		t.Fatal("latch held after a failed load")
	}

	lifecycle.Activate("bluetooth")
	async.finishNext(t)

	if got := lifecycle.stateOf("bluetooth"); got != slotLoaded {
		t.Fatalf("state after retry = %v, want loaded", got)
	}
	if calls != 2 {
		t.Errorf("factory ran %d times, want 2", calls)
	}
}

func TestLifecyclePreferredPanelSuppressesAutoSwitch(t *testing.T) {
	lifecycle, async := newTestLifecycle(t, "power")

	var wifiCalls, powerCalls int
	lifecycle.AddPanel("wifi", "Wi-Fi", countingFactory(&wifiCalls, nil))
	lifecycle.AddPanel("power", "Power", countingFactory(&powerCalls, nil))

	lifecycle.Select("wifi")
	if wifiCalls != 0 {
		t.Fatal("automatic selection of a non-preferred panel loaded it")
	}

	lifecycle.Select("power")
	async.finishNext(t)
	if powerCalls != 1 {
		t.Fatal("automatic selection of the preferred panel did not load it")
	}

	lifecycle.Activate("wifi")
	async.finishNext(t)
	if wifiCalls != 1 {
		t.Fatal("explicit selection did not load the panel")
	}

	lifecycle.Select("power")
	if lifecycle.ActiveID() != "power" {
		t.Error("automatic switches should work after the user interacted")
	}
}

func TestLifecycleStaleLoadResultDiscarded(t *testing.T) {
	lifecycle, async := newTestLifecycle(t, "")

	var calls int
	lifecycle.AddPanel("audio", "Audio", countingFactory(&calls, errors.New("boom")))

	lifecycle.Activate("audio")
	async.finishNext(t)
	lifecycle.Activate("audio")

	// A duplicate completion from the first load generation arrives late.
	lifecycle.finishLoad("audio", 1, widget.NewLabel("stale"), nil)

	if got := lifecycle.stateOf("audio"); got != slotLoading {
		t.Errorf("stale completion changed state to %v", got)
	}
	if !lifecycle.LoadInProgress() {
		t.Error("stale completion released the current load's latch")
	}

	async.finishNext(t)
	if got := lifecycle.stateOf("audio"); got != slotFailed {
		t.Errorf("state = %v, want failed from the second generation", got)
	}
}

func TestLifecycleSwitchBetweenLoadedPanels(t *testing.T) {
	lifecycle, async := newTestLifecycle(t, "")

	var wifiCalls, audioCalls int
	lifecycle.AddPanel("wifi", "Wi-Fi", countingFactory(&wifiCalls, nil))
	lifecycle.AddPanel("audio", "Audio", countingFactory(&audioCalls, nil))

	lifecycle.Activate("wifi")
	async.finishNext(t)
	lifecycle.Activate("audio")
	async.finishNext(t)
	lifecycle.Activate("wifi")

	if lifecycle.ActiveID() != "wifi" {
		t.Fatalf("active = %q, want wifi", lifecycle.ActiveID())
	}
	if !lifecycle.slots["wifi"].box.Visible() || lifecycle.slots["audio"].box.Visible() {
		t.Error("slot visibility does not match the active panel")
	}
	if wifiCalls != 1 || audioCalls != 1 {
		t.Errorf("factories reran on switch: wifi=%d audio=%d", wifiCalls, audioCalls)
	}
}

func TestLifecycleOnShownCallback(t *testing.T) {
	lifecycle, async := newTestLifecycle(t, "")

	var shown []string
	lifecycle.SetOnShown(func(id string) { shown = append(shown, id) })

	var calls int
	lifecycle.AddPanel("display", "Display", countingFactory(&calls, nil))
	lifecycle.Activate("display")
	async.finishNext(t)

	if len(shown) != 1 || shown[0] != "display" {
		t.Errorf("shown callbacks = %v", shown)
	}
}

func TestLifecycleOnShownMayCallBackIn(t *testing.T) {
	lifecycle, async := newTestLifecycle(t, "")

	// The callback re-enters the lifecycle, as the preferred-panel
	// persistence hook does. It must not run under the internal mutex.
	var seen []string
	lifecycle.SetOnShown(func(id string) {
		if lifecycle.LoadInProgress() {
			seen = append(seen, id+" (loading)")
		} else {
			seen = append(seen, id+" as "+lifecycle.ActiveID())
		}
	})

	var wifiCalls, audioCalls int
	lifecycle.AddPanel("wifi", "Wi-Fi", countingFactory(&wifiCalls, nil))
	lifecycle.AddPanel("audio", "Audio", countingFactory(&audioCalls, nil))

	lifecycle.Activate("wifi")
	async.finishNext(t)
	lifecycle.Activate("audio")
	async.finishNext(t)
	lifecycle.Activate("wifi")

	want := []string{"wifi (loading)", "audio (loading)", "wifi as wifi"}
	if len(seen) != len(want) {
		t.Fatalf("shown callbacks = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("callback[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}
