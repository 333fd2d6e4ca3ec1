package ui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

type slotState int

const (
	slotPlaceholder slotState = iota
	slotLoading
	slotLoaded
	slotFailed
)

// PanelFactory builds a panel's real content. Factories may be slow (they
// usually trigger the panel's first device probe) and run off the UI thread.
type PanelFactory func() (fyne.CanvasObject, error)

type panelSlot struct {
	id      string
	title   string
	factory PanelFactory
	state   slotState
	gen     int
	box     *fyne.Container
	content fyne.CanvasObject
}

// Lifecycle owns the right-hand panel stack. Every panel starts as a cheap
// placeholder; its content is built lazily on first activation. One panel
// loads at a time: the latch taken when a load starts is released only
// after the finished content is swapped into the visible tree.
//
// Selections are either explicit (the user clicked) or automatic (restored
// state, programmatic switches). Until the user interacts, automatic
// selections of anything but the preferred panel are ignored so a slow
// startup cannot steal the panel the user asked for.
type Lifecycle struct {
	mu         sync.Mutex
	slots      map[string]*panelSlot
	order      []string
	active     string
	preferred  string
	interacted bool
	loading    bool

	runOnUI  func(func())
	runAsync func(func())
	onShown  func(id string)

	stack *fyne.Container
}

func NewLifecycle(preferred string, runOnUI func(func())) *Lifecycle {
	if runOnUI == nil {
		runOnUI = fyne.Do
	}

	return &Lifecycle{
		slots:     make(map[string]*panelSlot),
		preferred: preferred,
		runOnUI:   runOnUI,
		runAsync:  func(fn func()) { go fn() },
		stack:     container.NewStack(),
	}
}

// SetOnShown registers a callback invoked whenever a panel becomes visible.
func (l *Lifecycle) SetOnShown(fn func(id string)) {
	l.mu.Lock()
	l.onShown = fn
	l.mu.Unlock()
}

func (l *Lifecycle) AddPanel(id, title string, factory PanelFactory) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.slots[id]; exists {
		return
	}

	slot := &panelSlot{
		id:      id,
		title:   title,
		factory: factory,
		box:     container.NewStack(placeholderContent(title)),
	}
	slot.box.Hide()
	l.slots[id] = slot
	l.order = append(l.order, id)
	l.stack.Add(slot.box)
}

// Stack returns the container holding every panel slot.
func (l *Lifecycle) Stack() *fyne.Container {
	return l.stack
}

func (l *Lifecycle) PanelIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.order...)
}

func (l *Lifecycle) ActiveID() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.active
}

// LoadInProgress reports whether a panel load currently holds the latch.
func (l *Lifecycle) LoadInProgress() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.loading
}

// Activate shows a panel in response to an explicit user selection.
func (l *Lifecycle) Activate(id string) {
	l.show(id, true)
}

// Select shows a panel in response to an automatic selection: restored
// startup state or a programmatic switch.
func (l *Lifecycle) Select(id string) {
	l.show(id, false)
}

func (l *Lifecycle) show(id string, explicit bool) {
	l.mu.Lock()
	slot, ok := l.slots[id]
	if !ok {
		l.mu.Unlock()

		return
	}

	if explicit {
		l.interacted = true
	} else if l.preferred != "" && id != l.preferred && !l.interacted {
		l.mu.Unlock()
		appLogger.Debug("suppressed automatic panel switch", "panel", id, "preferred", l.preferred)

		return
	}

	if slot.state == slotLoaded {
		notify := l.switchToLocked(slot)
		l.mu.Unlock()
		if notify != nil {
			notify()
		}

		return
	}

	if l.loading {
		l.mu.Unlock()
		appLogger.Debug("panel load ignored while another is in flight", "panel", id)

		return
	}

	l.loading = true
	slot.state = slotLoading
	slot.gen++
	gen := slot.gen
	factory := slot.factory
	l.setBoxLocked(slot, loadingContent(slot.title))
	notify := l.switchToLocked(slot)
	l.mu.Unlock()
	if notify != nil {
		notify()
	}

	appLogger.Debug("loading panel", "panel", id)
	l.runAsync(func() {
		content, err := factory()
		l.runOnUI(func() {
			l.finishLoad(id, gen, content, err)
		})
	})
}

// finishLoad runs on the UI thread when a factory completes. Results from a
// superseded load generation are dropped.
func (l *Lifecycle) finishLoad(id string, gen int, content fyne.CanvasObject, err error) {
	l.mu.Lock()
	slot, ok := l.slots[id]
	if !ok || slot.gen != gen {
		l.mu.Unlock()
		appLogger.Debug("discarding stale panel load", "panel", id)

		return
	}

	if err != nil {
		slot.state = slotFailed
		slot.content = nil
		l.setBoxLocked(slot, l.failureContent(slot, err))
		l.loading = false
		l.mu.Unlock()
		appLogger.Warn("panel load failed", "panel", id, "error", err)

		return
	}

	slot.state = slotLoaded
	slot.content = content
	l.setBoxLocked(slot, content)
	l.loading = false
	l.mu.Unlock()
	appLogger.Debug("panel loaded", "panel", id)
}

// switchToLocked makes slot the visible panel. It returns the shown
// notification for the caller to run after releasing the mutex, so the
// callback is free to call back into the lifecycle.
func (l *Lifecycle) switchToLocked(slot *panelSlot) func() {
	if l.active == slot.id {
		return nil
	}

	if current, ok := l.slots[l.active]; ok {
		current.box.Hide()
	}
	l.active = slot.id
	slot.box.Show()
	l.stack.Refresh()

	if l.onShown == nil {
		return nil
	}
	fn, id := l.onShown, slot.id

	return func() { fn(id) }
}

func (l *Lifecycle) setBoxLocked(slot *panelSlot, content fyne.CanvasObject) {
	slot.box.Objects = []fyne.CanvasObject{content}
	slot.box.Refresh()
}

func (l *Lifecycle) failureContent(slot *panelSlot, err error) fyne.CanvasObject {
	message := widget.NewLabel("Failed to load " + slot.title)
	detail := widget.NewLabel(err.Error())
	detail.Wrapping = fyne.TextWrapWord
	retry := widget.NewButton("Retry", func() {
		l.Activate(slot.id)
	})

	return container.NewCenter(container.NewVBox(message, detail, retry))
}

func placeholderContent(title string) fyne.CanvasObject {
	return container.NewCenter(widget.NewLabel(title))
}

func loadingContent(title string) fyne.CanvasObject {
	spinner := widget.NewProgressBarInfinite()

	return container.NewCenter(container.NewVBox(widget.NewLabel("Loading "+title+"…"), spinner))
}
