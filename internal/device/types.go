// Package device implements the generic async device-manager pattern shared
// by all control surfaces. One Manager per domain owns the latest observed
// snapshot, refreshes it through external probes, and reconciles every
// mutating action with a follow-up probe.
package device

import "time"

// Domain tags one device-control surface. Domain strings double as panel
// ids and as the domain part of command invocation identities.
type Domain string

const (
	DomainWifi      Domain = "wifi"
	DomainBluetooth Domain = "bluetooth"
	DomainAudio     Domain = "audio"
	DomainDisplay   Domain = "display"
	DomainPower     Domain = "power"
)

func Domains() []Domain {
	return []Domain{DomainWifi, DomainBluetooth, DomainAudio, DomainDisplay, DomainPower}
}

// Item is one discovered entity within a domain: a wifi network, a paired
// bluetooth device, an audio sink, a display output, a power profile.
type Item struct {
	ID      string
	Name    string
	Signal  int
	Active  bool
	Secured bool
	Detail  string
}

// Snapshot is an immutable point-in-time view of a domain's observed state.
// Managers replace snapshots wholesale; readers always get a deep copy.
type Snapshot struct {
	Domain         Domain
	Enabled        bool
	Items          []Item
	ActiveID       string
	Level          int
	Muted          bool
	Profile        string
	WiredConnected bool
	UpdatedAt      time.Time
}

func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Items != nil {
		out.Items = append([]Item(nil), s.Items...)
	}

	return out
}

// ActiveItem returns the item matching ActiveID, if any.
func (s Snapshot) ActiveItem() (Item, bool) {
	for _, item := range s.Items {
		if item.ID == s.ActiveID {
			return item, true
		}
	}

	return Item{}, false
}

// ErrorKind distinguishes failed probes from failed actions.
type ErrorKind int

const (
	ErrorProbe ErrorKind = iota
	ErrorAction
)

// Failure is the observable error event of a manager. Probe failures leave
// the prior snapshot intact; action failures are followed by a reconciling
// probe either way.
type Failure struct {
	Domain Domain
	Kind   ErrorKind
	Verb   string
	Target string
	Err    error
}

// Observer receives manager events. Both callbacks run on the UI thread.
type Observer interface {
	SnapshotChanged(snapshot Snapshot)
	DeviceFailed(failure Failure)
}

// Bus topics published by managers for background consumers (persistence,
// notifications). UI code should prefer Observer registration, which already
// runs on the UI thread.
const (
	TopicSnapshot = "device.snapshot"
	TopicFailure  = "device.failure"
)

// SnapshotUpdate is the TopicSnapshot payload.
type SnapshotUpdate struct {
	Snapshot Snapshot
	Seq      uint64
}
