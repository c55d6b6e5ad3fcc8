package link

import "time"

// Gap describes the current call-gapping window on a link.
type Gap struct {
	Active     bool
	Start      time.Time
	End        time.Time // zero when Indefinite is true
	Indefinite bool
}

// State is a read-only snapshot of a link's cached peer/connection state,
// handed to callers via Link.Snapshot and to state-change listeners.
type State struct {
	Role        Role
	UnitEnabled bool
	Gap         Gap

	Preferred [4]byte
	Secondary [4]byte

	RemoteUnitID uint32
	ClusterID    byte

	Suspect bool

	ActiveCalls int

	LastActivity time.Time

	// Supplementary operability fields (additive, not part of the
	// protocol's own invariants).
	ConnectAttempts int
	LastStateChange time.Time
	BadFrameCount   int
}

// Active reports whether the link can currently take calls: enabled and
// not gapping, per the data model's active = enabled ∧ ¬gapping rule.
func (s State) Active() bool {
	return s.UnitEnabled && !s.Gap.Active
}
