package types

import "sync"

// Phase is the coarse view of vehicle readiness. Phases are ordered and a
// run only ever moves forward through them.
type Phase int

const (
	PhaseDisconnected Phase = iota // no vehicle heartbeat yet
	PhaseConnected                 // vehicle heartbeat seen
	PhaseArmed                     // armed flag seen
	PhaseOffboard                  // armed and in offboard mode
)

func (p Phase) String() string {
	switch p {
	case PhaseConnected:
		return "Connected"
	case PhaseArmed:
		return "Armed"
	case PhaseOffboard:
		return "Guided (Offboard)"
	default:
		return "Disconnected"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// NextPhase applies one heartbeat to the transition table. Heartbeats from
// ground stations never advance the phase, and nothing ever moves it back.
func NextPhase(p Phase, hb Heartbeat, offboardMainMode uint8) Phase {
	if hb.FromStation() {
		return p
	}

	switch p {
	case PhaseDisconnected:
		return PhaseConnected
	case PhaseConnected:
		if hb.Armed() {
			return PhaseArmed
		}
	case PhaseArmed:
		if hb.Armed() && hb.MainMode() == offboardMainMode {
			return PhaseOffboard
		}
	}
	return p
}

// PhaseCell is the single guarded Phase shared by the observer (writer) and
// the setpoint streamer (reader).
type PhaseCell struct {
	mu    sync.Mutex
	phase Phase
}

func NewPhaseCell() *PhaseCell {
	return &PhaseCell{phase: PhaseDisconnected}
}

func (c *PhaseCell) Get() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Advance applies hb under the guard and reports the transition, if any.
func (c *PhaseCell) Advance(hb Heartbeat, offboardMainMode uint8) (from, to Phase, changed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	from = c.phase
	to = NextPhase(from, hb, offboardMainMode)
	c.phase = to
	return from, to, to != from
}
