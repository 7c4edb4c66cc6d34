package protection

// RelayStatus tracks a single breaker's position in the trip sequence.
type RelayStatus int

const (
	StatusArmed RelayStatus = iota
	StatusTripPending
	StatusTripped
)

var statusNames = map[RelayStatus]string{
	StatusArmed:       "armed",
	StatusTripPending: "trip_pending",
	StatusTripped:     "tripped",
}

func (s RelayStatus) String() string {
	return statusNames[s]
}

// Relay is one breaker in the coordination chain. A relay counts its delay
// from the fault onset, not from its own first observation, so primary and
// backup stay selective even when they see the fault on the same tick.
type Relay struct {
	ID       string
	DelayS   float64
	Status   RelayStatus
	TripTime float64 // simulation seconds, valid once tripped
}

// Observe advances the relay one tick. A tripped relay stays tripped until
// Reset; the trip condition is elapsed-since-onset reaching the delay while
// the fault is still active. A fault that clears before the delay expires
// re-arms the relay without a trip.
func (r *Relay) Observe(now, onset float64, faultActive bool) {
	if r.Status == StatusTripped {
		return
	}
	if !faultActive {
		r.Status = StatusArmed
		return
	}
	if now-onset >= r.DelayS {
		r.Status = StatusTripped
		r.TripTime = now
		return
	}
	r.Status = StatusTripPending
}

// Reset recloses the breaker. Only an explicit operator action does this;
// fault clearance alone never un-trips a relay.
func (r *Relay) Reset() {
	r.Status = StatusArmed
	r.TripTime = 0
}
