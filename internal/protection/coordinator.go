package protection

import "microgrid_simulator/internal/config"

// CoordinatorState is the system-level fault view, one step above the
// individual relay statuses.
type CoordinatorState int

const (
	StateNoFault CoordinatorState = iota
	StateFaultDetected
	StateFaultCleared
)

var stateNames = map[CoordinatorState]string{
	StateNoFault:       "no_fault",
	StateFaultDetected: "fault_detected",
	StateFaultCleared:  "fault_cleared",
}

func (s CoordinatorState) String() string {
	return stateNames[s]
}

// FaultEvent is the classification emitted for one tick. Type is FaultNone
// while no hypothesis clears the score threshold; Confidence always carries
// the best score so downstream consumers can watch near-misses.
type FaultEvent struct {
	Time       float64
	Type       FaultType
	Confidence float64
}

// Result is the coordinator's per-tick output: the classification, the raw
// scores and features behind it, and snapshots of both relays.
type Result struct {
	Event    FaultEvent
	Scores   Scores
	Features Features
	State    CoordinatorState
	Primary  Relay
	Backup   Relay
}

// Coordinator runs the scorer and sequences primary and backup relays from
// a shared fault-onset timestamp.
type Coordinator struct {
	cfg     config.ProtectionConfig
	scorer  Scorer
	primary Relay
	backup  Relay
	state   CoordinatorState
	onset   float64
}

// NewCoordinator builds a coordinator around the given scorer. A nil scorer
// selects the rule-based ThresholdScorer.
func NewCoordinator(cfg config.ProtectionConfig, scorer Scorer) *Coordinator {
	if scorer == nil {
		scorer = NewThresholdScorer(cfg)
	}
	return &Coordinator{
		cfg:     cfg,
		scorer:  scorer,
		primary: Relay{ID: "primary", DelayS: cfg.PrimaryDelayS},
		backup:  Relay{ID: "backup", DelayS: cfg.BackupDelayS},
	}
}

// Step evaluates one tick. renewableFraction is only consulted when
// adaptive delays are enabled; relays already counting down keep the delay
// computed for the current tick.
func (c *Coordinator) Step(now float64, f Features, renewableFraction float64) Result {
	scores := c.scorer.Score(f)
	typ, conf := scores.Best()
	active := conf > c.cfg.ScoreThreshold

	switch {
	case active:
		if c.state != StateFaultDetected {
			c.state = StateFaultDetected
			c.onset = now
		}
	case c.state == StateFaultDetected:
		c.state = StateFaultCleared
	case c.state == StateFaultCleared:
		c.state = StateNoFault
	}

	if c.cfg.AdaptiveDelays {
		// Higher renewable penetration means lower fault current and
		// slower natural decay, so the relays wait longer before
		// declaring the fault persistent.
		stretch := 0.4 * renewableFraction
		c.primary.DelayS = c.cfg.PrimaryDelayS + stretch
		c.backup.DelayS = c.cfg.BackupDelayS + stretch
	}

	c.primary.Observe(now, c.onset, active)
	c.backup.Observe(now, c.onset, active)

	ev := FaultEvent{Time: now, Type: FaultNone, Confidence: conf}
	if active {
		ev.Type = typ
	}
	return Result{
		Event:    ev,
		Scores:   scores,
		Features: f,
		State:    c.state,
		Primary:  c.primary,
		Backup:   c.backup,
	}
}

// State reports the current system-level fault state.
func (c *Coordinator) State() CoordinatorState {
	return c.state
}

// Reset recloses both relays and clears the fault state, as an operator
// would after repairing the faulted section.
func (c *Coordinator) Reset() {
	c.primary.Reset()
	c.backup.Reset()
	c.state = StateNoFault
	c.onset = 0
}
