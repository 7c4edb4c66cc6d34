// Package battery models the energy storage system: state of charge,
// health, rate limits and round-trip efficiency. The model never throws
// for an infeasible request; it clamps and reports what it actually did.
package battery

import (
	"math"

	"microgrid_simulator/internal/config"
)

const healthFloor = 0.70 // end-of-life threshold; simulation continues below rated performance

// State is the battery's condition after a step. PowerKW is signed:
// positive while charging, negative while discharging, and reflects the
// clamped actual power rather than the request.
type State struct {
	SOC         float64
	Health      float64
	Temperature float64
	PowerKW     float64
}

// Model owns the mutable battery state for one run.
type Model struct {
	cfg   config.BatteryConfig
	state State

	throughputKWh float64
}

func New(cfg config.BatteryConfig) *Model {
	return &Model{
		cfg: cfg,
		state: State{
			SOC:         cfg.SOCInit,
			Health:      1.0,
			Temperature: cfg.TemperatureC,
		},
	}
}

// State returns the current battery state.
func (m *Model) State() State {
	return m.state
}

// EffectiveCapacityKWh is the nominal capacity derated by health.
func (m *Model) EffectiveCapacityKWh() float64 {
	return m.cfg.CapacityKWh * m.state.Health
}

// AvailableEnergyKWh is the energy that can still be discharged before
// hitting the SOC floor.
func (m *Model) AvailableEnergyKWh() float64 {
	return (m.state.SOC - m.cfg.SOCMin) * m.EffectiveCapacityKWh()
}

// HeadroomKWh is the energy that can still be absorbed before hitting the
// SOC ceiling.
func (m *Model) HeadroomKWh() float64 {
	return (m.cfg.SOCMax - m.state.SOC) * m.EffectiveCapacityKWh()
}

// EquivalentCycles converts accumulated throughput into full-cycle counts.
func (m *Model) EquivalentCycles() float64 {
	if m.cfg.CapacityKWh <= 0 {
		return 0
	}
	return m.throughputKWh / 2 / m.cfg.CapacityKWh
}

// Step applies a charge (positive) or discharge (negative) request over
// dtHours and returns the resulting state. The actual power is limited by
// rate caps and SOC headroom; SOC is guaranteed to stay inside
// [SOCMin, SOCMax] and health never increases.
func (m *Model) Step(requestedKW, dtHours float64) State {
	capacity := m.EffectiveCapacityKWh()
	eff := m.cfg.Efficiency * (1 - 0.005*math.Abs(m.state.Temperature-25))
	if eff <= 0 {
		eff = 0.01
	}

	var actual float64
	switch {
	case requestedKW > 0:
		// Charging: stored energy is power*dt*eff, so the power that
		// exactly fills the headroom is headroom/(dt*eff).
		headroom := (m.cfg.SOCMax - m.state.SOC) * capacity
		feasible := math.Min(requestedKW, m.cfg.MaxChargeKW)
		feasible = math.Min(feasible, headroom/(dtHours*eff))
		actual = math.Max(0, feasible)
		m.state.SOC += actual * dtHours * eff / capacity

	case requestedKW < 0:
		// Discharging: delivering |p|*dt requires drawing |p|*dt/eff from
		// the cells, so the power that exactly drains to the floor is
		// available*eff/dt.
		available := (m.state.SOC - m.cfg.SOCMin) * capacity
		feasible := math.Max(requestedKW, -m.cfg.MaxDischargeKW)
		feasible = math.Max(feasible, -available*eff/dtHours)
		actual = math.Min(0, feasible)
		m.state.SOC += actual * dtHours / (eff * capacity)
	}

	// Numerical safety net; the feasibility math above should already keep
	// SOC inside bounds.
	m.state.SOC = math.Min(math.Max(m.state.SOC, m.cfg.SOCMin), m.cfg.SOCMax)

	cycledKWh := math.Abs(actual) * dtHours
	m.throughputKWh += cycledKWh

	degradation := m.cfg.CycleAgingPerKWh*cycledKWh + m.cfg.CalendarAgingPerS*dtHours*3600
	m.state.Health = math.Max(healthFloor, m.state.Health-degradation)

	m.state.PowerKW = actual
	return m.state
}
