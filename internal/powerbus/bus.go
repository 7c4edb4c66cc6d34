package powerbus

import (
	"math"
	"math/rand/v2"

	"microgrid_simulator/internal/config"
)

// State is the DC bus condition for one tick. Voltage is the displayed
// value, clamped to the absolute bounds for numerical stability; Violation
// records whether the unclamped voltage left the protection band, which is
// what the protection layer consumes.
type State struct {
	Time        float64
	Voltage     float64 // V, clamped to [VMinAbsolute, VMaxAbsolute]
	Current     float64 // A, signed net injection
	THDEstimate float64 // %
	Violation   bool
}

// Override holds the bus at a forced operating point for a time window,
// used to inject fault conditions into a run.
type Override struct {
	StartS   float64
	EndS     float64
	VoltageV float64
	CurrentA float64 // 0 means derive current normally
}

// BusModel derives bus voltage from net power flow and line impedance.
type BusModel struct {
	cfg        config.SystemConfig
	protection config.ProtectionConfig
	maxBattKW  float64
	rng        *rand.Rand

	override *Override
}

func NewBus(sys config.SystemConfig, prot config.ProtectionConfig, maxBatteryKW float64, seed uint64) *BusModel {
	return &BusModel{
		cfg:        sys,
		protection: prot,
		maxBattKW:  maxBatteryKW,
		rng:        rand.New(rand.NewPCG(seed, seed^0xc2b2ae3d27d4eb4f)),
	}
}

// SetOverride installs a fault-injection window. Pass nil to clear.
func (b *BusModel) SetOverride(o *Override) {
	b.override = o
}

// Step computes the bus state from the tick's power flows. batteryKW is
// signed with charge positive, matching the battery model.
func (b *BusModel) Step(t, pvKW, windKW, batteryKW, loadKW float64) State {
	netKW := pvKW + windKW - batteryKW - loadKW
	current := netKW * 1000 / b.cfg.VoltageLevel

	raw := b.cfg.VoltageLevel - current*b.cfg.LineResistance
	raw += b.rng.NormFloat64() * b.cfg.VoltageNoiseStd

	if o := b.override; o != nil && t >= o.StartS && t < o.EndS {
		raw = o.VoltageV
		if o.CurrentA != 0 {
			current = o.CurrentA
		}
	}

	violation := raw > b.protection.OvervoltageV || raw < b.protection.UndervoltageV

	voltage := math.Min(math.Max(raw, b.cfg.VMinAbsolute), b.cfg.VMaxAbsolute)

	return State{
		Time:        t,
		Voltage:     voltage,
		Current:     current,
		THDEstimate: b.thd(batteryKW),
		Violation:   violation,
	}
}

// thd estimates total harmonic distortion from converter switching
// activity: a 2% floor plus up to 1% proportional to battery duty.
func (b *BusModel) thd(batteryKW float64) float64 {
	duty := 0.0
	if b.maxBattKW > 0 {
		duty = math.Min(1, math.Abs(batteryKW)/b.maxBattKW)
	}
	return 2.0 + duty + 0.1*b.rng.Float64()
}
