// Package powerbus couples the instantaneous power flow: the arbiter turns
// a generation/load mismatch into a battery request, and the bus model
// derives voltage and current from the resulting net flow.
package powerbus

import "math"

// Arbiter converts per-tick deficit or surplus into a battery power
// request, bounded by the battery's rate limits.
type Arbiter struct {
	maxChargeKW    float64
	maxDischargeKW float64
}

func NewArbiter(maxChargeKW, maxDischargeKW float64) *Arbiter {
	return &Arbiter{maxChargeKW: maxChargeKW, maxDischargeKW: maxDischargeKW}
}

// Request returns the battery power request (positive = charge, negative =
// discharge) for the given generation and demand. An exact zero deficit
// requests nothing.
func (a *Arbiter) Request(generationKW, loadKW float64) float64 {
	deficit := loadKW - generationKW
	switch {
	case deficit > 0:
		return -math.Min(deficit, a.maxDischargeKW)
	case deficit < 0:
		return math.Min(-deficit, a.maxChargeKW)
	default:
		return 0
	}
}

// Shortfall reports what the battery could not cover after its step.
// unservedKW is demand beyond generation plus actual discharge (a load
// shedding signal); curtailedKW is surplus beyond what the battery could
// absorb. Both are always >= 0 and at most one is nonzero.
func (a *Arbiter) Shortfall(generationKW, loadKW, actualBatteryKW float64) (unservedKW, curtailedKW float64) {
	deficit := loadKW - generationKW
	if deficit > 0 {
		served := -actualBatteryKW // discharge is negative
		unservedKW = math.Max(0, deficit-served)
		return unservedKW, 0
	}
	if deficit < 0 {
		curtailedKW = math.Max(0, -deficit-actualBatteryKW)
		return 0, curtailedKW
	}
	return 0, 0
}
