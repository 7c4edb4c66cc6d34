// Package protection implements fault detection and relay coordination for
// the DC bus: a rule-based scorer grades seven fault hypotheses each tick,
// and primary/backup relays sequence trips from a shared fault-onset clock.
package protection

import (
	"math"

	"microgrid_simulator/internal/config"
)

// FaultType identifies the abnormal bus condition a score refers to.
type FaultType int

const (
	FaultNone FaultType = iota
	FaultOvervoltage
	FaultUndervoltage
	FaultOvercurrent
	FaultGround
	FaultArc
	FaultInsulation
	FaultThermal
)

var faultNames = map[FaultType]string{
	FaultNone:         "none",
	FaultOvervoltage:  "overvoltage",
	FaultUndervoltage: "undervoltage",
	FaultOvercurrent:  "overcurrent",
	FaultGround:       "ground",
	FaultArc:          "arc",
	FaultInsulation:   "insulation",
	FaultThermal:      "thermal",
}

func (f FaultType) String() string {
	return faultNames[f]
}

// Features is the per-tick measurement vector the scorer consumes. It is
// also the payload exposed to external classifiers, so a trained model can
// replace the rule-based scorer without re-deriving measurements.
type Features struct {
	Voltage       float64 // V
	Current       float64 // A, signed
	CurrentDeltaA float64 // |ΔI| since previous tick
	GroundCurrent float64 // A leakage estimate
	InsulationOhm float64
	TemperatureC  float64 // battery pack temperature
}

// Scores holds one logistic score per fault hypothesis, indexed by
// FaultType-1.
type Scores [7]float64

// Best returns the highest-scoring hypothesis.
func (s Scores) Best() (FaultType, float64) {
	best, idx := s[0], 0
	for i := 1; i < len(s); i++ {
		if s[i] > best {
			best, idx = s[i], i
		}
	}
	return FaultType(idx + 1), best
}

// Scorer grades a feature vector. Implementations must be deterministic
// for a given input; the coordinator's state machine depends only on the
// scores, never on how they were produced.
type Scorer interface {
	Score(f Features) Scores
}

// ThresholdScorer is the rule-based reference scorer: each hypothesis gets
// sigmoid(deviation/scale), where deviation is the measurement's relative
// excursion past its threshold.
type ThresholdScorer struct {
	cfg config.ProtectionConfig
}

func NewThresholdScorer(cfg config.ProtectionConfig) *ThresholdScorer {
	return &ThresholdScorer{cfg: cfg}
}

func (t *ThresholdScorer) Score(f Features) Scores {
	c := t.cfg
	return Scores{
		sigmoid(over(f.Voltage, c.OvervoltageV) / c.SigmoidScale),
		sigmoid(under(f.Voltage, c.UndervoltageV) / c.SigmoidScale),
		sigmoid(over(math.Abs(f.Current), c.OvercurrentA) / c.SigmoidScale),
		sigmoid(over(f.GroundCurrent, c.GroundCurrentA) / c.SigmoidScale),
		sigmoid(over(f.CurrentDeltaA, c.ArcDIDtA) / c.SigmoidScale),
		sigmoid(under(f.InsulationOhm, c.InsulationMinOhm) / c.SigmoidScale),
		sigmoid(over(f.TemperatureC, c.ThermalMaxC) / c.SigmoidScale),
	}
}

// over is the normalized excursion above a threshold; positive past it.
func over(measured, threshold float64) float64 {
	if threshold == 0 {
		return -1
	}
	return (measured - threshold) / threshold
}

// under is the normalized excursion below a threshold.
func under(measured, threshold float64) float64 {
	if threshold == 0 {
		return -1
	}
	return (threshold - measured) / threshold
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
