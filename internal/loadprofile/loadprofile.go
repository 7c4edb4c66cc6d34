// Package loadprofile models demand as four load classes with distinct
// daily shapes: near-constant critical load, business-hours commercial
// load, shift-pattern industrial load and bimodal residential load.
package loadprofile

import (
	"math"
	"math/rand/v2"

	"microgrid_simulator/internal/config"
)

// Sample is the demand breakdown for one tick. Total always equals the
// sum of the four categories.
type Sample struct {
	Time          float64
	CriticalKW    float64
	NonCriticalKW float64
	IndustrialKW  float64
	ResidentialKW float64
	TotalKW       float64
}

type Model struct {
	cfg config.LoadsConfig
	rng *rand.Rand
}

// New creates a load model with its own seeded noise stream.
func New(cfg config.LoadsConfig, seed uint64) *Model {
	return &Model{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb)),
	}
}

// Sample evaluates all four categories at t seconds. If noise pulls the
// total under the configured minimum, the deficit is added to the critical
// category: critical demand is the floor that is always present.
func (m *Model) Sample(t float64) Sample {
	hour := math.Mod(t/3600, 24)

	critical := m.cfg.CriticalKW * (1 + 0.05*math.Sin(2*math.Pi*hour/24))

	businessFactor := 0.3
	if hour >= 8 && hour < 18 {
		businessFactor = 1.0
	}
	nonCritical := m.cfg.NonCriticalKW*businessFactor + m.rng.NormFloat64()*m.cfg.NoiseStdKW

	industrial := m.cfg.IndustrialKW * (0.7 + 0.3*math.Sin(math.Pi*(hour-6)/12))

	// Morning and evening peaks at 7h and 19h.
	morning := math.Exp(-math.Pow(hour-7, 2) / 4)
	evening := math.Exp(-math.Pow(hour-19, 2) / 6)
	residential := m.cfg.ResidentialKW * (0.3 + 0.7*math.Max(morning, evening))

	critical = math.Max(0, critical)
	nonCritical = math.Max(0, nonCritical)
	industrial = math.Max(0, industrial)
	residential = math.Max(0, residential)

	total := critical + nonCritical + industrial + residential
	if total < m.cfg.MinTotalKW {
		critical += m.cfg.MinTotalKW - total
		total = m.cfg.MinTotalKW
	}

	return Sample{
		Time:          t,
		CriticalKW:    critical,
		NonCriticalKW: nonCritical,
		IndustrialKW:  industrial,
		ResidentialKW: residential,
		TotalKW:       total,
	}
}
