package loadprofile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"microgrid_simulator/internal/config"
)

func testModel(seed uint64) *Model {
	return New(config.Default().Loads, seed)
}

func TestSample_TotalEqualsSumOfCategories(t *testing.T) {
	m := testModel(1)
	for i := 0; i < 24*60; i++ {
		s := m.Sample(float64(i) * 60)
		sum := s.CriticalKW + s.NonCriticalKW + s.IndustrialKW + s.ResidentialKW
		assert.InDelta(t, sum, s.TotalKW, 1e-9, "tick %d", i)
	}
}

func TestSample_TotalNeverBelowMinimum(t *testing.T) {
	cfg := config.Default().Loads
	cfg.CriticalKW = 0
	cfg.NonCriticalKW = 0.1
	cfg.IndustrialKW = 0
	cfg.ResidentialKW = 0
	cfg.NoiseStdKW = 5 // noise dominates, would go negative unfloored
	m := New(cfg, 2)

	for i := 0; i < 1000; i++ {
		s := m.Sample(float64(i) * 60)
		assert.GreaterOrEqual(t, s.TotalKW, cfg.MinTotalKW)
		assert.GreaterOrEqual(t, s.NonCriticalKW, 0.0)
	}
}

func TestSample_BusinessHoursStep(t *testing.T) {
	cfg := config.Default().Loads
	cfg.NoiseStdKW = 0
	m := New(cfg, 3)

	midday := m.Sample(12 * 3600)
	night := m.Sample(2 * 3600)
	// Step function: 100% of base during 8-18h, 30% otherwise.
	assert.InDelta(t, cfg.NonCriticalKW, midday.NonCriticalKW, 1e-9)
	assert.InDelta(t, cfg.NonCriticalKW*0.3, night.NonCriticalKW, 1e-9)
}

func TestSample_ResidentialBimodal(t *testing.T) {
	cfg := config.Default().Loads
	cfg.NoiseStdKW = 0
	m := New(cfg, 4)

	morning := m.Sample(7 * 3600)
	evening := m.Sample(19 * 3600)
	midday := m.Sample(13 * 3600)
	assert.Greater(t, morning.ResidentialKW, midday.ResidentialKW)
	assert.Greater(t, evening.ResidentialKW, midday.ResidentialKW)
}

func TestSample_Determinism(t *testing.T) {
	a := testModel(9)
	b := testModel(9)
	for i := 0; i < 500; i++ {
		ts := float64(i) * 60
		assert.Equal(t, a.Sample(ts), b.Sample(ts))
	}
}
