package battery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"microgrid_simulator/internal/config"
)

func testModel() *Model {
	return New(config.Default().Battery)
}

func TestNew_StartsAtInitialSOC(t *testing.T) {
	m := testModel()
	s := m.State()
	assert.Equal(t, 0.5, s.SOC)
	assert.Equal(t, 1.0, s.Health)
	assert.Equal(t, 0.0, s.PowerKW)
}

func TestStep_ChargeRaisesSOC(t *testing.T) {
	m := testModel()
	s := m.Step(10, 1.0)
	// 10 kW for 1h at 90% efficiency stores 9 kWh of 100 kWh: +0.09 SOC.
	assert.InDelta(t, 0.59, s.SOC, 1e-9)
	assert.InDelta(t, 10, s.PowerKW, 1e-9)
}

func TestStep_DischargeLowersSOC(t *testing.T) {
	m := testModel()
	s := m.Step(-10, 1.0)
	// Delivering 10 kWh draws 10/0.9 = 11.11 kWh from the cells.
	assert.InDelta(t, 0.5-10.0/0.9/100, s.SOC, 1e-9)
	assert.InDelta(t, -10, s.PowerKW, 1e-9)
}

func TestStep_RoundTripLossIsStrictlyNegative(t *testing.T) {
	m := testModel()
	start := m.State().SOC
	m.Step(10, 1.0)
	s := m.Step(-10, 1.0)
	assert.Less(t, s.SOC, start, "round-trip must lose energy")
}

func TestStep_SOCNeverLeavesBounds(t *testing.T) {
	m := testModel()
	dt := 60.0 / 3600
	for i := 0; i < 5000; i++ {
		req := 200.0 // way past every limit
		if i%2 == 1 {
			req = -200.0
		}
		s := m.Step(req, dt)
		assert.GreaterOrEqual(t, s.SOC, 0.2)
		assert.LessOrEqual(t, s.SOC, 0.95)
	}
}

func TestStep_RateLimits(t *testing.T) {
	m := testModel()
	s := m.Step(500, 0.001)
	assert.LessOrEqual(t, s.PowerKW, 50.0)

	s = m.Step(-500, 0.001)
	assert.GreaterOrEqual(t, s.PowerKW, -50.0)
}

func TestStep_FullBatteryRejectsCharge(t *testing.T) {
	cfg := config.Default().Battery
	cfg.SOCInit = 0.95
	m := New(cfg)

	s := m.Step(20, 1.0)
	assert.InDelta(t, 0, s.PowerKW, 1e-9)
	assert.InDelta(t, 0.95, s.SOC, 1e-9)
}

func TestStep_EmptyBatteryRejectsDischarge(t *testing.T) {
	cfg := config.Default().Battery
	cfg.SOCInit = 0.2
	m := New(cfg)

	s := m.Step(-20, 1.0)
	assert.InDelta(t, 0, s.PowerKW, 1e-9)
	assert.InDelta(t, 0.2, s.SOC, 1e-9)
}

func TestStep_PartialChargeNearCeiling(t *testing.T) {
	cfg := config.Default().Battery
	cfg.SOCInit = 0.94
	m := New(cfg)

	// Headroom is 1 kWh; at 90% efficiency only 1/0.9 kW fits in 1h.
	s := m.Step(50, 1.0)
	assert.InDelta(t, 1.0/0.9, s.PowerKW, 1e-9)
	assert.InDelta(t, 0.95, s.SOC, 1e-9)
}

func TestStep_HealthMonotonicallyDecreases(t *testing.T) {
	cfg := config.Default().Battery
	cfg.CycleAgingPerKWh = 1e-4
	m := New(cfg)

	prev := m.State().Health
	for i := 0; i < 100; i++ {
		req := 30.0
		if i%2 == 1 {
			req = -30.0
		}
		s := m.Step(req, 0.5)
		assert.LessOrEqual(t, s.Health, prev)
		prev = s.Health
	}
	assert.Less(t, prev, 1.0)
}

func TestStep_HealthFloor(t *testing.T) {
	cfg := config.Default().Battery
	cfg.CycleAgingPerKWh = 1.0 // absurd aging to hit the floor fast
	m := New(cfg)

	for i := 0; i < 50; i++ {
		m.Step(50, 1.0)
		m.Step(-50, 1.0)
	}
	assert.InDelta(t, 0.70, m.State().Health, 1e-9)
}

func TestStep_TemperatureDeratesEfficiency(t *testing.T) {
	hot := config.Default().Battery
	hot.TemperatureC = 45
	mHot := New(hot)
	mCool := testModel()

	sHot := mHot.Step(10, 1.0)
	sCool := mCool.Step(10, 1.0)
	// Same charge power stores less at 45°C than at 25°C.
	assert.Less(t, sHot.SOC, sCool.SOC)
}

func TestEquivalentCycles(t *testing.T) {
	m := testModel()
	m.Step(50, 1.0)  // 50 kWh in
	m.Step(-50, 1.0) // 50 kWh out
	// 100 kWh throughput over a 100 kWh pack is half a full cycle per
	// direction: one equivalent half cycle each way.
	assert.InDelta(t, 0.5, m.EquivalentCycles(), 1e-9)
}

func TestHeadroomAndAvailableEnergy(t *testing.T) {
	m := testModel()
	assert.InDelta(t, 45.0, m.HeadroomKWh(), 1e-9)        // (0.95-0.5)*100
	assert.InDelta(t, 30.0, m.AvailableEnergyKWh(), 1e-9) // (0.5-0.2)*100
}
