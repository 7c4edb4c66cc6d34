package protection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microgrid_simulator/internal/config"
)

const tickS = 0.01

func nominalFeatures() Features {
	return Features{
		Voltage:       400,
		Current:       50,
		CurrentDeltaA: 1,
		GroundCurrent: 0.025,
		InsulationOhm: 16000,
		TemperatureC:  25,
	}
}

func overvoltageFeatures() Features {
	f := nominalFeatures()
	f.Voltage = 480
	return f
}

func TestScorer_NominalConditionsScoreLow(t *testing.T) {
	s := NewThresholdScorer(config.Default().Protection)
	scores := s.Score(nominalFeatures())
	for i, sc := range scores {
		assert.Lessf(t, sc, 0.1, "hypothesis %s", FaultType(i+1))
	}
}

func TestScorer_OvervoltageDominates(t *testing.T) {
	s := NewThresholdScorer(config.Default().Protection)
	typ, conf := s.Score(overvoltageFeatures()).Best()
	assert.Equal(t, FaultOvervoltage, typ)
	assert.Greater(t, conf, 0.7)
}

func TestScorer_UndervoltageDominates(t *testing.T) {
	s := NewThresholdScorer(config.Default().Protection)
	f := nominalFeatures()
	f.Voltage = 320
	typ, conf := s.Score(f).Best()
	assert.Equal(t, FaultUndervoltage, typ)
	assert.Greater(t, conf, 0.7)
}

func TestScorer_ThermalRunaway(t *testing.T) {
	s := NewThresholdScorer(config.Default().Protection)
	f := nominalFeatures()
	f.TemperatureC = 60
	typ, conf := s.Score(f).Best()
	assert.Equal(t, FaultThermal, typ)
	assert.Greater(t, conf, 0.7)
}

// run feeds the coordinator a tick sequence where faulted reports whether
// tick i carries the faulted feature vector, and returns every result.
func run(c *Coordinator, ticks int, faulted func(i int) bool) []Result {
	results := make([]Result, 0, ticks)
	for i := 0; i < ticks; i++ {
		f := nominalFeatures()
		if faulted(i) {
			f = overvoltageFeatures()
		}
		results = append(results, c.Step(float64(i)*tickS, f, 0))
	}
	return results
}

func TestCoordinator_PrimaryTripsBeforeBackup(t *testing.T) {
	cfg := config.Default().Protection
	c := NewCoordinator(cfg, nil)

	results := run(c, 300, func(i int) bool { return i >= 100 })
	onset := 100 * tickS

	last := results[len(results)-1]
	require.Equal(t, StatusTripped, last.Primary.Status)
	require.Equal(t, StatusTripped, last.Backup.Status)
	assert.InDelta(t, onset+cfg.PrimaryDelayS, last.Primary.TripTime, tickS+1e-9)
	assert.InDelta(t, onset+cfg.BackupDelayS, last.Backup.TripTime, tickS+1e-9)
	assert.Less(t, last.Primary.TripTime, last.Backup.TripTime)
}

func TestCoordinator_BothDelaysCountFromSameOnset(t *testing.T) {
	cfg := config.Default().Protection
	c := NewCoordinator(cfg, nil)

	results := run(c, 300, func(i int) bool { return i >= 100 })

	// Backup's countdown starts at fault onset, not at primary's trip.
	last := results[len(results)-1]
	gap := last.Backup.TripTime - last.Primary.TripTime
	assert.InDelta(t, cfg.BackupDelayS-cfg.PrimaryDelayS, gap, tickS+1e-9)
}

func TestCoordinator_TransientFaultReArmsWithoutTrip(t *testing.T) {
	c := NewCoordinator(config.Default().Protection, nil)

	// Five ticks of fault is 0.05s, under the 0.1s primary delay.
	results := run(c, 200, func(i int) bool { return i >= 100 && i < 105 })

	sawPending := false
	for _, r := range results {
		require.NotEqual(t, StatusTripped, r.Primary.Status)
		require.NotEqual(t, StatusTripped, r.Backup.Status)
		if r.Primary.Status == StatusTripPending {
			sawPending = true
		}
	}
	assert.True(t, sawPending)

	last := results[len(results)-1]
	assert.Equal(t, StatusArmed, last.Primary.Status)
	assert.Equal(t, StateNoFault, last.State)
}

func TestCoordinator_StateTransitions(t *testing.T) {
	c := NewCoordinator(config.Default().Protection, nil)

	results := run(c, 120, func(i int) bool { return i >= 50 && i < 55 })

	assert.Equal(t, StateNoFault, results[49].State)
	assert.Equal(t, StateFaultDetected, results[50].State)
	assert.Equal(t, StateFaultDetected, results[54].State)
	assert.Equal(t, StateFaultCleared, results[55].State)
	assert.Equal(t, StateNoFault, results[56].State)
}

func TestCoordinator_TripLatchesUntilReset(t *testing.T) {
	c := NewCoordinator(config.Default().Protection, nil)

	// Fault long enough to trip both relays, then clear.
	results := run(c, 400, func(i int) bool { return i >= 100 && i < 200 })
	last := results[len(results)-1]
	require.Equal(t, StatusTripped, last.Primary.Status)
	require.Equal(t, StatusTripped, last.Backup.Status)
	assert.Equal(t, StateNoFault, last.State)

	c.Reset()
	r := c.Step(4.0, nominalFeatures(), 0)
	assert.Equal(t, StatusArmed, r.Primary.Status)
	assert.Equal(t, StatusArmed, r.Backup.Status)
}

func TestCoordinator_EventCarriesTypeAndConfidence(t *testing.T) {
	c := NewCoordinator(config.Default().Protection, nil)

	quiet := c.Step(0, nominalFeatures(), 0)
	assert.Equal(t, FaultNone, quiet.Event.Type)
	assert.Less(t, quiet.Event.Confidence, 0.1)

	hot := c.Step(tickS, overvoltageFeatures(), 0)
	assert.Equal(t, FaultOvervoltage, hot.Event.Type)
	assert.Greater(t, hot.Event.Confidence, 0.7)
}

func TestCoordinator_AdaptiveDelaysStretchWithRenewables(t *testing.T) {
	cfg := config.Default().Protection
	cfg.AdaptiveDelays = true
	c := NewCoordinator(cfg, nil)

	var results []Result
	for i := 0; i < 600; i++ {
		f := nominalFeatures()
		if i >= 100 {
			f = overvoltageFeatures()
		}
		results = append(results, c.Step(float64(i)*tickS, f, 0.5))
	}

	onset := 100 * tickS
	last := results[len(results)-1]
	require.Equal(t, StatusTripped, last.Primary.Status)
	assert.InDelta(t, onset+cfg.PrimaryDelayS+0.4*0.5, last.Primary.TripTime, tickS+1e-9)
	assert.InDelta(t, onset+cfg.BackupDelayS+0.4*0.5, last.Backup.TripTime, tickS+1e-9)
}

type stubScorer struct {
	scores Scores
}

func (s stubScorer) Score(Features) Scores { return s.scores }

func TestCoordinator_AcceptsCustomScorer(t *testing.T) {
	var sc Scores
	sc[FaultArc-1] = 0.95
	c := NewCoordinator(config.Default().Protection, stubScorer{scores: sc})

	r := c.Step(0, nominalFeatures(), 0)
	assert.Equal(t, FaultArc, r.Event.Type)
	assert.Equal(t, StateFaultDetected, r.State)
}
