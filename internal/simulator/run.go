// Package simulator wires the component models into the tick loop: sample
// environment, evaluate generation and demand, dispatch the battery, solve
// the bus, and feed the protection layer. One Engine owns one run.
package simulator

import (
	"context"
	"math"

	"github.com/google/uuid"

	"microgrid_simulator/internal/battery"
	"microgrid_simulator/internal/config"
	"microgrid_simulator/internal/environment"
	"microgrid_simulator/internal/generation"
	"microgrid_simulator/internal/loadprofile"
	"microgrid_simulator/internal/powerbus"
	"microgrid_simulator/internal/protection"
)

// Record is the full system snapshot for one tick.
type Record struct {
	Time float64 `json:"time"`

	Irradiance  float64 `json:"irradiance"`
	Temperature float64 `json:"temperature"`
	WindSpeed   float64 `json:"wind_speed"`

	PVPowerKW    float64 `json:"pv_power_kw"`
	WindPowerKW  float64 `json:"wind_power_kw"`
	MPPTVoltageV float64 `json:"mppt_voltage_v"`

	LoadKW         float64 `json:"load_kw"`
	CriticalLoadKW float64 `json:"critical_load_kw"`

	BatteryPowerKW float64 `json:"battery_power_kw"`
	SOC            float64 `json:"soc"`
	Health         float64 `json:"health"`

	BusVoltageV float64 `json:"bus_voltage_v"`
	BusCurrentA float64 `json:"bus_current_a"`
	THDPercent  float64 `json:"thd_percent"`
	Violation   bool    `json:"violation"`

	UnservedKW  float64 `json:"unserved_kw"`
	CurtailedKW float64 `json:"curtailed_kw"`

	Fault        protection.FaultEvent       `json:"fault"`
	FaultScores  protection.Scores           `json:"fault_scores"`
	SystemState  protection.CoordinatorState `json:"system_state"`
	PrimaryRelay protection.RelayStatus      `json:"primary_relay"`
	BackupRelay  protection.RelayStatus      `json:"backup_relay"`
}

// TimeSeries is the result of a run: every record in tick order, tagged
// with a unique run ID so sweep output stays attributable.
type TimeSeries struct {
	RunID   uuid.UUID     `json:"run_id"`
	Config  config.Config `json:"config"`
	Records []Record      `json:"records"`
}

// Callback receives simulation events. Any method may be a no-op.
type Callback interface {
	OnRecord(Record)
	OnFault(protection.FaultEvent)
	OnComplete(*TimeSeries)
}

// Engine advances one simulation run tick by tick. It is not safe for
// concurrent use; parallel runs each get their own Engine.
type Engine struct {
	cfg   config.Config
	runID uuid.UUID

	env     *environment.Model
	gen     *generation.Model
	loads   *loadprofile.Model
	batt    *battery.Model
	arbiter *powerbus.Arbiter
	bus     *powerbus.BusModel
	coord   *protection.Coordinator
	scorer  protection.Scorer

	step        int
	steps       int
	prevCurrent float64
	lastFault   protection.FaultType
}

// New builds an engine from a validated configuration. scorer selects the
// fault classifier; nil means the built-in rule-based one.
func New(cfg config.Config, scorer protection.Scorer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, scorer: scorer}
	e.Reset()
	return e, nil
}

// Reset rebuilds every model from the configuration. Because all stochastic
// streams derive from the configured seed, a reset run replays the previous
// one exactly.
func (e *Engine) Reset() {
	seed := e.cfg.Simulation.Seed
	e.runID = uuid.New()
	e.env = environment.New(e.cfg.Environment, seed)
	e.gen = generation.New(e.cfg.PV, e.cfg.Wind)
	e.loads = loadprofile.New(e.cfg.Loads, seed)
	e.batt = battery.New(e.cfg.Battery)
	e.arbiter = powerbus.NewArbiter(e.cfg.Battery.MaxChargeKW, e.cfg.Battery.MaxDischargeKW)
	e.bus = powerbus.NewBus(e.cfg.System, e.cfg.Protection, e.cfg.Battery.MaxDischargeKW, seed)
	e.coord = protection.NewCoordinator(e.cfg.Protection, e.scorer)
	e.step = 0
	e.steps = e.cfg.Steps()
	e.prevCurrent = 0
	e.lastFault = protection.FaultNone
}

// Config returns the engine's configuration.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// RunID returns the identifier of the current run.
func (e *Engine) RunID() uuid.UUID {
	return e.runID
}

// InjectFault holds the bus at a forced operating point for a time window.
// Pass nil to clear.
func (e *Engine) InjectFault(o *powerbus.Override) {
	e.bus.SetOverride(o)
}

// Done reports whether the horizon has been reached.
func (e *Engine) Done() bool {
	return e.step >= e.steps
}

// Step advances one tick. The second return is false once the horizon is
// exhausted; the record is only valid while it is true.
func (e *Engine) Step() (Record, bool) {
	if e.Done() {
		return Record{}, false
	}

	dt := e.cfg.Simulation.TimestepS
	t := float64(e.step) * dt

	env := e.env.Sample(t)
	gen := e.gen.Sample(t, env.Irradiance, env.Temperature, env.WindSpeed)
	load := e.loads.Sample(t)

	renewableKW := gen.PVPowerKW + gen.WindPowerKW
	requestKW := e.arbiter.Request(renewableKW, load.TotalKW)
	batt := e.batt.Step(requestKW, dt/3600)
	unserved, curtailed := e.arbiter.Shortfall(renewableKW, load.TotalKW, batt.PowerKW)

	bus := e.bus.Step(t, gen.PVPowerKW, gen.WindPowerKW, batt.PowerKW, load.TotalKW)

	feats := protection.Features{
		Voltage:       bus.Voltage,
		Current:       bus.Current,
		CurrentDeltaA: math.Abs(bus.Current - e.prevCurrent),
		GroundCurrent: math.Abs(bus.Current) * e.cfg.System.LeakageFraction,
		TemperatureC:  batt.Temperature,
	}
	feats.InsulationOhm = bus.Voltage / math.Max(feats.GroundCurrent, 1e-3)
	res := e.coord.Step(t, feats, renewableFraction(renewableKW, batt.PowerKW))

	e.prevCurrent = bus.Current
	e.step++

	return Record{
		Time:           t,
		Irradiance:     env.Irradiance,
		Temperature:    env.Temperature,
		WindSpeed:      env.WindSpeed,
		PVPowerKW:      gen.PVPowerKW,
		WindPowerKW:    gen.WindPowerKW,
		MPPTVoltageV:   e.gen.MPPTVoltage(env.Irradiance),
		LoadKW:         load.TotalKW,
		CriticalLoadKW: load.CriticalKW,
		BatteryPowerKW: batt.PowerKW,
		SOC:            batt.SOC,
		Health:         batt.Health,
		BusVoltageV:    bus.Voltage,
		BusCurrentA:    bus.Current,
		THDPercent:     bus.THDEstimate,
		Violation:      bus.Violation,
		UnservedKW:     unserved,
		CurtailedKW:    curtailed,
		Fault:          res.Event,
		FaultScores:    res.Scores,
		SystemState:    res.State,
		PrimaryRelay:   res.Primary.Status,
		BackupRelay:    res.Backup.Status,
	}, true
}

// Run executes the remaining ticks. Cancelling the context stops the run
// between ticks and returns the partial series together with the context
// error. cb may be nil.
func (e *Engine) Run(ctx context.Context, cb Callback) (*TimeSeries, error) {
	ts := &TimeSeries{
		RunID:   e.runID,
		Config:  e.cfg,
		Records: make([]Record, 0, e.steps-e.step),
	}

	for !e.Done() {
		if err := ctx.Err(); err != nil {
			return ts, err
		}
		rec, ok := e.Step()
		if !ok {
			break
		}
		ts.Records = append(ts.Records, rec)
		if cb != nil {
			cb.OnRecord(rec)
			if rec.Fault.Type != e.lastFault {
				cb.OnFault(rec.Fault)
			}
		}
		e.lastFault = rec.Fault.Type
	}

	if cb != nil {
		cb.OnComplete(ts)
	}
	return ts, nil
}

// renewableFraction is the share of supply coming from PV and wind, used
// for adaptive relay delays. Battery discharge counts as non-renewable
// supply for this purpose.
func renewableFraction(renewableKW, batteryKW float64) float64 {
	supply := renewableKW
	if batteryKW < 0 {
		supply += -batteryKW
	}
	if supply <= 0 {
		return 0
	}
	return renewableKW / supply
}
