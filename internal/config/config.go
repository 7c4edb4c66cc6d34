package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full parameter set for a simulation run.
type Config struct {
	System      SystemConfig      `yaml:"system"`
	Environment EnvironmentConfig `yaml:"environment"`
	PV          PVConfig          `yaml:"photovoltaic"`
	Wind        WindConfig        `yaml:"wind_turbine"`
	Battery     BatteryConfig     `yaml:"bess"`
	Loads       LoadsConfig       `yaml:"loads"`
	Protection  ProtectionConfig  `yaml:"protection"`
	Simulation  SimulationConfig  `yaml:"simulation"`
}

// EnvironmentConfig sets the noise level of each weather stream.
type EnvironmentConfig struct {
	IrradianceNoiseStd  float64 `yaml:"irradiance_noise_std"`  // W/m²
	TemperatureNoiseStd float64 `yaml:"temperature_noise_std"` // °C
	WindNoiseStd        float64 `yaml:"wind_noise_std"`        // m/s
}

// SystemConfig holds bus-level electrical parameters.
type SystemConfig struct {
	VoltageLevel     float64 `yaml:"voltage_level"`      // nominal DC bus voltage (V)
	LineResistance   float64 `yaml:"line_resistance"`    // ohms
	VoltageNoiseStd  float64 `yaml:"voltage_noise_std"`  // measurement noise (V)
	VMinAbsolute     float64 `yaml:"v_min_absolute"`     // hard display clamp (V)
	VMaxAbsolute     float64 `yaml:"v_max_absolute"`     // hard display clamp (V)
	LeakageFraction  float64 `yaml:"leakage_fraction"`   // ground leakage as fraction of bus current
	RatedCurrent     float64 `yaml:"rated_current"`      // A
}

type PVConfig struct {
	RatedPowerKW float64 `yaml:"rated_power"`
	Efficiency   float64 `yaml:"efficiency"`
	TempCoeff    float64 `yaml:"temperature_coefficient"` // per °C, typically negative
	PanelAreaM2  float64 `yaml:"panel_area"`
}

type WindConfig struct {
	RatedPowerKW   float64 `yaml:"rated_power"`
	CutInSpeed     float64 `yaml:"cut_in_speed"`  // m/s
	RatedSpeed     float64 `yaml:"rated_speed"`   // m/s
	CutOutSpeed    float64 `yaml:"cut_out_speed"` // m/s
	RotorDiameterM float64 `yaml:"rotor_diameter"`
	CpMax          float64 `yaml:"power_coefficient"`
}

type BatteryConfig struct {
	CapacityKWh        float64 `yaml:"capacity"`
	MaxChargeKW        float64 `yaml:"max_charge_rate"`
	MaxDischargeKW     float64 `yaml:"max_discharge_rate"`
	Efficiency         float64 `yaml:"efficiency"` // one-way base efficiency
	SOCMin             float64 `yaml:"min_soc"`
	SOCMax             float64 `yaml:"max_soc"`
	SOCInit            float64 `yaml:"initial_soc"`
	TemperatureC       float64 `yaml:"temperature"`
	CycleAgingPerKWh   float64 `yaml:"cycle_aging_per_kwh"`   // health lost per kWh cycled
	CalendarAgingPerS  float64 `yaml:"calendar_aging_per_s"`  // health lost per elapsed second
}

// LoadsConfig holds the base magnitude of each load category in kW.
type LoadsConfig struct {
	CriticalKW    float64 `yaml:"critical"`
	NonCriticalKW float64 `yaml:"non_critical"`
	IndustrialKW  float64 `yaml:"industrial"`
	ResidentialKW float64 `yaml:"residential"`
	MinTotalKW    float64 `yaml:"min_total"`
	NoiseStdKW    float64 `yaml:"noise_std"`
}

type ProtectionConfig struct {
	OvervoltageV      float64 `yaml:"overvoltage_threshold"`  // V
	UndervoltageV     float64 `yaml:"undervoltage_threshold"` // V
	OvercurrentA      float64 `yaml:"overcurrent_threshold"`  // A
	GroundCurrentA    float64 `yaml:"ground_current_threshold"`
	ArcDIDtA          float64 `yaml:"arc_didt_threshold"` // A per tick
	InsulationMinOhm  float64 `yaml:"insulation_min_ohm"`
	ThermalMaxC       float64 `yaml:"thermal_max_c"`
	SigmoidScale      float64 `yaml:"sigmoid_scale"`  // normalized deviation scale
	ScoreThreshold    float64 `yaml:"score_threshold"`
	PrimaryDelayS     float64 `yaml:"primary_delay_s"`
	BackupDelayS      float64 `yaml:"backup_delay_s"`
	AdaptiveDelays    bool    `yaml:"adaptive_delays"` // delay = base + 0.4*renewable fraction
}

type SimulationConfig struct {
	HorizonS  float64 `yaml:"horizon_s"`
	TimestepS float64 `yaml:"timestep_s"`
	Seed      uint64  `yaml:"seed"`
}

// Default returns the reference parameter set: a 400V bus with 50kW PV,
// 30kW wind, 100kWh storage and a 24h horizon at 1-minute resolution.
func Default() Config {
	return Config{
		System: SystemConfig{
			VoltageLevel:    400,
			LineResistance:  0.05,
			VoltageNoiseStd: 2.0,
			VMinAbsolute:    0,
			VMaxAbsolute:    600,
			LeakageFraction: 0.0005,
			RatedCurrent:    250,
		},
		Environment: EnvironmentConfig{
			IrradianceNoiseStd:  50,
			TemperatureNoiseStd: 2,
			WindNoiseStd:        1,
		},
		PV: PVConfig{
			RatedPowerKW: 50,
			Efficiency:   0.18,
			TempCoeff:    -0.004,
			PanelAreaM2:  278,
		},
		Wind: WindConfig{
			RatedPowerKW:   30,
			CutInSpeed:     3,
			RatedSpeed:     12,
			CutOutSpeed:    25,
			RotorDiameterM: 8,
			CpMax:          0.4,
		},
		Battery: BatteryConfig{
			CapacityKWh:       100,
			MaxChargeKW:       50,
			MaxDischargeKW:    50,
			Efficiency:        0.90,
			SOCMin:            0.2,
			SOCMax:            0.95,
			SOCInit:           0.5,
			TemperatureC:      25,
			CycleAgingPerKWh:  1e-5,
			CalendarAgingPerS: 1e-9,
		},
		Loads: LoadsConfig{
			CriticalKW:    15,
			NonCriticalKW: 20,
			IndustrialKW:  25,
			ResidentialKW: 10,
			MinTotalKW:    5,
			NoiseStdKW:    1.0,
		},
		Protection: ProtectionConfig{
			OvervoltageV:     460,
			UndervoltageV:    340,
			OvercurrentA:     300,
			GroundCurrentA:   5,
			ArcDIDtA:         80,
			InsulationMinOhm: 1000,
			ThermalMaxC:      55,
			SigmoidScale:     0.02,
			ScoreThreshold:   0.7,
			PrimaryDelayS:    0.1,
			BackupDelayS:     0.2,
		},
		Simulation: SimulationConfig{
			HorizonS:  24 * 3600,
			TimestepS: 60,
			Seed:      42,
		},
	}
}

// Load reads a YAML configuration file. Fields absent from the file keep
// their zero value, so a partial file must still pass Validate.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the bounds that would make a run meaningless. A failed
// validation is the only fatal error class in the simulator.
func (c Config) Validate() error {
	if c.Simulation.TimestepS <= 0 {
		return fmt.Errorf("%w: timestep must be > 0, got %v", ErrInvalid, c.Simulation.TimestepS)
	}
	if c.Simulation.HorizonS <= 0 {
		return fmt.Errorf("%w: horizon must be > 0, got %v", ErrInvalid, c.Simulation.HorizonS)
	}
	if c.Simulation.TimestepS > c.Simulation.HorizonS {
		return fmt.Errorf("%w: timestep %v exceeds horizon %v", ErrInvalid, c.Simulation.TimestepS, c.Simulation.HorizonS)
	}
	if c.System.VoltageLevel <= 0 {
		return fmt.Errorf("%w: voltage level must be > 0", ErrInvalid)
	}
	if c.System.VMaxAbsolute <= c.System.VMinAbsolute {
		return fmt.Errorf("%w: absolute voltage bounds inverted", ErrInvalid)
	}
	if c.PV.RatedPowerKW < 0 || c.Wind.RatedPowerKW < 0 {
		return fmt.Errorf("%w: rated powers must be >= 0", ErrInvalid)
	}
	if c.Wind.RatedPowerKW > 0 {
		if !(c.Wind.CutInSpeed < c.Wind.RatedSpeed && c.Wind.RatedSpeed < c.Wind.CutOutSpeed) {
			return fmt.Errorf("%w: wind speeds must satisfy cut-in < rated < cut-out", ErrInvalid)
		}
	}
	if c.Battery.CapacityKWh <= 0 {
		return fmt.Errorf("%w: battery capacity must be > 0", ErrInvalid)
	}
	if c.Battery.Efficiency <= 0 || c.Battery.Efficiency > 1 {
		return fmt.Errorf("%w: battery efficiency must be in (0, 1]", ErrInvalid)
	}
	if c.Battery.SOCMin >= c.Battery.SOCMax {
		return fmt.Errorf("%w: min_soc %v must be < max_soc %v", ErrInvalid, c.Battery.SOCMin, c.Battery.SOCMax)
	}
	if c.Battery.SOCMin < 0 || c.Battery.SOCMax > 1 {
		return fmt.Errorf("%w: soc bounds must lie in [0, 1]", ErrInvalid)
	}
	if c.Battery.SOCInit < c.Battery.SOCMin || c.Battery.SOCInit > c.Battery.SOCMax {
		return fmt.Errorf("%w: initial_soc %v outside [%v, %v]", ErrInvalid, c.Battery.SOCInit, c.Battery.SOCMin, c.Battery.SOCMax)
	}
	if c.Battery.MaxChargeKW <= 0 || c.Battery.MaxDischargeKW <= 0 {
		return fmt.Errorf("%w: battery rates must be > 0", ErrInvalid)
	}
	if c.Protection.ScoreThreshold <= 0 || c.Protection.ScoreThreshold >= 1 {
		return fmt.Errorf("%w: score threshold must be in (0, 1)", ErrInvalid)
	}
	if c.Protection.PrimaryDelayS < 0 || c.Protection.BackupDelayS < c.Protection.PrimaryDelayS {
		return fmt.Errorf("%w: relay delays must satisfy 0 <= primary <= backup", ErrInvalid)
	}
	if c.Protection.OvercurrentA <= c.System.RatedCurrent {
		return fmt.Errorf("%w: overcurrent threshold %vA must exceed rated current %vA",
			ErrInvalid, c.Protection.OvercurrentA, c.System.RatedCurrent)
	}
	if c.Environment.IrradianceNoiseStd < 0 || c.Environment.TemperatureNoiseStd < 0 || c.Environment.WindNoiseStd < 0 {
		return fmt.Errorf("%w: environment noise levels must be >= 0", ErrInvalid)
	}
	if c.Loads.MinTotalKW < 0 {
		return fmt.Errorf("%w: min_total load must be >= 0", ErrInvalid)
	}
	return nil
}

// Steps returns the number of ticks a run will take.
func (c Config) Steps() int {
	return int(c.Simulation.HorizonS / c.Simulation.TimestepS)
}
