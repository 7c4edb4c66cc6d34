// Package generation converts environmental conditions into PV and wind
// power. All functions are pure: same inputs, same outputs.
package generation

import (
	"math"

	"microgrid_simulator/internal/config"
)

const airDensity = 1.225 // kg/m³ at sea level

// Sample is the generation result for one tick.
type Sample struct {
	Time        float64
	PVPowerKW   float64
	WindPowerKW float64
}

// Model holds the plant parameters for both renewable sources.
type Model struct {
	pv   config.PVConfig
	wind config.WindConfig
}

func New(pv config.PVConfig, wind config.WindConfig) *Model {
	return &Model{pv: pv, wind: wind}
}

// PVPower computes array output from irradiance (W/m²) and panel
// temperature (°C), derated by the temperature coefficient relative to
// 25°C and clamped to [0, rated].
func (m *Model) PVPower(irradiance, temperature float64) float64 {
	if irradiance <= 0 || m.pv.RatedPowerKW <= 0 {
		return 0
	}
	tempFactor := 1 + m.pv.TempCoeff*(temperature-25)
	if tempFactor < 0 {
		tempFactor = 0
	}
	power := (irradiance / 1000) * m.pv.PanelAreaM2 * m.pv.Efficiency * tempFactor
	return math.Min(math.Max(power, 0), m.pv.RatedPowerKW)
}

// WindPower implements the three-region turbine curve. Cut-in is inclusive;
// at or above cut-out the turbine furls and produces nothing.
func (m *Model) WindPower(speed float64) float64 {
	w := m.wind
	if w.RatedPowerKW <= 0 {
		return 0
	}
	if speed < w.CutInSpeed || speed >= w.CutOutSpeed {
		return 0
	}
	if speed >= w.RatedSpeed {
		return w.RatedPowerKW
	}
	sweptArea := math.Pi * math.Pow(w.RotorDiameterM/2, 2)
	powerW := 0.5 * airDensity * sweptArea * cp(speed, w.RatedSpeed, w.CpMax) * math.Pow(speed, 3)
	return math.Min(powerW/1000, w.RatedPowerKW)
}

// cp is the power-coefficient curve: a smoothstep in v/vRated scaled to
// CpMax, so output rises smoothly from cut-in to rated.
func cp(v, vRated, cpMax float64) float64 {
	r := v / vRated
	return cpMax * r * r * (3 - 2*r)
}

// MPPTVoltage estimates the maximum-power-point tracking voltage for the
// array at the given irradiance, referenced to a 400V bus.
func (m *Model) MPPTVoltage(irradiance float64) float64 {
	if irradiance <= 0 {
		return 0
	}
	return 400 * (1 + 0.05*math.Log(irradiance/1000))
}

// Sample evaluates both sources for one tick.
func (m *Model) Sample(t, irradiance, temperature, windSpeed float64) Sample {
	return Sample{
		Time:        t,
		PVPowerKW:   m.PVPower(irradiance, temperature),
		WindPowerKW: m.WindPower(windSpeed),
	}
}
