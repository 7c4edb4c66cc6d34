// Package metrics reduces a finished run to the summary figures operators
// compare across scenarios: energy totals, battery utilization, voltage
// quality and reliability indices.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"microgrid_simulator/internal/protection"
	"microgrid_simulator/internal/simulator"
)

// Report is the aggregate view of one run.
type Report struct {
	PVEnergyKWh        float64 `json:"pv_energy_kwh"`
	WindEnergyKWh      float64 `json:"wind_energy_kwh"`
	LoadEnergyKWh      float64 `json:"load_energy_kwh"`
	ChargeEnergyKWh    float64 `json:"charge_energy_kwh"`
	DischargeEnergyKWh float64 `json:"discharge_energy_kwh"`
	UnservedEnergyKWh  float64 `json:"unserved_energy_kwh"`
	CurtailedEnergyKWh float64 `json:"curtailed_energy_kwh"`

	// RenewablePenetration is renewable energy over demand; it can exceed
	// 1 when surplus is curtailed.
	RenewablePenetration float64 `json:"renewable_penetration"`
	// SystemEfficiency is served demand over total supplied energy.
	SystemEfficiency float64 `json:"system_efficiency"`

	SOCMean          float64 `json:"soc_mean"`
	SOCStd           float64 `json:"soc_std"`
	SOCMin           float64 `json:"soc_min"`
	SOCMax           float64 `json:"soc_max"`
	FinalSOC         float64 `json:"final_soc"`
	FinalHealth      float64 `json:"final_health"`
	EquivalentCycles float64 `json:"equivalent_cycles"`

	VoltageMeanV   float64 `json:"voltage_mean_v"`
	VoltageStdV    float64 `json:"voltage_std_v"`
	THDMeanPercent float64 `json:"thd_mean_percent"`
	ViolationTicks int     `json:"violation_ticks"`

	FaultEpisodes  int     `json:"fault_episodes"`
	FaultSeconds   float64 `json:"fault_seconds"`
	PrimaryTripped bool    `json:"primary_tripped"`
	BackupTripped  bool    `json:"backup_tripped"`

	// IEEE 1366 style indices for a single aggregate customer: SAIFI is
	// interruption episodes, SAIDI total interrupted seconds, CAIDI their
	// ratio.
	SAIFI float64 `json:"saifi"`
	SAIDI float64 `json:"saidi"`
	CAIDI float64 `json:"caidi"`
}

// Compute reduces a time series to its report. An empty series yields a
// zero report.
func Compute(ts *simulator.TimeSeries) Report {
	var rep Report
	if ts == nil || len(ts.Records) == 0 {
		return rep
	}

	dtH := ts.Config.Simulation.TimestepS / 3600
	dtS := ts.Config.Simulation.TimestepS

	socs := make([]float64, len(ts.Records))
	volts := make([]float64, len(ts.Records))
	thds := make([]float64, len(ts.Records))

	var throughputKWh float64
	inFault := false
	interrupted := false

	for i, r := range ts.Records {
		rep.PVEnergyKWh += r.PVPowerKW * dtH
		rep.WindEnergyKWh += r.WindPowerKW * dtH
		rep.LoadEnergyKWh += r.LoadKW * dtH
		rep.UnservedEnergyKWh += r.UnservedKW * dtH
		rep.CurtailedEnergyKWh += r.CurtailedKW * dtH
		if r.BatteryPowerKW > 0 {
			rep.ChargeEnergyKWh += r.BatteryPowerKW * dtH
		} else {
			rep.DischargeEnergyKWh += -r.BatteryPowerKW * dtH
		}
		throughputKWh += math.Abs(r.BatteryPowerKW) * dtH

		socs[i] = r.SOC
		volts[i] = r.BusVoltageV
		thds[i] = r.THDPercent
		if r.Violation {
			rep.ViolationTicks++
		}

		faulted := r.Fault.Type != protection.FaultNone
		if faulted {
			rep.FaultSeconds += dtS
			if !inFault {
				rep.FaultEpisodes++
			}
		}
		inFault = faulted

		if r.UnservedKW > 0 {
			rep.SAIDI += dtS
			if !interrupted {
				rep.SAIFI++
			}
			interrupted = true
		} else {
			interrupted = false
		}

		if r.PrimaryRelay == protection.StatusTripped {
			rep.PrimaryTripped = true
		}
		if r.BackupRelay == protection.StatusTripped {
			rep.BackupTripped = true
		}
	}

	if rep.LoadEnergyKWh > 0 {
		rep.RenewablePenetration = (rep.PVEnergyKWh + rep.WindEnergyKWh) / rep.LoadEnergyKWh
	}
	supplied := rep.PVEnergyKWh + rep.WindEnergyKWh + rep.DischargeEnergyKWh
	if supplied > 0 {
		rep.SystemEfficiency = (rep.LoadEnergyKWh - rep.UnservedEnergyKWh) / supplied
	}
	if rep.SAIFI > 0 {
		rep.CAIDI = rep.SAIDI / rep.SAIFI
	}

	rep.SOCMean = stat.Mean(socs, nil)
	rep.SOCMin, rep.SOCMax = bounds(socs)
	rep.VoltageMeanV = stat.Mean(volts, nil)
	rep.THDMeanPercent = stat.Mean(thds, nil)
	// StdDev needs two samples; a single-tick run reports zero spread.
	if len(ts.Records) > 1 {
		rep.SOCStd = stat.StdDev(socs, nil)
		rep.VoltageStdV = stat.StdDev(volts, nil)
	}

	last := ts.Records[len(ts.Records)-1]
	rep.FinalSOC = last.SOC
	rep.FinalHealth = last.Health
	if c := ts.Config.Battery.CapacityKWh; c > 0 {
		rep.EquivalentCycles = throughputKWh / 2 / c
	}
	return rep
}

func bounds(xs []float64) (min, max float64) {
	min, max = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return min, max
}
