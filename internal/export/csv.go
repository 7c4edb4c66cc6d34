// Package export serializes finished runs for downstream analysis.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"microgrid_simulator/internal/simulator"
)

var header = []string{
	"time_s",
	"irradiance_wm2",
	"temperature_c",
	"wind_speed_ms",
	"pv_power_kw",
	"wind_power_kw",
	"mppt_voltage_v",
	"load_kw",
	"critical_load_kw",
	"battery_power_kw",
	"soc",
	"health",
	"bus_voltage_v",
	"bus_current_a",
	"thd_percent",
	"violation",
	"unserved_kw",
	"curtailed_kw",
	"fault_type",
	"fault_confidence",
	"system_state",
	"primary_relay",
	"backup_relay",
}

// WriteCSV writes the series as one header row plus one row per tick.
func WriteCSV(w io.Writer, ts *simulator.TimeSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range ts.Records {
		row := []string{
			num(r.Time),
			num(r.Irradiance),
			num(r.Temperature),
			num(r.WindSpeed),
			num(r.PVPowerKW),
			num(r.WindPowerKW),
			num(r.MPPTVoltageV),
			num(r.LoadKW),
			num(r.CriticalLoadKW),
			num(r.BatteryPowerKW),
			num(r.SOC),
			num(r.Health),
			num(r.BusVoltageV),
			num(r.BusCurrentA),
			num(r.THDPercent),
			strconv.FormatBool(r.Violation),
			num(r.UnservedKW),
			num(r.CurtailedKW),
			r.Fault.Type.String(),
			num(r.Fault.Confidence),
			r.SystemState.String(),
			r.PrimaryRelay.String(),
			r.BackupRelay.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row t=%v: %w", r.Time, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
