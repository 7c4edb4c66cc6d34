package export

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microgrid_simulator/internal/protection"
	"microgrid_simulator/internal/simulator"
)

func TestWriteCSV_HeaderAndRows(t *testing.T) {
	ts := &simulator.TimeSeries{
		Records: []simulator.Record{
			{
				Time:        0,
				PVPowerKW:   12.5,
				LoadKW:      40,
				SOC:         0.5,
				BusVoltageV: 399.8,
				Fault:       protection.FaultEvent{Type: protection.FaultNone, Confidence: 0.02},
			},
			{
				Time:      60,
				Violation: true,
				Fault:     protection.FaultEvent{Type: protection.FaultOvervoltage, Confidence: 0.91},
			},
		},
	}

	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, ts))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.Equal(t, header, rows[0])
	assert.Equal(t, "0", rows[1][0])
	assert.Equal(t, "12.5", rows[1][4])
	assert.Equal(t, "none", rows[1][18])
	assert.Equal(t, "60", rows[2][0])
	assert.Equal(t, "true", rows[2][15])
	assert.Equal(t, "overvoltage", rows[2][18])
	assert.Equal(t, "0.91", rows[2][19])
}

func TestWriteCSV_EmptySeriesWritesHeaderOnly(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, &simulator.TimeSeries{}))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
