package powerbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequest_DeficitDischarges(t *testing.T) {
	a := NewArbiter(50, 50)
	// 70 kW load, 40 kW generation: 30 kW deficit.
	assert.InDelta(t, -30, a.Request(40, 70), 1e-9)
}

func TestRequest_DeficitCappedAtDischargeRate(t *testing.T) {
	a := NewArbiter(50, 50)
	assert.InDelta(t, -50, a.Request(0, 120), 1e-9)
}

func TestRequest_SurplusCharges(t *testing.T) {
	a := NewArbiter(50, 50)
	assert.InDelta(t, 20, a.Request(60, 40), 1e-9)
}

func TestRequest_SurplusCappedAtChargeRate(t *testing.T) {
	a := NewArbiter(50, 50)
	assert.InDelta(t, 50, a.Request(150, 20), 1e-9)
}

func TestRequest_ExactBalanceRequestsNothing(t *testing.T) {
	a := NewArbiter(50, 50)
	assert.Equal(t, 0.0, a.Request(55, 55))
}

func TestShortfall_UnservedLoad(t *testing.T) {
	a := NewArbiter(50, 50)
	// 120 kW deficit, battery delivered only 50 kW.
	unserved, curtailed := a.Shortfall(0, 120, -50)
	assert.InDelta(t, 70, unserved, 1e-9)
	assert.Equal(t, 0.0, curtailed)
}

func TestShortfall_FullyServed(t *testing.T) {
	a := NewArbiter(50, 50)
	unserved, curtailed := a.Shortfall(40, 70, -30)
	assert.InDelta(t, 0, unserved, 1e-9)
	assert.Equal(t, 0.0, curtailed)
}

func TestShortfall_CurtailedSurplus(t *testing.T) {
	a := NewArbiter(50, 50)
	// 80 kW surplus, battery absorbed only 50 kW.
	unserved, curtailed := a.Shortfall(120, 40, 50)
	assert.Equal(t, 0.0, unserved)
	assert.InDelta(t, 30, curtailed, 1e-9)
}

func TestShortfall_SaturatedBatteryCurtailsEverything(t *testing.T) {
	a := NewArbiter(50, 50)
	unserved, curtailed := a.Shortfall(100, 40, 0)
	assert.Equal(t, 0.0, unserved)
	assert.InDelta(t, 60, curtailed, 1e-9)
}
