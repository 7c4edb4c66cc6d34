package ws

import (
	"encoding/json"

	"microgrid_simulator/internal/simulator"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeSimStart    = "sim:start"
	TypeSimPause    = "sim:pause"
	TypeSimReset    = "sim:reset"
	TypeSimSetSpeed = "sim:set_speed"
	TypeSimInject   = "sim:inject"

	// Server -> Client
	TypeSimState   = "sim:state"
	TypeSimRecord  = "sim:record"
	TypeSimFault   = "sim:fault"
	TypeSimSummary = "sim:summary"
	TypeRunLoaded  = "run:loaded"
)

// Client -> Server payloads

type SetSpeedPayload struct {
	Speed float64 `json:"speed"`
}

// InjectPayload schedules a bus override window, the operator's way of
// staging a fault scenario from the UI.
type InjectPayload struct {
	StartS   float64 `json:"start_s"`
	EndS     float64 `json:"end_s"`
	VoltageV float64 `json:"voltage_v"`
	CurrentA float64 `json:"current_a"`
}

// Server -> Client payloads

type SimStatePayload struct {
	Time    float64 `json:"time"`
	Speed   float64 `json:"speed"`
	Running bool    `json:"running"`
	Done    bool    `json:"done"`
}

type FaultPayload struct {
	Time       float64 `json:"time"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// RunLoadedPayload describes the loaded scenario on connect.
type RunLoadedPayload struct {
	RunID      string  `json:"run_id"`
	HorizonS   float64 `json:"horizon_s"`
	TimestepS  float64 `json:"timestep_s"`
	Steps      int     `json:"steps"`
	BusVoltage float64 `json:"bus_voltage"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func SimStateFromPlayer(s simulator.PlayerState) SimStatePayload {
	return SimStatePayload{
		Time:    s.Time,
		Speed:   s.Speed,
		Running: s.Running,
		Done:    s.Done,
	}
}
