package ws

import (
	"log"

	"microgrid_simulator/internal/metrics"
	"microgrid_simulator/internal/protection"
	"microgrid_simulator/internal/simulator"
)

// Bridge implements simulator.PlayerCallback and broadcasts events to the
// WebSocket hub.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

func (b *Bridge) OnState(s simulator.PlayerState) {
	msg, err := NewEnvelope(TypeSimState, SimStateFromPlayer(s))
	if err != nil {
		log.Printf("marshal sim state: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}

func (b *Bridge) OnRecord(r simulator.Record) {
	msg, err := NewEnvelope(TypeSimRecord, r)
	if err != nil {
		log.Printf("marshal record: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}

func (b *Bridge) OnFault(f protection.FaultEvent) {
	msg, err := NewEnvelope(TypeSimFault, FaultPayload{
		Time:       f.Time,
		Type:       f.Type.String(),
		Confidence: f.Confidence,
	})
	if err != nil {
		log.Printf("marshal fault: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}

func (b *Bridge) OnComplete(ts *simulator.TimeSeries) {
	msg, err := NewEnvelope(TypeSimSummary, metrics.Compute(ts))
	if err != nil {
		log.Printf("marshal summary: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}
