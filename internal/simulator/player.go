package simulator

import (
	"sync"
	"time"

	"microgrid_simulator/internal/protection"
)

// PlayerState describes playback for connected clients.
type PlayerState struct {
	Time    float64 `json:"time"`
	Speed   float64 `json:"speed"`
	Running bool    `json:"running"`
	Done    bool    `json:"done"`
}

// PlayerCallback extends Callback with playback state changes.
type PlayerCallback interface {
	Callback
	OnState(PlayerState)
}

const tickInterval = 100 * time.Millisecond

// Player drives an Engine in wall-clock time at a configurable speed, for
// live streaming. Speed is simulated seconds per wall second.
type Player struct {
	mu sync.Mutex
	cb PlayerCallback

	engine  *Engine
	series  *TimeSeries
	running bool
	speed   float64
	carry   float64 // fractional ticks owed from previous frame
	simTime float64
	last    protection.FaultType

	stopCh chan struct{}
}

// NewPlayer wraps an engine for interactive playback.
func NewPlayer(e *Engine, cb PlayerCallback) *Player {
	return &Player{
		engine: e,
		cb:     cb,
		speed:  3600,
		series: &TimeSeries{RunID: e.RunID(), Config: e.Config()},
	}
}

// State returns the current playback state.
func (p *Player) State() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Player) stateLocked() PlayerState {
	return PlayerState{
		Time:    p.simTime,
		Speed:   p.speed,
		Running: p.running,
		Done:    p.engine.Done(),
	}
}

// Start begins playback. Starting a running or finished player is a no-op.
func (p *Player) Start() {
	p.mu.Lock()
	if p.running || p.engine.Done() {
		p.mu.Unlock()
		return
	}
	p.running = true
	stop := make(chan struct{})
	p.stopCh = stop
	p.mu.Unlock()

	p.broadcastState()
	go p.loop(stop)
}

// Pause stops playback without losing position.
func (p *Player) Pause() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.broadcastState()
}

// Reset stops playback and rewinds the engine. The reset run replays the
// same stochastic series because every stream reseeds from the config.
func (p *Player) Reset() {
	p.Pause()

	p.mu.Lock()
	p.engine.Reset()
	p.series = &TimeSeries{RunID: p.engine.RunID(), Config: p.engine.Config()}
	p.simTime = 0
	p.carry = 0
	p.last = protection.FaultNone
	p.mu.Unlock()

	p.broadcastState()
}

// SetSpeed clamps and applies the playback speed multiplier.
func (p *Player) SetSpeed(speed float64) {
	if speed < 1 {
		speed = 1
	}
	if speed > 86400 {
		speed = 86400
	}

	p.mu.Lock()
	p.speed = speed
	p.mu.Unlock()

	p.broadcastState()
}

// loop owns the stop channel it was started with; a later Start installs a
// fresh channel, so a stale loop never observes it through the struct.
func (p *Player) loop(stop chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if p.frame(stop) {
				return
			}
		}
	}
}

// frame advances one wall-clock frame worth of simulation ticks. Returns
// true once the horizon is reached or this loop has been superseded.
func (p *Player) frame(stop chan struct{}) bool {
	type emit struct {
		rec       Record
		faultEdge bool
	}

	p.mu.Lock()
	if !p.running || p.stopCh != stop {
		p.mu.Unlock()
		return true
	}
	dt := p.engine.Config().Simulation.TimestepS
	owed := p.carry + p.speed*tickInterval.Seconds()/dt
	n := int(owed)
	p.carry = owed - float64(n)

	var emits []emit
	done := false
	for i := 0; i < n; i++ {
		rec, ok := p.engine.Step()
		if !ok {
			done = true
			break
		}
		p.series.Records = append(p.series.Records, rec)
		p.simTime = rec.Time
		emits = append(emits, emit{rec: rec, faultEdge: rec.Fault.Type != p.last})
		p.last = rec.Fault.Type
	}
	if p.engine.Done() {
		done = true
	}
	if done {
		p.running = false
		close(stop)
	}
	series := p.series
	p.mu.Unlock()

	for _, e := range emits {
		p.cb.OnRecord(e.rec)
		if e.faultEdge {
			p.cb.OnFault(e.rec.Fault)
		}
	}
	if done {
		p.cb.OnComplete(series)
	}
	p.broadcastState()
	return done
}

func (p *Player) broadcastState() {
	p.mu.Lock()
	s := p.stateLocked()
	p.mu.Unlock()
	p.cb.OnState(s)
}
