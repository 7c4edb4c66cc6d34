package ws

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"microgrid_simulator/internal/powerbus"
	"microgrid_simulator/internal/simulator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades WebSocket connections and routes client commands to the
// player.
type Handler struct {
	hub    *Hub
	player *simulator.Player
	engine *simulator.Engine
}

func NewHandler(hub *Hub, player *simulator.Player, engine *simulator.Engine) *Handler {
	return &Handler{hub: hub, player: player, engine: engine}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	log.Printf("client connected from %s (%d active)", r.RemoteAddr, h.hub.ClientCount())
	go client.writePump()

	h.sendRunLoaded(client)
	h.sendSimState(client)

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		log.Printf("client disconnected (%d active)", h.hub.ClientCount())
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}

		h.handleMessage(msg)
	}
}

func (h *Handler) handleMessage(msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		log.Printf("invalid message: %v", err)
		return
	}

	switch env.Type {
	case TypeSimStart:
		h.player.Start()

	case TypeSimPause:
		h.player.Pause()

	case TypeSimReset:
		h.player.Reset()

	case TypeSimSetSpeed:
		var p SetSpeedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("invalid set_speed payload: %v", err)
			return
		}
		h.player.SetSpeed(p.Speed)

	case TypeSimInject:
		var p InjectPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("invalid inject payload: %v", err)
			return
		}
		if p.EndS <= p.StartS {
			log.Printf("rejected inject window [%v, %v)", p.StartS, p.EndS)
			return
		}
		h.engine.InjectFault(&powerbus.Override{
			StartS:   p.StartS,
			EndS:     p.EndS,
			VoltageV: p.VoltageV,
			CurrentA: p.CurrentA,
		})

	default:
		log.Printf("unknown message type: %s", env.Type)
	}
}

func (h *Handler) sendRunLoaded(c *Client) {
	cfg := h.engine.Config()
	msg, err := NewEnvelope(TypeRunLoaded, RunLoadedPayload{
		RunID:      h.engine.RunID().String(),
		HorizonS:   cfg.Simulation.HorizonS,
		TimestepS:  cfg.Simulation.TimestepS,
		Steps:      cfg.Steps(),
		BusVoltage: cfg.System.VoltageLevel,
	})
	if err != nil {
		log.Printf("marshal run:loaded: %v", err)
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Handler) sendSimState(c *Client) {
	msg, err := NewEnvelope(TypeSimState, SimStateFromPlayer(h.player.State()))
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
