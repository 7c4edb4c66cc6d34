// Command server streams a live microgrid simulation over WebSocket.
// Clients control playback (start, pause, reset, speed) and can stage bus
// fault windows; the server broadcasts every tick plus the end-of-run
// summary.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"microgrid_simulator/internal/config"
	"microgrid_simulator/internal/simulator"
	"microgrid_simulator/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "YAML scenario file (defaults to the reference scenario)")
	addr := flag.String("addr", ":8080", "listen address")
	frontendDir := flag.String("frontend-dir", "frontend/build", "directory containing frontend build")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	engine, err := simulator.New(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	hub := ws.NewHub()
	bridge := ws.NewBridge(hub)
	player := simulator.NewPlayer(engine, bridge)
	handler := ws.NewHandler(hub, player, engine)

	log.Printf("Scenario: %v bus, %.0fkW PV, %.0fkW wind, %.0fkWh storage, %d steps",
		cfg.System.VoltageLevel, cfg.PV.RatedPowerKW, cfg.Wind.RatedPowerKW,
		cfg.Battery.CapacityKWh, cfg.Steps())
	log.Printf("Run ID: %s", engine.RunID())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/ws", handler)

	if _, err := os.Stat(*frontendDir); err == nil {
		log.Printf("Serving frontend from %s", *frontendDir)
		mux.Handle("/", http.FileServer(http.Dir(*frontendDir)))
	}

	log.Printf("Starting server on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatal(err)
	}
}
