package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"goecu/core"
	"goecu/targets/sim"
)

// dashboard pushes a read-only live-data feed to connected browsers, a
// convenience for watching the simulated engine run without a tuning
// tool attached.
type dashboard struct {
	ecu     *core.ECU
	outputs *sim.Outputs
	engine  *sim.Engine

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

func newDashboard(ecu *core.ECU, outputs *sim.Outputs, engine *sim.Engine) *dashboard {
	return &dashboard{
		ecu:      ecu,
		outputs:  outputs,
		engine:   engine,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]chan []byte),
	}
}

// frame is the JSON structure pushed to every connected browser.
type frame struct {
	Status   core.Status `json:"status"`
	Injector [core.MaxChannels]bool `json:"injector"`
	Charging [core.MaxChannels]bool `json:"charging"`
	Throttle int                    `json:"throttle"`
	StampMS  int64                  `json:"stampMs"`
}

func (d *dashboard) run(listenAddr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", d.handleWS)
	mux.HandleFunc("/throttle", d.handleThrottle)

	go d.broadcastLoop()

	log.Printf("ecusim: dashboard listening on %s", listenAddr)
	if err := http.ListenAndServe(listenAddr, mux); err != nil {
		log.Printf("ecusim: dashboard server: %v", err)
	}
}

func (d *dashboard) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ecusim: ws upgrade: %v", err)
		return
	}

	send := make(chan []byte, 16)
	d.mu.Lock()
	d.clients[conn] = send
	d.mu.Unlock()

	go func() {
		defer conn.Close()
		for msg := range send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	go func() {
		defer func() {
			d.mu.Lock()
			delete(d.clients, conn)
			close(send)
			d.mu.Unlock()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// handleThrottle accepts a simple ?pct=N query to drive the virtual
// throttle from a browser control, without needing a full control
// protocol for a development-only knob.
func (d *dashboard) handleThrottle(w http.ResponseWriter, r *http.Request) {
	pct := 0
	if v := r.URL.Query().Get("pct"); v != "" {
		if n, err := parsePercent(v); err == nil {
			pct = n
		}
	}
	d.engine.SetThrottle(pct)
	w.WriteHeader(http.StatusNoContent)
}

func parsePercent(s string) (int, error) {
	var n int
	_, err := fmt.Sscan(s, &n)
	return n, err
}

func (d *dashboard) broadcastLoop() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		injector, charging, _, _ := d.outputs.Snapshot()
		f := frame{
			Status:   d.ecu.Status,
			Injector: injector,
			Charging: charging,
			Throttle: d.engine.Throttle(),
			StampMS:  time.Now().UnixMilli(),
		}
		data, err := json.Marshal(f)
		if err != nil {
			continue
		}
		d.broadcast(data)
	}
}

func (d *dashboard) broadcast(data []byte) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, send := range d.clients {
		select {
		case send <- data:
		default:
		}
	}
}
