package server

import (
	"sync/atomic"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/notargets/chiptherm/composite"
	"github.com/notargets/chiptherm/scenario"
)

// frameEvery throttles field snapshots to one per this many iterations
const frameEvery = 200

// Msg is the request/reply envelope exchanged with the client
type Msg struct {
	Type     string `json:"type"`
	Scenario string `json:"scenario,omitempty"`
	Content  string `json:"content,omitempty"`
}

// MeshFrame is one sub-mesh's field in a snapshot, row-major with the
// boundary ring included
type MeshFrame struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	X0   float64   `json:"x0"`
	Y0   float64   `json:"y0"`
	Data []float64 `json:"data"`
}

// Frame is a periodic snapshot of the relaxation in progress
type Frame struct {
	Type      string      `json:"type"`
	Iteration int         `json:"iteration"`
	Delta     float64     `json:"delta"`
	Meshes    []MeshFrame `json:"meshes"`
}

// Done reports the final outcome of a solve
type Done struct {
	Type       string  `json:"type"`
	Status     string  `json:"status"`
	Iterations int     `json:"iterations"`
	Delta      float64 `json:"delta"`
}

// Hub owns one client connection: it dispatches requests, runs at most one
// solve at a time, and is the single writer on the connection.
type Hub struct {
	conn *websocket.Conn
	cfg  scenario.Config

	// request
	msg chan Msg
	// response
	replies chan Msg
	frames  chan Frame
	done    chan Done
	quit    chan struct{}

	running atomic.Bool
	discard atomic.Bool
}

// NewHub wraps an upgraded connection
func NewHub(conn *websocket.Conn, cfg scenario.Config) *Hub {
	return &Hub{
		conn:    conn,
		cfg:     cfg,
		msg:     make(chan Msg, 10),
		replies: make(chan Msg, 10),
		frames:  make(chan Frame, 4),
		done:    make(chan Done, 1),
		quit:    make(chan struct{}),
	}
}

// handleRequest dispatches client messages until the read loop closes msg
func (h *Hub) handleRequest() {
	for msg := range h.msg {
		switch msg.Type {
		case "start":
			if h.running.Load() {
				h.replies <- Msg{Type: "busy", Content: "a solve is already running"}
				continue
			}
			comp, err := scenario.Build(msg.Scenario, h.cfg)
			if err != nil {
				h.replies <- Msg{Type: "error", Content: err.Error()}
				continue
			}
			h.discard.Store(false)
			h.running.Store(true)
			h.replies <- Msg{Type: "started", Scenario: msg.Scenario}
			go h.solve(comp)
		case "stop":
			// The relaxation itself runs to completion; stop only mutes
			// the stream.
			h.discard.Store(true)
			h.replies <- Msg{Type: "stopped"}
		default:
			h.replies <- Msg{Type: "error", Content: "unknown request " + msg.Type}
		}
	}
	close(h.quit)
}

// handleResponse is the single writer on the connection
func (h *Hub) handleResponse() {
	for {
		select {
		case reply := <-h.replies:
			if err := h.conn.WriteJSON(&reply); err != nil {
				log.WithError(err).Warn("write reply")
			}
		case frame := <-h.frames:
			if err := h.conn.WriteJSON(&frame); err != nil {
				log.WithError(err).Warn("write frame")
			}
		case d := <-h.done:
			if err := h.conn.WriteJSON(&d); err != nil {
				log.WithError(err).Warn("write done")
			}
		case <-h.quit:
			return
		}
	}
}

// solve runs one scenario to completion, streaming periodic frames
func (h *Hub) solve(comp *composite.Composite) {
	defer h.running.Store(false)

	comp.SetProgress(func(it int, delta float64) {
		if it%frameEvery != 0 || h.discard.Load() {
			return
		}
		select {
		case h.frames <- h.snapshot(comp, it, delta):
		default:
			// Drop the frame rather than stall the solve on a slow client.
		}
	})

	res, err := comp.Solve(h.cfg.MaxIterations, h.cfg.Tolerance)
	if err != nil {
		h.replies <- Msg{Type: "error", Content: err.Error()}
		return
	}
	log.WithFields(log.Fields{
		"status":     res.Status,
		"iterations": res.Iterations,
	}).Info("solve finished")
	if !h.discard.Load() {
		h.done <- Done{
			Type:       "done",
			Status:     res.Status.String(),
			Iterations: res.Iterations,
			Delta:      res.FinalDelta,
		}
	}
}

// snapshot copies the current fields into a wire frame
func (h *Hub) snapshot(comp *composite.Composite, it int, delta float64) Frame {
	f := Frame{Type: "frame", Iteration: it, Delta: delta}
	for _, p := range comp.Placements {
		field := p.Mesh.Field()
		rows, cols := field.Dims()
		f.Meshes = append(f.Meshes, MeshFrame{
			Rows: rows,
			Cols: cols,
			X0:   p.X0,
			Y0:   p.Y0,
			Data: field.RawMatrix().Data,
		})
	}
	return f
}
