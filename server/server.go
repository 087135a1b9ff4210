// Package server exposes the solver over a websocket so a browser viewer
// can watch the temperature field relax in real time. It is a consumer of
// the core packages: everything flows through the public composite API.
package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/notargets/chiptherm/scenario"
)

// Server upgrades /ws requests and hands each connection its own hub
type Server struct {
	addr     string
	cfg      scenario.Config
	upgrader websocket.Upgrader
}

// NewServer creates a server that solves scenarios built from cfg
func NewServer(addr string, cfg scenario.Config) *Server {
	return &Server{
		addr: addr,
		cfg:  cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// serveWs handles websocket requests from the peer
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Error("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h := NewHub(conn, s.cfg)
	go h.handleRequest()
	go h.handleResponse()
	for {
		var msg Msg
		if err := conn.ReadJSON(&msg); err != nil {
			log.WithError(err).Info("client disconnected")
			close(h.msg)
			return
		}
		h.msg <- msg
	}
}

// Handler returns the HTTP handler serving the websocket endpoint
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	return mux
}

// Serve listens on the configured address until the listener fails
func (s *Server) Serve() error {
	log.WithField("addr", s.addr).Info("monitor listening")
	return http.ListenAndServe(s.addr, s.Handler())
}
