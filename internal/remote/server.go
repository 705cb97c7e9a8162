// Package remote exposes the running visualizer over a WebSocket: every
// connected client receives rate-limited spectrum updates and may push
// settings changes back.
package remote

import (
	"encoding/json"
	"fmt"
	"image"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/olivier-w/vivid/internal/audio"
	"github.com/olivier-w/vivid/internal/util"
	"github.com/olivier-w/vivid/internal/vis"
)

const (
	publishHz       = 20
	clientQueueSize = 16
	spectrumPoints  = 64
)

// Update is one outbound message. Spectrum is downsampled to a fixed,
// connection-friendly resolution regardless of the analyzer's FFT size.
type Update struct {
	Type     string    `json:"type"`
	Bass     float64   `json:"bass"`
	Mid      float64   `json:"mid"`
	Treble   float64   `json:"treble"`
	Average  float64   `json:"average"`
	Spectrum []float64 `json:"spectrum"`
}

// Command is one inbound client message.
type Command struct {
	Type    string         `json:"type"`
	Options map[string]any `json:"options,omitempty"`
	Name    string         `json:"name,omitempty"`
}

// Server broadcasts analysis snapshots to WebSocket clients and applies
// their settings commands to the store. It consumes frames as an engine
// sink; a slow or dead client loses updates, never the render loop.
type Server struct {
	store    *vis.Store
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	httpSrv *http.Server
	ln      net.Listener

	pubMu   sync.Mutex
	lastPub time.Time
}

// NewServer creates a server bound to the store. Call Start to listen.
func NewServer(store *vis.Store) *Server {
	return &Server{
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// Start binds the listen address and serves in the background. Bind errors
// surface synchronously so a busy port fails fast.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("remote listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	s.mu.Lock()
	s.ln = ln
	s.httpSrv = &http.Server{Handler: mux}
	s.mu.Unlock()

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			util.Debugf("remote: server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// PushFrame publishes the snapshot to all clients, rate limited so remote
// traffic stays well below the render rate. The image itself never leaves
// the process.
func (s *Server) PushFrame(img *image.RGBA, snap audio.Snapshot) {
	s.pubMu.Lock()
	now := time.Now()
	if now.Sub(s.lastPub) < time.Second/publishHz {
		s.pubMu.Unlock()
		return
	}
	s.lastPub = now
	s.pubMu.Unlock()

	payload, err := json.Marshal(buildUpdate(snap))
	if err != nil {
		return
	}

	s.mu.Lock()
	for _, q := range s.clients {
		select {
		case q <- payload:
		default:
			// slow client, drop this update
		}
	}
	s.mu.Unlock()
}

// Close disconnects all clients and stops the listener.
func (s *Server) Close() error {
	s.mu.Lock()
	for conn, q := range s.clients {
		close(q)
		_ = conn.Close()
	}
	s.clients = make(map[*websocket.Conn]chan []byte)
	srv := s.httpSrv
	s.httpSrv = nil
	s.ln = nil
	s.mu.Unlock()

	if srv != nil {
		return srv.Close()
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		util.Debugf("remote: upgrade: %v", err)
		return
	}

	q := make(chan []byte, clientQueueSize)
	s.mu.Lock()
	s.clients[conn] = q
	n := len(s.clients)
	s.mu.Unlock()
	util.Debugf("remote: client connected, total %d", n)

	go s.writeLoop(conn, q)
	s.readLoop(conn)
}

func (s *Server) writeLoop(conn *websocket.Conn, q chan []byte) {
	for payload := range q {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.drop(conn)
			return
		}
	}
}

func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.drop(conn)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := s.handleCommand(data); err != nil {
			util.Debugf("remote: bad command: %v", err)
		}
	}
}

// handleCommand applies one inbound client message to the store.
func (s *Server) handleCommand(data []byte) error {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("parsing command: %w", err)
	}
	switch cmd.Type {
	case "settings":
		patch, err := vis.PatchFromMap(cmd.Options)
		if err != nil {
			return err
		}
		s.store.Apply(patch)
		return nil
	case "palette":
		s.store.SetPalette(cmd.Name)
		return nil
	default:
		return fmt.Errorf("unknown command type %q", cmd.Type)
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if q, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		close(q)
	}
	n := len(s.clients)
	s.mu.Unlock()
	_ = conn.Close()
	util.Debugf("remote: client disconnected, total %d", n)
}

// buildUpdate condenses a snapshot into the wire payload.
func buildUpdate(snap audio.Snapshot) Update {
	u := Update{
		Type:     "frame",
		Bass:     snap.Bands.Bass,
		Mid:      snap.Bands.Mid,
		Treble:   snap.Bands.Treble,
		Average:  snap.Average,
		Spectrum: make([]float64, spectrumPoints),
	}
	if len(snap.Magnitudes) > 0 {
		buckets := make([]float64, spectrumPoints)
		vis.Buckets(buckets, snap.Magnitudes)
		u.Spectrum = buckets
	}
	return u
}
