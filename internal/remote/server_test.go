package remote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/olivier-w/vivid/internal/audio"
	"github.com/olivier-w/vivid/internal/vis"
)

func dialTestServer(t *testing.T, s *Server) (*websocket.Conn, func()) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	ts := httptest.NewServer(mux)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		ts.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		ts.Close()
	}
}

func loudSnapshot() audio.Snapshot {
	mags := make([]uint8, 1024)
	for i := range mags {
		mags[i] = 200
	}
	return audio.Snapshot{
		Magnitudes: mags,
		Bands:      audio.Bands{Bass: 210, Mid: 150, Treble: 90},
		Average:    150,
	}
}

func TestClientReceivesUpdates(t *testing.T) {
	s := NewServer(vis.NewStore())
	conn, done := dialTestServer(t, s)
	defer done()

	// the handler registers the client asynchronously
	deadline := time.Now().Add(2 * time.Second)
	for {
		s.PushFrame(nil, loudSnapshot())
		s.pubMu.Lock()
		s.lastPub = time.Time{}
		s.pubMu.Unlock()

		s.mu.Lock()
		n := len(s.clients)
		s.mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.PushFrame(nil, loudSnapshot())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.Type != "frame" || u.Bass != 210 || len(u.Spectrum) != spectrumPoints {
		t.Fatalf("unexpected update: %+v", u)
	}
}

func TestPushFrameIsRateLimited(t *testing.T) {
	s := NewServer(vis.NewStore())
	q := make(chan []byte, 64)
	s.clients[nil] = q

	for i := 0; i < 50; i++ {
		s.PushFrame(nil, loudSnapshot())
	}
	if got := len(q); got != 1 {
		t.Fatalf("burst delivered %d updates, want 1", got)
	}
}

func TestSlowClientDropsInsteadOfBlocking(t *testing.T) {
	s := NewServer(vis.NewStore())
	q := make(chan []byte, 2)
	s.clients[nil] = q

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			s.PushFrame(nil, loudSnapshot())
			s.pubMu.Lock()
			s.lastPub = time.Time{}
			s.pubMu.Unlock()
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("PushFrame blocked on a slow client")
	}
	if len(q) != 2 {
		t.Fatalf("queue holds %d, want full depth 2", len(q))
	}
}

func TestSettingsCommandAppliesPatch(t *testing.T) {
	store := vis.NewStore()
	s := NewServer(store)

	cmd := []byte(`{"type":"settings","options":{"sensitivity":3.5,"mirrorEffect":true}}`)
	if err := s.handleCommand(cmd); err != nil {
		t.Fatalf("handleCommand: %v", err)
	}
	got := store.View().Settings
	if got.Sensitivity != 3.5 || !got.MirrorEffect {
		t.Fatalf("settings not applied: %+v", got)
	}
}

func TestPaletteCommand(t *testing.T) {
	store := vis.NewStore()
	s := NewServer(store)
	if err := s.handleCommand([]byte(`{"type":"palette","name":"ember"}`)); err != nil {
		t.Fatalf("handleCommand: %v", err)
	}
	if got := store.View().Palette.Name; got != "ember" {
		t.Fatalf("palette = %q, want ember", got)
	}
}

func TestBadCommandsAreRejected(t *testing.T) {
	s := NewServer(vis.NewStore())
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{`},
		{"unknown type", `{"type":"launch"}`},
		{"bad option", `{"type":"settings","options":{"reverb":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.handleCommand([]byte(tt.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestStartAndClose(t *testing.T) {
	s := NewServer(vis.NewStore())
	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Addr() == "" {
		t.Fatal("no bound address")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
