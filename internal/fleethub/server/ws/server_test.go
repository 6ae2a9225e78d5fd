package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/registry"
	"github.com/autopeer-io/fleethub/internal/fleethub/hub"
	"github.com/autopeer-io/fleethub/pkg/options"
	"github.com/autopeer-io/fleethub/pkg/protocol"
)

func newTestServer(t *testing.T) (string, *hub.Hub) {
	t.Helper()

	reg := registry.New()
	if _, err := reg.RegisterCar("AAA", "TestCar", nil, nil); err != nil {
		t.Fatal(err)
	}
	h := hub.New(reg, filepath.Join(t.TempDir(), "DB.json"))
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	opts := options.NewWsOptions()
	opts.HandshakeTimeout = 2 * time.Second
	srv := httptest.NewServer(NewServer(opts, h).Handler())

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-h.Stopped()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http"), h
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatal(err)
	}
}

func receive(t *testing.T, conn *websocket.Conn) protocol.Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var env protocol.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatal(err)
	}
	return env
}

func waitForActive(t *testing.T, h *hub.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		ids, err := h.ActiveIDs(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(ids) == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("active = %v, want %d entries", ids, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSessionLifecycle(t *testing.T) {
	url, h := newTestServer(t)
	conn := dial(t, url+"/ws")

	send(t, conn, `{"event":"auth","data":{"ID":"AAA"}}`)
	env := receive(t, conn)
	if env.Event != protocol.EventConnected {
		t.Fatalf("event = %q, data %s", env.Event, env.Data)
	}
	var connected map[string]any
	if err := json.Unmarshal(env.Data, &connected); err != nil {
		t.Fatal(err)
	}
	if connected["id"] != "AAA" || connected["status"] != "Online" {
		t.Errorf("connected payload = %s", env.Data)
	}
	waitForActive(t, h, 1)

	tests := []struct {
		frame     string
		wantEvent string
		wantData  string
	}{
		{
			`{"event":"request","data":["getActive"]}`,
			protocol.EventResponse,
			`"request":["getActive"]`,
		},
		{
			`{"event":"request","data":"getAll"}`,
			protocol.EventResponse,
			`"registry":{"AAA"`,
		},
		{
			`{"event":"request","data":["bogus"]}`,
			protocol.EventError,
			`the command \"bogus\" was not recognized`,
		},
		{
			`{"event":"request","data":["getID","ZZZ"]}`,
			protocol.EventError,
			`vehicle with ID ZZZ does not exist`,
		},
		{
			`{"event":"ping"}`,
			protocol.EventError,
			`unsupported event ping`,
		},
		{
			`not json`,
			protocol.EventError,
			`malformed frame`,
		},
	}
	for _, tt := range tests {
		send(t, conn, tt.frame)
		env := receive(t, conn)
		if env.Event != tt.wantEvent || !strings.Contains(string(env.Data), tt.wantData) {
			t.Errorf("%s -> %s %s, want %s containing %s", tt.frame, env.Event, env.Data, tt.wantEvent, tt.wantData)
		}
	}

	conn.Close()
	waitForActive(t, h, 0)

	v, err := h.Vehicle(context.Background(), "AAA")
	if err != nil {
		t.Fatal(err)
	}
	if v.IsOnline() {
		t.Errorf("status after close = %v", v.Status)
	}
}

func TestRejectedHandshake(t *testing.T) {
	url, h := newTestServer(t)

	tests := []struct {
		name  string
		frame string
		want  string
	}{
		{"unknown id", `{"event":"auth","data":{"ID":"ZZZ"}}`, "the specified ID does not exist"},
		{"no id", `{"event":"auth","data":{}}`, "no ID was specified"},
		{"request first", `{"event":"request","data":["getAll"]}`, errExpectedAuth.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := dial(t, url)
			send(t, conn, tt.frame)

			env := receive(t, conn)
			if env.Event != protocol.EventConnectError || !strings.Contains(string(env.Data), tt.want) {
				t.Errorf("reply = %s %s, want connect_error %q", env.Event, env.Data, tt.want)
			}

			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			if _, _, err := conn.ReadMessage(); err == nil {
				t.Error("connection still open after rejection")
			}
		})
	}

	waitForActive(t, h, 0)
}

func TestCheckOrigin(t *testing.T) {
	opts := options.NewWsOptions()
	opts.AllowedOrigins = []string{"https://fleet.example"}
	s := NewServer(opts, nil)

	tests := map[string]bool{
		"":                      true,
		"https://fleet.example": true,
		"https://evil.example":  false,
	}
	for origin, want := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		if got := s.checkOrigin(req); got != want {
			t.Errorf("checkOrigin(%q) = %v, want %v", origin, got, want)
		}
	}
}
