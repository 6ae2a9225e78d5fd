// Package ws is the websocket transport vehicles connect through.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/autopeer-io/fleethub/internal/fleethub/hub"
	"github.com/autopeer-io/fleethub/pkg/log"
	"github.com/autopeer-io/fleethub/pkg/options"
	"github.com/autopeer-io/fleethub/pkg/protocol"
)

// Gateway is the hub as seen by a connection.
type Gateway interface {
	Connect(ctx context.Context, claimedID string) (*hub.Session, protocol.Envelope, error)
	Request(ctx context.Context, sess *hub.Session, data json.RawMessage) protocol.Envelope
	Disconnect(ctx context.Context, sess *hub.Session) error
}

var _ Gateway = (*hub.Hub)(nil)

type Server struct {
	server   *http.Server
	options  *options.WsOptions
	gateway  Gateway
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewServer(opts *options.WsOptions, gateway Gateway) *Server {
	s := &Server{
		options: opts,
		gateway: gateway,
		conns:   make(map[*websocket.Conn]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.server = &http.Server{
		Addr:    opts.Addr,
		Handler: s.Handler(),
	}
	// Hijacked connections are not closed by Shutdown.
	s.server.RegisterOnShutdown(s.closeAll)
	return s
}

// Handler accepts websocket upgrades on "/" and "/ws".
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.serveWS)
	r.HandleFunc("/ws", s.serveWS)
	return r
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.options.Addr)
	if err != nil {
		return err
	}

	log.Info("Starting websocket server", "addr", lis.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.options.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.options.AllowedOrigins, origin)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		log.Debug("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err.Error())
		return
	}

	s.track(conn)
	defer s.untrack(conn)

	c := &connection{
		conn:    conn,
		gateway: s.gateway,
		opts:    s.options,
		send:    make(chan protocol.Envelope, sendBuffer),
		remote:  r.RemoteAddr,
	}
	c.serve()
}

func (s *Server) track(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}
}
