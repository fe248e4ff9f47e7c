package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/inkflow/sim"
)

// Server is the driver end of the protocol. It accepts one simulation at a
// time; further connections are closed with a policy violation. Commands
// queue until a simulation is connected to take them.
type Server struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	active bool

	queue   chan Message
	replies map[string]chan Message

	WriteTimeout time.Duration
}

// NewServer creates a server with an empty outbound queue.
func NewServer() *Server {
	s := &Server{
		upgrader:     websocket.Upgrader{CheckOrigin: localOrigin},
		queue:        make(chan Message, 64),
		replies:      make(map[string]chan Message),
		WriteTimeout: 5 * time.Second,
	}
	for _, t := range []string{TypeAverageColor, TypeColorVariance, TypeColorStandardDeviation} {
		s.replies[t] = make(chan Message, 1)
	}
	return s
}

// localOrigin accepts non-browser clients and pages served from this host.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// Connected reports whether a simulation is attached.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ServeHTTP upgrades the request and serves the simulation until it
// disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		slog.Warn("rejecting second simulation", "remote", r.RemoteAddr)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "server already has an active connection"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}
	s.active = true
	s.mu.Unlock()

	defer func() {
		conn.Close()
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
		slog.Info("simulation disconnected", "remote", r.RemoteAddr)
	}()
	slog.Info("simulation connected", "remote", r.RemoteAddr)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return s.readPump(conn) })
	g.Go(func() error { return writePump(ctx, conn, s.queue, s.WriteTimeout) })
	g.Go(func() error {
		<-ctx.Done()
		conn.Close()
		return nil
	})
	if err := g.Wait(); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		slog.Debug("simulation connection ended", "error", err)
	}
}

// readPump routes statistics replies to whoever is waiting for them.
func (s *Server) readPump(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid remote message", "error", err)
			continue
		}
		ch, ok := s.replies[msg.Type]
		if !ok {
			slog.Warn("unknown command type", "type", msg.Type)
			continue
		}
		// Keep only the newest reply.
		select {
		case <-ch:
		default:
		}
		ch <- msg
	}
}

// Send queues a message for the connected simulation.
func (s *Server) Send(ctx context.Context, msg Message) error {
	select {
	case s.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// request sends a statistics query and waits for its reply.
func (s *Server) request(ctx context.Context, query string) (sim.RGB, error) {
	replyType, ok := replyFor(query)
	if !ok {
		return sim.RGB{}, fmt.Errorf("%w: %s", ErrUnknownCommand, query)
	}
	if !s.Connected() {
		return sim.RGB{}, ErrNotConnected
	}

	ch := s.replies[replyType]
	select {
	case <-ch:
	default:
	}

	if err := s.Send(ctx, Message{Type: query}); err != nil {
		return sim.RGB{}, err
	}

	for {
		select {
		case msg := <-ch:
			if rgb, ok := msg.rgb(); ok {
				return rgb, nil
			}
			slog.Warn("reply without color", "type", msg.Type)
		case <-ctx.Done():
			return sim.RGB{}, fmt.Errorf("waiting for %s: %w", replyType, ctx.Err())
		}
	}
}

// ListenAndServe serves the WebSocket endpoint on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("driver listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// API issues typed commands through a Server.
type API struct {
	server  *Server
	timeout time.Duration
}

// NewAPI creates an API that waits up to timeout for statistics replies.
func NewAPI(s *Server, timeout time.Duration) *API {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &API{server: s, timeout: timeout}
}

// UpdateConfig sets one simulation parameter.
func (a *API) UpdateConfig(ctx context.Context, key string, value any) error {
	return a.server.Send(ctx, Message{Type: TypeUpdateConfig, Key: key, Value: value})
}

// Clear resets the dye to white.
func (a *API) Clear(ctx context.Context) error {
	return a.server.Send(ctx, Message{Type: TypeClear})
}

// CenterSplat deposits the configured color at the canvas center.
func (a *API) CenterSplat(ctx context.Context) error {
	return a.server.Send(ctx, Message{Type: TypeCenterSplat})
}

// AverageColor returns the mean displayed color in 0..255 units.
func (a *API) AverageColor(ctx context.Context) (sim.RGB, error) {
	return a.query(ctx, TypeComputeAverageColor)
}

// ColorVariance returns the per-channel variance in squared 0..255 units.
func (a *API) ColorVariance(ctx context.Context) (sim.RGB, error) {
	return a.query(ctx, TypeComputeColorVariance)
}

// ColorStandardDeviation returns the per-channel standard deviation.
func (a *API) ColorStandardDeviation(ctx context.Context) (sim.RGB, error) {
	return a.query(ctx, TypeComputeColorStandardDeviation)
}

func (a *API) query(ctx context.Context, query string) (sim.RGB, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.server.request(ctx, query)
}
