package remote

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/inkflow/sim"
)

type call struct {
	Name  string
	Key   string
	Value any
}

type fakeHandler struct {
	mu    sync.Mutex
	calls []call
	stats sim.ColorStats
	block bool
}

func (h *fakeHandler) record(c call) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, c)
}

func (h *fakeHandler) Calls() []call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]call(nil), h.calls...)
}

func (h *fakeHandler) UpdateConfig(key string, value any) {
	h.record(call{Name: "update", Key: key, Value: value})
}

func (h *fakeHandler) Clear()       { h.record(call{Name: "clear"}) }
func (h *fakeHandler) CenterSplat() { h.record(call{Name: "center"}) }

func (h *fakeHandler) ColorStats(ctx context.Context) (sim.ColorStats, error) {
	if h.block {
		<-ctx.Done()
		return sim.ColorStats{}, ctx.Err()
	}
	return h.stats, nil
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

// startPair starts a driver server and a simulation client connected to it.
func startPair(t *testing.T, h Handler) (*Server, *API) {
	t.Helper()

	srv := NewServer()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(wsURL(ts), h)
	client.InitialBackoff = 10 * time.Millisecond
	done := make(chan struct{})
	go func() {
		defer close(done)
		client.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, srv.Connected, 2*time.Second, 5*time.Millisecond)
	return srv, NewAPI(srv, 2*time.Second)
}

func TestAPI_CommandsReachHandlerInOrder(t *testing.T) {
	h := &fakeHandler{stats: sim.ColorStats{
		Average:  sim.RGB{R: 200, G: 180, B: 90},
		Variance: sim.RGB{R: 16, G: 9, B: 4},
		StdDev:   sim.RGB{R: 4, G: 3, B: 2},
	}}
	_, api := startPair(t, h)
	ctx := context.Background()

	require.NoError(t, api.Clear(ctx))
	require.NoError(t, api.UpdateConfig(ctx, "VORTEX_STRENGTH", 0))
	require.NoError(t, api.UpdateConfig(ctx, "COLOR", "Magenta"))
	require.NoError(t, api.CenterSplat(ctx))

	avg, err := api.AverageColor(ctx)
	require.NoError(t, err)
	assert.Equal(t, sim.RGB{R: 200, G: 180, B: 90}, avg)

	// The query is answered after every earlier command was dispatched.
	assert.Equal(t, []call{
		{Name: "clear"},
		{Name: "update", Key: "VORTEX_STRENGTH", Value: float64(0)},
		{Name: "update", Key: "COLOR", Value: "Magenta"},
		{Name: "center"},
	}, h.Calls())

	variance, err := api.ColorVariance(ctx)
	require.NoError(t, err)
	assert.Equal(t, sim.RGB{R: 16, G: 9, B: 4}, variance)

	std, err := api.ColorStandardDeviation(ctx)
	require.NoError(t, err)
	assert.Equal(t, sim.RGB{R: 4, G: 3, B: 2}, std)
}

func TestServer_RejectsSecondClient(t *testing.T) {
	srv := NewServer()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	first, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	defer first.Close()
	require.Eventually(t, srv.Connected, 2*time.Second, 5*time.Millisecond)

	second, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	defer second.Close()

	second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = second.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	assert.True(t, srv.Connected())
}

func TestServer_SlotFreedOnDisconnect(t *testing.T) {
	srv := NewServer()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	require.Eventually(t, srv.Connected, 2*time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return !srv.Connected() }, 2*time.Second, 5*time.Millisecond)
}

func TestAPI_UnknownCommandIgnored(t *testing.T) {
	h := &fakeHandler{stats: sim.ColorStats{Average: sim.RGB{R: 1, G: 2, B: 3}}}
	srv, api := startPair(t, h)
	ctx := context.Background()

	require.NoError(t, srv.Send(ctx, Message{Type: "spin"}))
	avg, err := api.AverageColor(ctx)
	require.NoError(t, err)
	assert.Equal(t, sim.RGB{R: 1, G: 2, B: 3}, avg)
	assert.Empty(t, h.Calls())
}

func TestAPI_QueryWithoutClient(t *testing.T) {
	api := NewAPI(NewServer(), time.Second)
	_, err := api.AverageColor(context.Background())
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestAPI_QueryTimeout(t *testing.T) {
	h := &fakeHandler{block: true}
	srv, _ := startPair(t, h)
	api := NewAPI(srv, 50*time.Millisecond)

	_, err := api.AverageColor(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_DispatchUnknown(t *testing.T) {
	c := NewClient("ws://unused", &fakeHandler{})
	reply, err := c.dispatch(context.Background(), Message{Type: "explode"})
	require.ErrorIs(t, err, ErrUnknownCommand)
	assert.Nil(t, reply)
}

func TestClient_RunReturnsOnCancel(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1", &fakeHandler{})
	c.InitialBackoff = 10 * time.Millisecond
	c.MaxBackoff = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMessage_ZeroValueKept(t *testing.T) {
	data, err := json.Marshal(Message{Type: TypeUpdateConfig, Key: "VORTEX_STRENGTH", Value: 0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"updateConfig","key":"VORTEX_STRENGTH","value":0}`, string(data))

	data, err = json.Marshal(statsReply(TypeAverageColor, sim.ColorStats{Average: sim.RGB{R: 10, G: 20, B: 30}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"averageColor","color":{"r":10,"g":20,"b":30}}`, string(data))
}
