package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/inkflow/config"
	"github.com/pthm-cable/inkflow/sim"
)

// Handler applies remote commands to a running simulation. Commands take
// effect at the next tick; ColorStats blocks until a tick answers it.
type Handler interface {
	UpdateConfig(key string, value any)
	Clear()
	CenterSplat()
	ColorStats(ctx context.Context) (sim.ColorStats, error)
}

// Client dials a driver and serves its commands until cancelled,
// reconnecting with exponential backoff whenever the connection drops.
type Client struct {
	url     string
	handler Handler
	dialer  *websocket.Dialer

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	WriteTimeout   time.Duration
	QueryTimeout   time.Duration
}

// NewClient creates a client for the driver at url.
func NewClient(url string, h Handler) *Client {
	return &Client{
		url:            url,
		handler:        h,
		dialer:         websocket.DefaultDialer,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		WriteTimeout:   5 * time.Second,
		QueryTimeout:   10 * time.Second,
	}
}

// Configure applies the remote section of the config.
func (c *Client) Configure(cfg config.RemoteConfig) {
	if cfg.InitialBackoff > 0 {
		c.InitialBackoff = seconds(cfg.InitialBackoff)
	}
	if cfg.MaxBackoff > 0 {
		c.MaxBackoff = seconds(cfg.MaxBackoff)
	}
	if cfg.WriteTimeout > 0 {
		c.WriteTimeout = seconds(cfg.WriteTimeout)
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Run connects and serves commands until ctx is cancelled. It only returns
// once ctx is done.
func (c *Client) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.InitialBackoff
	bo.MaxInterval = c.MaxBackoff
	bo.MaxElapsedTime = 0
	bo.Reset()

	for {
		connected, err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			bo.Reset()
		}

		wait := bo.NextBackOff()
		slog.Warn("remote connection lost", "url", c.url, "error", err, "retry_in", wait)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// session serves one connection. connected reports whether the dial
// succeeded.
func (c *Client) session(ctx context.Context) (connected bool, err error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("dialing %s: %w", c.url, err)
	}
	defer conn.Close()
	slog.Info("remote connected", "url", c.url)

	out := make(chan Message, 16)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readPump(gctx, conn, out) })
	g.Go(func() error { return writePump(gctx, conn, out, c.WriteTimeout) })
	g.Go(func() error {
		<-gctx.Done()
		conn.Close()
		return nil
	})
	return true, g.Wait()
}

// readPump decodes commands and dispatches them in arrival order.
func (c *Client) readPump(ctx context.Context, conn *websocket.Conn, out chan<- Message) error {
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

		reply, err := c.dispatch(ctx, msg)
		switch {
		case errors.Is(err, ErrUnknownCommand):
			slog.Warn("unknown command type", "type", msg.Type)
			continue
		case err != nil:
			slog.Warn("remote command failed", "type", msg.Type, "error", err)
			continue
		case reply == nil:
			continue
		}

		select {
		case out <- *reply:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// dispatch applies one command, returning the reply to send if any.
func (c *Client) dispatch(ctx context.Context, msg Message) (*Message, error) {
	switch msg.Type {
	case TypeUpdateConfig:
		c.handler.UpdateConfig(msg.Key, msg.Value)
		return nil, nil
	case TypeClear:
		c.handler.Clear()
		return nil, nil
	case TypeCenterSplat:
		c.handler.CenterSplat()
		return nil, nil
	}

	replyType, ok := replyFor(msg.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, msg.Type)
	}

	qctx, cancel := context.WithTimeout(ctx, c.QueryTimeout)
	defer cancel()
	stats, err := c.handler.ColorStats(qctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("answering color query", "type", msg.Type, "stats", stats)
	reply := statsReply(replyType, stats)
	return &reply, nil
}

// writePump is the only writer on conn.
func writePump(ctx context.Context, conn *websocket.Conn, out <-chan Message, timeout time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-out:
			conn.SetWriteDeadline(time.Now().Add(timeout))
			if err := conn.WriteJSON(msg); err != nil {
				return fmt.Errorf("writing %s: %w", msg.Type, err)
			}
		}
	}
}
