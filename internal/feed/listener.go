// Package feed ingests normalized price records over WebSocket. Upstream
// collectors watch the venues and push venue-agnostic JSON records; this
// package owns the connection lifecycle and hands each record to a handler.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	handshakeTimeout  = 15 * time.Second
	reconnectDelay    = 2 * time.Second
	maxReconnectDelay = 60 * time.Second
)

// RecordHandler receives each decoded price record.
type RecordHandler func(ctx context.Context, rec domain.PriceRecord)

// Listener maintains a WebSocket subscription to a normalized record feed,
// reconnecting with exponential backoff on disconnect.
type Listener struct {
	url     string
	handler RecordHandler
	logger  *slog.Logger
}

// NewListener creates a listener for the given feed URL.
func NewListener(url string, handler RecordHandler, logger *slog.Logger) *Listener {
	return &Listener{
		url:     url,
		handler: handler,
		logger:  logger.With(slog.String("component", "feed")),
	}
}

// Run connects and consumes records until ctx is cancelled. Each disconnect
// doubles the retry delay up to a cap; a successful connection resets it.
func (l *Listener) Run(ctx context.Context) error {
	delay := reconnectDelay
	for {
		err := l.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("feed disconnected, reconnecting",
			slog.String("url", l.url),
			slog.Duration("retry_in", delay),
			slog.Any("error", err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

func (l *Listener) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return fmt.Errorf("feed: dial %s: %w", l.url, err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	l.logger.Info("feed connected", slog.String("url", l.url))

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			_ = conn.Close()
		case <-done:
		}
	}()
	go pingLoop(conn, done)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("feed: read: %w", err)
		}
		l.dispatch(ctx, raw)
	}
}

// dispatch decodes one frame. Unparseable frames are dropped with a debug log
// rather than tearing down the connection.
func (l *Listener) dispatch(ctx context.Context, raw []byte) {
	var rec domain.PriceRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		l.logger.Debug("dropping malformed frame", slog.Any("error", err))
		return
	}
	if rec.ObservedAt.IsZero() {
		rec.ObservedAt = time.Now().UTC()
	}
	l.handler(ctx, rec)
}

func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
