// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/attitude_stream/internal/orientation"
)

const (
	wsWriteTimeout  = time.Second
	shutdownTimeout = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local network tool
	},
}

// WebFeed serves the latest sample at /api/orientation and pushes every
// sample to websocket clients on /ws.
type WebFeed struct {
	clk    clock.Clock
	logger *zap.SugaredLogger
	q      *queue

	mu      sync.RWMutex
	last    Payload
	have    bool
	clients map[*websocket.Conn]struct{}

	server *http.Server
}

// NewWebFeed returns a feed that is not yet listening; see Handler and
// ListenAndServe.
func NewWebFeed(clk clock.Clock, logger *zap.SugaredLogger) *WebFeed {
	f := &WebFeed{
		clk:     clk,
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
	f.q = newQueue(sinkQueueSize, f.broadcast)
	return f
}

// Handler routes the feed endpoints.
func (f *WebFeed) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/orientation", f.handleLatest)
	mux.HandleFunc("/ws", f.handleWS)
	return mux
}

// ListenAndServe binds addr and serves in the background.
func (f *WebFeed) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}
	f.server = &http.Server{Handler: f.Handler(), ReadHeaderTimeout: 5 * time.Second}
	f.logger.Infow("web feed listening", "addr", l.Addr().String())
	go func() {
		if err := f.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Warnw("web feed stopped", "error", err)
		}
	}()
	return nil
}

func (f *WebFeed) handleLatest(w http.ResponseWriter, r *http.Request) {
	f.mu.RLock()
	last, have := f.last, f.have
	f.mu.RUnlock()

	if !have {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(last); err != nil {
		f.logger.Debugw("json encode error", "error", err)
	}
}

func (f *WebFeed) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Debugw("websocket upgrade error", "error", err)
		return
	}
	f.mu.Lock()
	f.clients[conn] = struct{}{}
	f.mu.Unlock()
	f.logger.Debugw("websocket client connected", "remote", r.RemoteAddr)

	// Clients only listen; reading detects the close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				f.drop(conn)
				return
			}
		}
	}()
}

func (f *WebFeed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	_, ok := f.clients[conn]
	delete(f.clients, conn)
	f.mu.Unlock()
	if ok {
		conn.Close()
	}
}

// Offer queues s for the feed.
func (f *WebFeed) Offer(s orientation.Sample) {
	f.q.offer(s)
}

func (f *WebFeed) broadcast(s orientation.Sample) {
	p := newPayload(s, f.clk.Now())

	f.mu.Lock()
	f.last, f.have = p, true
	conns := make([]*websocket.Conn, 0, len(f.clients))
	for c := range f.clients {
		conns = append(conns, c)
	}
	f.mu.Unlock()

	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.WriteJSON(p); err != nil {
			f.logger.Debugw("websocket write error", "error", err)
			f.drop(c)
		}
	}
}

// Clients returns the number of connected websocket clients.
func (f *WebFeed) Clients() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Close stops the feed, the server if listening and every client.
func (f *WebFeed) Close() error {
	f.q.close()

	var err error
	if f.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = f.server.Shutdown(ctx)
	}

	f.mu.Lock()
	conns := f.clients
	f.clients = make(map[*websocket.Conn]struct{})
	f.mu.Unlock()
	for c := range conns {
		c.Close()
	}
	return err
}
