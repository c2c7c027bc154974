// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"sync"

	"github.com/relabs-tech/attitude_stream/internal/config"
	"github.com/relabs-tech/attitude_stream/internal/orientation"
)

// Callback receives fused samples from the service's own goroutine.
type Callback func(orientation.Sample)

// Service owns the attitude sensor. Samples are delivered asynchronously
// to the registered callback at the configured rate.
type Service interface {
	// Initialize brings the sensor up and starts delivery.
	Initialize(ctx context.Context, cfg *config.Config) error
	// RegisterCallback sets the data callback. Samples produced before a
	// callback is registered are dropped.
	RegisterCallback(cb Callback)
	// PowerOff stops delivery and releases the sensor. Once it returns the
	// callback is never invoked again.
	PowerOff() error
}

// gate serializes callback delivery with teardown. close blocks until an
// in-flight callback has returned.
type gate struct {
	mu     sync.Mutex
	cb     Callback
	closed bool
}

func (g *gate) set(cb Callback) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		g.cb = cb
	}
}

// armed reports whether a delivery would reach a callback.
func (g *gate) armed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed && g.cb != nil
}

// deliver invokes the callback and reports whether it ran.
func (g *gate) deliver(s orientation.Sample) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || g.cb == nil {
		return false
	}
	g.cb(s)
	return true
}

func (g *gate) close() {
	g.mu.Lock()
	g.closed = true
	g.cb = nil
	g.mu.Unlock()
}
