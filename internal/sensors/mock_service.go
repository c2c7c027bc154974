// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/relabs-tech/attitude_stream/internal/config"
	"github.com/relabs-tech/attitude_stream/internal/orientation"
)

// MockService is a Service fed by an orientation.Source instead of
// hardware. The source is not read until a callback is registered, so a
// scripted sequence is delivered whole. A finite source stops producing
// once exhausted; the service then idles until PowerOff.
type MockService struct {
	// InitErr, when set, is returned by Initialize.
	InitErr error

	src    orientation.Source
	clk    clock.Clock
	logger *zap.SugaredLogger

	gate      gate
	delivered atomic.Int64
	rejected  atomic.Int64
	inits     atomic.Int64

	mu        sync.Mutex
	started   bool
	stop      chan struct{}
	done      chan struct{}
	exhausted chan struct{}
	powerOnce sync.Once
}

// NewMockService returns a mock service reading from src. A nil src
// produces synthetic smooth motion.
func NewMockService(src orientation.Source, clk clock.Clock, logger *zap.SugaredLogger) *MockService {
	if clk == nil {
		clk = clock.New()
	}
	if src == nil {
		src = orientation.NewSyntheticSource(clk.Now)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &MockService{
		src:       src,
		clk:       clk,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		exhausted: make(chan struct{}),
	}
}

// Initialize starts delivering one sample per 1/SampleRate seconds.
func (m *MockService) Initialize(ctx context.Context, cfg *config.Config) error {
	m.inits.Inc()
	if m.InitErr != nil {
		return m.InitErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if cfg.SampleRate <= 0 {
		return errors.Errorf("invalid sample rate %d", cfg.SampleRate)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return errors.New("mock sensor already initialized")
	}
	m.started = true

	interval := time.Second / time.Duration(cfg.SampleRate)
	m.logger.Infow("mock sensor started", "rate_hz", cfg.SampleRate, "orientation", cfg.Orientation.String())
	go m.run(m.clk.Ticker(interval))
	return nil
}

func (m *MockService) run(ticker *clock.Ticker) {
	defer close(m.done)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
		}
		if !m.gate.armed() {
			continue
		}

		s, err := m.src.Next()
		if err == io.EOF {
			m.logger.Debug("mock sensor source exhausted")
			close(m.exhausted)
			<-m.stop
			return
		}
		if err != nil {
			m.logger.Warnw("mock sensor source error", "error", err)
			continue
		}
		m.Deliver(s)
	}
}

// RegisterCallback sets the data callback.
func (m *MockService) RegisterCallback(cb Callback) {
	m.gate.set(cb)
}

// Deliver pushes a sample through the callback gate as the delivery
// goroutine does. It reports false, without invoking anything, when no
// callback is registered or the service was powered off.
func (m *MockService) Deliver(s orientation.Sample) bool {
	if m.gate.deliver(s) {
		m.delivered.Inc()
		return true
	}
	m.rejected.Inc()
	return false
}

// PowerOff closes the callback gate and stops the delivery goroutine.
func (m *MockService) PowerOff() error {
	m.powerOnce.Do(func() {
		m.gate.close()
		close(m.stop)

		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if started {
			<-m.done
		}
		m.logger.Info("mock sensor powered off")
	})
	return nil
}

// Exhausted is closed once a finite source has no more samples.
func (m *MockService) Exhausted() <-chan struct{} {
	return m.exhausted
}

// Delivered counts callback invocations.
func (m *MockService) Delivered() int64 {
	return m.delivered.Load()
}

// Rejected counts samples dropped by the gate.
func (m *MockService) Rejected() int64 {
	return m.rejected.Load()
}

// Initializations counts Initialize calls, failed ones included.
func (m *MockService) Initializations() int64 {
	return m.inits.Load()
}
