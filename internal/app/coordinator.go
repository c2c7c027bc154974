// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/relabs-tech/attitude_stream/internal/config"
	"github.com/relabs-tech/attitude_stream/internal/orientation"
	"github.com/relabs-tech/attitude_stream/internal/sensors"
)

// DefaultPollInterval bounds how long a stop request can go unnoticed.
const DefaultPollInterval = 100 * time.Millisecond

// State is the coordinator lifecycle.
type State int32

// Coordinator states, in the only order they are entered.
const (
	StateIdle State = iota
	StateInitializing
	StateSampling
	StateTerminating
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateSampling:
		return "sampling"
	case StateTerminating:
		return "terminating"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// SensorInitError is returned by Run when the sensor could not be brought
// up. Nothing was sampled.
type SensorInitError struct {
	Err error
}

func (e *SensorInitError) Error() string {
	return "sensor initialization failed: " + e.Err.Error()
}

func (e *SensorInitError) Unwrap() error {
	return e.Err
}

// RunState is the running/stop-requested flag shared between the signal
// watcher and the poll loop. It starts running and only ever moves to
// stop-requested.
type RunState struct {
	stop atomic.Bool
}

// RequestStop asks the poll loop to exit. Safe from any goroutine.
func (r *RunState) RequestStop() {
	r.stop.Store(true)
}

// StopRequested reports whether a stop was requested.
func (r *RunState) StopRequested() bool {
	return r.stop.Load()
}

// Coordinator initializes the sensor service, routes its samples to the
// presenter and sinks, and tears everything down once a stop is requested.
type Coordinator struct {
	// Clock drives the poll loop sleep.
	Clock clock.Clock
	// PollInterval is the sleep between stop checks.
	PollInterval time.Duration
	// Signals replaces the process signal subscription when set.
	Signals <-chan os.Signal
	// Sinks receive every sample after the presenter.
	Sinks []Sink

	cfg       *config.Config
	sensor    sensors.Service
	presenter *Presenter
	logger    *zap.SugaredLogger

	run   RunState
	state atomic.Int32
}

// NewCoordinator returns an idle coordinator.
func NewCoordinator(cfg *config.Config, sensor sensors.Service, presenter *Presenter, logger *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		Clock:        clock.New(),
		PollInterval: DefaultPollInterval,
		cfg:          cfg,
		sensor:       sensor,
		presenter:    presenter,
		logger:       logger,
	}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// RequestStop is the only writer of the run state.
func (c *Coordinator) RequestStop() {
	c.run.RequestStop()
}

func (c *Coordinator) setState(s State) {
	c.state.Store(int32(s))
	c.logger.Debugw("coordinator state", "state", s.String())
}

// Run blocks until a stop is requested through a signal, RequestStop or
// ctx, then powers the sensor off, closes the sinks and finishes the
// output. It returns a *SensorInitError if the sensor failed to start.
func (c *Coordinator) Run(ctx context.Context) error {
	sigs, release := c.Signals, func() {}
	if sigs == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		release = func() { signal.Stop(ch) }
		defer release()
		sigs = ch
	}
	watchDone := make(chan struct{})
	defer close(watchDone)
	go c.watchSignals(sigs, release, watchDone)

	c.setState(StateInitializing)
	if err := c.sensor.Initialize(ctx, c.cfg); err != nil {
		c.setState(StateTerminating)
		if perr := c.sensor.PowerOff(); perr != nil {
			c.logger.Warnw("power off after failed init", "error", perr)
		}
		c.closeSinks()
		c.setState(StateStopped)
		return &SensorInitError{Err: err}
	}

	c.presenter.PrintHeader()
	c.sensor.RegisterCallback(c.onSample)
	c.setState(StateSampling)
	c.logger.Infow("sampling", "rate_hz", c.cfg.SampleRate, "orientation", c.cfg.Orientation.String(), "mag", c.cfg.EnableMag)

	for !c.run.StopRequested() {
		if ctx.Err() != nil {
			c.RequestStop()
			break
		}
		c.Clock.Sleep(c.PollInterval)
	}

	c.setState(StateTerminating)
	if err := c.sensor.PowerOff(); err != nil {
		c.logger.Warnw("sensor power off failed", "error", err)
	}
	c.closeSinks()
	if err := c.presenter.Finish(); err != nil {
		c.logger.Warnw("failed to flush output", "error", err)
	}
	c.setState(StateStopped)
	return nil
}

func (c *Coordinator) onSample(s orientation.Sample) {
	c.presenter.OnSample(s)
	for _, sink := range c.Sinks {
		sink.Offer(s)
	}
}

func (c *Coordinator) closeSinks() {
	var err error
	for _, sink := range c.Sinks {
		err = multierr.Append(err, sink.Close())
	}
	if err != nil {
		c.logger.Warnw("failed to close sinks", "error", err)
	}
}

// watchSignals turns the first signal into a stop request, then releases
// the subscription so a second interrupt kills a stuck teardown.
func (c *Coordinator) watchSignals(sigs <-chan os.Signal, release func(), done <-chan struct{}) {
	select {
	case sig := <-sigs:
		release()
		c.logger.Infow("stop requested", "signal", sig.String())
		c.RequestStop()
	case <-done:
	}
}
