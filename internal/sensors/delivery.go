// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"

	"github.com/relabs-tech/attitude_stream/internal/orientation"
)

// rawReading is one sensor-frame reading. Accel is in any unit, Gyro in
// rad/s, Mag in µT or nil when the magnetometer is off.
type rawReading struct {
	Accel orientation.Vec3
	Gyro  orientation.Vec3
	Mag   *orientation.Vec3
}

type rawSource interface {
	Read() (rawReading, error)
}

// pacer blocks until the next internal sample is due.
type pacer interface {
	Wait(ctx context.Context) error
}

type tickPacer struct {
	ticker *clock.Ticker
}

func newTickPacer(clk clock.Clock, period time.Duration) *tickPacer {
	return &tickPacer{ticker: clk.Ticker(period)}
}

func (p *tickPacer) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ticker.C:
		return nil
	}
}

func (p *tickPacer) Stop() {
	p.ticker.Stop()
}

// edgePacer waits on the IMU data-ready interrupt pin. The pin must
// already be configured for rising edges.
type edgePacer struct {
	pin     gpio.PinIn
	timeout time.Duration
}

func (p *edgePacer) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.pin.WaitForEdge(p.timeout) {
			return nil
		}
	}
}

// loop reads, remaps and fuses every internal sample and hands every
// decimation-th estimate to the gate until ctx is done.
type loop struct {
	src        rawSource
	pacer      pacer
	filter     *orientation.Filter
	mount      orientation.Orientation
	decimation int
	dt         float64
	gate       *gate
	logger     *zap.SugaredLogger
}

func (l *loop) run(ctx context.Context) {
	step := 0
	readErrors := 0
	for {
		if err := l.pacer.Wait(ctx); err != nil {
			return
		}

		r, err := l.src.Read()
		if err != nil {
			readErrors++
			// first failure and then once per second of failures at 200 Hz
			if readErrors%200 == 1 {
				l.logger.Warnw("sensor read failed", "error", err, "count", readErrors)
			}
			continue
		}

		accel := orientation.Remap(l.mount, r.Accel)
		gyro := orientation.Remap(l.mount, r.Gyro)
		var mag *orientation.Vec3
		if r.Mag != nil {
			m := orientation.Remap(l.mount, *r.Mag)
			mag = &m
		}
		s := l.filter.Update(accel, gyro, mag, l.dt)

		step++
		if step%l.decimation == 0 {
			l.gate.deliver(s)
		}
	}
}
