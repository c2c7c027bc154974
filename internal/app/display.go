// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/attitude_stream/internal/config"
	"github.com/relabs-tech/attitude_stream/internal/orientation"
)

const (
	displayWidth  = 128
	displayHeight = 64
)

// addrBus sends every transaction to addr, so the ssd1306 driver reaches
// panels strapped to a non-default address.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b *addrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

// Display mirrors the latest sample on an SSD1306 OLED, redrawn at a
// fixed interval rather than per sample.
type Display struct {
	dev      *ssd1306.Dev
	bus      i2c.BusCloser
	interval time.Duration
	clk      clock.Clock
	logger   *zap.SugaredLogger

	mu   sync.Mutex
	last orientation.Sample
	have bool

	started bool
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// OpenDisplay opens the display bus from cfg and starts redrawing.
func OpenDisplay(cfg *config.Config, clk clock.Clock, logger *zap.SugaredLogger) (*Display, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize periph")
	}
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open display I2C bus %q", cfg.DisplayI2CBus)
	}
	interval := time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond
	d, err := newDisplay(&addrBus{Bus: bus, addr: cfg.DisplayI2CAddr}, interval, clk, logger)
	if err != nil {
		return nil, multierr.Append(err, bus.Close())
	}
	d.bus = bus
	logger.Infow("display initialized", "bus", cfg.DisplayI2CBus, "addr", fmt.Sprintf("0x%02X", cfg.DisplayI2CAddr))
	d.start()
	return d, nil
}

func newDisplay(bus i2c.Bus, interval time.Duration, clk clock.Clock, logger *zap.SugaredLogger) (*Display, error) {
	opts := ssd1306.DefaultOpts
	opts.W, opts.H = displayWidth, displayHeight
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize display")
	}
	return &Display{
		dev:      dev,
		interval: interval,
		clk:      clk,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

func (d *Display) start() {
	d.started = true
	ticker := d.clk.Ticker(d.interval)
	go func() {
		defer close(d.done)
		defer ticker.Stop()
		for {
			select {
			case <-d.stop:
				return
			case <-ticker.C:
			}
			if err := d.refresh(); err != nil {
				d.logger.Debugw("display update error", "error", err)
			}
		}
	}()
}

// Offer records s as the sample to show on the next redraw.
func (d *Display) Offer(s orientation.Sample) {
	d.mu.Lock()
	d.last, d.have = s, true
	d.mu.Unlock()
}

func (d *Display) refresh() error {
	d.mu.Lock()
	s, have := d.last, d.have
	d.mu.Unlock()
	return d.dev.Draw(d.dev.Bounds(), renderAttitude(s, have), image.Point{})
}

// Close stops redrawing, blanks the panel and releases the bus.
func (d *Display) Close() error {
	d.once.Do(func() {
		close(d.stop)
	})
	if d.started {
		<-d.done
	}
	err := d.dev.Halt()
	if d.bus != nil {
		err = multierr.Append(err, d.bus.Close())
	}
	return err
}

// renderAttitude draws pitch, roll and yaw in degrees, or a waiting screen.
func renderAttitude(s orientation.Sample, have bool) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !have {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawString("Attitude")
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawString("Waiting...")
		return img
	}

	pitch, roll, yaw := s.Degrees()
	drawer.Dot = fixed.P(0, 13)
	drawer.DrawString(fmt.Sprintf("P: %6.1f", pitch))
	drawer.Dot = fixed.P(0, 26)
	drawer.DrawString(fmt.Sprintf("R: %6.1f", roll))
	drawer.Dot = fixed.P(0, 39)
	drawer.DrawString(fmt.Sprintf("Y: %6.1f", yaw))
	return img
}
