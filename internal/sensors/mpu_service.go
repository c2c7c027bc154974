// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/attitude_stream/internal/config"
	"github.com/relabs-tech/attitude_stream/internal/orientation"
)

// Gyro full scale after reset is ±250°/s, 131 LSB per °/s.
const gyroRadPerLSB = (1.0 / 131.0) * math.Pi / 180

const edgeTimeout = 100 * time.Millisecond

// MPUService drives an MPU9250 on an I2C bus, paced by its data-ready
// interrupt pin when that pin is available.
type MPUService struct {
	logger *zap.SugaredLogger
	clk    clock.Clock

	gate gate

	mu     sync.Mutex
	bus    i2c.BusCloser
	regs   *i2c.Dev
	mag    *ak8963
	pin    gpio.PinIO
	ticker *tickPacer
	cancel context.CancelFunc
	done   chan struct{}

	powerOnce sync.Once
	powerErr  error
}

// NewMPUService returns an uninitialized hardware service.
func NewMPUService(clk clock.Clock, logger *zap.SugaredLogger) *MPUService {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &MPUService{clk: clk, logger: logger}
}

// Initialize opens the bus, brings the IMU up at the DMP rate and starts
// the delivery goroutine.
func (s *MPUService) Initialize(ctx context.Context, cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return errors.New("IMU already initialized")
	}

	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "periph host init")
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return errors.Wrapf(err, "I2C bus %q open", cfg.I2CBus)
	}
	src, err := s.initDevice(ctx, bus, cfg)
	if err != nil {
		return multierr.Combine(err, bus.Close())
	}
	s.bus = bus

	p := s.initPacer(cfg)

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	l := &loop{
		src:        src,
		pacer:      p,
		filter:     orientation.NewFilter(orientation.DefaultAlpha),
		mount:      cfg.Orientation,
		decimation: config.DMPRate / cfg.SampleRate,
		dt:         1.0 / config.DMPRate,
		gate:       &s.gate,
		logger:     s.logger,
	}
	go func() {
		defer close(s.done)
		l.run(loopCtx)
	}()

	s.logger.Infow("IMU started",
		"bus", cfg.I2CBus,
		"addr", cfg.IMUI2CAddr,
		"rate_hz", cfg.SampleRate,
		"orientation", cfg.Orientation.String(),
		"magnetometer", cfg.EnableMag,
	)
	return nil
}

func (s *MPUService) initDevice(ctx context.Context, bus i2c.Bus, cfg *config.Config) (rawSource, error) {
	tr, err := mpu9250.NewI2cTransport(bus, cfg.IMUI2CAddr)
	if err != nil {
		return nil, errors.Wrap(err, "IMU I2C transport")
	}
	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, errors.Wrap(err, "IMU device creation")
	}
	if err := dev.Init(); err != nil {
		return nil, errors.Wrap(err, "IMU initialization")
	}

	// Self-test and calibration failures are not fatal.
	if res, err := dev.SelfTest(); err != nil {
		s.logger.Warnw("IMU self-test failed", "error", err)
	} else {
		s.logger.Debugw("IMU self-test passed",
			"accel_dev_x", res.AccelDeviation.X, "accel_dev_y", res.AccelDeviation.Y, "accel_dev_z", res.AccelDeviation.Z,
			"gyro_dev_x", res.GyroDeviation.X, "gyro_dev_y", res.GyroDeviation.Y, "gyro_dev_z", res.GyroDeviation.Z,
		)
	}
	if err := dev.Calibrate(); err != nil {
		s.logger.Warnw("IMU calibration failed", "error", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.regs = &i2c.Dev{Bus: bus, Addr: cfg.IMUI2CAddr}
	pinCfg := byte(intAnyRdClear)
	if cfg.EnableMag {
		pinCfg |= intBypassEn
	}
	for _, w := range []struct{ reg, val byte }{
		{regConfig, dlpf41Hz},
		{regSmplrtDiv, mpuInternalHz/config.DMPRate - 1},
		{regIntPinCfg, pinCfg},
		{regIntEnable, intRawRdyEn},
	} {
		if err := writeReg(s.regs, w.reg, w.val); err != nil {
			return nil, errors.Wrapf(err, "IMU register 0x%02X", w.reg)
		}
	}

	src := &mpuReader{dev: dev}
	if cfg.EnableMag {
		mag, err := newAK8963(bus, nil)
		if err != nil {
			return nil, errors.Wrap(err, "magnetometer initialization")
		}
		s.mag = mag
		src.mag = mag
	}
	return src, nil
}

// initPacer prefers the data-ready pin and falls back to a ticker.
func (s *MPUService) initPacer(cfg *config.Config) pacer {
	name := cfg.InterruptPinName()
	pin := gpioreg.ByName(name)
	if pin == nil {
		s.logger.Warnw("interrupt pin not found, pacing with a timer", "pin", name)
	} else if err := pin.In(gpio.PullNoChange, gpio.RisingEdge); err != nil {
		s.logger.Warnw("interrupt pin unusable, pacing with a timer", "pin", name, "error", err)
	} else {
		s.pin = pin
		s.logger.Debugw("pacing from data-ready interrupt", "pin", name)
		return &edgePacer{pin: pin, timeout: edgeTimeout}
	}
	s.ticker = newTickPacer(s.clk, time.Second/config.DMPRate)
	return s.ticker
}

// RegisterCallback sets the data callback.
func (s *MPUService) RegisterCallback(cb Callback) {
	s.gate.set(cb)
}

// PowerOff quiesces the callback, stops the delivery goroutine, disables
// the interrupt and puts the IMU to sleep.
func (s *MPUService) PowerOff() error {
	s.powerOnce.Do(func() {
		s.gate.close()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.done == nil {
			return
		}
		s.cancel()
		if s.pin != nil {
			s.powerErr = multierr.Append(s.powerErr, s.pin.Halt())
		}
		<-s.done
		if s.ticker != nil {
			s.ticker.Stop()
		}

		if s.mag != nil {
			s.powerErr = multierr.Append(s.powerErr, s.mag.Close())
		}
		s.powerErr = multierr.Combine(
			s.powerErr,
			writeReg(s.regs, regIntEnable, 0),
			writeReg(s.regs, regPwrMgmt1, pwrSleep),
			s.bus.Close(),
		)
		s.logger.Info("IMU powered off")
	})
	return s.powerErr
}

// mpuReader reads one accel/gyro (and optionally mag) sample.
type mpuReader struct {
	dev *mpu9250.MPU9250
	mag *ak8963
}

func (r *mpuReader) Read() (rawReading, error) {
	ax, err := r.dev.GetAccelerationX()
	if err != nil {
		return rawReading{}, errors.Wrap(err, "accel X")
	}
	ay, err := r.dev.GetAccelerationY()
	if err != nil {
		return rawReading{}, errors.Wrap(err, "accel Y")
	}
	az, err := r.dev.GetAccelerationZ()
	if err != nil {
		return rawReading{}, errors.Wrap(err, "accel Z")
	}

	gx, err := r.dev.GetRotationX()
	if err != nil {
		return rawReading{}, errors.Wrap(err, "gyro X")
	}
	gy, err := r.dev.GetRotationY()
	if err != nil {
		return rawReading{}, errors.Wrap(err, "gyro Y")
	}
	gz, err := r.dev.GetRotationZ()
	if err != nil {
		return rawReading{}, errors.Wrap(err, "gyro Z")
	}

	out := rawReading{
		Accel: orientation.Vec3{X: float64(ax), Y: float64(ay), Z: float64(az)},
		Gyro: orientation.Vec3{
			X: float64(gx) * gyroRadPerLSB,
			Y: float64(gy) * gyroRadPerLSB,
			Z: float64(gz) * gyroRadPerLSB,
		},
	}
	if r.mag != nil {
		m, err := r.mag.Read()
		if err != nil {
			return rawReading{}, err
		}
		out.Mag = &m
	}
	return out, nil
}
