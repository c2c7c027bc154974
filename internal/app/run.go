// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/attitude_stream/internal/config"
	"github.com/relabs-tech/attitude_stream/internal/logging"
	"github.com/relabs-tech/attitude_stream/internal/orientation"
	"github.com/relabs-tech/attitude_stream/internal/sensors"
)

// Process exit codes. ExitFailure is -1, which the shell sees as 255.
const (
	ExitSuccess = 0
	ExitFailure = -1
)

// Options are the process surroundings of Run. Zero fields fall back to
// the real process and hardware.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Sensor overrides the service selected by the configuration.
	Sensor sensors.Service
	// Signals overrides the SIGINT/SIGTERM subscription.
	Signals <-chan os.Signal
	Clock   clock.Clock
	Logger  *zap.SugaredLogger
}

func (o *Options) setDefaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
}

// Run is the whole program: it builds the configuration from args, streams
// samples until interrupted and returns the process exit code.
func Run(args []string, opts Options) int {
	opts.setDefaults()

	cfg, err := config.Build(args, opts.Stdin, opts.Stdout)
	if err != nil {
		if errors.Is(err, orientation.ErrQuit) {
			return ExitSuccess
		}
		var usageErr *config.UsageError
		if !errors.As(err, &usageErr) {
			fmt.Fprintf(opts.Stderr, "error: %v\n", err)
		}
		return ExitFailure
	}

	logger := opts.Logger
	if logger == nil {
		if logger, err = logging.New("attitude_stream", cfg.LogLevel); err != nil {
			fmt.Fprintf(opts.Stderr, "error: %v\n", err)
			return ExitFailure
		}
		defer logger.Sync()
	}

	sensor := opts.Sensor
	if sensor == nil {
		sensor = newSensor(cfg, opts.Clock, logger)
	}

	c := NewCoordinator(cfg, sensor, NewPresenter(opts.Stdout), logger)
	c.Clock = opts.Clock
	c.Signals = opts.Signals
	c.Sinks = openSinks(cfg, opts.Clock, logger)

	if err := c.Run(context.Background()); err != nil {
		logger.Errorw("stopping", "error", err)
		fmt.Fprintln(opts.Stdout, "sensor initialize failed")
		return ExitFailure
	}
	return ExitSuccess
}

func newSensor(cfg *config.Config, clk clock.Clock, logger *zap.SugaredLogger) sensors.Service {
	if cfg.Sensor == config.SensorMock {
		return sensors.NewMockService(nil, clk, logger.Named("mock"))
	}
	return sensors.NewMPUService(clk, logger.Named("mpu"))
}

// openSinks starts the sinks enabled in cfg. A sink that cannot start is
// logged and skipped; sampling goes on without it.
func openSinks(cfg *config.Config, clk clock.Clock, logger *zap.SugaredLogger) []Sink {
	var sinks []Sink

	if cfg.MQTTBroker != "" {
		client, err := ConnectMQTT(cfg)
		if err != nil {
			logger.Warnw("MQTT publishing disabled", "error", err)
		} else {
			logger.Infow("publishing to MQTT", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic)
			sinks = append(sinks, NewMQTTPublisher(client, cfg.MQTTTopic, clk, logger.Named("mqtt")))
		}
	}

	if cfg.WebServerPort != 0 {
		feed := NewWebFeed(clk, logger.Named("web"))
		if err := feed.ListenAndServe(fmt.Sprintf(":%d", cfg.WebServerPort)); err != nil {
			logger.Warnw("web feed disabled", "error", err)
			feed.Close()
		} else {
			sinks = append(sinks, feed)
		}
	}

	if cfg.DisplayI2CAddr != 0 {
		d, err := OpenDisplay(cfg, clk, logger.Named("display"))
		if err != nil {
			logger.Warnw("display disabled", "error", err)
		} else {
			sinks = append(sinks, d)
		}
	}

	return sinks
}
