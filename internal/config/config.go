// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/relabs-tech/attitude_stream/internal/orientation"
)

// Bus and interrupt pin of the Robotics Cape / BeagleBone Blue IMU.
// Change these for your platform, or override them in the config file.
const (
	DefaultI2CBus      = "2"
	DefaultIMUI2CAddr  = 0x68
	DefaultGPIOIntChip = 3
	DefaultGPIOIntPin  = 21
)

// Sensor backends.
const (
	SensorMPU  = "mpu"
	SensorMock = "mock"
)

// Config holds all application configuration values. It is built once
// before sampling starts and never modified afterwards.
type Config struct {
	// Sampling
	SampleRate      int // Hz, divisor of 200
	EnableMag       bool
	OrientationMenu bool
	Orientation     orientation.Orientation

	// IMU Hardware
	Sensor      string // "mpu" or "mock"
	I2CBus      string
	IMUI2CAddr  uint16
	GPIOIntChip int
	GPIOIntPin  int

	// Logging
	LogLevel string

	// MQTT (disabled when MQTTBroker is empty)
	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string

	// Web Server (disabled when 0)
	WebServerPort int

	// Display (disabled when DisplayI2CAddr is 0)
	DisplayI2CBus         string
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Orientation:           orientation.ZUp,
		Sensor:                SensorMPU,
		I2CBus:                DefaultI2CBus,
		IMUI2CAddr:            DefaultIMUI2CAddr,
		GPIOIntChip:           DefaultGPIOIntChip,
		GPIOIntPin:            DefaultGPIOIntPin,
		LogLevel:              "info",
		MQTTClientID:          "attitude-stream",
		MQTTTopic:             "inertial/attitude",
		DisplayUpdateInterval: 200,
	}
}

// InterruptPinName is the periph GPIO name of the data-ready pin.
func (c *Config) InterruptPinName() string {
	return fmt.Sprintf("GPIO%d", c.GPIOIntChip*32+c.GPIOIntPin)
}

// Load reads the configuration file on top of the defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, errors.Wrapf(err, "config line %d", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// IMU Hardware
	case "SENSOR":
		c.Sensor = strings.ToLower(value)
	case "I2C_BUS":
		c.I2CBus = value
	case "IMU_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return errors.Wrapf(err, "invalid IMU_I2C_ADDR %q", value)
		}
		c.IMUI2CAddr = uint16(addr)
	case "GPIO_INT_CHIP":
		chip, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "invalid GPIO_INT_CHIP %q", value)
		}
		c.GPIOIntChip = chip
	case "GPIO_INT_PIN":
		pin, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "invalid GPIO_INT_PIN %q", value)
		}
		if pin < 0 || pin > 31 {
			return errors.Errorf("GPIO_INT_PIN must be 0-31, got %d", pin)
		}
		c.GPIOIntPin = pin

	// Logging
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_TOPIC":
		c.MQTTTopic = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "invalid WEB_SERVER_PORT %q", value)
		}
		if port < 0 || port > 65535 {
			return errors.Errorf("WEB_SERVER_PORT must be 0-65535, got %d", port)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return errors.Wrapf(err, "invalid DISPLAY_I2C_ADDR %q", value)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "invalid DISPLAY_UPDATE_INTERVAL %q", value)
		}
		c.DisplayUpdateInterval = interval

	default:
		return errors.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks the file-provided fields.
func (c *Config) validate() error {
	switch c.Sensor {
	case SensorMPU, SensorMock:
	default:
		return errors.Errorf("SENSOR must be %q or %q, got %q", SensorMPU, SensorMock, c.Sensor)
	}
	if c.Sensor == SensorMPU && c.I2CBus == "" {
		return errors.New("I2C_BUS is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.MQTTBroker != "" && c.MQTTTopic == "" {
		return errors.New("MQTT_TOPIC is required when MQTT_BROKER is set")
	}
	if c.DisplayI2CAddr != 0 && c.DisplayUpdateInterval <= 0 {
		return errors.New("DISPLAY_UPDATE_INTERVAL must be positive when DISPLAY_I2C_ADDR is set")
	}
	return nil
}
