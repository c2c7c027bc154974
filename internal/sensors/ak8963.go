// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/attitude_stream/internal/orientation"
)

// ak8963 reads the MPU9250's on-package magnetometer through I2C bypass.
type ak8963 struct {
	dev   *i2c.Dev
	adj   [3]float64
	sleep func(time.Duration)
	last  orientation.Vec3
}

// newAK8963 identifies the magnetometer, loads its sensitivity adjustment
// and starts continuous measurement. Bypass must already be enabled.
func newAK8963(bus i2c.Bus, sleep func(time.Duration)) (*ak8963, error) {
	if sleep == nil {
		sleep = time.Sleep
	}
	m := &ak8963{dev: &i2c.Dev{Bus: bus, Addr: akAddr}, sleep: sleep}

	id := make([]byte, 1)
	if err := readRegs(m.dev, akWIA, id); err != nil {
		return nil, errors.Wrap(err, "magnetometer WHO_AM_I")
	}
	if id[0] != akDeviceID {
		return nil, errors.Errorf("unexpected magnetometer id 0x%02X, want 0x%02X", id[0], akDeviceID)
	}

	if err := m.setMode(akModePowerDown); err != nil {
		return nil, err
	}
	if err := m.setMode(akModeFuseROM); err != nil {
		return nil, err
	}
	asa := make([]byte, 3)
	if err := readRegs(m.dev, akASAX, asa); err != nil {
		return nil, errors.Wrap(err, "magnetometer sensitivity adjustment")
	}
	for i, v := range asa {
		m.adj[i] = (float64(v)-128)/256 + 1
	}
	if err := m.setMode(akModePowerDown); err != nil {
		return nil, err
	}
	if err := m.setMode(akModeContinuous); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ak8963) setMode(mode byte) error {
	if err := writeReg(m.dev, akCNTL1, mode); err != nil {
		return errors.Wrapf(err, "magnetometer mode 0x%02X", mode)
	}
	m.sleep(10 * time.Millisecond)
	return nil
}

// Read returns the field in µT, aligned with the accelerometer axes. The
// previous value is repeated when no new data is ready or on overflow.
func (m *ak8963) Read() (orientation.Vec3, error) {
	// ST1, HXL..HZH, ST2; reading ST2 releases the data registers.
	buf := make([]byte, 8)
	if err := readRegs(m.dev, akST1, buf); err != nil {
		return m.last, errors.Wrap(err, "magnetometer read")
	}
	if buf[0]&akST1DataReady == 0 || buf[7]&akST2Overflow != 0 {
		return m.last, nil
	}

	raw := [3]float64{
		float64(int16(uint16(buf[2])<<8 | uint16(buf[1]))),
		float64(int16(uint16(buf[4])<<8 | uint16(buf[3]))),
		float64(int16(uint16(buf[6])<<8 | uint16(buf[5]))),
	}
	var ut [3]float64
	for i := range raw {
		ut[i] = raw[i] * m.adj[i] * akMicroTesla
	}
	// The magnetometer's X and Y are swapped and Z inverted relative to the
	// accelerometer frame.
	m.last = orientation.Vec3{X: ut[1], Y: ut[0], Z: -ut[2]}
	return m.last, nil
}

// Close powers the magnetometer down.
func (m *ak8963) Close() error {
	return writeReg(m.dev, akCNTL1, akModePowerDown)
}
