// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// Vec3 is a three-axis reading in the sensor or body frame.
type Vec3 struct {
	X, Y, Z float64
}

// DefaultAlpha weights the gyro path of the complementary filter.
const DefaultAlpha = 0.98

// TiltFromAccel computes pitch (about X) and roll (about Y) in radians from
// an accelerometer reading in any unit. Only the ratios matter.
//
//	pitch = atan2(ay, az)
//	roll  = atan2(-ax, sqrt(ay² + az²))
func TiltFromAccel(a Vec3) (pitch, roll float64) {
	pitch = math.Atan2(a.Y, a.Z)
	roll = math.Atan2(-a.X, math.Sqrt(a.Y*a.Y+a.Z*a.Z))
	return pitch, roll
}

// HeadingFromMag returns the tilt compensated magnetic heading in radians.
func HeadingFromMag(m Vec3, pitch, roll float64) float64 {
	sp, cp := math.Sincos(pitch)
	sr, cr := math.Sincos(roll)
	xh := m.X*cr + m.Y*sp*sr + m.Z*cp*sr
	yh := m.Y*cp - m.Z*sp
	return math.Atan2(-yh, xh)
}

// Filter is a complementary filter blending integrated gyro rates with the
// accelerometer tilt and, when available, magnetometer heading.
// It is not safe for concurrent use.
type Filter struct {
	Alpha float64

	ready bool
	state Sample
}

// NewFilter returns a filter with the given gyro weight in (0, 1).
func NewFilter(alpha float64) *Filter {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	return &Filter{Alpha: alpha}
}

// Update advances the estimate by dt seconds. accel may be in any unit,
// gyro is in rad/s, mag may be nil when no magnetometer is in use.
func (f *Filter) Update(accel, gyro Vec3, mag *Vec3, dt float64) Sample {
	pitchAcc, rollAcc := TiltFromAccel(accel)

	if !f.ready {
		f.state.Pitch = pitchAcc
		f.state.Roll = rollAcc
		if mag != nil {
			f.state.Yaw = HeadingFromMag(*mag, pitchAcc, rollAcc)
		}
		f.ready = true
		return f.state
	}

	a := f.Alpha
	f.state.Pitch = blendAngle(f.state.Pitch+gyro.X*dt, pitchAcc, a)
	f.state.Roll = blendAngle(f.state.Roll+gyro.Y*dt, rollAcc, a)

	yaw := f.state.Yaw + gyro.Z*dt
	if mag != nil {
		yaw = blendAngle(yaw, HeadingFromMag(*mag, f.state.Pitch, f.state.Roll), a)
	}
	f.state.Yaw = wrapPi(yaw)

	return f.state
}

// Reset drops the current estimate so the next Update re-seeds it.
func (f *Filter) Reset() {
	f.ready = false
	f.state = Sample{}
}

// blendAngle mixes two angles, taking the short way around ±π.
func blendAngle(gyroPath, reference, alpha float64) float64 {
	diff := wrapPi(reference - gyroPath)
	return wrapPi(gyroPath + (1-alpha)*diff)
}

func wrapPi(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
