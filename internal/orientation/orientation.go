// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"math"
)

// RadToDeg converts radians to degrees.
const RadToDeg = 180.0 / math.Pi

// Orientation is the physical mounting direction of the IMU board.
type Orientation int

// Mounting orientations, numbered as in the selection menu.
const (
	ZUp Orientation = iota + 1
	ZDown
	XUp
	XDown
	YUp
	YDown
	XForward
	XBack
)

// All lists every orientation in menu order.
var All = []Orientation{ZUp, ZDown, XUp, XDown, YUp, YDown, XForward, XBack}

var names = map[Orientation]string{
	ZUp:      "ORIENTATION_Z_UP",
	ZDown:    "ORIENTATION_Z_DOWN",
	XUp:      "ORIENTATION_X_UP",
	XDown:    "ORIENTATION_X_DOWN",
	YUp:      "ORIENTATION_Y_UP",
	YDown:    "ORIENTATION_Y_DOWN",
	XForward: "ORIENTATION_X_FORWARD",
	XBack:    "ORIENTATION_X_BACK",
}

func (o Orientation) String() string {
	if n, ok := names[o]; ok {
		return n
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// Valid reports whether o is one of the eight mounting orientations.
func (o Orientation) Valid() bool {
	_, ok := names[o]
	return ok
}

// Sample is one fused attitude estimate. Angles are in radians.
type Sample struct {
	Pitch float64
	Roll  float64
	Yaw   float64
}

// Degrees returns pitch, roll and yaw converted to degrees.
func (s Sample) Degrees() (pitch, roll, yaw float64) {
	return s.Pitch * RadToDeg, s.Roll * RadToDeg, s.Yaw * RadToDeg
}
