// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

// mountings holds, for each orientation, the rotation taking sensor-frame
// vectors to the body frame (row major). All are proper rotations.
var mountings = map[Orientation][3][3]float64{
	ZUp:      {{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	ZDown:    {{1, 0, 0}, {0, -1, 0}, {0, 0, -1}},
	XUp:      {{0, 0, -1}, {0, 1, 0}, {1, 0, 0}},
	XDown:    {{0, 0, 1}, {0, 1, 0}, {-1, 0, 0}},
	YUp:      {{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	YDown:    {{1, 0, 0}, {0, 0, 1}, {0, -1, 0}},
	XForward: {{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	XBack:    {{0, 1, 0}, {-1, 0, 0}, {0, 0, 1}},
}

// Remap rotates a sensor-frame vector into the body frame for mounting o.
// Unknown orientations are treated as ZUp.
func Remap(o Orientation, v Vec3) Vec3 {
	m, ok := mountings[o]
	if !ok {
		return v
	}
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}
