// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command attitude_stream prints pitch, roll and yaw from the IMU on a
// single terminal line until interrupted.
//
//	sudo ./attitude_stream -r 50 -o
package main

import (
	"os"

	"github.com/relabs-tech/attitude_stream/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:], app.Options{}))
}
