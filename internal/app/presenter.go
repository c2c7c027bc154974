// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"fmt"
	"io"

	"github.com/relabs-tech/attitude_stream/internal/orientation"
)

// Presenter prints a header once and then rewrites a single terminal line
// per sample. OnSample is called from the sensor goroutine; the sensor
// service serializes calls, so the only shared state is the writer.
type Presenter struct {
	w *bufio.Writer
}

// NewPresenter writes to w, flushing after every call.
func NewPresenter(w io.Writer) *Presenter {
	return &Presenter{w: bufio.NewWriterSize(w, 128)}
}

// PrintHeader describes the columns that follow.
func (p *Presenter) PrintHeader() {
	p.w.WriteString(" ")
	p.w.WriteString(" DMP TaitBryan (deg) |")
	p.w.WriteString("\n")
	p.w.Flush()
}

// OnSample overwrites the current line with pitch, roll and yaw in degrees.
func (p *Presenter) OnSample(s orientation.Sample) {
	pitch, roll, yaw := s.Degrees()
	p.w.WriteString("\r ")
	fmt.Fprintf(p.w, "%6.1f %6.1f %6.1f |", pitch, roll, yaw)
	p.w.Flush()
}

// Finish ends the overwritten line.
func (p *Presenter) Finish() error {
	p.w.WriteString("\n")
	return p.w.Flush()
}
