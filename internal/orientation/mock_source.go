// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"io"
	"math"
	"time"
)

// Source is anything that can provide attitude samples over time.
// Next returns io.EOF once a finite source is exhausted.
type Source interface {
	Next() (Sample, error)
}

type syntheticSource struct {
	start time.Time
	now   func() time.Time
}

// NewSyntheticSource creates a source that generates smoothly changing
// angles, for running without hardware.
func NewSyntheticSource(now func() time.Time) Source {
	if now == nil {
		now = time.Now
	}
	return &syntheticSource{start: now(), now: now}
}

func (m *syntheticSource) Next() (Sample, error) {
	elapsed := m.now().Sub(m.start).Seconds()

	return Sample{
		Pitch: 15 * math.Cos(elapsed*0.7) / RadToDeg,
		Roll:  20 * math.Sin(elapsed) / RadToDeg,
		Yaw:   wrapPi(elapsed * 30 / RadToDeg),
	}, nil
}

type scriptedSource struct {
	samples []Sample
	next    int
}

// NewScriptedSource returns the given samples in order, then io.EOF.
func NewScriptedSource(samples ...Sample) Source {
	return &scriptedSource{samples: samples}
}

func (s *scriptedSource) Next() (Sample, error) {
	if s.next >= len(s.samples) {
		return Sample{}, io.EOF
	}
	out := s.samples[s.next]
	s.next++
	return out, nil
}
