// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/relabs-tech/attitude_stream/internal/orientation"
)

// Sink receives samples from the sensor callback. Offer must not block;
// Close is called once after the sensor is powered off.
type Sink interface {
	Offer(s orientation.Sample)
	Close() error
}

const sinkQueueSize = 16

// Payload is the JSON form of a sample sent to remote consumers.
type Payload struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
	Yaw   float64 `json:"yaw"`
	Time  string  `json:"time"`
}

func newPayload(s orientation.Sample, t time.Time) Payload {
	pitch, roll, yaw := s.Degrees()
	return Payload{Pitch: pitch, Roll: roll, Yaw: yaw, Time: t.Format(time.RFC3339Nano)}
}

// queue hands samples to a worker goroutine. Samples offered while the
// queue is full are dropped.
type queue struct {
	ch      chan orientation.Sample
	stop    chan struct{}
	done    chan struct{}
	dropped atomic.Int64
	once    sync.Once
}

func newQueue(size int, handle func(orientation.Sample)) *queue {
	q := &queue{
		ch:   make(chan orientation.Sample, size),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(q.done)
		for {
			select {
			case <-q.stop:
				return
			case s := <-q.ch:
				handle(s)
			}
		}
	}()
	return q
}

func (q *queue) offer(s orientation.Sample) {
	select {
	case q.ch <- s:
	default:
		q.dropped.Inc()
	}
}

// close stops the worker and waits for it.
func (q *queue) close() {
	q.once.Do(func() {
		close(q.stop)
	})
	<-q.done
}
