// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"time"

	"github.com/benbjohnson/clock"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/attitude_stream/internal/config"
	"github.com/relabs-tech/attitude_stream/internal/orientation"
)

const (
	mqttConnectTimeout = 5 * time.Second
	mqttPublishTimeout = 2 * time.Second
	mqttQuiesceMillis  = 250
)

// ConnectMQTT connects to cfg.MQTTBroker.
func ConnectMQTT(cfg *config.Config) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, errors.Errorf("timed out connecting to MQTT broker %s", cfg.MQTTBroker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "MQTT connect to %s", cfg.MQTTBroker)
	}
	return client, nil
}

// MQTTPublisher publishes every sample as a retained JSON message.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	clk    clock.Clock
	logger *zap.SugaredLogger
	q      *queue
}

// NewMQTTPublisher publishes to topic through an already connected client.
func NewMQTTPublisher(client mqtt.Client, topic string, clk clock.Clock, logger *zap.SugaredLogger) *MQTTPublisher {
	p := &MQTTPublisher{client: client, topic: topic, clk: clk, logger: logger}
	p.q = newQueue(sinkQueueSize, p.publish)
	return p
}

// Offer queues s for publishing.
func (p *MQTTPublisher) Offer(s orientation.Sample) {
	p.q.offer(s)
}

func (p *MQTTPublisher) publish(s orientation.Sample) {
	payload, err := json.Marshal(newPayload(s, p.clk.Now()))
	if err != nil {
		p.logger.Warnw("json marshal error", "error", err)
		return
	}
	token := p.client.Publish(p.topic, 0, true, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		p.logger.Warnw("MQTT publish timed out", "topic", p.topic)
		return
	}
	if err := token.Error(); err != nil {
		p.logger.Warnw("MQTT publish error", "topic", p.topic, "error", err)
	}
}

// Close stops publishing and disconnects.
func (p *MQTTPublisher) Close() error {
	p.q.close()
	if n := p.q.dropped.Load(); n > 0 {
		p.logger.Debugw("MQTT samples dropped", "count", n)
	}
	p.client.Disconnect(mqttQuiesceMillis)
	return nil
}
