// Copyright 2025 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package power

import (
	"context"
	"sync"
	"time"

	mqttapi "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/labnet/LabClient/model"
)

// TasmotaConfig holds the configuration of a Tasmota power driver.
type TasmotaConfig struct {
	// Broker is the MQTT broker address ("host:port").
	Broker string
	// Topic is the device topic of the Tasmota plug.
	Topic string
	// OnPayload is the payload that switches power on (default "ON").
	OnPayload string
	// OffPayload is the payload that switches power off (default "OFF").
	OffPayload string
	// CycleDelay is the time between off and on during a power cycle.
	CycleDelay time.Duration
}

const (
	tasmotaPublishTimeout = time.Millisecond * 200
	tasmotaStateTimeout   = time.Second * 2
)

// tasmota switches a Tasmota smart plug by publishing on its MQTT
// command topic. How the plug switches its relay is the plug's business.
type tasmota struct {
	config TasmotaConfig
	log    zerolog.Logger

	mutex  sync.Mutex
	client mqttapi.Client
}

// NewTasmota creates a power driver for a Tasmota smart plug reachable
// through the given MQTT broker.
func NewTasmota(config TasmotaConfig, log zerolog.Logger) (Protocol, error) {
	if config.Broker == "" {
		return nil, maskAny(errors.Wrap(model.ValidationError, "broker missing"))
	}
	if config.Topic == "" {
		return nil, maskAny(errors.Wrap(model.ValidationError, "topic missing"))
	}
	return &tasmota{
		config: config,
		log:    log.With().Str("component", "power-tasmota").Logger(),
	}, nil
}

// On switches power on.
func (d *tasmota) On(ctx context.Context) error {
	operationsTotal.WithLabelValues("tasmota", "on").Inc()
	if err := d.command(d.onPayload()); err != nil {
		operationErrorsTotal.WithLabelValues("tasmota", "on").Inc()
		return maskAny(err)
	}
	return nil
}

// Off switches power off.
func (d *tasmota) Off(ctx context.Context) error {
	operationsTotal.WithLabelValues("tasmota", "off").Inc()
	if err := d.command(d.offPayload()); err != nil {
		operationErrorsTotal.WithLabelValues("tasmota", "off").Inc()
		return maskAny(err)
	}
	return nil
}

// Cycle switches power off, waits and switches power back on.
func (d *tasmota) Cycle(ctx context.Context) error {
	return maskAny(cycleByToggle(ctx, d, d.config.CycleDelay))
}

// Get returns the current power state as reported by the device.
func (d *tasmota) Get(ctx context.Context) (bool, error) {
	operationsTotal.WithLabelValues("tasmota", "get").Inc()
	client, err := d.ensureConnected()
	if err != nil {
		operationErrorsTotal.WithLabelValues("tasmota", "get").Inc()
		return false, maskAny(err)
	}

	states := make(chan string, 1)
	stateTopic := d.stateTopic()
	token := client.Subscribe(stateTopic, 0, func(c mqttapi.Client, m mqttapi.Message) {
		select {
		case states <- string(m.Payload()):
		default:
			// A state is already pending
		}
	})
	if token.Wait() && token.Error() != nil {
		operationErrorsTotal.WithLabelValues("tasmota", "get").Inc()
		return false, maskAny(errors.Wrapf(token.Error(), "failed to subscribe to '%s'", stateTopic))
	}
	defer client.Unsubscribe(stateTopic)

	// An empty payload asks the device to report its current state.
	if err := d.publish(client, ""); err != nil {
		operationErrorsTotal.WithLabelValues("tasmota", "get").Inc()
		return false, maskAny(err)
	}
	select {
	case payload := <-states:
		on, err := parseBool(payload)
		if err != nil {
			return false, maskAny(errors.Wrap(UnknownStateError, err.Error()))
		}
		return on, nil
	case <-time.After(tasmotaStateTimeout):
		operationErrorsTotal.WithLabelValues("tasmota", "get").Inc()
		return false, maskAny(errors.Wrap(UnknownStateError, "device did not report its state"))
	case <-ctx.Done():
		return false, maskAny(ctx.Err())
	}
}

// Capability returns the capability name of this driver.
func (d *tasmota) Capability() string {
	return Capability
}

// Close disconnects from the MQTT broker.
func (d *tasmota) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.client != nil {
		d.client.Disconnect(250)
		d.client = nil
	}
	return nil
}

// command connects when needed and publishes the given payload on the
// command topic.
func (d *tasmota) command(payload string) error {
	client, err := d.ensureConnected()
	if err != nil {
		return maskAny(err)
	}
	if err := d.publish(client, payload); err != nil {
		return maskAny(err)
	}
	return nil
}

// ensureConnected connects to the MQTT broker on first use.
func (d *tasmota) ensureConnected() (mqttapi.Client, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.client != nil {
		return d.client, nil
	}
	opts := mqttapi.NewClientOptions().
		AddBroker("tcp://" + d.config.Broker).
		SetClientID("labnet-" + uuid.NewString())
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetOrderMatters(false)
	opts.SetDefaultPublishHandler(func(c mqttapi.Client, m mqttapi.Message) {
		// Ignore messages when no subscription match
	})
	client := mqttapi.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, maskAny(errors.Wrap(token.Error(), "failed to connect to mqtt"))
	}
	d.client = client
	return client, nil
}

// publish sends the given payload on the command topic.
func (d *tasmota) publish(client mqttapi.Client, payload string) error {
	topic := d.commandTopic()
	d.log.Debug().Str("topic", topic).Str("payload", payload).Msg("Publishing power command")
	token := client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(tasmotaPublishTimeout) {
		return maskAny(errors.Errorf("failed to deliver MQTT command on '%s' in time", topic))
	}
	if err := token.Error(); err != nil {
		return maskAny(err)
	}
	return nil
}

func (d *tasmota) onPayload() string {
	if p := d.config.OnPayload; p != "" {
		return p
	}
	return formatBool(true)
}

func (d *tasmota) offPayload() string {
	if p := d.config.OffPayload; p != "" {
		return p
	}
	return formatBool(false)
}

func (d *tasmota) commandTopic() string {
	return "cmnd/" + d.config.Topic + "/POWER"
}

func (d *tasmota) stateTopic() string {
	return "stat/" + d.config.Topic + "/POWER"
}
