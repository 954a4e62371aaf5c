// Package telemetry publishes the externally visible flight state to
// ground-station consumers. It is an observer: nothing here feeds back
// into the control loop except the operator arm/disarm command.
package telemetry

import (
	"context"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"quadfc/internal/bus"
	"quadfc/internal/control"
	"quadfc/internal/motor"
	"quadfc/internal/safety"
)

type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
}

// MQTT mirrors motor-state transitions and actuation samples onto MQTT
// topics and accepts arm/disarm commands from the command topic.
type MQTT struct {
	cfg MQTTConfig

	monitor   *safety.Monitor
	state     *bus.Subscriber[motor.State]
	actuation *bus.Subscriber[control.Vec3]
}

func NewMQTT(cfg MQTTConfig, state *bus.Mailbox[motor.State], actuation *bus.Mailbox[control.Vec3], monitor *safety.Monitor) *MQTT {
	if cfg.ClientID == "" {
		cfg.ClientID = "quadfc"
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "quadfc"
	}
	return &MQTT{
		cfg:       cfg,
		monitor:   monitor,
		state:     state.Subscribe(),
		actuation: actuation.Subscribe(),
	}
}

func (t *MQTT) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(t.cfg.Broker).
		SetClientID(t.cfg.ClientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("telemetry: connected to MQTT broker at %s", t.cfg.Broker)

	cmdTopic := t.cfg.TopicPrefix + "/command"
	token := client.Subscribe(cmdTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		switch string(msg.Payload()) {
		case "arm":
			t.monitor.ClearDisarm()
		case "disarm":
			t.monitor.Disarm()
		default:
			log.Printf("telemetry: unknown command %q", msg.Payload())
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("telemetry: subscribed to %s", cmdTopic)

	stateTopic := t.cfg.TopicPrefix + "/motor_state"
	actuationTopic := t.cfg.TopicPrefix + "/actuation"

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.state.Changed():
			client.Publish(stateTopic, 0, true, encodeState(t.state.Latest(), time.Now()))
		case <-t.actuation.Changed():
			client.Publish(actuationTopic, 0, false, encodeActuation(t.actuation.Latest(), time.Now()))
		}
	}
}
