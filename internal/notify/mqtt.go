package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttTimeout = 5 * time.Second

// MQTTConfig holds the broker settings for the MQTT transport.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
}

// MQTT publishes notification events as JSON, for home automation setups.
// Discharge events go to <topic>/<serial>, others to <topic>/monitor.
type MQTT struct {
	config    MQTTConfig
	client    mqtt.Client
	newClient func(*mqtt.ClientOptions) mqtt.Client
}

type mqttPayload struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	DeviceName   string    `json:"device_name,omitempty"`
	DeviceSerial string    `json:"device_serial,omitempty"`
	Level        float64   `json:"level,omitempty"`
	Time         time.Time `json:"time"`
}

func NewMQTT(config MQTTConfig) *MQTT {
	return &MQTT{config: config, newClient: mqtt.NewClient}
}

func (m *MQTT) Kind() TransportKind {
	return KindMQTT
}

func (m *MQTT) options() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(m.config.Broker)
	opts.SetClientID(m.config.ClientID)
	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(mqttTimeout)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Infof("MQTT connection lost: %v", err)
	})
	return opts
}

func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MQTT) topic(n Notification) string {
	if n.Event.DeviceSerial == "" {
		return m.config.Topic + "/monitor"
	}
	return m.config.Topic + "/" + n.Event.DeviceSerial
}

func (m *MQTT) Send(ctx context.Context, n Notification) error {
	if m.client == nil || !m.client.IsConnected() {
		client := m.newClient(m.options())
		if err := waitToken(ctx, client.Connect()); err != nil {
			return fmt.Errorf("failed to connect to MQTT broker %s: %w", m.config.Broker, err)
		}
		log.Debugf("Connected to MQTT broker %s", m.config.Broker)
		m.client = client
	}

	payload, err := json.Marshal(mqttPayload{
		ID:           n.Event.ID,
		Kind:         n.Event.Kind.String(),
		Title:        n.Event.Title(),
		Body:         n.Event.Body(),
		DeviceName:   n.Event.DeviceName,
		DeviceSerial: n.Event.DeviceSerial,
		Level:        n.Event.Level,
		Time:         n.Event.Time,
	})
	if err != nil {
		return err
	}

	if err := waitToken(ctx, m.client.Publish(m.topic(n), 1, false, payload)); err != nil {
		m.reset()
		return fmt.Errorf("failed to publish to MQTT: %w", err)
	}
	return nil
}

func (m *MQTT) reset() {
	if m.client != nil {
		m.client.Disconnect(250)
	}
	m.client = nil
}

func (m *MQTT) Close() error {
	if m.client == nil {
		return nil
	}
	m.reset()
	return nil
}

var errNoBroker = errors.New("no MQTT broker configured")

// Validate checks the config is usable before the transport is created.
func (c MQTTConfig) Validate() error {
	if c.Broker == "" {
		return errNoBroker
	}
	if c.Topic == "" {
		return errors.New("no MQTT topic configured")
	}
	return nil
}
