// Package publish fans out instrument snapshots and events to the MQTT
// broker (spec.md §6) using the same client.Publish/token.Wait idiom the
// rest of the example pack uses for eclipse/paho.mqtt.golang, plus a stub
// HTML sink for the legacy web renderer integration point.
package publish

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Topic-building helpers. Channel is the gateway's configured MQTT.Channel
// (spec.md §6: "EMA/<channel>/...").
func RegisterTopic() string                { return "EMA/register" }
func EventsTopic(channel string) string    { return fmt.Sprintf("EMA/%s/events", channel) }
func CurrentTopic(channel string) string   { return fmt.Sprintf("EMA/%s/current/state", channel) }
func HistoricMinMaxTopic(channel string) string { return fmt.Sprintf("EMA/%s/historic/minmax", channel) }
func HistoricAverageTopic(channel string) string { return fmt.Sprintf("EMA/%s/historic/average", channel) }

// QoS policy (spec.md §6): current/historic state is retained-worthy and
// gets QoS1; events are fire-and-forget notifications and get QoS0.
const (
	QoSEvents  byte = 0
	QoSCurrent byte = 1
)

// Envelope is the common JSON envelope every payload carries: schema
// revision, publisher identity (the MQTT client ID in main), and a
// timestamp: the reading's time for current state, the publish time for
// every other payload.
type Envelope struct {
	Rev    int       `json:"rev"`
	Who    string    `json:"who"`
	Tstamp time.Time `json:"tstamp"`
}

const schemaRev = 1

// MQTTPublisher wraps a paho.mqtt.golang client with the gateway's topic
// and QoS conventions.
type MQTTPublisher struct {
	client  mqtt.Client
	channel string
	logger  *log.Logger
}

// MQTTConfig is a trimmed mirror of config.MQTTSection so this package does
// not import internal/config.
type MQTTConfig struct {
	ClientID  string
	Broker    string
	Username  string
	Password  string
	KeepAlive time.Duration
	Timeout   time.Duration
	Channel   string
}

// NewMQTTPublisher connects to the broker and returns a ready publisher.
func NewMQTTPublisher(cfg MQTTConfig, logger *log.Logger) (*MQTTPublisher, error) {
	if logger == nil {
		logger = log.Default()
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(cfg.KeepAlive).
		SetConnectTimeout(cfg.Timeout).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("publish: mqtt connect: timed out after %s", cfg.Timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("publish: mqtt connect: %w", err)
	}
	return &MQTTPublisher{client: client, channel: cfg.Channel, logger: logger}, nil
}

// Publish marshals v to JSON and publishes it on topic at qos, logging
// (never returning) transport errors, matching the fire-and-forget
// publish idiom the pack's device publisher uses.
func (p *MQTTPublisher) Publish(topic string, qos byte, retain bool, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		p.logger.Printf("publish: marshal %s: %v", topic, err)
		return
	}
	token := p.client.Publish(topic, qos, retain, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		p.logger.Printf("publish: %s: %v", topic, err)
	}
}

func (p *MQTTPublisher) Channel() string { return p.channel }

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
