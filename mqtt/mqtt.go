// Package mqtt mirrors event bundles to an MQTT broker as JSON.
package mqtt

import (
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"github.com/dudk/auditraq"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = time.Second
	// quiesce is the time in ms given to pending publishes on close.
	quiesce = 250
)

// client is the part of paho.Client used by transport.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Transport publishes every bundle as a single message. QoS 0, not retained:
// late beats are worthless.
type Transport struct {
	client  client
	topic   string
	session string
}

// Payload is the JSON message of a bundle.
type Payload struct {
	Session string         `json:"session,omitempty"`
	Events  []EventPayload `json:"events"`
}

// EventPayload is a single event in the message.
type EventPayload struct {
	Address string        `json:"address"`
	Args    []interface{} `json:"args"`
}

// Connect creates a transport connected to the broker.
func Connect(broker, topic, clientID, session string) (*Transport, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, errors.Errorf("connection to %s timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "connect to %s", broker)
	}
	return New(c, topic, session), nil
}

// New returns a transport that publishes with provided client.
func New(c client, topic, session string) *Transport {
	return &Transport{
		client:  c,
		topic:   topic,
		session: session,
	}
}

// Send publishes the bundle.
func (t *Transport) Send(b auditraq.Bundle) error {
	payload, err := FormatPayload(t.session, b)
	if err != nil {
		return errors.Wrap(err, "format payload")
	}
	token := t.client.Publish(t.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Errorf("publish to %s timeout", t.topic)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "publish to %s", t.topic)
	}
	return nil
}

// Close disconnects from the broker.
func (t *Transport) Close() error {
	t.client.Disconnect(quiesce)
	return nil
}

// FormatPayload creates the JSON payload for a bundle.
func FormatPayload(session string, b auditraq.Bundle) ([]byte, error) {
	p := Payload{
		Session: session,
		Events:  make([]EventPayload, len(b)),
	}
	for i, e := range b {
		args := e.Args
		if args == nil {
			args = []interface{}{}
		}
		p.Events[i] = EventPayload{
			Address: e.Address,
			Args:    args,
		}
	}
	return json.Marshal(p)
}
