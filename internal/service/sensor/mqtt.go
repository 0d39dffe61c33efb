package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ColdPull/internal/domain/models"
	drepo "ColdPull/internal/domain/repository"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTFeed implements a SensorStream backed by an MQTT broker, the
// usual transport for battery-powered sensor nodes.
type MQTTFeed struct {
	broker   string
	clientID string
	topic    string
	qos      byte
	username string
	password string
	product  string

	client   mqtt.Client
	readings chan *models.Reading
	errs     chan error
}

// NewMQTTFeed creates an MQTT sensor stream.
func NewMQTTFeed(broker, clientID, topic string, qos int, username, password, defaultProduct string) drepo.SensorStream {
	if clientID == "" {
		clientID = "coldpull-ingest"
	}
	return &MQTTFeed{
		broker:   broker,
		clientID: clientID,
		topic:    topic,
		qos:      byte(qos),
		username: username,
		password: password,
		product:  defaultProduct,
		readings: make(chan *models.Reading, 256),
		errs:     make(chan error, 1),
	}
}

// Connect establishes the broker connection.
func (c *MQTTFeed) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(c.broker).
		SetClientID(c.clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if c.username != "" {
		opts.SetUsername(c.username)
		opts.SetPassword(c.password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		select {
		case c.errs <- fmt.Errorf("mqtt connection lost: %w", err):
		default:
		}
	})

	c.client = mqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt connect: timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	log.Printf("sensor mqtt: connected broker=%s", c.broker)
	return nil
}

// Subscribe subscribes to the readings topic.
func (c *MQTTFeed) Subscribe(_ context.Context) error {
	if c.client == nil || !c.client.IsConnected() {
		return fmt.Errorf("mqtt not connected")
	}
	token := c.client.Subscribe(c.topic, c.qos, c.onMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", c.topic, err)
	}
	log.Printf("sensor mqtt: subscribed topic=%s qos=%d", c.topic, c.qos)
	return nil
}

func (c *MQTTFeed) onMessage(_ mqtt.Client, msg mqtt.Message) {
	var r models.Reading
	if err := json.Unmarshal(msg.Payload(), &r); err != nil {
		// ignore malformed payloads
		return
	}
	normalize(&r, c.product)
	select {
	case c.readings <- &r:
	default:
		// drop on backpressure
	}
}

// Read exposes the reading and error channels. The paho client pushes
// into them from its own callbacks, so they stay open for the life of
// the feed; receivers stop via ctx. Closing them here would race the
// broker callbacks.
func (c *MQTTFeed) Read(_ context.Context) (<-chan *models.Reading, <-chan error) {
	return c.readings, c.errs
}

// Reconnect forces a fresh connection and resubscribes.
func (c *MQTTFeed) Reconnect(ctx context.Context) error {
	if c.client != nil {
		c.client.Disconnect(250)
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close disconnects from the broker.
func (c *MQTTFeed) Close() error {
	if c.client != nil {
		c.client.Disconnect(250)
	}
	return nil
}

// IsConnected indicates status.
func (c *MQTTFeed) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}
