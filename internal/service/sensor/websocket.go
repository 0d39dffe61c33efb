package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ColdPull/internal/domain/models"
	drepo "ColdPull/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// WSFeed implements a SensorStream backed by a WebSocket gateway that
// pushes readings as JSON frames.
type WSFeed struct {
	url            string
	product        string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// NewWSFeed creates a WebSocket sensor stream.
func NewWSFeed(url, defaultProduct string, reconnectDelay, pingInterval time.Duration) drepo.SensorStream {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &WSFeed{
		url:            url,
		product:        defaultProduct,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *WSFeed) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("sensor ws connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("sensor ws: connected url=%s", c.url)
	return nil
}

// Subscribe announces interest in the readings channel.
func (c *WSFeed) Subscribe(_ context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("sensor ws not connected")
	}
	msg := map[string]string{"type": "subscribe", "channel": "readings"}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe readings: %w", err)
	}
	return nil
}

// Read streams Reading events and errors.
func (c *WSFeed) Read(ctx context.Context) (<-chan *models.Reading, <-chan error) {
	readings := make(chan *models.Reading, 256)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(readings)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("sensor ws conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("sensor ws read: %w", err)
					return
				}
				var r models.Reading
				if err := json.Unmarshal(b, &r); err != nil {
					// ignore non-reading frames
					continue
				}
				normalize(&r, c.product)
				select {
				case readings <- &r:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return readings, errs
}

// Reconnect closes and reconnects.
func (c *WSFeed) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *WSFeed) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *WSFeed) IsConnected() bool { return c.connected }
