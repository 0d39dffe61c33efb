package sensor

import (
	"context"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMQTTMessage struct {
	payload []byte
}

func (m fakeMQTTMessage) Duplicate() bool   { return false }
func (m fakeMQTTMessage) Qos() byte         { return 1 }
func (m fakeMQTTMessage) Retained() bool    { return false }
func (m fakeMQTTMessage) Topic() string     { return "sensors/fridge-1/readings" }
func (m fakeMQTTMessage) MessageID() uint16 { return 1 }
func (m fakeMQTTMessage) Payload() []byte   { return m.payload }
func (m fakeMQTTMessage) Ack()              {}

var _ mqtt.Message = fakeMQTTMessage{}

func TestMQTTDeliveryAfterContextCancel(t *testing.T) {
	// The broker callback may still be delivering when the consumer's
	// context is cancelled; the channels must survive that.
	feed := NewMQTTFeed("tcp://localhost:1883", "test-ingest", "sensors/+/readings", 1, "", "", "vaccine").(*MQTTFeed)

	ctx, cancel := context.WithCancel(context.Background())
	readings, _ := feed.Read(ctx)
	cancel()

	assert.NotPanics(t, func() {
		feed.onMessage(nil, fakeMQTTMessage{payload: []byte(
			`{"temp_inside_c":4.2,"temp_outside_c":21,"humidity_pct":60,"door_open":0,"gas_ppm":120}`,
		)})
	})

	select {
	case rd := <-readings:
		require.NotNil(t, rd)
		assert.Equal(t, "vaccine", rd.Product)
		assert.Equal(t, 4.2, rd.TempInsideC)
		require.NotNil(t, rd.TS)
	default:
		t.Fatal("reading was not delivered")
	}
}

func TestMQTTIgnoresMalformedPayload(t *testing.T) {
	feed := NewMQTTFeed("tcp://localhost:1883", "test-ingest", "sensors/+/readings", 1, "", "", "vaccine").(*MQTTFeed)
	readings, _ := feed.Read(context.Background())

	feed.onMessage(nil, fakeMQTTMessage{payload: []byte("not json")})

	select {
	case rd := <-readings:
		t.Fatalf("unexpected reading: %+v", rd)
	default:
	}
}
