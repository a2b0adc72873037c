package mqtt_client

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func withoutColor(t *testing.T) {
	previous := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = previous })
}

func TestAckHandlerPrintsPayload(t *testing.T) {
	withoutColor(t)

	var out bytes.Buffer
	handler := NewAckHandler(&out)
	handler(nil, fakeMessage{topic: "wifi/ack", payload: []byte("ACK: aa:bb:cc:dd:ee:ff")})

	assert.Equal(t, "ACK Received: ACK: aa:bb:cc:dd:ee:ff\n", out.String())
}

func TestPrintScanResult(t *testing.T) {
	withoutColor(t)

	var out bytes.Buffer
	PrintScanResult(&out, []byte(`{"ssid":"Test"}`))

	assert.Equal(t, "New WiFi Scan Data Received: {\"ssid\":\"Test\"}\n", out.String())
}
