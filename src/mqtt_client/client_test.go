package mqtt_client

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/config_manager"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/mqtt_client/brokertest"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/wifi_scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func brokerConfig(address, clientID string) config_manager.MQTTConfig {
	return config_manager.MQTTConfig{
		Address:   address,
		ClientID:  clientID,
		Topic:     "wifi/scan",
		AckTopic:  "wifi/ack",
		QoS:       1,
		Timeout:   3 * time.Second,
		KeepAlive: 20 * time.Second,
	}
}

func TestClientPublishesThroughBroker(t *testing.T) {
	broker := brokertest.Start(t)
	results := broker.Subscribe(t, "wifi/scan")

	client, err := NewClient(context.Background(), brokerConfig(broker.Address, "publisher-test"), nil)
	require.NoError(t, err)
	assert.Equal(t, broker.URL(), client.BrokerURL())

	require.NoError(t, client.Connect())
	defer client.Disconnect()
	assert.True(t, client.IsConnected())

	p := NewPublisher(client, brokerConfig(broker.Address, "publisher-test"))
	require.NoError(t, p.PublishRecord(wifi_scanner.ScanRecord{
		SSID:      wifi_scanner.Some("Test"),
		SignalDBm: wifi_scanner.Some(-50.0),
	}))

	msg := brokertest.Receive(t, results, 3*time.Second)
	assert.Equal(t, "wifi/scan", msg.Topic)
	assert.JSONEq(t, `{"ssid":"Test","signal_dbm":-50}`, string(msg.Payload))
}

func TestClientReceivesAck(t *testing.T) {
	broker := brokertest.Start(t)

	client, err := NewClient(context.Background(), brokerConfig(broker.URL(), "ack-test"), nil)
	require.NoError(t, err)
	require.NoError(t, client.Connect())
	defer client.Disconnect()

	var out syncBuffer
	require.NoError(t, client.Subscribe("wifi/ack", 1, NewAckHandler(&out)))

	broker.Publish(t, "wifi/ack", []byte("ACK: scan result"))

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "ACK: scan result")
	}, 3*time.Second, 20*time.Millisecond)
	assert.Contains(t, out.String(), "ACK Received:")
}

func TestClientConnectFailure(t *testing.T) {
	broker := brokertest.Start(t)
	address := broker.Address
	broker.Close()

	cfg := brokerConfig(address, "refused-test")
	cfg.Timeout = time.Second

	client, err := NewClient(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Error(t, client.Connect())
	assert.False(t, client.IsConnected())
}

func TestClientReportsConnectionLoss(t *testing.T) {
	broker := brokertest.Start(t)

	lost := make(chan error, 1)
	client, err := NewClient(context.Background(), brokerConfig(broker.Address, "lost-test"), func(err error) {
		lost <- err
	})
	require.NoError(t, err)
	require.NoError(t, client.Connect())
	broker.WaitForClient(t, "lost-test", 3*time.Second)

	broker.Close()

	select {
	case err := <-lost:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("connection loss not reported")
	}
	assert.False(t, client.IsConnected())
}
