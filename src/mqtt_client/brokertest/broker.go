// Package brokertest runs an in-process MQTT broker for package tests.
package brokertest

import (
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
)

// Broker is a loopback mochi server with an inline client.
type Broker struct {
	Server  *mochi.Server
	Address string

	mu        sync.Mutex
	nextSub   int
	closeOnce sync.Once
}

// Message is a publish observed by the inline client.
type Message struct {
	Topic   string
	Payload []byte
}

// Start serves a broker on a free loopback port until the test ends.
func Start(t testing.TB) *Broker {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	address := l.Addr().String()
	l.Close()

	server := mochi.New(&mochi.Options{
		InlineClient: true,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		t.Fatalf("add auth hook: %v", err)
	}

	tcp := listeners.NewTCP(listeners.Config{
		ID:      "tcp",
		Address: address,
	})
	if err := server.AddListener(tcp); err != nil {
		t.Fatalf("add listener: %v", err)
	}
	if err := server.Serve(); err != nil {
		t.Fatalf("serve: %v", err)
	}
	b := &Broker{Server: server, Address: address}
	t.Cleanup(b.Close)
	return b
}

// Close stops the broker, dropping every client. Safe to call more than once.
func (b *Broker) Close() {
	b.closeOnce.Do(func() {
		b.Server.Close()
	})
}

// URL returns the broker address in the form paho expects.
func (b *Broker) URL() string {
	return "tcp://" + b.Address
}

// Subscribe forwards every publish matching filter to the returned channel.
func (b *Broker) Subscribe(t testing.TB, filter string) <-chan Message {
	t.Helper()

	b.mu.Lock()
	b.nextSub++
	id := b.nextSub
	b.mu.Unlock()

	ch := make(chan Message, 64)
	err := b.Server.Subscribe(filter, id, func(_ *mochi.Client, _ packets.Subscription, pk packets.Packet) {
		payload := make([]byte, len(pk.Payload))
		copy(payload, pk.Payload)
		ch <- Message{Topic: pk.TopicName, Payload: payload}
	})
	if err != nil {
		t.Fatalf("inline subscribe %s: %v", filter, err)
	}
	return ch
}

// Publish sends payload from the inline client.
func (b *Broker) Publish(t testing.TB, topic string, payload []byte) {
	t.Helper()
	if err := b.Server.Publish(topic, payload, false, 0); err != nil {
		t.Fatalf("inline publish %s: %v", topic, err)
	}
}

// Receive waits up to timeout for the next message on ch.
func Receive(t testing.TB, ch <-chan Message, timeout time.Duration) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("no message within %s", timeout)
		return Message{}
	}
}

// WaitForClient blocks until a client with id is connected or the timeout elapses.
func (b *Broker) WaitForClient(t testing.TB, id string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cl, ok := b.Server.Clients.Get(id); ok && !cl.Closed() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client %s did not connect within %s", id, timeout)
}
