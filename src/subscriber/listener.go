package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/config_manager"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/mqtt_client"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/utils"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/wifi_scanner"
	"github.com/coreos/go-systemd/v22/daemon"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// State is the listener's position in its connection lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
	StateSubscribed
	StateReceiving
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateSubscribed:
		return "subscribed"
	case StateReceiving:
		return "receiving"
	default:
		return "unknown"
	}
}

// ErrConnectionLost is returned by Run when the broker connection dropped before shutdown.
var ErrConnectionLost = errors.New("connection to MQTT broker lost")

// Messenger is the broker session the listener drives.
type Messenger interface {
	Connect() error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect()
}

type messageKind int

const (
	kindResult messageKind = iota
	kindAck
)

type inboundMessage struct {
	kind    messageKind
	topic   string
	payload []byte
}

// Listener prints every scan result and acknowledgment it receives until cancelled.
type Listener struct {
	cfg    config_manager.SubscriberConfig
	client Messenger
	out    io.Writer

	inbound chan inboundMessage
	lost    chan error
	done    chan struct{}
	state   atomic.Int32

	// sentAcks counts ACKs published by this listener whose echo on the ack topic
	// has not arrived yet. Only the Run goroutine touches it.
	sentAcks map[string]int

	notify func(state string) (bool, error)
}

// NewListener builds a listener with a paho client for cfg. Nothing connects until Run.
func NewListener(ctx context.Context, cfg *config_manager.SubscriberConfig, out io.Writer) (*Listener, error) {
	l := newListener(*cfg, nil, out)
	client, err := mqtt_client.NewClient(ctx, cfg.MQTT, l.connectionLost)
	if err != nil {
		return nil, err
	}
	l.client = client
	return l, nil
}

func newListener(cfg config_manager.SubscriberConfig, client Messenger, out io.Writer) *Listener {
	return &Listener{
		cfg:      cfg,
		client:   client,
		out:      out,
		inbound:  make(chan inboundMessage, 64),
		lost:     make(chan error, 1),
		done:     make(chan struct{}),
		sentAcks: make(map[string]int),
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
	}
}

// State returns the current lifecycle state. Safe for concurrent use.
func (l *Listener) State() State {
	return State(l.state.Load())
}

func (l *Listener) setState(s State) {
	l.state.Store(int32(s))
	logger.WithField("state", s.String()).Debug("Listener state changed")
}

// connectionLost is called from paho's goroutine. Only the first loss is kept.
func (l *Listener) connectionLost(err error) {
	select {
	case l.lost <- err:
	default:
	}
}

func (l *Listener) handler(kind messageKind) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		m := inboundMessage{kind: kind, topic: msg.Topic(), payload: msg.Payload()}
		select {
		case l.inbound <- m:
		case <-l.done:
		}
	}
}

// Run connects, subscribes to the result and ack topics and prints inbound messages
// until ctx is cancelled. A lost connection is not re-established; Run then waits for
// cancellation and reports the loss.
func (l *Listener) Run(ctx context.Context) error {
	defer close(l.done)

	if err := l.client.Connect(); err != nil {
		return err
	}
	l.setState(StateConnected)
	defer func() {
		l.client.Disconnect()
		l.setState(StateDisconnected)
	}()

	mqttCfg := l.cfg.MQTT
	if err := l.client.Subscribe(mqttCfg.Topic, mqttCfg.QoS, l.handler(kindResult)); err != nil {
		return err
	}
	if err := l.client.Subscribe(mqttCfg.AckTopic, mqttCfg.QoS, l.handler(kindAck)); err != nil {
		return err
	}
	l.setState(StateSubscribed)

	if sent, err := l.notify(daemon.SdNotifyReady); err != nil {
		logger.WithError(err).Warn("Failed to notify systemd")
	} else if sent {
		logger.Debug("Notified systemd of readiness")
	}

	l.setState(StateReceiving)
	logger.WithFields(logrus.Fields{
		"topic":     mqttCfg.Topic,
		"ack_topic": mqttCfg.AckTopic,
	}).Info("Waiting for messages")

	var lostErr error
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down listener")
			if lostErr != nil {
				return fmt.Errorf("%w: %v", ErrConnectionLost, lostErr)
			}
			return nil
		case m := <-l.inbound:
			l.handle(m)
		case err := <-l.lost:
			lostErr = err
			l.setState(StateDisconnected)
			logger.WithError(err).Error("Connection lost, not reconnecting")
		}
	}
}

func (l *Listener) handle(m inboundMessage) {
	switch m.kind {
	case kindAck:
		if l.consumeOwnAck(m.payload) {
			logger.WithField("ack", string(m.payload)).Debug("Skipping echo of own ACK")
			return
		}
		mqtt_client.PrintAck(l.out, m.payload)
	case kindResult:
		mqtt_client.PrintScanResult(l.out, m.payload)
		if l.cfg.PublishAck {
			l.publishAck(m.payload)
		}
	}
}

// ackText names the access point by MAC when the payload carries a valid one.
func ackText(payload []byte) string {
	var rec wifi_scanner.ScanRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		logger.WithError(err).Debug("Scan result payload is not a scan record")
		return "ACK: scan result"
	}
	if mac, ok := rec.BSSID.Get(); ok && utils.ValidateMACAddress(mac) {
		return "ACK: " + mac
	}
	return "ACK: scan result"
}

// consumeOwnAck reports whether payload is the echo of an ACK this listener published.
func (l *Listener) consumeOwnAck(payload []byte) bool {
	text := string(payload)
	n := l.sentAcks[text]
	if n == 0 {
		return false
	}
	if n == 1 {
		delete(l.sentAcks, text)
	} else {
		l.sentAcks[text] = n - 1
	}
	return true
}

func (l *Listener) publishAck(payload []byte) {
	mqttCfg := l.cfg.MQTT
	text := ackText(payload)

	l.sentAcks[text]++
	token := l.client.Publish(mqttCfg.AckTopic, mqttCfg.QoS, false, text)
	if !token.WaitTimeout(mqttCfg.Timeout) {
		logger.WithFields(logrus.Fields{
			"ack_topic": mqttCfg.AckTopic,
			"timeout":   mqttCfg.Timeout.String(),
		}).Warn("ACK publish not confirmed in time")
		return
	}
	if err := token.Error(); err != nil {
		l.consumeOwnAck([]byte(text))
		logger.WithError(err).Warn("Failed to publish ACK")
		return
	}
	logger.WithField("ack", text).Debug("Published ACK")
}
