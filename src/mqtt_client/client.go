package mqtt_client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/config_manager"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// ErrTimeout is returned when the broker does not confirm an operation in time.
var ErrTimeout = errors.New("timed out waiting for broker")

// Client wraps a paho client with the settings of one program role. A Client is owned
// by a single goroutine; paho's own goroutines only reach it through callbacks.
type Client struct {
	cfg       config_manager.MQTTConfig
	brokerURL string
	mqtt      mqtt.Client
}

// NewClient resolves the broker address and prepares a paho client. It does not connect.
// onConnectionLost may be nil.
func NewClient(ctx context.Context, cfg config_manager.MQTTConfig, onConnectionLost func(error)) (*Client, error) {
	installPahoLoggers()

	brokerURL, err := ResolveBrokerURL(ctx, cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("could not resolve MQTT broker %q: %w", cfg.Address, err)
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(cfg.Timeout)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.WithError(err).WithField("client_id", cfg.ClientID).Error("Connection lost")
		if onConnectionLost != nil {
			onConnectionLost(err)
		}
	})
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, msg mqtt.Message) {
		logger.WithFields(logrus.Fields{
			"topic":   msg.Topic(),
			"payload": string(msg.Payload()),
		}).Debug("Unexpected message")
	})

	logger.WithFields(logrus.Fields{
		"broker":    brokerURL,
		"client_id": cfg.ClientID,
	}).Debug("MQTT client initialized")

	return &Client{
		cfg:       cfg,
		brokerURL: brokerURL,
		mqtt:      mqtt.NewClient(opts),
	}, nil
}

// BrokerURL returns the resolved broker URL.
func (c *Client) BrokerURL() string {
	return c.brokerURL
}

// Connect opens the session, waiting at most the configured timeout.
func (c *Client) Connect() error {
	token := c.mqtt.Connect()
	if err := waitToken(token, c.cfg.Timeout); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.brokerURL, err)
	}
	logger.WithFields(logrus.Fields{
		"broker":    c.brokerURL,
		"client_id": c.cfg.ClientID,
	}).Info("Connected to MQTT broker")
	return nil
}

func (c *Client) IsConnected() bool {
	return c.mqtt.IsConnected()
}

// Publish hands a message to paho and returns its delivery token.
func (c *Client) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	return c.mqtt.Publish(topic, qos, retained, payload)
}

// Subscribe registers handler on topic and waits for the broker's SUBACK.
func (c *Client) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	token := c.mqtt.Subscribe(topic, qos, handler)
	if err := waitToken(token, c.cfg.Timeout); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	logger.WithFields(logrus.Fields{"topic": topic, "qos": qos}).Info("Subscribed")
	return nil
}

// Disconnect closes the session, giving in-flight work up to the configured timeout.
func (c *Client) Disconnect() {
	if !c.mqtt.IsConnected() {
		return
	}
	c.mqtt.Disconnect(uint(c.cfg.Timeout / time.Millisecond))
	logger.WithField("client_id", c.cfg.ClientID).Info("Disconnected from MQTT broker")
}

func waitToken(token mqtt.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return ErrTimeout
	}
	return token.Error()
}
