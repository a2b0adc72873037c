package mqtt_client

import (
	"fmt"
	"time"

	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/config_manager"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/wifi_scanner"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// Transport is the publish half of a paho client.
type Transport interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher sends scan records to the result topic and waits for delivery tokens.
type Publisher struct {
	transport Transport
	topic     string
	qos       byte
	timeout   time.Duration
}

func NewPublisher(transport Transport, cfg config_manager.MQTTConfig) *Publisher {
	return &Publisher{
		transport: transport,
		topic:     cfg.Topic,
		qos:       cfg.QoS,
		timeout:   cfg.Timeout,
	}
}

// PublishRecord serializes rec and blocks until the transport confirms delivery or the
// timeout elapses. Failures are logged and returned; callers carry on with the scan.
func (p *Publisher) PublishRecord(rec wifi_scanner.ScanRecord) error {
	payload, err := rec.MarshalJSON()
	if err != nil {
		logger.WithError(err).Warn("Failed to serialize scan record")
		return fmt.Errorf("failed to serialize scan record: %w", err)
	}

	token := p.transport.Publish(p.topic, p.qos, false, payload)
	if err := waitToken(token, p.timeout); err != nil {
		logger.WithFields(logrus.Fields{
			"topic":   p.topic,
			"payload": string(payload),
			"error":   err,
		}).Warn("Scan record was not confirmed by the broker")
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}

	logger.WithFields(logrus.Fields{
		"topic":   p.topic,
		"payload": string(payload),
	}).Info("Published scan record")
	return nil
}
