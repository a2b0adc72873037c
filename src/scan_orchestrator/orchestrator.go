// Package scan_orchestrator runs one scan-and-publish pass over every wireless interface.
package scan_orchestrator

import (
	"context"
	"errors"
	"io"

	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/config_manager"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/mqtt_client"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/wifi_scanner"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("module", "scan_orchestrator")

// Process exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Messenger is the broker session owned by the orchestrator for the whole run.
type Messenger interface {
	Connect() error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Disconnect()
}

// RecordPublisher delivers one decoded scan record.
type RecordPublisher interface {
	PublishRecord(rec wifi_scanner.ScanRecord) error
}

// InterfaceScanner streams the scan records of a single interface.
type InterfaceScanner interface {
	ScanInterface(ctx context.Context, name string, handle func(wifi_scanner.ScanRecord)) error
}

// Orchestrator wires enumeration, scan sessions and publishing together.
type Orchestrator struct {
	cfg        config_manager.PublisherConfig
	messenger  Messenger
	publisher  RecordPublisher
	enumerator wifi_scanner.InterfaceEnumerator
	scanner    InterfaceScanner
	ackOut     io.Writer
}

// New builds an orchestrator backed by paho and nl80211. Acknowledgments received while
// publishing are printed to ackOut.
func New(ctx context.Context, cfg *config_manager.PublisherConfig, ackOut io.Writer) (*Orchestrator, error) {
	client, err := mqtt_client.NewClient(ctx, cfg.MQTT, nil)
	if err != nil {
		return nil, err
	}

	enumerator, err := wifi_scanner.NewInterfaceEnumerator(cfg.InterfaceSource)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:        *cfg,
		messenger:  client,
		publisher:  mqtt_client.NewPublisher(client, cfg.MQTT),
		enumerator: enumerator,
		scanner:    wifi_scanner.NewScanner(),
		ackOut:     ackOut,
	}, nil
}

// Run performs one pass and returns the process exit code. Only a connection failure,
// a failed enumeration or finding no wireless interface is fatal; a failing interface
// is logged and skipped.
func (o *Orchestrator) Run(ctx context.Context) int {
	if err := o.messenger.Connect(); err != nil {
		logger.WithError(err).Error("Failed to connect to MQTT broker")
		return ExitFailure
	}
	defer o.messenger.Disconnect()

	mqttCfg := o.cfg.MQTT
	if err := o.messenger.Subscribe(mqttCfg.AckTopic, mqttCfg.QoS, mqtt_client.NewAckHandler(o.ackOut)); err != nil {
		logger.WithError(err).WithField("ack_topic", mqttCfg.AckTopic).Warn("Could not subscribe to ACK topic, continuing without ACKs")
	}

	interfaces, err := o.listInterfaces()
	if err != nil {
		if errors.Is(err, wifi_scanner.ErrNoWirelessInterfaces) {
			logger.Error("No wireless interfaces found")
		} else {
			logger.WithError(err).Error("Wireless interface enumeration failed")
		}
		return ExitFailure
	}
	logger.WithField("interfaces", interfaces).Infof("Found %d wireless interface(s)", len(interfaces))

	for _, name := range interfaces {
		if err := ctx.Err(); err != nil {
			logger.WithError(err).Warn("Scan run cancelled")
			break
		}
		o.scanInterface(ctx, name)
	}

	logger.Info("Program finished successfully.")
	return ExitSuccess
}

func (o *Orchestrator) listInterfaces() ([]string, error) {
	interfaces, err := o.enumerator.ListWirelessInterfaces()
	if err != nil {
		return nil, err
	}
	if len(interfaces) == 0 {
		return nil, wifi_scanner.ErrNoWirelessInterfaces
	}
	return interfaces, nil
}

func (o *Orchestrator) scanInterface(ctx context.Context, name string) {
	logger.WithField("interface", name).Infof("Scanning interface %s", name)

	published, failed := 0, 0
	err := o.scanner.ScanInterface(ctx, name, func(rec wifi_scanner.ScanRecord) {
		if err := o.publisher.PublishRecord(rec); err != nil {
			failed++
			return
		}
		published++
	})

	fields := logrus.Fields{
		"interface": name,
		"published": published,
		"failed":    failed,
	}
	if err != nil {
		var scanErr *wifi_scanner.ScanError
		if errors.As(err, &scanErr) {
			fields["stage"] = scanErr.Type.String()
			fields["code"] = scanErr.Code
		}
		logger.WithFields(fields).WithError(err).Warn("Scanning failed for interface")
		return
	}
	logger.WithFields(fields).Info("Interface scan complete")
}
