package config_manager

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config mirrors the on-disk config.json document.
type Config struct {
	ConfigVersion      string `json:"config_version"`
	LogLevel           string `json:"log_level"`
	MQTTAddress        string `json:"mqtt_address"`
	ClientIDPublisher  string `json:"client_id_publisher"`
	ClientIDSubscriber string `json:"client_id_subscriber"`
	Topic              string `json:"topic"`
	AckTopic           string `json:"ack_topic"`
	QoS                int    `json:"qos"`
	Timeout            int    `json:"timeout"` // milliseconds
	KeepAliveSeconds   int    `json:"keep_alive_seconds"`
	InterfaceSource    string `json:"interface_source"`
	PublishAck         bool   `json:"publish_ack"`
}

// MQTTConfig holds the validated broker connection settings for one role.
type MQTTConfig struct {
	Address   string
	ClientID  string
	Topic     string
	AckTopic  string
	QoS       byte
	Timeout   time.Duration
	KeepAlive time.Duration
}

// PublisherConfig is everything the scan orchestrator needs.
type PublisherConfig struct {
	MQTT            MQTTConfig
	InterfaceSource string
	LogLevel        string
}

// SubscriberConfig is everything the ack/result listener needs.
type SubscriberConfig struct {
	MQTT       MQTTConfig
	PublishAck bool
	LogLevel   string
}

// NewDefaultConfig creates a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		ConfigVersion:      CurrentConfigVersion,
		LogLevel:           DefaultLogLevel,
		MQTTAddress:        "tcp://localhost:1883",
		ClientIDPublisher:  "wifiscan-publisher",
		ClientIDSubscriber: "wifiscan-subscriber",
		Topic:              "wifi/scan",
		AckTopic:           "wifi/scan/ack",
		QoS:                1,
		Timeout:            10000,
		KeepAliveSeconds:   DefaultKeepAliveSeconds,
		InterfaceSource:    InterfaceSourceNetlink,
		PublishAck:         false,
	}
}

// SaveConfig saves config.json.
func SaveConfig(filePath string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// EnsureDefaultConfig writes a default config.json when none exists. An existing file is
// left untouched and returned as parsed; created reports whether a file was written.
func EnsureDefaultConfig(filePath string) (config *Config, created bool, err error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			defaultConfig := NewDefaultConfig()
			return defaultConfig, true, SaveConfig(filePath, defaultConfig)
		}
		return nil, false, err
	}

	var existing Config
	if err := json.Unmarshal(data, &existing); err != nil {
		return nil, false, fmt.Errorf("existing config %s is not valid JSON: %w", filePath, err)
	}
	return &existing, false, nil
}
