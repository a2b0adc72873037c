package config_manager

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// CurrentConfigVersion is the latest version of the config.json format.
const CurrentConfigVersion = "v0.0.1"

// EnvPrefix is prepended to upper-cased keys when looking up environment overrides,
// e.g. WIFISCAN_MQTT_ADDRESS.
const EnvPrefix = "WIFISCAN"

// Keys read from the configuration document.
const (
	KeyMQTTAddress        = "mqtt_address"
	KeyClientIDPublisher  = "client_id_publisher"
	KeyClientIDSubscriber = "client_id_subscriber"
	KeyTopic              = "topic"
	KeyAckTopic           = "ack_topic"
	KeyQoS                = "qos"
	KeyTimeout            = "timeout"
	KeyKeepAliveSeconds   = "keep_alive_seconds"
	KeyLogLevel           = "log_level"
	KeyInterfaceSource    = "interface_source"
	KeyPublishAck         = "publish_ack"
	KeyConfigVersion      = "config_version"
)

// Defaults for optional keys.
const (
	DefaultKeepAliveSeconds  = 20
	DefaultSubscriberTimeout = 10000
	DefaultLogLevel          = "info"
	InterfaceSourceNetlink   = "netlink"
	InterfaceSourceNL80211   = "nl80211"
)

var (
	// ErrMissingKey is returned when a required key is absent or empty.
	ErrMissingKey = errors.New("missing required configuration key")
	// ErrInvalidValue is returned when a key is present but cannot be used.
	ErrInvalidValue = errors.New("invalid configuration value")
	// ErrNotLoaded is returned when values are requested before Load succeeded.
	ErrNotLoaded = errors.New("configuration not loaded")
)

var logger = logrus.WithField("module", "config_manager")

// ConfigManager is a read-only key/value view over the JSON configuration document.
type ConfigManager struct {
	FilePath string
	v        *viper.Viper
}

// NewConfigManager creates a new ConfigManager instance. The file is not read until Load.
func NewConfigManager(filePath string) (*ConfigManager, error) {
	if filePath == "" {
		return nil, fmt.Errorf("config file path is empty")
	}
	return &ConfigManager{FilePath: filePath}, nil
}

// Load reads and parses the configuration document.
func (cm *ConfigManager) Load() error {
	v := viper.New()
	v.SetConfigFile(cm.FilePath)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", cm.FilePath, err)
	}
	cm.v = v

	cm.checkConfigVersion()
	return nil
}

// checkConfigVersion warns about documents written for an older format. An absent
// version is accepted silently.
func (cm *ConfigManager) checkConfigVersion() {
	raw := cm.v.GetString(KeyConfigVersion)
	if raw == "" {
		return
	}

	fileVersion, err := version.NewVersion(raw)
	if err != nil {
		logger.WithError(err).WithField("config_version", raw).Warn("Unparsable config_version, ignoring")
		return
	}
	current := version.Must(version.NewVersion(CurrentConfigVersion))
	if fileVersion.LessThan(current) {
		logger.WithFields(logrus.Fields{
			"config_version":  raw,
			"current_version": CurrentConfigVersion,
		}).Warn("Config file uses an older format version")
	}
}

// IsSet reports whether key is present in the document or the environment.
func (cm *ConfigManager) IsSet(key string) bool {
	return cm.v != nil && cm.v.IsSet(key)
}

// AllSettings returns the loaded document with environment overrides applied to known keys.
func (cm *ConfigManager) AllSettings() map[string]interface{} {
	if cm.v == nil {
		return nil
	}
	return cm.v.AllSettings()
}

// GetString returns the string stored under key.
func (cm *ConfigManager) GetString(key string) (string, error) {
	if cm.v == nil {
		return "", ErrNotLoaded
	}
	raw := cm.v.Get(key)
	if raw == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	return s, nil
}

// GetInt returns the integer stored under key.
func (cm *ConfigManager) GetInt(key string) (int, error) {
	if cm.v == nil {
		return 0, ErrNotLoaded
	}
	raw := cm.v.Get(key)
	if raw == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	i, err := cast.ToIntE(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	return i, nil
}

// GetBool returns the boolean stored under key, or fallback when absent.
func (cm *ConfigManager) GetBool(key string, fallback bool) (bool, error) {
	if !cm.IsSet(key) {
		return fallback, nil
	}
	b, err := cast.ToBoolE(cm.v.Get(key))
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	return b, nil
}

func (cm *ConfigManager) getStringOr(key, fallback string) (string, error) {
	if !cm.IsSet(key) {
		return fallback, nil
	}
	return cm.GetString(key)
}

func (cm *ConfigManager) getIntOr(key string, fallback int) (int, error) {
	if !cm.IsSet(key) {
		return fallback, nil
	}
	return cm.GetInt(key)
}

// loadMQTTConfig reads the connection settings shared by both roles.
func (cm *ConfigManager) loadMQTTConfig(clientIDKey string, defaultTimeout int) (MQTTConfig, error) {
	var cfg MQTTConfig
	var err error

	if cfg.Address, err = cm.GetString(KeyMQTTAddress); err != nil {
		return cfg, err
	}
	if cfg.ClientID, err = cm.GetString(clientIDKey); err != nil {
		return cfg, err
	}
	if cfg.Topic, err = cm.GetString(KeyTopic); err != nil {
		return cfg, err
	}
	if cfg.AckTopic, err = cm.GetString(KeyAckTopic); err != nil {
		return cfg, err
	}

	qos, err := cm.GetInt(KeyQoS)
	if err != nil {
		return cfg, err
	}
	if qos < 0 || qos > 2 {
		return cfg, fmt.Errorf("%w: %s must be 0, 1 or 2, got %d", ErrInvalidValue, KeyQoS, qos)
	}
	cfg.QoS = byte(qos)

	var timeoutMs int
	if defaultTimeout > 0 {
		timeoutMs, err = cm.getIntOr(KeyTimeout, defaultTimeout)
	} else {
		timeoutMs, err = cm.GetInt(KeyTimeout)
	}
	if err != nil {
		return cfg, err
	}
	if timeoutMs <= 0 {
		return cfg, fmt.Errorf("%w: %s must be positive milliseconds, got %d", ErrInvalidValue, KeyTimeout, timeoutMs)
	}
	cfg.Timeout = time.Duration(timeoutMs) * time.Millisecond

	keepAlive, err := cm.getIntOr(KeyKeepAliveSeconds, DefaultKeepAliveSeconds)
	if err != nil {
		return cfg, err
	}
	if keepAlive <= 0 {
		return cfg, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidValue, KeyKeepAliveSeconds, keepAlive)
	}
	cfg.KeepAlive = time.Duration(keepAlive) * time.Second

	return cfg, nil
}

// LoadPublisherConfig validates every key the publisher needs. Any missing key is an error.
func (cm *ConfigManager) LoadPublisherConfig() (*PublisherConfig, error) {
	if cm.v == nil {
		if err := cm.Load(); err != nil {
			return nil, err
		}
	}

	mqttConfig, err := cm.loadMQTTConfig(KeyClientIDPublisher, 0)
	if err != nil {
		return nil, err
	}

	source, err := cm.getStringOr(KeyInterfaceSource, InterfaceSourceNetlink)
	if err != nil {
		return nil, err
	}
	if source != InterfaceSourceNetlink && source != InterfaceSourceNL80211 {
		return nil, fmt.Errorf("%w: %s must be %q or %q, got %q",
			ErrInvalidValue, KeyInterfaceSource, InterfaceSourceNetlink, InterfaceSourceNL80211, source)
	}

	logLevel, err := cm.getStringOr(KeyLogLevel, DefaultLogLevel)
	if err != nil {
		return nil, err
	}

	return &PublisherConfig{
		MQTT:            mqttConfig,
		InterfaceSource: source,
		LogLevel:        logLevel,
	}, nil
}

// LoadSubscriberConfig validates every key the subscriber needs. timeout is optional here.
func (cm *ConfigManager) LoadSubscriberConfig() (*SubscriberConfig, error) {
	if cm.v == nil {
		if err := cm.Load(); err != nil {
			return nil, err
		}
	}

	mqttConfig, err := cm.loadMQTTConfig(KeyClientIDSubscriber, DefaultSubscriberTimeout)
	if err != nil {
		return nil, err
	}

	publishAck, err := cm.GetBool(KeyPublishAck, false)
	if err != nil {
		return nil, err
	}

	logLevel, err := cm.getStringOr(KeyLogLevel, DefaultLogLevel)
	if err != nil {
		return nil, err
	}

	return &SubscriberConfig{
		MQTT:       mqttConfig,
		PublishAck: publishAck,
		LogLevel:   logLevel,
	}, nil
}
