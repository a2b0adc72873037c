package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/config_manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSubscriberConfig(t *testing.T) {
	previous := configPath
	defer func() { configPath = previous }()

	configPath = filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{
		"mqtt_address": "broker.local",
		"client_id_subscriber": "sub",
		"topic": "wifi/scan",
		"ack_topic": "wifi/ack",
		"qos": 1
	}`), 0644))

	cfg, err := loadSubscriberConfig()
	require.NoError(t, err)
	assert.Equal(t, "sub", cfg.MQTT.ClientID)
	assert.False(t, cfg.PublishAck)
}

func TestLoadSubscriberConfigMissingKey(t *testing.T) {
	previous := configPath
	defer func() { configPath = previous }()

	configPath = filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"mqtt_address": "broker.local"}`), 0644))

	_, err := loadSubscriberConfig()
	assert.ErrorIs(t, err, config_manager.ErrMissingKey)
}
