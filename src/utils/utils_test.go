package utils

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestGetConfigPath(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")
	assert.Equal(t, DefaultConfigPath, GetConfigPath(""))

	t.Setenv(ConfigPathEnv, "/etc/wifiscan/config.json")
	assert.Equal(t, "/etc/wifiscan/config.json", GetConfigPath(""))
	assert.Equal(t, "/tmp/override.json", GetConfigPath("/tmp/override.json"))
}

func TestInitializeGlobalLogger(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	InitializeGlobalLogger("DEBUG")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	InitializeGlobalLogger("not-a-level")
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestValidateMACAddress(t *testing.T) {
	tests := []struct {
		mac  string
		want bool
	}{
		{"aa:bb:cc:dd:ee:ff", true},
		{"AA-BB-CC-DD-EE-FF", true},
		{" 00:11:22:33:44:55 ", true},
		{"", false},
		{"aa:bb:cc:dd:ee", false},
		{"aabbccddeeff", false},
		{"gg:bb:cc:dd:ee:ff", false},
	}

	for _, tt := range tests {
		t.Run(tt.mac, func(t *testing.T) {
			if got := ValidateMACAddress(tt.mac); got != tt.want {
				t.Errorf("ValidateMACAddress(%q) = %v, want %v", tt.mac, got, tt.want)
			}
		})
	}
}
