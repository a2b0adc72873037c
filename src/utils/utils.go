package utils

import (
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultConfigPath is used when neither a flag nor the environment names a config file.
const DefaultConfigPath = "config.json"

// ConfigPathEnv overrides the configuration file location.
const ConfigPathEnv = "WIFISCAN_CONFIG_PATH"

// GetConfigPath returns the configuration file path, preferring an explicit flag value,
// then the environment variable, then the default.
func GetConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if configPath := os.Getenv(ConfigPathEnv); configPath != "" {
		return configPath
	}
	return DefaultConfigPath
}

// InitializeGlobalLogger configures logrus with the specified log level for the entire application.
// This should be called once at program startup.
func InitializeGlobalLogger(logLevel string) {
	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = logrus.InfoLevel
		logrus.WithError(err).Warn("Failed to parse log level, defaulting to info")
	}

	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	logrus.WithField("log_level", level.String()).Debug("Global logger initialized")
}

var (
	colonMACPattern  = regexp.MustCompile(`^([0-9A-F]{2}[:]){5}([0-9A-F]{2})$`)
	hyphenMACPattern = regexp.MustCompile(`^([0-9A-F]{2}[-]){5}([0-9A-F]{2})$`)
)

// ValidateMACAddress checks if a string is a valid MAC address in
// XX:XX:XX:XX:XX:XX or XX-XX-XX-XX-XX-XX form, case insensitive.
func ValidateMACAddress(mac string) bool {
	mac = strings.ToUpper(strings.TrimSpace(mac))
	if mac == "" {
		return false
	}
	return colonMACPattern.MatchString(mac) || hyphenMACPattern.MatchString(mac)
}
