package config

import (
	"errors"
	"net"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel zapcore.Level
	Inverter InverterConfig `mapstructure:"inverter"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Port     uint           `mapstructure:"port"`
	HttpLog  bool           `mapstructure:"http_log"`
}

type InverterConfig struct {
	IPAddress            string `mapstructure:"ip_address"`
	ScanIntervalSeconds  uint   `mapstructure:"scan_interval_seconds"`
	RequestTimeoutMillis uint32 `mapstructure:"request_timeout_millis"`
}

type StorageConfig struct {
	Path string
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

// MinScanIntervalSeconds is the lowest poll interval accepted, both at
// startup and through runtime reconfiguration.
const MinScanIntervalSeconds = 10

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

func CheckIPAddress(ipAddress string) (string, error) {
	trimmed := strings.TrimSpace(ipAddress)
	if net.ParseIP(trimmed) == nil {
		return "", errors.New("invalid inverter IP address")
	}
	return trimmed, nil
}

func CheckScanInterval(seconds uint) (uint, error) {
	if seconds < MinScanIntervalSeconds {
		return 0, errors.New("scan interval too low")
	}
	return seconds, nil
}
