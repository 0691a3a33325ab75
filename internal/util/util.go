package util

import (
	"openinverter2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Inverter: config.InverterConfig{
			IPAddress:            "127.0.0.1",
			ScanIntervalSeconds:  60,
			RequestTimeoutMillis: 5000,
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "openinverter",
		},
		Storage: config.StorageConfig{
			Path: "openinverter2mqtt.db",
		},
		Port: 8080,
	}
}
