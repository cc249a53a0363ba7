package main

import "time"

type Config struct {
	SendBufferSize            int           `env:"SEND_BUFFER_SIZE,default=256"`
	ModerationEnabled         bool          `env:"MODERATION_ENABLED,default=true"`
	ModerationCharReplacement string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	SearchEnabled             bool          `env:"SEARCH_ENABLED,default=true"`
	TelemetryInterval         time.Duration `env:"TELEMETRY_INTERVAL,default=30s"`
	LogLevel                  string        `env:"LOG_LEVEL,required=true"`
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
}
