package config

import (
	"log/slog"

	"rtcphone-go/bus"
)

const configPrefix = "config"

// Topic returns the retained topic of one section.
func Topic(section string) bus.Topic { return bus.T(configPrefix, section) }

// ConfigService publishes the loaded configuration as retained messages,
// one per section, so services can read their settings from the bus.
type ConfigService struct {
	cfg *Config
	log *slog.Logger
}

func NewConfigService(cfg *Config, log *slog.Logger) *ConfigService {
	if log == nil {
		log = slog.Default()
	}
	return &ConfigService{cfg: cfg, log: log.With("service", "config")}
}

// Publish sends every section once.
func (s *ConfigService) Publish(conn *bus.Connection) {
	for k, v := range s.cfg.Sections() {
		conn.Publish(conn.NewMessage(Topic(k), v, true))
	}
	s.log.Debug("configuration published", "board", s.cfg.Board)
}
