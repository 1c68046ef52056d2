package events

import (
	"go.uber.org/zap"

	"cybernauts/backend/pkg/config"
	"cybernauts/backend/pkg/logger"
)

// New builds the bus selected by cfg.EventsBackend. name identifies the
// worker on transports that support client names. A broadcast layer that
// cannot be set up degrades to Noop rather than failing startup.
func New(cfg *config.Config, name string, log *zap.Logger) (Bus, error) {
	log = logger.OrDefault(log)

	switch cfg.EventsBackend {
	case config.EventsRedis:
		bus, err := NewRedisBus(cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		log.Info("Broadcasting mutations over Redis pub/sub")
		return bus, nil

	case config.EventsNATS:
		bus, err := ConnectNATS(cfg.NATSURL, name, log)
		if err != nil {
			log.Warn("NATS unavailable, mutation broadcasts disabled", zap.Error(err))
			return Noop{}, nil
		}
		log.Info("Broadcasting mutations over NATS", zap.String("url", cfg.NATSURL))
		return bus, nil
	}

	log.Info("Mutation broadcasts disabled")
	return Noop{}, nil
}
