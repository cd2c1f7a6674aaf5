package storage

import (
	"github.com/samuel161415/BryteSpring/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.storage",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) (ObjectStore, error) {
	if cfg.Spaces.Endpoint == "" || cfg.Spaces.Bucket == "" {
		log.Warn("no object store configured, uploads disabled")
		return &NoOpStore{}, nil
	}
	return NewSpaces(cfg.Spaces)
}
