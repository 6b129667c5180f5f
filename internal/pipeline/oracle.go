package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/punctuate/internal/cache"
	"github.com/ppiankov/punctuate/internal/model"
	"github.com/ppiankov/punctuate/internal/oracle"
)

// NewOracle builds the configured oracle, wrapped with the label cache when
// caching is enabled.
func NewOracle(ctx context.Context, cfg *model.Config, logger *zap.Logger) (oracle.Oracle, error) {
	oc := oracle.ConfigFromModel(cfg)
	o, err := oracle.NewOracle(ctx, oc)
	if err != nil {
		return nil, fmt.Errorf("create oracle: %w", err)
	}

	if !cfg.Cache.Enabled || o.Name() == "neutral" {
		return o, nil
	}

	c := cache.New(cfg.Cache.Dir, cfg.Cache.MemoryTTL, cfg.Cache.DiskTTL)
	if logger != nil {
		logger.Debug("label cache enabled",
			zap.String("dir", cfg.Cache.Dir),
			zap.Duration("memory_ttl", cfg.Cache.MemoryTTL),
			zap.Duration("disk_ttl", cfg.Cache.DiskTTL))
	}
	// zero ttl lets each cache layer apply its own expiry
	return oracle.NewCachedOracle(o, oc, c, 0), nil
}
