package providers

import (
	"github.com/samber/do/v2"

	"github.com/linknlink/linknlink-server/internal/config"
	"github.com/linknlink/linknlink-server/internal/logger"
	"github.com/linknlink/linknlink-server/internal/opengraph"
)

// MetadataCacheHandle wraps the OpenGraph cache. Cache is nil when caching
// is disabled or the cache could not be opened.
type MetadataCacheHandle struct {
	Cache *opengraph.BadgerCache
}

// Shutdown implements do.Shutdownable.
func (h *MetadataCacheHandle) Shutdown() error {
	if h.Cache == nil {
		return nil
	}
	return h.Cache.Close()
}

// ProvideMetadataCache provides the on-disk OpenGraph cache. Failing to
// open it is not fatal; lookups then always fetch.
func ProvideMetadataCache(i do.Injector) (*MetadataCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Metadata.CacheTTL == 0 {
		log.Info("Metadata cache disabled by configuration")
		return &MetadataCacheHandle{}, nil
	}

	cache, err := opengraph.OpenCache(cfg.CachePath(), cfg.Metadata.CacheTTL, log.Logger)
	if err != nil {
		log.WithError(err).Warn("Metadata cache unavailable, continuing without it")
		return &MetadataCacheHandle{}, nil
	}

	log.Info("Metadata cache opened", "path", cfg.CachePath(), "ttl", cfg.Metadata.CacheTTL)
	return &MetadataCacheHandle{Cache: cache}, nil
}

// MetadataResolverHandle wraps the OpenGraph resolver.
type MetadataResolverHandle struct {
	*opengraph.Resolver
}

// Shutdown implements do.Shutdownable.
func (h *MetadataResolverHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideMetadataResolver provides the OpenGraph resolver.
func ProvideMetadataResolver(i do.Injector) (*MetadataResolverHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	cacheHandle := do.MustInvoke[*MetadataCacheHandle](i)

	opts := opengraph.Options{
		Timeout:   cfg.Metadata.FetchTimeout,
		UserAgent: cfg.Metadata.UserAgent,
		Logger:    log.Logger,
	}
	if cacheHandle.Cache != nil {
		opts.Cache = cacheHandle.Cache
	}

	return &MetadataResolverHandle{Resolver: opengraph.New(opts)}, nil
}
