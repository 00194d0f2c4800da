// Package di provides dependency injection configuration for the LinknLink server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/linknlink/linknlink-server/internal/auth"
	"github.com/linknlink/linknlink-server/internal/config"
	"github.com/linknlink/linknlink-server/internal/di/providers"
	"github.com/linknlink/linknlink-server/internal/logger"
	"github.com/linknlink/linknlink-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Auth layer
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideResolver)

	// Record backend
	do.Provide(injector, providers.ProvideStore)

	// Metadata layer
	do.Provide(injector, providers.ProvideMetadataCache)
	do.Provide(injector, providers.ProvideMetadataResolver)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideTagResolver)
	do.Provide(injector, providers.ProvideLinkService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideProfileService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*auth.Resolver](injector)
	_ = do.MustInvoke[*providers.MetadataCacheHandle](injector)
	_ = do.MustInvoke[*providers.MetadataResolverHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.LinkService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.ProfileService](injector)

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
