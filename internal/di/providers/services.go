package providers

import (
	"github.com/samber/do/v2"

	"github.com/linknlink/linknlink-server/internal/logger"
	"github.com/linknlink/linknlink-server/internal/service"
	"github.com/linknlink/linknlink-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, validator, log.Logger), nil
}

// ProvideTagResolver provides the tag name resolver used when saving links.
func ProvideTagResolver(i do.Injector) (*service.TagResolver, error) {
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagResolver(log.Logger), nil
}

// ProvideLinkService provides the link service.
func ProvideLinkService(i do.Injector) (*service.LinkService, error) {
	tags := do.MustInvoke[*service.TagResolver](i)
	resolver := do.MustInvoke[*MetadataResolverHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLinkService(tags, resolver.Resolver, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(validator, log.Logger), nil
}

// ProvideProfileService provides the profile service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(log.Logger), nil
}
