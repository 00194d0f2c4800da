package api

import (
	"github.com/linknlink/linknlink-server/internal/service"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Auth    *service.AuthService
	Link    *service.LinkService
	Tag     *service.TagService
	Profile *service.ProfileService
}
