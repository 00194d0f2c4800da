package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linknlink/linknlink-server/internal/domain"
	"github.com/linknlink/linknlink-server/internal/service"
	"github.com/linknlink/linknlink-server/internal/store"
)

func (s *Server) registerLinkRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createLink",
		Method:        http.MethodPost,
		Path:          "/api/links",
		Summary:       "Save link",
		Description:   "Saves a URL, filling title, description and image from the page's OpenGraph tags unless a title or description is given. Tag names are created on demand.",
		Tags:          []string{"Links"},
		Security:      secured,
		DefaultStatus: http.StatusOK,
	}, s.handleCreateLink)

	huma.Register(s.api, huma.Operation{
		OperationID:   "listLinks",
		Method:        http.MethodGet,
		Path:          "/api/links",
		Summary:       "List links",
		Description:   "Returns a page of the caller's links, newest first",
		Tags:          []string{"Links"},
		Security:      secured,
		DefaultStatus: http.StatusOK,
	}, s.handleListLinks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "getLink",
		Method:        http.MethodGet,
		Path:          "/api/links/{id}",
		Summary:       "Get link",
		Tags:          []string{"Links"},
		Security:      secured,
		DefaultStatus: http.StatusOK,
	}, s.handleGetLink)

	huma.Register(s.api, huma.Operation{
		OperationID:   "updateLink",
		Method:        http.MethodPut,
		Path:          "/api/links/{id}",
		Summary:       "Update link",
		Description:   "Updates the given fields of a link. Tags are tag ids owned by the caller.",
		Tags:          []string{"Links"},
		Security:      secured,
		DefaultStatus: http.StatusOK,
	}, s.handleUpdateLink)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteLink",
		Method:        http.MethodDelete,
		Path:          "/api/links/{id}",
		Summary:       "Delete link",
		Tags:          []string{"Links"},
		Security:      secured,
		DefaultStatus: http.StatusOK,
	}, s.handleDeleteLink)
}

// === DTOs ===

// CreateLinkRequest is the request body for saving a link.
type CreateLinkRequest struct {
	_           struct{} `json:"-" additionalProperties:"true"`
	URL         string   `json:"url,omitempty" doc:"Absolute http(s) URL"`
	Title       string   `json:"title,omitempty" doc:"Title; skips the metadata fetch when set"`
	Description string   `json:"description,omitempty" doc:"Description; skips the metadata fetch when set"`
	Notes       string   `json:"notes,omitempty" doc:"Free-form notes"`
	Tags        []any    `json:"tags,omitempty" doc:"Tag names; entries that are not strings are ignored"`
}

// CreateLinkInput wraps the create link request for Huma.
type CreateLinkInput struct {
	Body CreateLinkRequest
}

// LinkOutput wraps a link for Huma.
type LinkOutput struct {
	Body *domain.Link
}

// ListLinksInput contains parameters for listing links. Values are parsed
// leniently: an unusable page or page size falls back to the default.
type ListLinksInput struct {
	Page    string `query:"page" doc:"1-based page number (default 1)"`
	PerPage string `query:"perPage" doc:"Page size, 1 to 50 (default 12)"`
	Search  string `query:"search" doc:"Substring matched against title, description and URL"`
	TagID   string `query:"tagId" doc:"Only links carrying this tag"`
}

// LinkPageOutput wraps a page of links for Huma.
type LinkPageOutput struct {
	Body *store.LinkPage
}

// LinkIDInput identifies a link.
type LinkIDInput struct {
	ID string `path:"id" doc:"Link ID"`
}

// UpdateLinkRequest is the request body for updating a link.
type UpdateLinkRequest struct {
	_           struct{}  `json:"-" additionalProperties:"true"`
	Tags        *[]string `json:"tags,omitempty" doc:"Tag IDs; replaces the link's tags"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	IsFavorite  *bool     `json:"is_favorite,omitempty"`
	Archived    *bool     `json:"archived,omitempty"`
}

// UpdateLinkInput wraps the update link request for Huma.
type UpdateLinkInput struct {
	ID   string `path:"id" doc:"Link ID"`
	Body UpdateLinkRequest
}

// SuccessOutput wraps a bare acknowledgement for Huma.
type SuccessOutput struct {
	Body SuccessResponse
}

// === Handlers ===

func (s *Server) handleCreateLink(ctx context.Context, input *CreateLinkInput) (*LinkOutput, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	link, err := s.services.Link.CreateLink(ctx, caller, service.CreateLinkInput{
		URL:         input.Body.URL,
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Notes:       input.Body.Notes,
		Tags:        tagNames(input.Body.Tags),
	})
	if err != nil {
		return nil, err
	}

	return &LinkOutput{Body: link}, nil
}

// tagNames keeps the string entries of a captured tag list.
func tagNames(raw []any) []string {
	names := make([]string, 0, len(raw))
	for _, v := range raw {
		if name, ok := v.(string); ok {
			names = append(names, name)
		}
	}
	return names
}

func (s *Server) handleListLinks(ctx context.Context, input *ListLinksInput) (*LinkPageOutput, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Link.ListLinks(ctx, caller, service.ListLinksInput{
		Page:    input.Page,
		PerPage: input.PerPage,
		Search:  input.Search,
		TagID:   input.TagID,
	})
	if err != nil {
		return nil, err
	}

	return &LinkPageOutput{Body: page}, nil
}

func (s *Server) handleGetLink(ctx context.Context, input *LinkIDInput) (*LinkOutput, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	link, err := s.services.Link.GetLink(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}

	return &LinkOutput{Body: link}, nil
}

func (s *Server) handleUpdateLink(ctx context.Context, input *UpdateLinkInput) (*LinkOutput, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	link, err := s.services.Link.UpdateLink(ctx, caller, input.ID, service.UpdateLinkInput{
		Tags:        input.Body.Tags,
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Notes:       input.Body.Notes,
		IsFavorite:  input.Body.IsFavorite,
		Archived:    input.Body.Archived,
	})
	if err != nil {
		return nil, err
	}

	return &LinkOutput{Body: link}, nil
}

func (s *Server) handleDeleteLink(ctx context.Context, input *LinkIDInput) (*SuccessOutput, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Link.DeleteLink(ctx, caller, input.ID); err != nil {
		return nil, err
	}

	return &SuccessOutput{Body: SuccessResponse{Success: true}}, nil
}
