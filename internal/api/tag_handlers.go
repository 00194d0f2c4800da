package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linknlink/linknlink-server/internal/domain"
	"github.com/linknlink/linknlink-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "listTags",
		Method:        http.MethodGet,
		Path:          "/api/tags",
		Summary:       "List tags",
		Description:   "Returns the caller's tags sorted by name, or fuzzy-ranked when q is given",
		Tags:          []string{"Tags"},
		Security:      secured,
		DefaultStatus: http.StatusOK,
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTag",
		Method:        http.MethodPost,
		Path:          "/api/tags",
		Summary:       "Create tag",
		Tags:          []string{"Tags"},
		Security:      secured,
		DefaultStatus: http.StatusOK,
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID:   "updateTag",
		Method:        http.MethodPut,
		Path:          "/api/tags/{id}",
		Summary:       "Update tag",
		Tags:          []string{"Tags"},
		Security:      secured,
		DefaultStatus: http.StatusOK,
	}, s.handleUpdateTag)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteTag",
		Method:        http.MethodDelete,
		Path:          "/api/tags/{id}",
		Summary:       "Delete tag",
		Description:   "Deletes a tag and removes it from every link",
		Tags:          []string{"Tags"},
		Security:      secured,
		DefaultStatus: http.StatusOK,
	}, s.handleDeleteTag)
}

// === DTOs ===

// ListTagsInput contains parameters for listing tags.
type ListTagsInput struct {
	Query string `query:"q" doc:"Fuzzy filter on tag names"`
}

// ListTagsOutput wraps the tag list for Huma. The body is a bare array.
type ListTagsOutput struct {
	Body []*domain.Tag
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	_     struct{} `json:"-" additionalProperties:"true"`
	Name  string   `json:"name,omitempty" doc:"Tag name, up to 100 characters"`
	Color string   `json:"color,omitempty" doc:"Hex color, #RGB or #RRGGBB (default #3b82f6)"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Body CreateTagRequest
}

// TagOutput wraps a tag for Huma.
type TagOutput struct {
	Body *domain.Tag
}

// UpdateTagRequest is the request body for updating a tag.
type UpdateTagRequest struct {
	_     struct{} `json:"-" additionalProperties:"true"`
	Name  *string  `json:"name,omitempty" doc:"Tag name"`
	Color *string  `json:"color,omitempty" doc:"Hex color"`
}

// UpdateTagInput wraps the update tag request for Huma.
type UpdateTagInput struct {
	ID   string `path:"id" doc:"Tag ID"`
	Body UpdateTagRequest
}

// DeleteTagInput contains parameters for deleting a tag.
type DeleteTagInput struct {
	ID string `path:"id" doc:"Tag ID"`
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *ListTagsInput) (*ListTagsOutput, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.ListTags(ctx, caller, input.Query)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []*domain.Tag{}
	}

	return &ListTagsOutput{Body: tags}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.CreateTag(ctx, caller, service.CreateTagInput{
		Name:  input.Body.Name,
		Color: input.Body.Color,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: tag}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.UpdateTag(ctx, caller, input.ID, service.UpdateTagInput{
		Name:  input.Body.Name,
		Color: input.Body.Color,
	})
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: tag}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *DeleteTagInput) (*SuccessOutput, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Tag.DeleteTag(ctx, caller, input.ID); err != nil {
		return nil, err
	}

	return &SuccessOutput{Body: SuccessResponse{Success: true}}, nil
}
