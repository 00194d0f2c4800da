package pocketbase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/linknlink/linknlink-server/internal/domain"
	"github.com/linknlink/linknlink-server/internal/store"
)

// fullListBatch is the page size used when fetching every record.
const fullListBatch = 200

// session carries one caller's token. It is created per request and never
// mutated, so concurrent requests can't observe each other's auth.
type session struct {
	client *Client
	token  string
}

var _ store.Session = (*session)(nil)

func (s *session) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return s.client.do(ctx, s.token, method, path, query, body, out)
}

// CurrentUser fetches the user record with the session's token. Any
// refusal from PocketBase means the token doesn't belong to userID.
func (s *session) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	var rec userRecord
	err := s.do(ctx, http.MethodGet, recordPath(collectionUsers, userID), nil, nil, &rec)
	if err != nil {
		var se *store.Error
		if errors.As(err, &se) && se.Code < 500 {
			return nil, store.ErrUnauthorized.WithCause(err)
		}
		return nil, err
	}
	if rec.ID != userID {
		return nil, store.ErrUnauthorized
	}
	return rec.toDomain(), nil
}

func (s *session) UpdateUser(ctx context.Context, userID, name string) (*domain.User, error) {
	var rec userRecord
	if err := s.do(ctx, http.MethodPatch, recordPath(collectionUsers, userID), nil, map[string]string{"name": name}, &rec); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (s *session) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	q := url.Values{}
	q.Set("filter", "user = "+Quote(userID))
	q.Set("sort", "name")
	q.Set("perPage", strconv.Itoa(fullListBatch))

	tags := []*domain.Tag{}
	for page := 1; ; page++ {
		q.Set("page", strconv.Itoa(page))

		var resp listResponse[tagRecord]
		if err := s.do(ctx, http.MethodGet, recordsPath(collectionTags), q, nil, &resp); err != nil {
			return nil, err
		}
		for _, r := range resp.Items {
			tags = append(tags, r.toDomain())
		}
		if page >= resp.TotalPages || len(resp.Items) == 0 {
			return tags, nil
		}
	}
}

func (s *session) FindTagByName(ctx context.Context, userID, name string) (*domain.Tag, error) {
	q := url.Values{}
	q.Set("filter", And("user = "+Quote(userID), "name = "+Quote(name)))
	q.Set("perPage", "1")
	q.Set("skipTotal", "1")

	var resp listResponse[tagRecord]
	if err := s.do(ctx, http.MethodGet, recordsPath(collectionTags), q, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, store.ErrNotFound
	}
	return resp.Items[0].toDomain(), nil
}

func (s *session) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	var rec tagRecord
	if err := s.do(ctx, http.MethodGet, recordPath(collectionTags, tagID), nil, nil, &rec); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (s *session) CreateTag(ctx context.Context, t *domain.Tag) (*domain.Tag, error) {
	body := map[string]string{"name": t.Name, "color": t.Color, "user": t.User}

	var rec tagRecord
	if err := s.do(ctx, http.MethodPost, recordsPath(collectionTags), nil, body, &rec); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (s *session) UpdateTag(ctx context.Context, tagID string, upd domain.TagUpdate) (*domain.Tag, error) {
	body := map[string]string{}
	if upd.Name != nil {
		body["name"] = *upd.Name
	}
	if upd.Color != nil {
		body["color"] = *upd.Color
	}

	var rec tagRecord
	if err := s.do(ctx, http.MethodPatch, recordPath(collectionTags, tagID), nil, body, &rec); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (s *session) DeleteTag(ctx context.Context, tagID string) error {
	return s.do(ctx, http.MethodDelete, recordPath(collectionTags, tagID), nil, nil, nil)
}

func (s *session) ListLinks(ctx context.Context, lq store.LinkQuery) (*store.LinkPage, error) {
	filter := "user = " + Quote(lq.UserID)
	if lq.Search != "" {
		term := Quote(lq.Search)
		filter = And(filter, "(title ~ "+term+" || description ~ "+term+" || url ~ "+term+")")
	}
	if lq.TagID != "" {
		filter = And(filter, "tags ~ "+Quote(lq.TagID))
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(lq.Page))
	q.Set("perPage", strconv.Itoa(lq.PerPage))
	q.Set("filter", filter)
	q.Set("sort", "-created")
	q.Set("expand", "tags")

	var resp listResponse[linkRecord]
	if err := s.do(ctx, http.MethodGet, recordsPath(collectionLinks), q, nil, &resp); err != nil {
		return nil, err
	}

	page := &store.LinkPage{
		Items:      make([]*domain.Link, 0, len(resp.Items)),
		Page:       resp.Page,
		PerPage:    resp.PerPage,
		TotalItems: resp.TotalItems,
		TotalPages: resp.TotalPages,
	}
	for _, r := range resp.Items {
		page.Items = append(page.Items, r.toDomain())
	}
	return page, nil
}

func expandTags() url.Values {
	return url.Values{"expand": []string{"tags"}}
}

func (s *session) GetLink(ctx context.Context, linkID string) (*domain.Link, error) {
	var rec linkRecord
	if err := s.do(ctx, http.MethodGet, recordPath(collectionLinks, linkID), expandTags(), nil, &rec); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (s *session) CreateLink(ctx context.Context, l *domain.Link) (*domain.Link, error) {
	var rec linkRecord
	if err := s.do(ctx, http.MethodPost, recordsPath(collectionLinks), expandTags(), newLinkBody(l), &rec); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (s *session) UpdateLink(ctx context.Context, linkID string, upd domain.LinkUpdate) (*domain.Link, error) {
	body := map[string]any{}
	if upd.Tags != nil {
		tags := *upd.Tags
		if tags == nil {
			tags = []string{}
		}
		body["tags"] = tags
	}
	if upd.Title != nil {
		body["title"] = *upd.Title
	}
	if upd.Description != nil {
		body["description"] = *upd.Description
	}
	if upd.Notes != nil {
		body["notes"] = *upd.Notes
	}
	if upd.IsFavorite != nil {
		body["is_favorite"] = *upd.IsFavorite
	}
	if upd.Archived != nil {
		body["archived"] = *upd.Archived
	}

	var rec linkRecord
	if err := s.do(ctx, http.MethodPatch, recordPath(collectionLinks, linkID), expandTags(), body, &rec); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (s *session) DeleteLink(ctx context.Context, linkID string) error {
	return s.do(ctx, http.MethodDelete, recordPath(collectionLinks, linkID), nil, nil, nil)
}
