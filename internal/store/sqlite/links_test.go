package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/linknlink/linknlink-server/internal/domain"
	"github.com/linknlink/linknlink-server/internal/store"
)

func mustTag(t *testing.T, sess store.Session, userID, name string) *domain.Tag {
	t.Helper()
	tag, err := sess.CreateTag(context.Background(), &domain.Tag{User: userID, Name: name, Color: "#3b82f6"})
	if err != nil {
		t.Fatalf("CreateTag(%s): %v", name, err)
	}
	return tag
}

func TestCreateAndGetLink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ident, sess := signup(t, s, "ada@example.com")
	uid := ident.Model.ID

	news := mustTag(t, sess, uid, "news")
	tech := mustTag(t, sess, uid, "tech")

	created, err := sess.CreateLink(ctx, &domain.Link{
		URL:        "https://example.com/a",
		Title:      "Example",
		OGSiteName: "Example Site",
		Tags:       []string{tech.ID, news.ID, tech.ID},
		User:       uid,
	})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}

	got, err := sess.GetLink(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetLink: %v", err)
	}
	if got.URL != "https://example.com/a" || got.Title != "Example" || got.OGSiteName != "Example Site" {
		t.Errorf("fields did not round-trip: %+v", got)
	}
	if got.User != uid {
		t.Errorf("User: got %q, want %q", got.User, uid)
	}
	if len(got.Tags) != 2 || got.Tags[0] != tech.ID || got.Tags[1] != news.ID {
		t.Errorf("Tags: got %v, want [%s %s]", got.Tags, tech.ID, news.ID)
	}
	if got.Expand == nil || len(got.Expand.Tags) != 2 || got.Expand.Tags[0].Name != "tech" {
		t.Errorf("Expand.Tags: got %+v", got.Expand)
	}
}

func TestCreateLink_NoTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ident, sess := signup(t, s, "ada@example.com")

	created, err := sess.CreateLink(ctx, &domain.Link{URL: "https://example.com", User: ident.Model.ID})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	if created.Tags == nil || len(created.Tags) != 0 {
		t.Errorf("expected empty tag list, got %#v", created.Tags)
	}
}

func TestCreateLink_UnknownTag(t *testing.T) {
	s := newTestStore(t)
	ident, sess := signup(t, s, "ada@example.com")

	_, err := sess.CreateLink(context.Background(), &domain.Link{
		URL:  "https://example.com",
		User: ident.Model.ID,
		Tags: []string{"doesnotexist123"},
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateLink_ForOtherUser(t *testing.T) {
	s := newTestStore(t)
	ada, _ := signup(t, s, "ada@example.com")
	_, bobSess := signup(t, s, "bob@example.com")

	_, err := bobSess.CreateLink(context.Background(), &domain.Link{URL: "https://example.com", User: ada.Model.ID})
	if !errors.Is(err, store.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateLink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ident, sess := signup(t, s, "ada@example.com")
	uid := ident.Model.ID
	tag := mustTag(t, sess, uid, "keep")

	created, err := sess.CreateLink(ctx, &domain.Link{URL: "https://example.com", Title: "Old", Notes: "n", User: uid})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}

	title, fav := "New", true
	tags := []string{tag.ID}
	updated, err := sess.UpdateLink(ctx, created.ID, domain.LinkUpdate{Title: &title, IsFavorite: &fav, Tags: &tags})
	if err != nil {
		t.Fatalf("UpdateLink: %v", err)
	}
	if updated.Title != "New" || !updated.IsFavorite || updated.Notes != "n" {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != tag.ID {
		t.Errorf("Tags: got %v", updated.Tags)
	}

	empty := []string{}
	cleared, err := sess.UpdateLink(ctx, created.ID, domain.LinkUpdate{Tags: &empty})
	if err != nil {
		t.Fatalf("UpdateLink: %v", err)
	}
	if len(cleared.Tags) != 0 || cleared.Title != "New" {
		t.Errorf("expected tags cleared and title kept, got %+v", cleared)
	}

	if _, err := sess.UpdateLink(ctx, "missing", domain.LinkUpdate{Title: &title}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTag_DetachesFromLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ident, sess := signup(t, s, "ada@example.com")
	uid := ident.Model.ID
	tag := mustTag(t, sess, uid, "gone")

	link, err := sess.CreateLink(ctx, &domain.Link{URL: "https://example.com", User: uid, Tags: []string{tag.ID}})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	if err := sess.DeleteTag(ctx, tag.ID); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	got, err := sess.GetLink(ctx, link.ID)
	if err != nil {
		t.Fatalf("GetLink: %v", err)
	}
	if len(got.Tags) != 0 {
		t.Errorf("expected tag detached, got %v", got.Tags)
	}
}

func TestDeleteLink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ident, sess := signup(t, s, "ada@example.com")

	link, err := sess.CreateLink(ctx, &domain.Link{URL: "https://example.com", User: ident.Model.ID})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	if err := sess.DeleteLink(ctx, link.ID); err != nil {
		t.Fatalf("DeleteLink: %v", err)
	}
	if _, err := sess.GetLink(ctx, link.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := sess.DeleteLink(ctx, link.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestListLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ada, sess := signup(t, s, "ada@example.com")
	bob, bobSess := signup(t, s, "bob@example.com")
	uid := ada.Model.ID
	golang := mustTag(t, sess, uid, "golang")

	// Deterministic, increasing creation times.
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := range 5 {
		l := &domain.Link{URL: fmt.Sprintf("https://example.com/%d", i), Title: fmt.Sprintf("Post %d", i), User: uid}
		if i%2 == 0 {
			l.Tags = []string{golang.ID}
		}
		if i == 3 {
			l.Description = "100% pure_go"
		}
		if _, err := sess.CreateLink(ctx, l); err != nil {
			t.Fatalf("CreateLink %d: %v", i, err)
		}
	}
	if _, err := bobSess.CreateLink(ctx, &domain.Link{URL: "https://bob.example.com", Title: "Post bob", User: bob.Model.ID}); err != nil {
		t.Fatalf("CreateLink bob: %v", err)
	}

	t.Run("newest first with pagination", func(t *testing.T) {
		page, err := sess.ListLinks(ctx, store.LinkQuery{UserID: uid, Page: 1, PerPage: 2})
		if err != nil {
			t.Fatalf("ListLinks: %v", err)
		}
		if page.TotalItems != 5 || page.TotalPages != 3 || len(page.Items) != 2 {
			t.Fatalf("unexpected page: total=%d pages=%d items=%d", page.TotalItems, page.TotalPages, len(page.Items))
		}
		if page.Items[0].Title != "Post 4" || page.Items[1].Title != "Post 3" {
			t.Errorf("order: got %q, %q", page.Items[0].Title, page.Items[1].Title)
		}

		last, err := sess.ListLinks(ctx, store.LinkQuery{UserID: uid, Page: 3, PerPage: 2})
		if err != nil {
			t.Fatalf("ListLinks: %v", err)
		}
		if len(last.Items) != 1 || last.Items[0].Title != "Post 0" {
			t.Errorf("last page: got %d items", len(last.Items))
		}
	})

	t.Run("tag filter expands tags", func(t *testing.T) {
		page, err := sess.ListLinks(ctx, store.LinkQuery{UserID: uid, Page: 1, PerPage: 50, TagID: golang.ID})
		if err != nil {
			t.Fatalf("ListLinks: %v", err)
		}
		if page.TotalItems != 3 {
			t.Errorf("TotalItems: got %d, want 3", page.TotalItems)
		}
		for _, l := range page.Items {
			if len(l.Expand.Tags) != 1 || l.Expand.Tags[0].Name != "golang" {
				t.Errorf("link %s: expand %+v", l.ID, l.Expand)
			}
		}
	})

	t.Run("search matches literally", func(t *testing.T) {
		cases := map[string]int{
			"post":         5, // case-insensitive
			"example.com/": 5,
			"100%":         1,
			"pure_go":      1,
			"%":            1,
			"_":            1,
			"bob":          0,
		}
		for term, want := range cases {
			page, err := sess.ListLinks(ctx, store.LinkQuery{UserID: uid, Page: 1, PerPage: 50, Search: term})
			if err != nil {
				t.Fatalf("ListLinks(%q): %v", term, err)
			}
			if page.TotalItems != want {
				t.Errorf("search %q: got %d, want %d", term, page.TotalItems, want)
			}
		}
	})

	t.Run("other users are forbidden", func(t *testing.T) {
		_, err := bobSess.ListLinks(ctx, store.LinkQuery{UserID: uid, Page: 1, PerPage: 10})
		if !errors.Is(err, store.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}
