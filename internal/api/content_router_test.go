package api

import (
	"net/http"
	"testing"

	"github.com/safehaven/safehaven-api/internal/services"
)

func TestContentRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)
	paths := []struct{ method, path string }{
		{http.MethodPost, "/api/articles"},
		{http.MethodPatch, "/api/articles/x"},
		{http.MethodDelete, "/api/articles/x"},
		{http.MethodGet, "/api/help-centers"},
		{http.MethodPost, "/api/help-centers"},
		{http.MethodGet, "/api/help-centers/x"},
		{http.MethodGet, "/api/user-story"},
		{http.MethodGet, "/api/user-story/statistics"},
		{http.MethodDelete, "/api/user-story/x"},
		{http.MethodGet, "/api/testimonial"},
		{http.MethodPost, "/api/testimonial/bulk-delete"},
		{http.MethodPatch, "/api/testimonial/x/toggle-publish"},
	}
	for _, p := range paths {
		if rr := s.do(t, p.method, p.path, nil, false); rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: status = %d, want 401", p.method, p.path, rr.Code)
		}
	}
	for _, public := range []string{"/api/articles", "/api/testimonial/published"} {
		if rr := s.do(t, http.MethodGet, public, nil, false); rr.Code != http.StatusOK {
			t.Fatalf("GET %s: status = %d, want 200", public, rr.Code)
		}
	}
}

func TestRouterArticles(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodPost, "/api/articles", map[string]any{
		"title": "Safety planning", "slug": "safety-planning", "content": "Steps", "author": "Team", "published": true,
	}, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rr.Code, rr.Body.String())
	}
	a := decodeBody[services.Article](t, rr)
	if a.PublishedAt == nil {
		t.Fatalf("published article has no publishedAt: %+v", a)
	}

	rr = s.do(t, http.MethodPost, "/api/articles", map[string]any{"title": "x", "slug": "safety-planning", "content": "y", "author": "z"}, true)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate slug = %d %s", rr.Code, rr.Body.String())
	}

	rr = s.do(t, http.MethodGet, "/api/articles/slug/safety-planning", nil, false)
	if rr.Code != http.StatusOK || decodeBody[services.Article](t, rr).ID != a.ID {
		t.Fatalf("by slug = %d %s", rr.Code, rr.Body.String())
	}
	rr = s.do(t, http.MethodPatch, "/api/articles/"+a.ID, map[string]any{"published": false}, true)
	if rr.Code != http.StatusOK || decodeBody[services.Article](t, rr).PublishedAt != nil {
		t.Fatalf("unpublish = %d %s", rr.Code, rr.Body.String())
	}
	rr = s.do(t, http.MethodGet, "/api/articles?published=true", nil, false)
	if list := decodeBody[[]services.Article](t, rr); len(list) != 0 {
		t.Fatalf("published list = %+v", list)
	}
	if rr := s.do(t, http.MethodDelete, "/api/articles/"+a.ID, nil, true); rr.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rr.Code)
	}
	if rr := s.do(t, http.MethodGet, "/api/articles/"+a.ID, nil, false); rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d", rr.Code)
	}
}

func TestRouterHelpCenters(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodPost, "/api/help-centers", map[string]any{
		"name": "Crisis line", "email": "line@example.com", "isActive": false,
	}, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rr.Code, rr.Body.String())
	}
	h := decodeBody[services.HelpCenter](t, rr)
	if h.IsActive {
		t.Fatalf("explicit isActive=false ignored: %+v", h)
	}
	rr = s.do(t, http.MethodGet, "/api/help-centers?isActive=true", nil, true)
	if list := decodeBody[[]services.HelpCenter](t, rr); len(list) != 0 {
		t.Fatalf("active list = %+v", list)
	}
	rr = s.do(t, http.MethodPatch, "/api/help-centers/"+h.ID, map[string]any{"email": "bad"}, true)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad email update = %d", rr.Code)
	}
	if rr := s.do(t, http.MethodDelete, "/api/help-centers/missing", nil, true); rr.Code != http.StatusNotFound {
		t.Fatalf("delete missing = %d", rr.Code)
	}
}

func TestRouterStories(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodPost, "/api/user-story", map[string]any{"caption": "I am safe now", "mediaUrl": "https://cdn.example.com/a.mp4"}, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rr.Code, rr.Body.String())
	}
	st := decodeBody[services.Story](t, rr)
	if st.Type != services.StoryVideo || st.User == nil || st.User.Email != "admin@example.com" {
		t.Fatalf("unexpected story: %+v", st)
	}

	other := s.tokenFor(t, "member-2")
	if rr := s.doWith(t, other, http.MethodPatch, "/api/user-story/"+st.ID, map[string]any{"caption": "hijack"}); rr.Code != http.StatusForbidden {
		t.Fatalf("foreign update = %d %s", rr.Code, rr.Body.String())
	}
	if rr := s.doWith(t, other, http.MethodDelete, "/api/user-story/"+st.ID, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("foreign delete = %d", rr.Code)
	}

	rr = s.do(t, http.MethodGet, "/api/user-story/statistics", nil, true)
	stats := decodeBody[services.StoryStats](t, rr)
	if rr.Code != http.StatusOK || stats.Total != 1 || stats.ByType.Video != 1 {
		t.Fatalf("statistics = %d %+v", rr.Code, stats)
	}
	rr = s.do(t, http.MethodGet, "/api/user-story/type/video?take=5", nil, true)
	page := decodeBody[services.StoryPage](t, rr)
	if rr.Code != http.StatusOK || page.Meta.Total != 1 || page.Meta.Take != 5 {
		t.Fatalf("by type = %d %+v", rr.Code, page)
	}
	rr = s.do(t, http.MethodGet, "/api/user-story/user/"+st.UserID, nil, true)
	if page := decodeBody[services.StoryPage](t, rr); len(page.Data) != 1 {
		t.Fatalf("by user = %+v", page)
	}

	for _, q := range []string{"?skip=abc", "?take=-1", "?order=sideways", "?orderBy=caption", "?type=audio"} {
		if rr := s.do(t, http.MethodGet, "/api/user-story"+q, nil, true); rr.Code != http.StatusBadRequest {
			t.Fatalf("list %s = %d, want 400", q, rr.Code)
		}
	}

	if rr := s.do(t, http.MethodDelete, "/api/user-story/"+st.ID, nil, true); rr.Code != http.StatusNoContent {
		t.Fatalf("owner delete = %d", rr.Code)
	}
}

func TestRouterTestimonials(t *testing.T) {
	s := newTestServer(t)
	create := func(title string) services.Testimonial {
		t.Helper()
		rr := s.do(t, http.MethodPost, "/api/testimonial", map[string]any{"title": title, "videoUrl": "https://cdn.example.com/" + title + ".mp4"}, true)
		if rr.Code != http.StatusCreated {
			t.Fatalf("create = %d %s", rr.Code, rr.Body.String())
		}
		return decodeBody[services.Testimonial](t, rr)
	}
	a := create("a")
	b := create("b")

	rr := s.do(t, http.MethodPatch, "/api/testimonial/"+a.ID+"/toggle-publish", nil, true)
	if rr.Code != http.StatusOK || !decodeBody[services.Testimonial](t, rr).Published {
		t.Fatalf("toggle = %d %s", rr.Code, rr.Body.String())
	}
	rr = s.do(t, http.MethodGet, "/api/testimonial/published", nil, false)
	pub := decodeBody[services.TestimonialPage](t, rr)
	if len(pub.Data) != 1 || pub.Data[0].ID != a.ID || pub.Data[0].Admin == nil {
		t.Fatalf("published = %+v", pub)
	}
	rr = s.do(t, http.MethodGet, "/api/testimonial/statistics", nil, true)
	if stats := decodeBody[services.TestimonialStats](t, rr); stats != (services.TestimonialStats{Total: 2, Published: 1, Unpublished: 1}) {
		t.Fatalf("statistics = %+v", stats)
	}

	rr = s.do(t, http.MethodPost, "/api/testimonial/bulk-delete", map[string]any{"ids": []string{"missing"}}, true)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("bulk delete missing = %d", rr.Code)
	}
	rr = s.do(t, http.MethodPost, "/api/testimonial/bulk-delete", map[string]any{"ids": []string{a.ID, b.ID}}, true)
	if rr.Code != http.StatusOK || decodeBody[map[string]int](t, rr)["deleted"] != 2 {
		t.Fatalf("bulk delete = %d %s", rr.Code, rr.Body.String())
	}
}
