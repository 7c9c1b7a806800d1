package api

import (
	"context"
	"sort"
	"time"

	"github.com/safehaven/safehaven-api/internal/services"
)

func cloneArticle(a *services.Article) *services.Article {
	out := *a
	if a.PublishedAt != nil {
		t := *a.PublishedAt
		out.PublishedAt = &t
	}
	return &out
}

func (s *memoryStore) AddArticle(_ context.Context, a *services.Article) error {
	if a == nil {
		return services.NewInvalidError("article required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[a.ID]; ok {
		return services.NewConflictError("article " + a.ID + " already exists")
	}
	for _, cur := range s.articles {
		if cur.Slug == a.Slug {
			return services.NewConflictError("article with this slug already exists")
		}
	}
	s.articles[a.ID] = cloneArticle(a)
	return nil
}

func (s *memoryStore) GetArticle(_ context.Context, id string) (*services.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	if !ok {
		return nil, nil
	}
	return cloneArticle(a), nil
}

func (s *memoryStore) GetArticleBySlug(_ context.Context, slug string) (*services.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.articles {
		if a.Slug == slug {
			return cloneArticle(a), nil
		}
	}
	return nil, nil
}

// ListArticles returns newest first.
func (s *memoryStore) ListArticles(_ context.Context, filter services.ArticleFilter) ([]*services.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Article, 0, len(s.articles))
	for _, a := range s.articles {
		if filter.Published != nil && a.Published != *filter.Published {
			continue
		}
		out = append(out, cloneArticle(a))
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *memoryStore) UpdateArticle(_ context.Context, a *services.Article) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[a.ID]; !ok {
		return false, nil
	}
	for _, cur := range s.articles {
		if cur.Slug == a.Slug && cur.ID != a.ID {
			return false, services.NewConflictError("article with this slug already exists")
		}
	}
	s.articles[a.ID] = cloneArticle(a)
	return true, nil
}

func (s *memoryStore) DeleteArticle(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[id]; !ok {
		return false, nil
	}
	delete(s.articles, id)
	return true, nil
}

func (s *memoryStore) AddHelpCenter(_ context.Context, h *services.HelpCenter) error {
	if h == nil {
		return services.NewInvalidError("help center required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.helpCenters[h.ID]; ok {
		return services.NewConflictError("help center " + h.ID + " already exists")
	}
	cp := *h
	s.helpCenters[h.ID] = &cp
	return nil
}

func (s *memoryStore) GetHelpCenter(_ context.Context, id string) (*services.HelpCenter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.helpCenters[id]
	if !ok {
		return nil, nil
	}
	cp := *h
	return &cp, nil
}

// ListHelpCenters returns centres ordered by name.
func (s *memoryStore) ListHelpCenters(_ context.Context, filter services.HelpCenterFilter) ([]*services.HelpCenter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.HelpCenter, 0, len(s.helpCenters))
	for _, h := range s.helpCenters {
		if filter.IsActive != nil && h.IsActive != *filter.IsActive {
			continue
		}
		cp := *h
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *memoryStore) UpdateHelpCenter(_ context.Context, h *services.HelpCenter) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.helpCenters[h.ID]; !ok {
		return false, nil
	}
	cp := *h
	s.helpCenters[h.ID] = &cp
	return true, nil
}

func (s *memoryStore) DeleteHelpCenter(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.helpCenters[id]; !ok {
		return false, nil
	}
	delete(s.helpCenters, id)
	return true, nil
}

func cloneStory(st *services.Story) *services.Story {
	out := *st
	out.User = nil
	return &out
}

func (s *memoryStore) AddStory(_ context.Context, st *services.Story) error {
	if st == nil {
		return services.NewInvalidError("story required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stories[st.ID]; ok {
		return services.NewConflictError("story " + st.ID + " already exists")
	}
	s.stories[st.ID] = cloneStory(st)
	return nil
}

func (s *memoryStore) GetStory(_ context.Context, id string) (*services.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stories[id]
	if !ok {
		return nil, nil
	}
	return cloneStory(st), nil
}

func (s *memoryStore) ListStories(_ context.Context, filter services.StoryFilter) ([]*services.Story, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*services.Story, 0, len(s.stories))
	for _, st := range s.stories {
		if filter.UserID != "" && st.UserID != filter.UserID {
			continue
		}
		if filter.Type != "" && st.Type != filter.Type {
			continue
		}
		matched = append(matched, cloneStory(st))
	}
	key := func(st *services.Story) time.Time {
		if filter.OrderBy == "updatedAt" {
			return st.UpdatedAt
		}
		return st.CreatedAt
	}
	sort.Slice(matched, func(i, j int) bool {
		return pageLess(key(matched[i]), key(matched[j]), matched[i].ID, matched[j].ID, filter.Desc)
	})
	return window(matched, filter.PageOptions), len(matched), nil
}

func (s *memoryStore) CountStories(_ context.Context, t services.StoryType) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, st := range s.stories {
		if t == "" || st.Type == t {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) UpdateStory(_ context.Context, st *services.Story) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stories[st.ID]; !ok {
		return false, nil
	}
	s.stories[st.ID] = cloneStory(st)
	return true, nil
}

func (s *memoryStore) DeleteStory(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stories[id]; !ok {
		return false, nil
	}
	delete(s.stories, id)
	return true, nil
}

func cloneTestimonial(t *services.Testimonial) *services.Testimonial {
	out := *t
	out.Admin = nil
	return &out
}

func (s *memoryStore) AddTestimonial(_ context.Context, t *services.Testimonial) error {
	if t == nil {
		return services.NewInvalidError("testimonial required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.testimonials[t.ID]; ok {
		return services.NewConflictError("testimonial " + t.ID + " already exists")
	}
	s.testimonials[t.ID] = cloneTestimonial(t)
	return nil
}

func (s *memoryStore) GetTestimonial(_ context.Context, id string) (*services.Testimonial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.testimonials[id]
	if !ok {
		return nil, nil
	}
	return cloneTestimonial(t), nil
}

func (s *memoryStore) ListTestimonials(_ context.Context, filter services.TestimonialFilter) ([]*services.Testimonial, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*services.Testimonial, 0, len(s.testimonials))
	for _, t := range s.testimonials {
		if filter.Published != nil && t.Published != *filter.Published {
			continue
		}
		if filter.AdminID != "" && t.AdminID != filter.AdminID {
			continue
		}
		matched = append(matched, cloneTestimonial(t))
	}
	key := func(t *services.Testimonial) time.Time {
		if filter.OrderBy == "date" {
			return t.Date
		}
		return t.CreatedAt
	}
	sort.Slice(matched, func(i, j int) bool {
		return pageLess(key(matched[i]), key(matched[j]), matched[i].ID, matched[j].ID, filter.Desc)
	})
	return window(matched, filter.PageOptions), len(matched), nil
}

func (s *memoryStore) CountTestimonials(_ context.Context, published *bool) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.testimonials {
		if published == nil || t.Published == *published {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) UpdateTestimonial(_ context.Context, t *services.Testimonial) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.testimonials[t.ID]; !ok {
		return false, nil
	}
	s.testimonials[t.ID] = cloneTestimonial(t)
	return true, nil
}

func (s *memoryStore) DeleteTestimonial(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.testimonials[id]; !ok {
		return false, nil
	}
	delete(s.testimonials, id)
	return true, nil
}

func (s *memoryStore) DeleteTestimonials(_ context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := s.testimonials[id]; ok {
			delete(s.testimonials, id)
			n++
		}
	}
	return n, nil
}

func newerFirst(a, b time.Time, aID, bID string) bool {
	if a.Equal(b) {
		return aID < bID
	}
	return a.After(b)
}

// pageLess orders by key in the requested direction; ties always go by ascending ID.
func pageLess(a, b time.Time, aID, bID string, desc bool) bool {
	if a.Equal(b) {
		return aID < bID
	}
	if desc {
		return a.After(b)
	}
	return a.Before(b)
}

func window[T any](items []T, p services.PageOptions) []T {
	if p.Skip >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Take > 0 && p.Skip+p.Take < end {
		end = p.Skip + p.Take
	}
	return items[p.Skip:end]
}
