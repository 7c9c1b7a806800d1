package api

import (
	"context"
	"sort"
	"sync"

	"github.com/safehaven/safehaven-api/internal/services"
)

type memoryStore struct {
	mu           sync.RWMutex
	assessments  map[string]*services.Assessment
	users        map[string]*services.User
	articles     map[string]*services.Article
	helpCenters  map[string]*services.HelpCenter
	stories      map[string]*services.Story
	testimonials map[string]*services.Testimonial
}

// NewMemoryStore returns a process-local Store. Data is lost on restart.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		assessments:  map[string]*services.Assessment{},
		users:        map[string]*services.User{},
		articles:     map[string]*services.Article{},
		helpCenters:  map[string]*services.HelpCenter{},
		stories:      map[string]*services.Story{},
		testimonials: map[string]*services.Testimonial{},
	}
}

func cloneAssessment(a *services.Assessment, withDetails bool) *services.Assessment {
	out := *a
	out.Sections = nil
	out.RiskLevels = nil
	if !withDetails {
		return &out
	}
	out.Sections = make([]services.Section, len(a.Sections))
	for si, sec := range a.Sections {
		cs := sec
		cs.Questions = make([]services.Question, len(sec.Questions))
		for qi, q := range sec.Questions {
			cq := q
			cq.Options = append([]services.Option(nil), q.Options...)
			cs.Questions[qi] = cq
		}
		out.Sections[si] = cs
	}
	out.RiskLevels = make([]services.RiskLevel, len(a.RiskLevels))
	for i, lvl := range a.RiskLevels {
		cl := lvl
		cl.Resources = append([]string{}, lvl.Resources...)
		out.RiskLevels[i] = cl
	}
	return &out
}

func (s *memoryStore) AddAssessment(_ context.Context, a *services.Assessment) error {
	if a == nil {
		return services.NewInvalidError("assessment required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assessments[a.ID]; ok {
		return services.NewConflictError("assessment " + a.ID + " already exists")
	}
	cp := cloneAssessment(a, true)
	services.SortAssessment(cp)
	s.assessments[a.ID] = cp
	return nil
}

func (s *memoryStore) GetAssessment(_ context.Context, id string) (*services.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assessments[id]
	if !ok {
		return nil, nil
	}
	return cloneAssessment(a, true), nil
}

func (s *memoryStore) ListAssessments(_ context.Context, filter services.AssessmentFilter) ([]*services.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Assessment, 0, len(s.assessments))
	for _, a := range s.assessments {
		if filter.IsActive != nil && a.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, cloneAssessment(a, filter.IncludeDetails))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memoryStore) UpdateAssessment(_ context.Context, a *services.Assessment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.assessments[a.ID]
	if !ok {
		return false, nil
	}
	cur.Title = a.Title
	cur.Description = a.Description
	cur.IsActive = a.IsActive
	cur.UpdatedAt = a.UpdatedAt
	return true, nil
}

func (s *memoryStore) DeleteAssessment(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assessments[id]; !ok {
		return false, nil
	}
	delete(s.assessments, id)
	return true, nil
}

func (s *memoryStore) AddUser(_ context.Context, u *services.User) error {
	if u == nil {
		return services.NewInvalidError("user required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ProviderUID]; ok {
		return services.NewConflictError("user already exists")
	}
	cp := *u
	s.users[u.ProviderUID] = &cp
	return nil
}

func (s *memoryStore) GetUserByProviderUID(_ context.Context, uid string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memoryStore) UpdateUser(_ context.Context, u *services.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ProviderUID]; !ok {
		return false, nil
	}
	cp := *u
	s.users[u.ProviderUID] = &cp
	return true, nil
}

func (s *memoryStore) DeleteUser(_ context.Context, uid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return false, nil
	}
	delete(s.users, uid)
	for id, st := range s.stories {
		if st.UserID == u.ID {
			delete(s.stories, id)
		}
	}
	return true, nil
}

func (s *memoryStore) GetUserByID(_ context.Context, id string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) Ping(context.Context) error { return nil }

func (s *memoryStore) Close() error { return nil }
