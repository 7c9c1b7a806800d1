package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type stubAssessmentStore struct {
	items     map[string]*Assessment
	order     []string
	insertErr error
	updates   int
}

func newStubAssessmentStore() *stubAssessmentStore {
	return &stubAssessmentStore{items: map[string]*Assessment{}}
}

func (s *stubAssessmentStore) InsertAssessment(_ context.Context, a *Assessment) (*Assessment, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	copy := *a
	s.items[a.ID] = &copy
	s.order = append(s.order, a.ID)
	return &copy, nil
}

func (s *stubAssessmentStore) GetAssessment(_ context.Context, id string) (*Assessment, error) {
	if a, ok := s.items[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, nil
}

func (s *stubAssessmentStore) ListAssessments(_ context.Context, filter AssessmentFilter) ([]*Assessment, error) {
	var out []*Assessment
	for i := len(s.order) - 1; i >= 0; i-- {
		a, ok := s.items[s.order[i]]
		if !ok {
			continue
		}
		if filter.IsActive != nil && a.IsActive != *filter.IsActive {
			continue
		}
		copy := *a
		out = append(out, &copy)
	}
	return out, nil
}

func (s *stubAssessmentStore) UpdateAssessmentMeta(_ context.Context, a *Assessment) error {
	cur, ok := s.items[a.ID]
	if !ok {
		return NewNotFoundError("assessment not found")
	}
	cur.Title = a.Title
	cur.Description = a.Description
	cur.IsActive = a.IsActive
	cur.UpdatedAt = a.UpdatedAt
	s.updates++
	return nil
}

func (s *stubAssessmentStore) DeleteAssessment(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return NewNotFoundError("assessment not found")
	}
	delete(s.items, id)
	return nil
}

func intp(v int) *int { return &v }

func newTestAssessmentService(store AssessmentStore) *AssessmentService {
	svc := NewAssessmentService(store, nil)
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	n := 0
	svc.idGen = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return svc
}

func validCreateRequest() *CreateAssessmentRequest {
	return &CreateAssessmentRequest{
		Title:       "  Relationship check  ",
		Description: "A short screening",
		Sections: []CreateSectionRequest{
			{Name: "Emotional", Order: 1, Questions: []CreateQuestionRequest{{
				QuestionText: "Are you belittled?",
				Options: []CreateOptionRequest{
					{Text: "Often", PointValue: intp(4), Order: 1},
					{Text: "Never", PointValue: intp(0), Order: 0},
				},
			}}},
			{Name: "Physical", Order: 0, Questions: []CreateQuestionRequest{{
				QuestionText: "Are you hurt?",
				Options: []CreateOptionRequest{
					{Text: "No", PointValue: intp(0)},
					{Text: "Yes", PointValue: intp(6), Order: 1},
				},
			}}},
		},
		RiskLevels: []RiskLevelRequest{
			{MinScore: intp(0), MaxScore: intp(4), Level: "Low", Message: "Keep an eye out"},
			{MinScore: intp(5), MaxScore: intp(10), Level: "High", Message: "Reach out", Resources: []string{"hotline"}},
		},
	}
}

func TestAssessmentCreateAndSubmit(t *testing.T) {
	store := newStubAssessmentStore()
	svc := newTestAssessmentService(store)
	ctx := context.Background()

	a, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if a.Title != "Relationship check" || !a.IsActive {
		t.Fatalf("unexpected assessment: %+v", a)
	}
	if a.Sections[0].Name != "Physical" || a.Sections[1].Name != "Emotional" {
		t.Fatalf("sections not ordered: %+v", a.Sections)
	}
	if a.Sections[1].Questions[0].Options[0].Text != "Never" {
		t.Fatalf("options not ordered: %+v", a.Sections[1].Questions[0].Options)
	}
	if a.RiskLevels[0].Resources == nil || a.RiskLevels[1].Order != 1 {
		t.Fatalf("unexpected risk levels: %+v", a.RiskLevels)
	}
	if !a.CreatedAt.Equal(svc.now()) {
		t.Fatalf("createdAt = %v", a.CreatedAt)
	}

	hurt := a.Sections[0].Questions[0]
	belittled := a.Sections[1].Questions[0]
	res, err := svc.Submit(ctx, a.ID, []Answer{
		{QuestionID: hurt.ID, OptionID: hurt.Options[1].ID},
		{QuestionID: belittled.ID, OptionID: belittled.Options[0].ID},
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if res.TotalScore != 6 || res.MaxPossibleScore != 10 || res.RiskLevel.Level != "High" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.RiskLevel.Resources) != 1 {
		t.Fatalf("resources = %v", res.RiskLevel.Resources)
	}
}

func TestAssessmentCreateValidation(t *testing.T) {
	svc := newTestAssessmentService(newStubAssessmentStore())
	cases := map[string]func(r *CreateAssessmentRequest){
		"blank title":   func(r *CreateAssessmentRequest) { r.Title = "   " },
		"no sections":   func(r *CreateAssessmentRequest) { r.Sections = nil },
		"empty section": func(r *CreateAssessmentRequest) { r.Sections[0].Questions = nil },
		"single option": func(r *CreateAssessmentRequest) {
			r.Sections[0].Questions[0].Options = r.Sections[0].Questions[0].Options[:1]
		},
		"missing points":   func(r *CreateAssessmentRequest) { r.Sections[0].Questions[0].Options[0].PointValue = nil },
		"negative points":  func(r *CreateAssessmentRequest) { r.Sections[0].Questions[0].Options[0].PointValue = intp(-1) },
		"no risk levels":   func(r *CreateAssessmentRequest) { r.RiskLevels = nil },
		"inverted band":    func(r *CreateAssessmentRequest) { r.RiskLevels[0].MinScore = intp(9) },
		"missing message":  func(r *CreateAssessmentRequest) { r.RiskLevels[1].Message = "" },
		"missing question": func(r *CreateAssessmentRequest) { r.Sections[1].Questions[0].QuestionText = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validCreateRequest()
			mutate(req)
			if _, err := svc.Create(context.Background(), req); !IsCode(err, ErrorInvalid) {
				t.Fatalf("expected invalid, got %v", err)
			}
		})
	}
	if _, err := svc.Create(context.Background(), nil); !IsCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid for nil request, got %v", err)
	}
}

func TestAssessmentValidationMessageNamesField(t *testing.T) {
	svc := newTestAssessmentService(newStubAssessmentStore())
	req := validCreateRequest()
	req.Sections[0].Questions[0].Options = req.Sections[0].Questions[0].Options[:1]
	_, err := svc.Create(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "sections[0].questions[0].options: min") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestAssessmentCreateStoreFailure(t *testing.T) {
	store := newStubAssessmentStore()
	store.insertErr = errors.New("disk full")
	svc := newTestAssessmentService(store)
	if _, err := svc.Create(context.Background(), validCreateRequest()); err == nil || err.Error() != "disk full" {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestAssessmentSubmitErrors(t *testing.T) {
	store := newStubAssessmentStore()
	svc := newTestAssessmentService(store)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "missing", nil); !IsCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid for empty answers, got %v", err)
	}
	if _, err := svc.Submit(ctx, "missing", []Answer{{"q", "o"}}); !IsCode(err, ErrorNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
	if _, err := svc.Submit(ctx, " ", []Answer{{"q", "o"}}); !IsCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid for blank id, got %v", err)
	}

	a, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.ToggleActive(ctx, a.ID); err != nil {
		t.Fatalf("ToggleActive returned error: %v", err)
	}
	q := a.Sections[0].Questions[0]
	if _, err := svc.Submit(ctx, a.ID, []Answer{{q.ID, q.Options[0].ID}}); !IsCode(err, ErrorNotActive) {
		t.Fatalf("expected not_active, got %v", err)
	}
	if _, err := svc.GetForUser(ctx, a.ID); !IsCode(err, ErrorNotActive) {
		t.Fatalf("expected not_active from GetForUser, got %v", err)
	}
}

func TestAssessmentListAndActiveSummaries(t *testing.T) {
	store := newStubAssessmentStore()
	svc := newTestAssessmentService(store)
	ctx := context.Background()

	first, _ := svc.Create(ctx, validCreateRequest())
	req := validCreateRequest()
	inactive := false
	req.IsActive = &inactive
	req.Title = "Draft"
	second, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if second.IsActive {
		t.Fatalf("explicit isActive=false should be honoured")
	}

	all, err := svc.List(ctx, AssessmentFilter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("List = %d, %v", len(all), err)
	}
	active, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive returned error: %v", err)
	}
	if len(active) != 1 || active[0].ID != first.ID {
		t.Fatalf("unexpected active list: %+v", active)
	}
	none, err := newTestAssessmentService(newStubAssessmentStore()).ListActive(ctx)
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("ListActive should return a non-nil slice")
	}
}

func TestAssessmentUpdateToggleDelete(t *testing.T) {
	store := newStubAssessmentStore()
	svc := newTestAssessmentService(store)
	ctx := context.Background()
	a, _ := svc.Create(ctx, validCreateRequest())

	blank := "  "
	desc := "new description"
	updated, err := svc.Update(ctx, a.ID, &UpdateAssessmentRequest{Title: &blank, Description: &desc})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Title != a.Title || updated.Description != desc {
		t.Fatalf("unexpected update: %+v", updated)
	}
	if _, err := svc.Update(ctx, a.ID, nil); !IsCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid for nil update, got %v", err)
	}

	toggled, err := svc.ToggleActive(ctx, a.ID)
	if err != nil || toggled.IsActive {
		t.Fatalf("toggle = %+v, %v", toggled, err)
	}
	toggled, _ = svc.ToggleActive(ctx, a.ID)
	if !toggled.IsActive {
		t.Fatalf("second toggle should reactivate")
	}
	if store.updates != 3 {
		t.Fatalf("updates = %d, want 3", store.updates)
	}

	stats, err := svc.Statistics(ctx, a.ID)
	if err != nil || stats.MaxPossibleScore != 10 {
		t.Fatalf("stats = %+v, %v", stats, err)
	}

	if err := svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(ctx, a.ID); !IsCode(err, ErrorNotFound) {
		t.Fatalf("expected not_found on second delete, got %v", err)
	}
	if _, err := svc.Get(ctx, a.ID); !IsCode(err, ErrorNotFound) {
		t.Fatalf("expected not_found after delete, got %v", err)
	}
}
