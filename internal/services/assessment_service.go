package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssessmentFilter narrows ListAssessments. A nil IsActive matches both states.
type AssessmentFilter struct {
	IsActive       *bool
	IncludeDetails bool
}

// AssessmentStore is the persistence boundary for assessment definitions.
// GetAssessment returns (nil, nil) when the id is unknown.
type AssessmentStore interface {
	InsertAssessment(ctx context.Context, a *Assessment) (*Assessment, error)
	GetAssessment(ctx context.Context, id string) (*Assessment, error)
	ListAssessments(ctx context.Context, filter AssessmentFilter) ([]*Assessment, error)
	UpdateAssessmentMeta(ctx context.Context, a *Assessment) error
	DeleteAssessment(ctx context.Context, id string) error
}

type AssessmentService struct {
	store    AssessmentStore
	log      *zap.Logger
	now      func() time.Time
	idGen    func() string
	validate *validator.Validate
}

func NewAssessmentService(store AssessmentStore, log *zap.Logger) *AssessmentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AssessmentService{
		store:    store,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    uuid.NewString,
		validate: newValidator(),
	}
}

func (s *AssessmentService) load(ctx context.Context, id string) (*Assessment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewInvalidError("assessment id required")
	}
	a, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("assessment with ID " + id + " not found")
	}
	return a, nil
}

// Submit scores answers against the stored definition. The answers and the
// result are not persisted.
func (s *AssessmentService) Submit(ctx context.Context, id string, answers []Answer) (*AssessmentResult, error) {
	if len(answers) == 0 {
		return nil, NewInvalidError("answers array is required and cannot be empty")
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := Score(a, answers, s.now())
	if err != nil {
		s.log.Debug("submission rejected", zap.String("assessment_id", id), zap.Error(err))
		return nil, err
	}
	s.log.Debug("submission scored",
		zap.String("assessment_id", id),
		zap.Int("answered", res.AnsweredQuestions),
		zap.Int("score", res.TotalScore),
		zap.String("risk_level", res.RiskLevel.Level),
	)
	return res, nil
}

func (s *AssessmentService) GetForUser(ctx context.Context, id string) (*PublicAssessment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return ForUserView(a)
}

func (s *AssessmentService) Statistics(ctx context.Context, id string) (*AssessmentStats, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return Statistics(a), nil
}

func (s *AssessmentService) Get(ctx context.Context, id string) (*Assessment, error) {
	return s.load(ctx, id)
}

func (s *AssessmentService) Create(ctx context.Context, req *CreateAssessmentRequest) (*Assessment, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}
	now := s.now()
	a := &Assessment{
		ID:          s.idGen(),
		Title:       req.Title,
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
		Sections:    make([]Section, 0, len(req.Sections)),
		RiskLevels:  make([]RiskLevel, 0, len(req.RiskLevels)),
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	for _, sr := range req.Sections {
		sec := Section{ID: s.idGen(), Name: sr.Name, Description: sr.Description, Order: sr.Order}
		for _, qr := range sr.Questions {
			q := Question{ID: s.idGen(), QuestionText: qr.QuestionText, Explanation: qr.Explanation, Order: qr.Order}
			for _, opt := range qr.Options {
				q.Options = append(q.Options, Option{ID: s.idGen(), Text: opt.Text, Order: opt.Order, PointValue: *opt.PointValue})
			}
			sortOptions(q.Options)
			sec.Questions = append(sec.Questions, q)
		}
		sortQuestions(sec.Questions)
		a.Sections = append(a.Sections, sec)
	}
	sortSections(a.Sections)
	for i, lr := range req.RiskLevels {
		resources := lr.Resources
		if resources == nil {
			resources = []string{}
		}
		a.RiskLevels = append(a.RiskLevels, RiskLevel{
			ID:        s.idGen(),
			MinScore:  *lr.MinScore,
			MaxScore:  *lr.MaxScore,
			Level:     lr.Level,
			Message:   lr.Message,
			Resources: resources,
			Order:     i,
		})
	}
	created, err := s.store.InsertAssessment(ctx, a)
	if err != nil {
		s.log.Error("create assessment failed", zap.Error(err))
		return nil, err
	}
	if created == nil {
		created = a
	}
	s.log.Info("assessment created", zap.String("assessment_id", created.ID), zap.String("title", created.Title))
	return created, nil
}

func (s *AssessmentService) List(ctx context.Context, filter AssessmentFilter) ([]*Assessment, error) {
	return s.store.ListAssessments(ctx, filter)
}

// ListActive returns summaries of every active assessment, newest first.
func (s *AssessmentService) ListActive(ctx context.Context) ([]AssessmentSummary, error) {
	active := true
	list, err := s.store.ListAssessments(ctx, AssessmentFilter{IsActive: &active})
	if err != nil {
		return nil, err
	}
	out := make([]AssessmentSummary, 0, len(list))
	for _, a := range list {
		out = append(out, Summarize(a))
	}
	return out, nil
}

func (s *AssessmentService) Update(ctx context.Context, id string, req *UpdateAssessmentRequest) (*Assessment, error) {
	if req == nil {
		return nil, NewInvalidError("update payload required")
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *a
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		updated.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	updated.UpdatedAt = s.now()
	if err := s.store.UpdateAssessmentMeta(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *AssessmentService) ToggleActive(ctx context.Context, id string) (*Assessment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *a
	updated.IsActive = !a.IsActive
	updated.UpdatedAt = s.now()
	if err := s.store.UpdateAssessmentMeta(ctx, &updated); err != nil {
		return nil, err
	}
	s.log.Info("assessment active status toggled", zap.String("assessment_id", id), zap.Bool("is_active", updated.IsActive))
	return &updated, nil
}

func (s *AssessmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteAssessment(ctx, id); err != nil {
		return err
	}
	s.log.Info("assessment deleted", zap.String("assessment_id", id))
	return nil
}

func Summarize(a *Assessment) AssessmentSummary {
	return AssessmentSummary{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
