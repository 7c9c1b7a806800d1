package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TestimonialStore persists testimonials. DeleteTestimonials removes every
// listed ID that exists and reports how many went.
type TestimonialStore interface {
	InsertTestimonial(ctx context.Context, t *Testimonial) error
	FindTestimonial(ctx context.Context, id string) (*Testimonial, error)
	ListTestimonials(ctx context.Context, filter TestimonialFilter) ([]*Testimonial, int, error)
	CountTestimonials(ctx context.Context, published *bool) (int, error)
	UpdateTestimonial(ctx context.Context, t *Testimonial) error
	DeleteTestimonial(ctx context.Context, id string) error
	DeleteTestimonials(ctx context.Context, ids []string) (int, error)
}

type CreateTestimonialRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Date        *time.Time `json:"date"`
	Thumbnail   string     `json:"thumbnail"`
	VideoURL    string     `json:"videoUrl" validate:"required"`
	Published   bool       `json:"published"`
}

type UpdateTestimonialRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	AdminID     *string    `json:"adminId"`
	Thumbnail   *string    `json:"thumbnail"`
	VideoURL    *string    `json:"videoUrl"`
	Published   *bool      `json:"published"`
}

type TestimonialService struct {
	store    TestimonialStore
	users    UserLookup
	log      *zap.Logger
	now      func() time.Time
	idGen    func() string
	validate *validator.Validate
}

func NewTestimonialService(store TestimonialStore, users UserLookup, log *zap.Logger) *TestimonialService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TestimonialService{
		store:    store,
		users:    users,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    uuid.NewString,
		validate: newValidator(),
	}
}

func (s *TestimonialService) withAdmins(ctx context.Context, list ...*Testimonial) error {
	seen := map[string]*UserSummary{}
	for _, t := range list {
		sum, ok := seen[t.AdminID]
		if !ok {
			u, err := s.users.FindUserByID(ctx, t.AdminID)
			if err != nil {
				return err
			}
			sum = summarizeUser(u)
			seen[t.AdminID] = sum
		}
		t.Admin = sum
	}
	return nil
}

func (s *TestimonialService) requireAdmin(ctx context.Context, id string) (*User, error) {
	u, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewInvalidError("admin user not found")
	}
	return u, nil
}

// Create records a testimonial curated by adminID. Date defaults to now.
func (s *TestimonialService) Create(ctx context.Context, adminID string, req *CreateTestimonialRequest) (*Testimonial, error) {
	if req == nil {
		return nil, NewInvalidError("testimonial payload required")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.VideoURL = strings.TrimSpace(req.VideoURL)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	admin, err := s.requireAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	t := &Testimonial{
		ID:          s.idGen(),
		Title:       req.Title,
		Description: req.Description,
		Date:        now,
		AdminID:     admin.ID,
		Thumbnail:   req.Thumbnail,
		VideoURL:    req.VideoURL,
		Published:   req.Published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Date != nil {
		t.Date = req.Date.UTC()
	}
	if err := s.store.InsertTestimonial(ctx, t); err != nil {
		s.log.Error("create testimonial failed", zap.Error(err))
		return nil, err
	}
	t.Admin = summarizeUser(admin)
	s.log.Info("testimonial created", zap.String("testimonial_id", t.ID), zap.Bool("published", t.Published))
	return t, nil
}

func (s *TestimonialService) load(ctx context.Context, id string) (*Testimonial, error) {
	t, err := s.store.FindTestimonial(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, NewNotFoundError("testimonial with ID " + id + " not found")
	}
	return t, nil
}

func (s *TestimonialService) Get(ctx context.Context, id string) (*Testimonial, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.withAdmins(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List pages through testimonials ordered by createdAt (default) or date.
func (s *TestimonialService) List(ctx context.Context, filter TestimonialFilter) (*TestimonialPage, error) {
	page, err := normalizePage(filter.PageOptions, "createdAt", "date")
	if err != nil {
		return nil, err
	}
	filter.PageOptions = page
	list, total, err := s.store.ListTestimonials(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.withAdmins(ctx, list...); err != nil {
		return nil, err
	}
	if list == nil {
		list = []*Testimonial{}
	}
	return &TestimonialPage{Data: list, Meta: pageMeta(total, page)}, nil
}

// Published lists published testimonials, most recent date first.
func (s *TestimonialService) Published(ctx context.Context, skip, take int) (*TestimonialPage, error) {
	published := true
	return s.List(ctx, TestimonialFilter{
		Published:   &published,
		PageOptions: PageOptions{Skip: skip, Take: take, OrderBy: "date", Desc: true},
	})
}

func (s *TestimonialService) Update(ctx context.Context, id string, req *UpdateTestimonialRequest) (*Testimonial, error) {
	if req == nil {
		return nil, NewInvalidError("update payload required")
	}
	cur, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *cur
	if req.AdminID != nil && *req.AdminID != "" {
		if _, err := s.requireAdmin(ctx, *req.AdminID); err != nil {
			return nil, err
		}
		updated.AdminID = *req.AdminID
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		updated.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Date != nil {
		updated.Date = req.Date.UTC()
	}
	if req.Thumbnail != nil {
		updated.Thumbnail = *req.Thumbnail
	}
	if req.VideoURL != nil && strings.TrimSpace(*req.VideoURL) != "" {
		updated.VideoURL = strings.TrimSpace(*req.VideoURL)
	}
	if req.Published != nil {
		updated.Published = *req.Published
	}
	updated.UpdatedAt = s.now()
	if err := s.store.UpdateTestimonial(ctx, &updated); err != nil {
		return nil, err
	}
	if err := s.withAdmins(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *TestimonialService) TogglePublish(ctx context.Context, id string) (*Testimonial, error) {
	cur, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *cur
	updated.Published = !cur.Published
	updated.UpdatedAt = s.now()
	if err := s.store.UpdateTestimonial(ctx, &updated); err != nil {
		return nil, err
	}
	if err := s.withAdmins(ctx, &updated); err != nil {
		return nil, err
	}
	s.log.Info("testimonial publish toggled", zap.String("testimonial_id", id), zap.Bool("published", updated.Published))
	return &updated, nil
}

func (s *TestimonialService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteTestimonial(ctx, id); err != nil {
		return err
	}
	s.log.Info("testimonial deleted", zap.String("testimonial_id", id))
	return nil
}

// BulkDelete removes the listed testimonials. It fails with not_found when
// none of the IDs exist.
func (s *TestimonialService) BulkDelete(ctx context.Context, ids []string) (int, error) {
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			clean = append(clean, id)
		}
	}
	if len(clean) == 0 {
		return 0, NewInvalidError("ids must not be empty")
	}
	n, err := s.store.DeleteTestimonials(ctx, clean)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, NewNotFoundError("no testimonials found with provided IDs")
	}
	s.log.Info("testimonials deleted", zap.Int("count", n))
	return n, nil
}

func (s *TestimonialService) Statistics(ctx context.Context) (*TestimonialStats, error) {
	total, err := s.store.CountTestimonials(ctx, nil)
	if err != nil {
		return nil, err
	}
	published := true
	pub, err := s.store.CountTestimonials(ctx, &published)
	if err != nil {
		return nil, err
	}
	return &TestimonialStats{Total: total, Published: pub, Unpublished: total - pub}, nil
}
