package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HelpCenterStore persists help centres. FindHelpCenter returns (nil, nil)
// for an unknown ID.
type HelpCenterStore interface {
	InsertHelpCenter(ctx context.Context, h *HelpCenter) error
	FindHelpCenter(ctx context.Context, id string) (*HelpCenter, error)
	ListHelpCenters(ctx context.Context, filter HelpCenterFilter) ([]*HelpCenter, error)
	UpdateHelpCenter(ctx context.Context, h *HelpCenter) error
	DeleteHelpCenter(ctx context.Context, id string) error
}

type CreateHelpCenterRequest struct {
	Name        string `json:"name" validate:"required"`
	Logo        string `json:"logo" validate:"omitempty,url"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email" validate:"required,email"`
	Address     string `json:"address"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

type UpdateHelpCenterRequest struct {
	Name        *string `json:"name"`
	Logo        *string `json:"logo"`
	PhoneNumber *string `json:"phoneNumber"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

var sentenceBreak = regexp.MustCompile(`\.\s+([A-Z])`)

// formatDescription puts each sentence that starts with a capital letter into
// its own paragraph.
func formatDescription(s string) string {
	return strings.TrimSpace(sentenceBreak.ReplaceAllString(s, ".\n\n$1"))
}

type HelpCenterService struct {
	store    HelpCenterStore
	log      *zap.Logger
	now      func() time.Time
	idGen    func() string
	validate *validator.Validate
}

func NewHelpCenterService(store HelpCenterStore, log *zap.Logger) *HelpCenterService {
	if log == nil {
		log = zap.NewNop()
	}
	return &HelpCenterService{
		store:    store,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    uuid.NewString,
		validate: newValidator(),
	}
}

func (s *HelpCenterService) Create(ctx context.Context, req *CreateHelpCenterRequest) (*HelpCenter, error) {
	if req == nil {
		return nil, NewInvalidError("help center payload required")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	now := s.now()
	h := &HelpCenter{
		ID:          s.idGen(),
		Name:        req.Name,
		Description: formatDescription(req.Description),
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Address:     req.Address,
		Logo:        req.Logo,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		h.IsActive = *req.IsActive
	}
	if err := s.store.InsertHelpCenter(ctx, h); err != nil {
		s.log.Error("create help center failed", zap.Error(err))
		return nil, err
	}
	s.log.Info("help center created", zap.String("help_center_id", h.ID))
	return h, nil
}

func (s *HelpCenterService) Get(ctx context.Context, id string) (*HelpCenter, error) {
	h, err := s.store.FindHelpCenter(ctx, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, NewNotFoundError("help center with ID " + id + " not found")
	}
	return h, nil
}

func (s *HelpCenterService) List(ctx context.Context, filter HelpCenterFilter) ([]*HelpCenter, error) {
	return s.store.ListHelpCenters(ctx, filter)
}

func (s *HelpCenterService) Update(ctx context.Context, id string, req *UpdateHelpCenterRequest) (*HelpCenter, error) {
	if req == nil {
		return nil, NewInvalidError("update payload required")
	}
	if req.Email != nil {
		if err := s.validate.Var(strings.TrimSpace(*req.Email), "required,email"); err != nil {
			return nil, NewInvalidError("email: email")
		}
	}
	if req.Logo != nil && *req.Logo != "" {
		if err := s.validate.Var(*req.Logo, "url"); err != nil {
			return nil, NewInvalidError("logo: url")
		}
	}
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *cur
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Logo != nil {
		updated.Logo = *req.Logo
	}
	if req.PhoneNumber != nil {
		updated.PhoneNumber = *req.PhoneNumber
	}
	if req.Email != nil {
		updated.Email = strings.TrimSpace(*req.Email)
	}
	if req.Address != nil {
		updated.Address = *req.Address
	}
	if req.Description != nil {
		updated.Description = formatDescription(*req.Description)
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	updated.UpdatedAt = s.now()
	if err := s.store.UpdateHelpCenter(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *HelpCenterService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteHelpCenter(ctx, id); err != nil {
		return err
	}
	s.log.Info("help center deleted", zap.String("help_center_id", id))
	return nil
}
