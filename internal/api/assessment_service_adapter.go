package api

import (
	"context"
	"strings"

	"github.com/safehaven/safehaven-api/internal/services"
)

type assessmentStoreAdapter struct {
	store Store
}

// NewAssessmentStore exposes a Store as the services.AssessmentStore boundary.
func NewAssessmentStore(store Store) services.AssessmentStore {
	return &assessmentStoreAdapter{store: store}
}

func (a *assessmentStoreAdapter) InsertAssessment(ctx context.Context, as *services.Assessment) (*services.Assessment, error) {
	if as == nil {
		return nil, services.NewInvalidError("assessment required")
	}
	if err := a.store.AddAssessment(ctx, as); err != nil {
		return nil, err
	}
	return a.store.GetAssessment(ctx, as.ID)
}

func (a *assessmentStoreAdapter) GetAssessment(ctx context.Context, id string) (*services.Assessment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	return a.store.GetAssessment(ctx, id)
}

func (a *assessmentStoreAdapter) ListAssessments(ctx context.Context, filter services.AssessmentFilter) ([]*services.Assessment, error) {
	return a.store.ListAssessments(ctx, filter)
}

func (a *assessmentStoreAdapter) UpdateAssessmentMeta(ctx context.Context, as *services.Assessment) error {
	if as == nil {
		return services.NewInvalidError("assessment required")
	}
	ok, err := a.store.UpdateAssessment(ctx, as)
	if err != nil {
		return err
	}
	if !ok {
		return services.NewNotFoundError("assessment with ID " + as.ID + " not found")
	}
	return nil
}

func (a *assessmentStoreAdapter) DeleteAssessment(ctx context.Context, id string) error {
	ok, err := a.store.DeleteAssessment(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return services.NewNotFoundError("assessment with ID " + id + " not found")
	}
	return nil
}

var _ services.AssessmentStore = (*assessmentStoreAdapter)(nil)
