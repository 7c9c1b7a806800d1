package api

import (
	"context"

	"github.com/safehaven/safehaven-api/internal/services"
)

// Store is the persistence surface shared by the memory, SQLite and Postgres
// backends. Getters return (nil, nil) for unknown keys; Update and Delete
// report whether a row was affected.
type Store interface {
	AddAssessment(ctx context.Context, a *services.Assessment) error
	GetAssessment(ctx context.Context, id string) (*services.Assessment, error)
	ListAssessments(ctx context.Context, filter services.AssessmentFilter) ([]*services.Assessment, error)
	UpdateAssessment(ctx context.Context, a *services.Assessment) (bool, error)
	DeleteAssessment(ctx context.Context, id string) (bool, error)

	AddUser(ctx context.Context, u *services.User) error
	GetUserByProviderUID(ctx context.Context, uid string) (*services.User, error)
	GetUserByID(ctx context.Context, id string) (*services.User, error)
	UpdateUser(ctx context.Context, u *services.User) (bool, error)
	// DeleteUser also removes the user's stories.
	DeleteUser(ctx context.Context, uid string) (bool, error)

	// AddArticle fails with a conflict when the slug is taken.
	AddArticle(ctx context.Context, a *services.Article) error
	GetArticle(ctx context.Context, id string) (*services.Article, error)
	GetArticleBySlug(ctx context.Context, slug string) (*services.Article, error)
	ListArticles(ctx context.Context, filter services.ArticleFilter) ([]*services.Article, error)
	UpdateArticle(ctx context.Context, a *services.Article) (bool, error)
	DeleteArticle(ctx context.Context, id string) (bool, error)

	AddHelpCenter(ctx context.Context, h *services.HelpCenter) error
	GetHelpCenter(ctx context.Context, id string) (*services.HelpCenter, error)
	ListHelpCenters(ctx context.Context, filter services.HelpCenterFilter) ([]*services.HelpCenter, error)
	UpdateHelpCenter(ctx context.Context, h *services.HelpCenter) (bool, error)
	DeleteHelpCenter(ctx context.Context, id string) (bool, error)

	// List methods with paging return the window and the total match count.
	AddStory(ctx context.Context, st *services.Story) error
	GetStory(ctx context.Context, id string) (*services.Story, error)
	ListStories(ctx context.Context, filter services.StoryFilter) ([]*services.Story, int, error)
	CountStories(ctx context.Context, t services.StoryType) (int, error)
	UpdateStory(ctx context.Context, st *services.Story) (bool, error)
	DeleteStory(ctx context.Context, id string) (bool, error)

	AddTestimonial(ctx context.Context, t *services.Testimonial) error
	GetTestimonial(ctx context.Context, id string) (*services.Testimonial, error)
	ListTestimonials(ctx context.Context, filter services.TestimonialFilter) ([]*services.Testimonial, int, error)
	CountTestimonials(ctx context.Context, published *bool) (int, error)
	UpdateTestimonial(ctx context.Context, t *services.Testimonial) (bool, error)
	DeleteTestimonial(ctx context.Context, id string) (bool, error)
	DeleteTestimonials(ctx context.Context, ids []string) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

var _ Store = (*memoryStore)(nil)
