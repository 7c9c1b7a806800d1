package api

import (
	"context"

	"github.com/safehaven/safehaven-api/internal/services"
)

// contentStoreAdapter exposes Store through the content service contracts,
// turning missed updates and deletes into not_found errors.
type contentStoreAdapter struct {
	store Store
}

func NewArticleStore(store Store) services.ArticleStore {
	return &contentStoreAdapter{store: store}
}

func NewHelpCenterStore(store Store) services.HelpCenterStore {
	return &contentStoreAdapter{store: store}
}

func NewStoryStore(store Store) services.StoryStore {
	return &contentStoreAdapter{store: store}
}

func NewTestimonialStore(store Store) services.TestimonialStore {
	return &contentStoreAdapter{store: store}
}

func found(ok bool, err error, what string) error {
	if err != nil {
		return err
	}
	if !ok {
		return services.NewNotFoundError(what + " not found")
	}
	return nil
}

func (a *contentStoreAdapter) InsertArticle(ctx context.Context, art *services.Article) error {
	return a.store.AddArticle(ctx, art)
}

func (a *contentStoreAdapter) FindArticle(ctx context.Context, id string) (*services.Article, error) {
	return a.store.GetArticle(ctx, id)
}

func (a *contentStoreAdapter) FindArticleBySlug(ctx context.Context, slug string) (*services.Article, error) {
	return a.store.GetArticleBySlug(ctx, slug)
}

func (a *contentStoreAdapter) ListArticles(ctx context.Context, filter services.ArticleFilter) ([]*services.Article, error) {
	return a.store.ListArticles(ctx, filter)
}

func (a *contentStoreAdapter) UpdateArticle(ctx context.Context, art *services.Article) error {
	ok, err := a.store.UpdateArticle(ctx, art)
	return found(ok, err, "article")
}

func (a *contentStoreAdapter) DeleteArticle(ctx context.Context, id string) error {
	ok, err := a.store.DeleteArticle(ctx, id)
	return found(ok, err, "article")
}

func (a *contentStoreAdapter) InsertHelpCenter(ctx context.Context, h *services.HelpCenter) error {
	return a.store.AddHelpCenter(ctx, h)
}

func (a *contentStoreAdapter) FindHelpCenter(ctx context.Context, id string) (*services.HelpCenter, error) {
	return a.store.GetHelpCenter(ctx, id)
}

func (a *contentStoreAdapter) ListHelpCenters(ctx context.Context, filter services.HelpCenterFilter) ([]*services.HelpCenter, error) {
	return a.store.ListHelpCenters(ctx, filter)
}

func (a *contentStoreAdapter) UpdateHelpCenter(ctx context.Context, h *services.HelpCenter) error {
	ok, err := a.store.UpdateHelpCenter(ctx, h)
	return found(ok, err, "help center")
}

func (a *contentStoreAdapter) DeleteHelpCenter(ctx context.Context, id string) error {
	ok, err := a.store.DeleteHelpCenter(ctx, id)
	return found(ok, err, "help center")
}

func (a *contentStoreAdapter) InsertStory(ctx context.Context, st *services.Story) error {
	return a.store.AddStory(ctx, st)
}

func (a *contentStoreAdapter) FindStory(ctx context.Context, id string) (*services.Story, error) {
	return a.store.GetStory(ctx, id)
}

func (a *contentStoreAdapter) ListStories(ctx context.Context, filter services.StoryFilter) ([]*services.Story, int, error) {
	return a.store.ListStories(ctx, filter)
}

func (a *contentStoreAdapter) CountStories(ctx context.Context, t services.StoryType) (int, error) {
	return a.store.CountStories(ctx, t)
}

func (a *contentStoreAdapter) UpdateStory(ctx context.Context, st *services.Story) error {
	ok, err := a.store.UpdateStory(ctx, st)
	return found(ok, err, "story")
}

func (a *contentStoreAdapter) DeleteStory(ctx context.Context, id string) error {
	ok, err := a.store.DeleteStory(ctx, id)
	return found(ok, err, "story")
}

func (a *contentStoreAdapter) InsertTestimonial(ctx context.Context, t *services.Testimonial) error {
	return a.store.AddTestimonial(ctx, t)
}

func (a *contentStoreAdapter) FindTestimonial(ctx context.Context, id string) (*services.Testimonial, error) {
	return a.store.GetTestimonial(ctx, id)
}

func (a *contentStoreAdapter) ListTestimonials(ctx context.Context, filter services.TestimonialFilter) ([]*services.Testimonial, int, error) {
	return a.store.ListTestimonials(ctx, filter)
}

func (a *contentStoreAdapter) CountTestimonials(ctx context.Context, published *bool) (int, error) {
	return a.store.CountTestimonials(ctx, published)
}

func (a *contentStoreAdapter) UpdateTestimonial(ctx context.Context, t *services.Testimonial) error {
	ok, err := a.store.UpdateTestimonial(ctx, t)
	return found(ok, err, "testimonial")
}

func (a *contentStoreAdapter) DeleteTestimonial(ctx context.Context, id string) error {
	ok, err := a.store.DeleteTestimonial(ctx, id)
	return found(ok, err, "testimonial")
}

func (a *contentStoreAdapter) DeleteTestimonials(ctx context.Context, ids []string) (int, error) {
	return a.store.DeleteTestimonials(ctx, ids)
}

var (
	_ services.ArticleStore     = (*contentStoreAdapter)(nil)
	_ services.HelpCenterStore  = (*contentStoreAdapter)(nil)
	_ services.StoryStore       = (*contentStoreAdapter)(nil)
	_ services.TestimonialStore = (*contentStoreAdapter)(nil)
)
