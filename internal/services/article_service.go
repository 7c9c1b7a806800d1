package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArticleStore persists articles. Find methods return (nil, nil) when nothing
// matches; a duplicate slug surfaces as a conflict error.
type ArticleStore interface {
	InsertArticle(ctx context.Context, a *Article) error
	FindArticle(ctx context.Context, id string) (*Article, error)
	FindArticleBySlug(ctx context.Context, slug string) (*Article, error)
	ListArticles(ctx context.Context, filter ArticleFilter) ([]*Article, error)
	UpdateArticle(ctx context.Context, a *Article) error
	DeleteArticle(ctx context.Context, id string) error
}

type CreateArticleRequest struct {
	Title      string `json:"title" validate:"required"`
	Slug       string `json:"slug" validate:"required"`
	Content    string `json:"content" validate:"required"`
	Excerpt    string `json:"excerpt"`
	CoverImage string `json:"coverImage" validate:"omitempty,url"`
	Author     string `json:"author" validate:"required"`
	Published  bool   `json:"published"`
}

type UpdateArticleRequest struct {
	Title      *string `json:"title"`
	Slug       *string `json:"slug"`
	Content    *string `json:"content"`
	Excerpt    *string `json:"excerpt"`
	CoverImage *string `json:"coverImage"`
	Author     *string `json:"author"`
	Published  *bool   `json:"published"`
}

type ArticleService struct {
	store    ArticleStore
	log      *zap.Logger
	now      func() time.Time
	idGen    func() string
	validate *validator.Validate
}

func NewArticleService(store ArticleStore, log *zap.Logger) *ArticleService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ArticleService{
		store:    store,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    uuid.NewString,
		validate: newValidator(),
	}
}

func (s *ArticleService) Create(ctx context.Context, req *CreateArticleRequest) (*Article, error) {
	if req == nil {
		return nil, NewInvalidError("article payload required")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Slug = strings.TrimSpace(req.Slug)
	req.Author = strings.TrimSpace(req.Author)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if existing, err := s.store.FindArticleBySlug(ctx, req.Slug); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, NewConflictError("article with this slug already exists")
	}
	now := s.now()
	a := &Article{
		ID:         s.idGen(),
		Title:      req.Title,
		Slug:       req.Slug,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		CoverImage: req.CoverImage,
		Author:     req.Author,
		Published:  req.Published,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if a.Published {
		a.PublishedAt = &now
	}
	if err := s.store.InsertArticle(ctx, a); err != nil {
		s.log.Error("create article failed", zap.Error(err))
		return nil, err
	}
	s.log.Info("article created", zap.String("article_id", a.ID), zap.String("slug", a.Slug))
	return a, nil
}

func (s *ArticleService) Get(ctx context.Context, id string) (*Article, error) {
	a, err := s.store.FindArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("article with ID " + id + " not found")
	}
	return a, nil
}

func (s *ArticleService) GetBySlug(ctx context.Context, slug string) (*Article, error) {
	a, err := s.store.FindArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("article with slug " + slug + " not found")
	}
	return a, nil
}

func (s *ArticleService) List(ctx context.Context, filter ArticleFilter) ([]*Article, error) {
	return s.store.ListArticles(ctx, filter)
}

// Update applies the non-nil fields. Empty title, content and author are
// ignored; an empty cover image clears it. Publishing stamps PublishedAt once;
// unpublishing clears it.
func (s *ArticleService) Update(ctx context.Context, id string, req *UpdateArticleRequest) (*Article, error) {
	if req == nil {
		return nil, NewInvalidError("update payload required")
	}
	if req.CoverImage != nil && *req.CoverImage != "" {
		if err := s.validate.Var(*req.CoverImage, "url"); err != nil {
			return nil, NewInvalidError("coverImage: url")
		}
	}
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *cur
	if req.Slug != nil {
		slug := strings.TrimSpace(*req.Slug)
		if slug == "" {
			return nil, NewInvalidError("slug must not be empty")
		}
		other, err := s.store.FindArticleBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, NewConflictError("article with this slug already exists")
		}
		updated.Slug = slug
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		updated.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil && *req.Content != "" {
		updated.Content = *req.Content
	}
	if req.Excerpt != nil {
		updated.Excerpt = *req.Excerpt
	}
	if req.CoverImage != nil {
		updated.CoverImage = *req.CoverImage
	}
	if req.Author != nil && strings.TrimSpace(*req.Author) != "" {
		updated.Author = strings.TrimSpace(*req.Author)
	}
	now := s.now()
	if req.Published != nil {
		switch {
		case *req.Published && !cur.Published:
			updated.PublishedAt = &now
		case !*req.Published:
			updated.PublishedAt = nil
		}
		updated.Published = *req.Published
	}
	updated.UpdatedAt = now
	if err := s.store.UpdateArticle(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *ArticleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteArticle(ctx, id); err != nil {
		return err
	}
	s.log.Info("article deleted", zap.String("article_id", id))
	return nil
}
