package db

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/safehaven/safehaven-api/internal/services"
)

// Boolean columns carry no gorm default: gorm skips zero values for fields
// with a default, which would turn false into the default on insert.

type articleRow struct {
	ID          string `gorm:"primaryKey;type:text"`
	Title       string `gorm:"type:text;not null"`
	Slug        string `gorm:"type:text;not null;uniqueIndex"`
	Content     string `gorm:"type:text;not null"`
	Excerpt     string `gorm:"type:text"`
	CoverImage  string `gorm:"type:text"`
	Author      string `gorm:"type:text;not null"`
	Published   bool   `gorm:"not null;index:idx_articles_published_created,priority:1"`
	PublishedAt *time.Time
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false;index:idx_articles_published_created,priority:2,sort:desc"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (articleRow) TableName() string { return "articles" }

type helpCenterRow struct {
	ID          string    `gorm:"primaryKey;type:text"`
	Name        string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:text"`
	PhoneNumber string    `gorm:"type:text"`
	Email       string    `gorm:"type:text;not null"`
	Address     string    `gorm:"type:text"`
	Logo        string    `gorm:"type:text"`
	IsActive    bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (helpCenterRow) TableName() string { return "help_centers" }

type storyRow struct {
	ID        string    `gorm:"primaryKey;type:text"`
	UserID    string    `gorm:"type:text;not null;index"`
	Caption   string    `gorm:"type:text;not null"`
	MediaURL  string    `gorm:"type:text"`
	Type      string    `gorm:"type:text;not null;index"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (storyRow) TableName() string { return "user_stories" }

type testimonialRow struct {
	ID          string    `gorm:"primaryKey;type:text"`
	Title       string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:text"`
	Date        time.Time `gorm:"not null;index"`
	AdminID     string    `gorm:"type:text;not null;index"`
	Thumbnail   string    `gorm:"type:text"`
	VideoURL    string    `gorm:"type:text;not null"`
	Published   bool      `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (testimonialRow) TableName() string { return "testimonials" }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func toArticleRow(a *services.Article) *articleRow {
	return &articleRow{
		ID:          a.ID,
		Title:       a.Title,
		Slug:        a.Slug,
		Content:     a.Content,
		Excerpt:     a.Excerpt,
		CoverImage:  a.CoverImage,
		Author:      a.Author,
		Published:   a.Published,
		PublishedAt: utcPtr(a.PublishedAt),
		CreatedAt:   a.CreatedAt.UTC(),
		UpdatedAt:   a.UpdatedAt.UTC(),
	}
}

func fromArticleRow(r *articleRow) *services.Article {
	return &services.Article{
		ID:          r.ID,
		Title:       r.Title,
		Slug:        r.Slug,
		Content:     r.Content,
		Excerpt:     r.Excerpt,
		CoverImage:  r.CoverImage,
		Author:      r.Author,
		Published:   r.Published,
		PublishedAt: utcPtr(r.PublishedAt),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func toHelpCenterRow(h *services.HelpCenter) *helpCenterRow {
	return &helpCenterRow{
		ID:          h.ID,
		Name:        h.Name,
		Description: h.Description,
		PhoneNumber: h.PhoneNumber,
		Email:       h.Email,
		Address:     h.Address,
		Logo:        h.Logo,
		IsActive:    h.IsActive,
		CreatedAt:   h.CreatedAt.UTC(),
		UpdatedAt:   h.UpdatedAt.UTC(),
	}
}

func fromHelpCenterRow(r *helpCenterRow) *services.HelpCenter {
	return &services.HelpCenter{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		PhoneNumber: r.PhoneNumber,
		Email:       r.Email,
		Address:     r.Address,
		Logo:        r.Logo,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func toStoryRow(st *services.Story) *storyRow {
	return &storyRow{
		ID:        st.ID,
		UserID:    st.UserID,
		Caption:   st.Caption,
		MediaURL:  st.MediaURL,
		Type:      string(st.Type),
		CreatedAt: st.CreatedAt.UTC(),
		UpdatedAt: st.UpdatedAt.UTC(),
	}
}

func fromStoryRow(r *storyRow) *services.Story {
	return &services.Story{
		ID:        r.ID,
		UserID:    r.UserID,
		Caption:   r.Caption,
		MediaURL:  r.MediaURL,
		Type:      services.StoryType(r.Type),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toTestimonialRow(t *services.Testimonial) *testimonialRow {
	return &testimonialRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Date:        t.Date.UTC(),
		AdminID:     t.AdminID,
		Thumbnail:   t.Thumbnail,
		VideoURL:    t.VideoURL,
		Published:   t.Published,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func fromTestimonialRow(r *testimonialRow) *services.Testimonial {
	return &services.Testimonial{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date.UTC(),
		AdminID:     r.AdminID,
		Thumbnail:   r.Thumbnail,
		VideoURL:    r.VideoURL,
		Published:   r.Published,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

// create inserts row, mapping a duplicate key onto a conflict with msg.
func (s *PostgresStore) create(ctx context.Context, op string, row any, msg string) error {
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return services.NewConflictError(msg)
		}
		s.log.Error(op, zap.Error(err))
		return err
	}
	return nil
}

// first loads one row into dst, reporting false when nothing matches.
func (s *PostgresStore) first(ctx context.Context, op string, dst any, query string, arg any) (bool, error) {
	if err := s.db.WithContext(ctx).First(dst, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		s.log.Error(op, zap.Error(err))
		return false, err
	}
	return true, nil
}

func (s *PostgresStore) updates(ctx context.Context, op string, model any, id string, fields map[string]interface{}) (bool, error) {
	res := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, res.Error
		}
		s.log.Error(op, zap.Error(res.Error))
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *PostgresStore) deleteByID(ctx context.Context, op string, model any, id string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(model, "id = ?", id)
	if res.Error != nil {
		s.log.Error(op, zap.Error(res.Error))
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// page counts the matches of q and then loads the requested window into dst.
func (s *PostgresStore) page(op string, q *gorm.DB, p services.PageOptions, dst any) (int, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		s.log.Error(op+" count", zap.Error(err))
		return 0, err
	}
	if err := q.Order(orderBy(p, "created_at")).Offset(p.Skip).Limit(p.Take).Find(dst).Error; err != nil {
		s.log.Error(op, zap.Error(err))
		return 0, err
	}
	return int(total), nil
}

// --- Article methods ---

func (s *PostgresStore) AddArticle(ctx context.Context, a *services.Article) error {
	if a == nil {
		return services.NewInvalidError("article required")
	}
	return s.create(ctx, "AddArticle", toArticleRow(a), "article with this slug already exists")
}

func (s *PostgresStore) GetArticle(ctx context.Context, id string) (*services.Article, error) {
	var row articleRow
	ok, err := s.first(ctx, "GetArticle", &row, "id = ?", id)
	if err != nil || !ok {
		return nil, err
	}
	return fromArticleRow(&row), nil
}

func (s *PostgresStore) GetArticleBySlug(ctx context.Context, slug string) (*services.Article, error) {
	var row articleRow
	ok, err := s.first(ctx, "GetArticleBySlug", &row, "slug = ?", slug)
	if err != nil || !ok {
		return nil, err
	}
	return fromArticleRow(&row), nil
}

func (s *PostgresStore) ListArticles(ctx context.Context, filter services.ArticleFilter) ([]*services.Article, error) {
	q := s.db.WithContext(ctx).Model(&articleRow{})
	if filter.Published != nil {
		q = q.Where("published = ?", *filter.Published)
	}
	var rows []articleRow
	if err := q.Order("created_at DESC, id ASC").Find(&rows).Error; err != nil {
		s.log.Error("ListArticles", zap.Error(err))
		return nil, err
	}
	out := make([]*services.Article, 0, len(rows))
	for i := range rows {
		out = append(out, fromArticleRow(&rows[i]))
	}
	return out, nil
}

func (s *PostgresStore) UpdateArticle(ctx context.Context, a *services.Article) (bool, error) {
	ok, err := s.updates(ctx, "UpdateArticle", &articleRow{}, a.ID, map[string]interface{}{
		"title":        a.Title,
		"slug":         a.Slug,
		"content":      a.Content,
		"excerpt":      a.Excerpt,
		"cover_image":  a.CoverImage,
		"author":       a.Author,
		"published":    a.Published,
		"published_at": utcPtr(a.PublishedAt),
		"updated_at":   a.UpdatedAt.UTC(),
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, services.NewConflictError("article with this slug already exists")
	}
	return ok, err
}

func (s *PostgresStore) DeleteArticle(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "DeleteArticle", &articleRow{}, id)
}

// --- Help centre methods ---

func (s *PostgresStore) AddHelpCenter(ctx context.Context, h *services.HelpCenter) error {
	if h == nil {
		return services.NewInvalidError("help center required")
	}
	return s.create(ctx, "AddHelpCenter", toHelpCenterRow(h), "help center "+h.ID+" already exists")
}

func (s *PostgresStore) GetHelpCenter(ctx context.Context, id string) (*services.HelpCenter, error) {
	var row helpCenterRow
	ok, err := s.first(ctx, "GetHelpCenter", &row, "id = ?", id)
	if err != nil || !ok {
		return nil, err
	}
	return fromHelpCenterRow(&row), nil
}

func (s *PostgresStore) ListHelpCenters(ctx context.Context, filter services.HelpCenterFilter) ([]*services.HelpCenter, error) {
	q := s.db.WithContext(ctx).Model(&helpCenterRow{})
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	var rows []helpCenterRow
	if err := q.Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		s.log.Error("ListHelpCenters", zap.Error(err))
		return nil, err
	}
	out := make([]*services.HelpCenter, 0, len(rows))
	for i := range rows {
		out = append(out, fromHelpCenterRow(&rows[i]))
	}
	return out, nil
}

func (s *PostgresStore) UpdateHelpCenter(ctx context.Context, h *services.HelpCenter) (bool, error) {
	return s.updates(ctx, "UpdateHelpCenter", &helpCenterRow{}, h.ID, map[string]interface{}{
		"name":         h.Name,
		"description":  h.Description,
		"phone_number": h.PhoneNumber,
		"email":        h.Email,
		"address":      h.Address,
		"logo":         h.Logo,
		"is_active":    h.IsActive,
		"updated_at":   h.UpdatedAt.UTC(),
	})
}

func (s *PostgresStore) DeleteHelpCenter(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "DeleteHelpCenter", &helpCenterRow{}, id)
}

// --- Story methods ---

func (s *PostgresStore) AddStory(ctx context.Context, st *services.Story) error {
	if st == nil {
		return services.NewInvalidError("story required")
	}
	return s.create(ctx, "AddStory", toStoryRow(st), "story "+st.ID+" already exists")
}

func (s *PostgresStore) GetStory(ctx context.Context, id string) (*services.Story, error) {
	var row storyRow
	ok, err := s.first(ctx, "GetStory", &row, "id = ?", id)
	if err != nil || !ok {
		return nil, err
	}
	return fromStoryRow(&row), nil
}

func (s *PostgresStore) ListStories(ctx context.Context, filter services.StoryFilter) ([]*services.Story, int, error) {
	q := s.db.WithContext(ctx).Model(&storyRow{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}
	var rows []storyRow
	total, err := s.page("ListStories", q, filter.PageOptions, &rows)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*services.Story, 0, len(rows))
	for i := range rows {
		out = append(out, fromStoryRow(&rows[i]))
	}
	return out, total, nil
}

func (s *PostgresStore) CountStories(ctx context.Context, t services.StoryType) (int, error) {
	q := s.db.WithContext(ctx).Model(&storyRow{})
	if t != "" {
		q = q.Where("type = ?", string(t))
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		s.log.Error("CountStories", zap.Error(err))
		return 0, err
	}
	return int(n), nil
}

func (s *PostgresStore) UpdateStory(ctx context.Context, st *services.Story) (bool, error) {
	return s.updates(ctx, "UpdateStory", &storyRow{}, st.ID, map[string]interface{}{
		"caption":    st.Caption,
		"media_url":  st.MediaURL,
		"type":       string(st.Type),
		"updated_at": st.UpdatedAt.UTC(),
	})
}

func (s *PostgresStore) DeleteStory(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "DeleteStory", &storyRow{}, id)
}

// --- Testimonial methods ---

func (s *PostgresStore) AddTestimonial(ctx context.Context, t *services.Testimonial) error {
	if t == nil {
		return services.NewInvalidError("testimonial required")
	}
	return s.create(ctx, "AddTestimonial", toTestimonialRow(t), "testimonial "+t.ID+" already exists")
}

func (s *PostgresStore) GetTestimonial(ctx context.Context, id string) (*services.Testimonial, error) {
	var row testimonialRow
	ok, err := s.first(ctx, "GetTestimonial", &row, "id = ?", id)
	if err != nil || !ok {
		return nil, err
	}
	return fromTestimonialRow(&row), nil
}

func (s *PostgresStore) ListTestimonials(ctx context.Context, filter services.TestimonialFilter) ([]*services.Testimonial, int, error) {
	q := s.db.WithContext(ctx).Model(&testimonialRow{})
	if filter.Published != nil {
		q = q.Where("published = ?", *filter.Published)
	}
	if filter.AdminID != "" {
		q = q.Where("admin_id = ?", filter.AdminID)
	}
	var rows []testimonialRow
	total, err := s.page("ListTestimonials", q, filter.PageOptions, &rows)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*services.Testimonial, 0, len(rows))
	for i := range rows {
		out = append(out, fromTestimonialRow(&rows[i]))
	}
	return out, total, nil
}

func (s *PostgresStore) CountTestimonials(ctx context.Context, published *bool) (int, error) {
	q := s.db.WithContext(ctx).Model(&testimonialRow{})
	if published != nil {
		q = q.Where("published = ?", *published)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		s.log.Error("CountTestimonials", zap.Error(err))
		return 0, err
	}
	return int(n), nil
}

func (s *PostgresStore) UpdateTestimonial(ctx context.Context, t *services.Testimonial) (bool, error) {
	return s.updates(ctx, "UpdateTestimonial", &testimonialRow{}, t.ID, map[string]interface{}{
		"title":       t.Title,
		"description": t.Description,
		"date":        t.Date.UTC(),
		"admin_id":    t.AdminID,
		"thumbnail":   t.Thumbnail,
		"video_url":   t.VideoURL,
		"published":   t.Published,
		"updated_at":  t.UpdatedAt.UTC(),
	})
}

func (s *PostgresStore) DeleteTestimonial(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "DeleteTestimonial", &testimonialRow{}, id)
}

func (s *PostgresStore) DeleteTestimonials(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Delete(&testimonialRow{}, "id IN ?", ids)
	if res.Error != nil {
		s.log.Error("DeleteTestimonials", zap.Error(res.Error))
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}
