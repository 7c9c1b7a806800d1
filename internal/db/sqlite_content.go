package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/safehaven/safehaven-api/internal/services"
)

// orderColumns maps the sort keys accepted by the services onto columns.
var orderColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"date":      "date",
}

// orderBy renders the sort for a page; ties always go by ascending id.
func orderBy(p services.PageOptions, fallback string) string {
	col, ok := orderColumns[p.OrderBy]
	if !ok {
		col = fallback
	}
	dir := "ASC"
	if p.Desc {
		dir = "DESC"
	}
	return col + ` ` + dir + `, id ASC`
}

func (s *SQLiteStore) affected(op string, res sql.Result, err error) (bool, error) {
	if err != nil {
		s.logErr(op, err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) count(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		s.logErr(op, err)
		return 0, err
	}
	return n, nil
}

// --- Article methods ---

const articleColumns = `id, title, slug, content, excerpt, cover_image, author, published, published_at, created_at, updated_at`

func scanArticle(row rowScanner) (*services.Article, error) {
	var (
		a              services.Article
		excerpt, cover sql.NullString
		published      int64
		publishedAt    sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Content, &excerpt, &cover, &a.Author, &published, &publishedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Excerpt = excerpt.String
	a.CoverImage = cover.String
	a.Published = int64ToBool(published)
	if publishedAt.Valid {
		t := publishedAt.Time.UTC()
		a.PublishedAt = &t
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

func articlePublishedAt(a *services.Article) sql.NullTime {
	if a.PublishedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: a.PublishedAt.UTC(), Valid: true}
}

func (s *SQLiteStore) AddArticle(ctx context.Context, a *services.Article) error {
	if a == nil {
		return services.NewInvalidError("article required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO articles (`+articleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Slug, a.Content, toNullString(a.Excerpt), toNullString(a.CoverImage), a.Author,
		boolToInt64(a.Published), articlePublishedAt(a), a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return services.NewConflictError("article with this slug already exists")
		}
		s.logErr("AddArticle", err)
		return err
	}
	return nil
}

func (s *SQLiteStore) getArticle(ctx context.Context, op, where, arg string) (*services.Article, error) {
	a, err := scanArticle(s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE `+where+` = ?`, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logErr(op, err)
		return nil, err
	}
	return a, nil
}

func (s *SQLiteStore) GetArticle(ctx context.Context, id string) (*services.Article, error) {
	return s.getArticle(ctx, "GetArticle", "id", id)
}

func (s *SQLiteStore) GetArticleBySlug(ctx context.Context, slug string) (*services.Article, error) {
	return s.getArticle(ctx, "GetArticleBySlug", "slug", slug)
}

func (s *SQLiteStore) ListArticles(ctx context.Context, filter services.ArticleFilter) ([]*services.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles`
	var args []any
	if filter.Published != nil {
		query += ` WHERE published = ?`
		args = append(args, boolToInt64(*filter.Published))
	}
	query += ` ORDER BY created_at DESC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logErr("ListArticles", err)
		return nil, err
	}
	defer rows.Close()
	out := []*services.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			s.logErr("ListArticles scan", err)
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateArticle(ctx context.Context, a *services.Article) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE articles SET title = ?, slug = ?, content = ?, excerpt = ?, cover_image = ?, author = ?,
			published = ?, published_at = ?, updated_at = ?
		WHERE id = ?`,
		a.Title, a.Slug, a.Content, toNullString(a.Excerpt), toNullString(a.CoverImage), a.Author,
		boolToInt64(a.Published), articlePublishedAt(a), a.UpdatedAt.UTC(), a.ID)
	if err != nil && isUniqueViolation(err) {
		return false, services.NewConflictError("article with this slug already exists")
	}
	return s.affected("UpdateArticle", res, err)
}

func (s *SQLiteStore) DeleteArticle(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	return s.affected("DeleteArticle", res, err)
}

// --- Help centre methods ---

const helpCenterColumns = `id, name, description, phone_number, email, address, logo, is_active, created_at, updated_at`

func scanHelpCenter(row rowScanner) (*services.HelpCenter, error) {
	var (
		h                          services.HelpCenter
		desc, phone, address, logo sql.NullString
		active                     int64
	)
	if err := row.Scan(&h.ID, &h.Name, &desc, &phone, &h.Email, &address, &logo, &active, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	h.Description = desc.String
	h.PhoneNumber = phone.String
	h.Address = address.String
	h.Logo = logo.String
	h.IsActive = int64ToBool(active)
	h.CreatedAt = h.CreatedAt.UTC()
	h.UpdatedAt = h.UpdatedAt.UTC()
	return &h, nil
}

func (s *SQLiteStore) AddHelpCenter(ctx context.Context, h *services.HelpCenter) error {
	if h == nil {
		return services.NewInvalidError("help center required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO help_centers (`+helpCenterColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Name, toNullString(h.Description), toNullString(h.PhoneNumber), h.Email, toNullString(h.Address),
		toNullString(h.Logo), boolToInt64(h.IsActive), h.CreatedAt.UTC(), h.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return services.NewConflictError("help center " + h.ID + " already exists")
		}
		s.logErr("AddHelpCenter", err)
		return err
	}
	return nil
}

func (s *SQLiteStore) GetHelpCenter(ctx context.Context, id string) (*services.HelpCenter, error) {
	h, err := scanHelpCenter(s.db.QueryRowContext(ctx, `SELECT `+helpCenterColumns+` FROM help_centers WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logErr("GetHelpCenter", err)
		return nil, err
	}
	return h, nil
}

func (s *SQLiteStore) ListHelpCenters(ctx context.Context, filter services.HelpCenterFilter) ([]*services.HelpCenter, error) {
	query := `SELECT ` + helpCenterColumns + ` FROM help_centers`
	var args []any
	if filter.IsActive != nil {
		query += ` WHERE is_active = ?`
		args = append(args, boolToInt64(*filter.IsActive))
	}
	query += ` ORDER BY name ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logErr("ListHelpCenters", err)
		return nil, err
	}
	defer rows.Close()
	out := []*services.HelpCenter{}
	for rows.Next() {
		h, err := scanHelpCenter(rows)
		if err != nil {
			s.logErr("ListHelpCenters scan", err)
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateHelpCenter(ctx context.Context, h *services.HelpCenter) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE help_centers SET name = ?, description = ?, phone_number = ?, email = ?, address = ?, logo = ?,
			is_active = ?, updated_at = ?
		WHERE id = ?`,
		h.Name, toNullString(h.Description), toNullString(h.PhoneNumber), h.Email, toNullString(h.Address),
		toNullString(h.Logo), boolToInt64(h.IsActive), h.UpdatedAt.UTC(), h.ID)
	return s.affected("UpdateHelpCenter", res, err)
}

func (s *SQLiteStore) DeleteHelpCenter(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM help_centers WHERE id = ?`, id)
	return s.affected("DeleteHelpCenter", res, err)
}

// --- Story methods ---

const storyColumns = `id, user_id, caption, media_url, type, created_at, updated_at`

func scanStory(row rowScanner) (*services.Story, error) {
	var (
		st    services.Story
		media sql.NullString
		typ   string
	)
	if err := row.Scan(&st.ID, &st.UserID, &st.Caption, &media, &typ, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	st.MediaURL = media.String
	st.Type = services.StoryType(typ)
	st.CreatedAt = st.CreatedAt.UTC()
	st.UpdatedAt = st.UpdatedAt.UTC()
	return &st, nil
}

func (s *SQLiteStore) AddStory(ctx context.Context, st *services.Story) error {
	if st == nil {
		return services.NewInvalidError("story required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_stories (`+storyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.UserID, st.Caption, toNullString(st.MediaURL), string(st.Type), st.CreatedAt.UTC(), st.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return services.NewConflictError("story " + st.ID + " already exists")
		}
		s.logErr("AddStory", err)
		return err
	}
	return nil
}

func (s *SQLiteStore) GetStory(ctx context.Context, id string) (*services.Story, error) {
	st, err := scanStory(s.db.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM user_stories WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logErr("GetStory", err)
		return nil, err
	}
	return st, nil
}

func (s *SQLiteStore) ListStories(ctx context.Context, filter services.StoryFilter) ([]*services.Story, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(filter.Type))
	}
	where := ""
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, " AND ")
	}
	total, err := s.count(ctx, "ListStories count", `SELECT COUNT(*) FROM user_stories`+where, args...)
	if err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + storyColumns + ` FROM user_stories` + where + ` ORDER BY ` + orderBy(filter.PageOptions, "created_at") + ` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, filter.Take, filter.Skip)...)
	if err != nil {
		s.logErr("ListStories", err)
		return nil, 0, err
	}
	defer rows.Close()
	out := []*services.Story{}
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			s.logErr("ListStories scan", err)
			return nil, 0, err
		}
		out = append(out, st)
	}
	return out, total, rows.Err()
}

func (s *SQLiteStore) CountStories(ctx context.Context, t services.StoryType) (int, error) {
	if t == "" {
		return s.count(ctx, "CountStories", `SELECT COUNT(*) FROM user_stories`)
	}
	return s.count(ctx, "CountStories", `SELECT COUNT(*) FROM user_stories WHERE type = ?`, string(t))
}

func (s *SQLiteStore) UpdateStory(ctx context.Context, st *services.Story) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_stories SET caption = ?, media_url = ?, type = ?, updated_at = ? WHERE id = ?`,
		st.Caption, toNullString(st.MediaURL), string(st.Type), st.UpdatedAt.UTC(), st.ID)
	return s.affected("UpdateStory", res, err)
}

func (s *SQLiteStore) DeleteStory(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_stories WHERE id = ?`, id)
	return s.affected("DeleteStory", res, err)
}

// --- Testimonial methods ---

const testimonialColumns = `id, title, description, date, admin_id, thumbnail, video_url, published, created_at, updated_at`

func scanTestimonial(row rowScanner) (*services.Testimonial, error) {
	var (
		t           services.Testimonial
		desc, thumb sql.NullString
		published   int64
	)
	if err := row.Scan(&t.ID, &t.Title, &desc, &t.Date, &t.AdminID, &thumb, &t.VideoURL, &published, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Description = desc.String
	t.Thumbnail = thumb.String
	t.Published = int64ToBool(published)
	t.Date = t.Date.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func (s *SQLiteStore) AddTestimonial(ctx context.Context, t *services.Testimonial) error {
	if t == nil {
		return services.NewInvalidError("testimonial required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO testimonials (`+testimonialColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, toNullString(t.Description), t.Date.UTC(), t.AdminID, toNullString(t.Thumbnail), t.VideoURL,
		boolToInt64(t.Published), t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return services.NewConflictError("testimonial " + t.ID + " already exists")
		}
		s.logErr("AddTestimonial", err)
		return err
	}
	return nil
}

func (s *SQLiteStore) GetTestimonial(ctx context.Context, id string) (*services.Testimonial, error) {
	t, err := scanTestimonial(s.db.QueryRowContext(ctx, `SELECT `+testimonialColumns+` FROM testimonials WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logErr("GetTestimonial", err)
		return nil, err
	}
	return t, nil
}

func (s *SQLiteStore) ListTestimonials(ctx context.Context, filter services.TestimonialFilter) ([]*services.Testimonial, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Published != nil {
		conds = append(conds, "published = ?")
		args = append(args, boolToInt64(*filter.Published))
	}
	if filter.AdminID != "" {
		conds = append(conds, "admin_id = ?")
		args = append(args, filter.AdminID)
	}
	where := ""
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, " AND ")
	}
	total, err := s.count(ctx, "ListTestimonials count", `SELECT COUNT(*) FROM testimonials`+where, args...)
	if err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + testimonialColumns + ` FROM testimonials` + where + ` ORDER BY ` + orderBy(filter.PageOptions, "created_at") + ` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, filter.Take, filter.Skip)...)
	if err != nil {
		s.logErr("ListTestimonials", err)
		return nil, 0, err
	}
	defer rows.Close()
	out := []*services.Testimonial{}
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			s.logErr("ListTestimonials scan", err)
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (s *SQLiteStore) CountTestimonials(ctx context.Context, published *bool) (int, error) {
	if published == nil {
		return s.count(ctx, "CountTestimonials", `SELECT COUNT(*) FROM testimonials`)
	}
	return s.count(ctx, "CountTestimonials", `SELECT COUNT(*) FROM testimonials WHERE published = ?`, boolToInt64(*published))
}

func (s *SQLiteStore) UpdateTestimonial(ctx context.Context, t *services.Testimonial) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE testimonials SET title = ?, description = ?, date = ?, admin_id = ?, thumbnail = ?, video_url = ?,
			published = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, toNullString(t.Description), t.Date.UTC(), t.AdminID, toNullString(t.Thumbnail), t.VideoURL,
		boolToInt64(t.Published), t.UpdatedAt.UTC(), t.ID)
	return s.affected("UpdateTestimonial", res, err)
}

func (s *SQLiteStore) DeleteTestimonial(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM testimonials WHERE id = ?`, id)
	return s.affected("DeleteTestimonial", res, err)
}

func (s *SQLiteStore) DeleteTestimonials(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM testimonials WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		s.logErr("DeleteTestimonials", err)
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
