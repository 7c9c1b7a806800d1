package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/safehaven/safehaven-api/internal/api"
	"github.com/safehaven/safehaven-api/internal/services"
)

type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

func NewSQLiteStore(db *sql.DB, log *zap.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	if log == nil {
		log = zap.NewNop()
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, log: log.Named("sqlite")}, nil
}

// OpenSQLite opens path, applies migrations and returns a ready store.
func OpenSQLite(path, migrationsDir string, log *zap.Logger) (*SQLiteStore, error) {
	// foreign_keys is per connection, so it goes into the DSN as well.
	conn, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := RunMigrations(conn, migrationsDir); err != nil {
		_ = conn.Close()
		return nil, err
	}
	st, err := NewSQLiteStore(conn, log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return st, nil
}

var _ api.Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		s.log.Error(prefix, zap.Error(err))
	}
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func int64ToBool(v int64) bool { return v != 0 }

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func encodeResources(list []string) (sql.NullString, error) {
	if len(list) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func (s *SQLiteStore) decodeResources(ns sql.NullString) []string {
	out := []string{}
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		s.logErr("decode resources", err)
		return []string{}
	}
	return out
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// withTx runs fn inside a transaction, committing on success.
func (s *SQLiteStore) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logErr(op+" begin", err)
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if err = tx.Commit(); err != nil {
			s.logErr(op+" commit", err)
		}
	}()
	return fn(tx)
}

// --- Assessment methods ---

func (s *SQLiteStore) AddAssessment(ctx context.Context, a *services.Assessment) error {
	if a == nil {
		return services.NewInvalidError("assessment required")
	}
	err := s.withTx(ctx, "AddAssessment", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO assessments (id, title, description, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.Title, toNullString(a.Description), boolToInt64(a.IsActive), a.CreatedAt.UTC(), a.UpdatedAt.UTC())
		if err != nil {
			return err
		}
		for _, sec := range a.Sections {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO assessment_sections (id, assessment_id, name, description, position) VALUES (?, ?, ?, ?, ?)`,
				sec.ID, a.ID, sec.Name, toNullString(sec.Description), sec.Order); err != nil {
				return err
			}
			for _, q := range sec.Questions {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO assessment_questions (id, section_id, question_text, explanation, position) VALUES (?, ?, ?, ?, ?)`,
					q.ID, sec.ID, q.QuestionText, toNullString(q.Explanation), q.Order); err != nil {
					return err
				}
				for _, opt := range q.Options {
					if _, err := tx.ExecContext(ctx,
						`INSERT INTO assessment_options (id, question_id, text, point_value, position) VALUES (?, ?, ?, ?, ?)`,
						opt.ID, q.ID, opt.Text, opt.PointValue, opt.Order); err != nil {
						return err
					}
				}
			}
		}
		for _, lvl := range a.RiskLevels {
			res, err := encodeResources(lvl.Resources)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO risk_levels (id, assessment_id, min_score, max_score, level, message, resources, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				lvl.ID, a.ID, lvl.MinScore, lvl.MaxScore, lvl.Level, lvl.Message, res, lvl.Order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return services.NewConflictError("assessment " + a.ID + " already exists")
		}
		s.logErr("AddAssessment", err)
		return err
	}
	return nil
}

const assessmentColumns = `id, title, description, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*services.Assessment, error) {
	var (
		a      services.Assessment
		desc   sql.NullString
		active int64
	)
	if err := row.Scan(&a.ID, &a.Title, &desc, &active, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Description = desc.String
	a.IsActive = int64ToBool(active)
	return &a, nil
}

func (s *SQLiteStore) GetAssessment(ctx context.Context, id string) (*services.Assessment, error) {
	a, err := scanAssessment(s.db.QueryRowContext(ctx, `SELECT `+assessmentColumns+` FROM assessments WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logErr("GetAssessment", err)
		return nil, err
	}
	if err := s.loadDetails(ctx, a); err != nil {
		s.logErr("GetAssessment details", err)
		return nil, err
	}
	return a, nil
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, filter services.AssessmentFilter) ([]*services.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments`
	var args []any
	if filter.IsActive != nil {
		query += ` WHERE is_active = ?`
		args = append(args, boolToInt64(*filter.IsActive))
	}
	query += ` ORDER BY created_at DESC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logErr("ListAssessments", err)
		return nil, err
	}
	out := []*services.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			_ = rows.Close()
			s.logErr("ListAssessments scan", err)
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()
	if filter.IncludeDetails {
		for _, a := range out {
			if err := s.loadDetails(ctx, a); err != nil {
				s.logErr("ListAssessments details", err)
				return nil, err
			}
		}
	}
	return out, nil
}

// loadDetails fills sections, questions, options and risk levels in Order.
func (s *SQLiteStore) loadDetails(ctx context.Context, a *services.Assessment) error {
	sections, err := s.loadSections(ctx, a.ID)
	if err != nil {
		return err
	}
	questions, err := s.loadQuestions(ctx, a.ID)
	if err != nil {
		return err
	}
	options, err := s.loadOptions(ctx, a.ID)
	if err != nil {
		return err
	}
	for si := range sections {
		qs := questions[sections[si].ID]
		for qi := range qs {
			qs[qi].Options = options[qs[qi].ID]
			if qs[qi].Options == nil {
				qs[qi].Options = []services.Option{}
			}
		}
		if qs == nil {
			qs = []services.Question{}
		}
		sections[si].Questions = qs
	}
	a.Sections = sections
	a.RiskLevels, err = s.loadRiskLevels(ctx, a.ID)
	return err
}

func (s *SQLiteStore) loadSections(ctx context.Context, assessmentID string) ([]services.Section, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, position FROM assessment_sections WHERE assessment_id = ? ORDER BY position ASC, rowid ASC`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []services.Section{}
	for rows.Next() {
		var (
			sec  services.Section
			desc sql.NullString
		)
		if err := rows.Scan(&sec.ID, &sec.Name, &desc, &sec.Order); err != nil {
			return nil, err
		}
		sec.Description = desc.String
		out = append(out, sec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadQuestions(ctx context.Context, assessmentID string) (map[string][]services.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.section_id, q.question_text, q.explanation, q.position
		FROM assessment_questions q
		JOIN assessment_sections sec ON sec.id = q.section_id
		WHERE sec.assessment_id = ?
		ORDER BY q.position ASC, q.rowid ASC`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]services.Question{}
	for rows.Next() {
		var (
			q         services.Question
			sectionID string
			expl      sql.NullString
		)
		if err := rows.Scan(&q.ID, &sectionID, &q.QuestionText, &expl, &q.Order); err != nil {
			return nil, err
		}
		q.Explanation = expl.String
		out[sectionID] = append(out[sectionID], q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadOptions(ctx context.Context, assessmentID string) (map[string][]services.Option, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.question_id, o.text, o.point_value, o.position
		FROM assessment_options o
		JOIN assessment_questions q ON q.id = o.question_id
		JOIN assessment_sections sec ON sec.id = q.section_id
		WHERE sec.assessment_id = ?
		ORDER BY o.position ASC, o.rowid ASC`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]services.Option{}
	for rows.Next() {
		var (
			o          services.Option
			questionID string
		)
		if err := rows.Scan(&o.ID, &questionID, &o.Text, &o.PointValue, &o.Order); err != nil {
			return nil, err
		}
		out[questionID] = append(out[questionID], o)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadRiskLevels(ctx context.Context, assessmentID string) ([]services.RiskLevel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, min_score, max_score, level, message, resources, position
		FROM risk_levels WHERE assessment_id = ?
		ORDER BY position ASC, rowid ASC`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []services.RiskLevel{}
	for rows.Next() {
		var (
			lvl services.RiskLevel
			res sql.NullString
		)
		if err := rows.Scan(&lvl.ID, &lvl.MinScore, &lvl.MaxScore, &lvl.Level, &lvl.Message, &res, &lvl.Order); err != nil {
			return nil, err
		}
		lvl.Resources = s.decodeResources(res)
		out = append(out, lvl)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateAssessment(ctx context.Context, a *services.Assessment) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE assessments SET title = ?, description = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		a.Title, toNullString(a.Description), boolToInt64(a.IsActive), a.UpdatedAt.UTC(), a.ID)
	if err != nil {
		s.logErr("UpdateAssessment", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) DeleteAssessment(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assessments WHERE id = ?`, id)
	if err != nil {
		s.logErr("DeleteAssessment", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- User methods ---

func (s *SQLiteStore) AddUser(ctx context.Context, u *services.User) error {
	if u == nil {
		return services.NewInvalidError("user required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, provider_uid, email, display_name, photo_url, created_at, last_login_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.ProviderUID, toNullString(u.Email), toNullString(u.DisplayName), toNullString(u.PhotoURL), u.CreatedAt.UTC(), u.LastLoginAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return services.NewConflictError("user already exists")
		}
		s.logErr("AddUser", err)
		return err
	}
	return nil
}

const userColumns = `id, provider_uid, email, display_name, photo_url, created_at, last_login_at`

func scanUser(row rowScanner) (*services.User, error) {
	var (
		u                   services.User
		email, name, photo  sql.NullString
		createdAt, lastSeen time.Time
	)
	if err := row.Scan(&u.ID, &u.ProviderUID, &email, &name, &photo, &createdAt, &lastSeen); err != nil {
		return nil, err
	}
	u.Email = email.String
	u.DisplayName = name.String
	u.PhotoURL = photo.String
	u.CreatedAt = createdAt.UTC()
	u.LastLoginAt = lastSeen.UTC()
	return &u, nil
}

func (s *SQLiteStore) getUser(ctx context.Context, op, where, arg string) (*services.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = ?`, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logErr(op, err)
		return nil, err
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByProviderUID(ctx context.Context, uid string) (*services.User, error) {
	return s.getUser(ctx, "GetUserByProviderUID", "provider_uid", uid)
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*services.User, error) {
	return s.getUser(ctx, "GetUserByID", "id", id)
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, u *services.User) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET email = ?, display_name = ?, photo_url = ?, last_login_at = ? WHERE provider_uid = ?`,
		toNullString(u.Email), toNullString(u.DisplayName), toNullString(u.PhotoURL), u.LastLoginAt.UTC(), u.ProviderUID)
	if err != nil {
		s.logErr("UpdateUser", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteUser relies on ON DELETE CASCADE to remove the user's stories.
func (s *SQLiteStore) DeleteUser(ctx context.Context, uid string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE provider_uid = ?`, uid)
	if err != nil {
		s.logErr("DeleteUser", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Close() error { return s.db.Close() }
