package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/safehaven/safehaven-api/internal/api"
	"github.com/safehaven/safehaven-api/internal/logging"
	"github.com/safehaven/safehaven-api/internal/services"
)

type assessmentRow struct {
	ID          string    `gorm:"primaryKey;type:text"`
	Title       string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:text"`
	IsActive    bool      `gorm:"not null;index:idx_assessments_active_created,priority:1"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false;index:idx_assessments_active_created,priority:2,sort:desc"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`

	Sections   []sectionRow   `gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	RiskLevels []riskLevelRow `gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
}

func (assessmentRow) TableName() string { return "assessments" }

type sectionRow struct {
	ID           string `gorm:"primaryKey;type:text"`
	AssessmentID string `gorm:"type:text;not null;index"`
	Name         string `gorm:"type:text;not null"`
	Description  string `gorm:"type:text"`
	Position     int    `gorm:"not null;default:0"`
	Seq          int    `gorm:"not null;default:0"`

	Questions []questionRow `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE"`
}

func (sectionRow) TableName() string { return "assessment_sections" }

type questionRow struct {
	ID           string `gorm:"primaryKey;type:text"`
	SectionID    string `gorm:"type:text;not null;index"`
	QuestionText string `gorm:"type:text;not null"`
	Explanation  string `gorm:"type:text"`
	Position     int    `gorm:"not null;default:0"`
	Seq          int    `gorm:"not null;default:0"`

	Options []optionRow `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (questionRow) TableName() string { return "assessment_questions" }

type optionRow struct {
	ID         string `gorm:"primaryKey;type:text"`
	QuestionID string `gorm:"type:text;not null;index"`
	Text       string `gorm:"type:text;not null"`
	PointValue int    `gorm:"not null;check:point_value >= 0"`
	Position   int    `gorm:"not null;default:0"`
	Seq        int    `gorm:"not null;default:0"`
}

func (optionRow) TableName() string { return "assessment_options" }

type riskLevelRow struct {
	ID           string         `gorm:"primaryKey;type:text"`
	AssessmentID string         `gorm:"type:text;not null;index"`
	MinScore     int            `gorm:"not null"`
	MaxScore     int            `gorm:"not null"`
	Level        string         `gorm:"type:text;not null"`
	Message      string         `gorm:"type:text;not null"`
	Resources    pq.StringArray `gorm:"type:text[]"`
	Position     int            `gorm:"not null;default:0"`
	Seq          int            `gorm:"not null;default:0"`
}

func (riskLevelRow) TableName() string { return "risk_levels" }

type userRow struct {
	ID          string    `gorm:"primaryKey;type:text"`
	ProviderUID string    `gorm:"type:text;not null;uniqueIndex"`
	Email       string    `gorm:"type:text"`
	DisplayName string    `gorm:"type:text"`
	PhotoURL    string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false"`
	LastLoginAt time.Time `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

// PostgresStore keeps assessments, users and content in PostgreSQL through gorm.
type PostgresStore struct {
	db  *gorm.DB
	log *zap.Logger
}

var _ api.Store = (*PostgresStore)(nil)

// OpenPostgres connects with the simple query protocol so the store also works
// behind PgBouncer in transaction mode, then migrates the schema.
func OpenPostgres(dsn string, log *zap.Logger) (*PostgresStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:         logging.NewGormLogger(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	st := &PostgresStore{db: gdb, log: log.Named("postgres")}
	if err := st.Migrate(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func (s *PostgresStore) Migrate() error {
	if err := s.db.AutoMigrate(
		&assessmentRow{},
		&sectionRow{},
		&questionRow{},
		&optionRow{},
		&riskLevelRow{},
		&userRow{},
		&articleRow{},
		&helpCenterRow{},
		&storyRow{},
		&testimonialRow{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	s.log.Info("schema migrated")
	return nil
}

func toAssessmentRow(a *services.Assessment) *assessmentRow {
	row := &assessmentRow{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt.UTC(),
		UpdatedAt:   a.UpdatedAt.UTC(),
	}
	for si, sec := range a.Sections {
		sr := sectionRow{ID: sec.ID, AssessmentID: a.ID, Name: sec.Name, Description: sec.Description, Position: sec.Order, Seq: si}
		for qi, q := range sec.Questions {
			qr := questionRow{ID: q.ID, SectionID: sec.ID, QuestionText: q.QuestionText, Explanation: q.Explanation, Position: q.Order, Seq: qi}
			for oi, opt := range q.Options {
				qr.Options = append(qr.Options, optionRow{ID: opt.ID, QuestionID: q.ID, Text: opt.Text, PointValue: opt.PointValue, Position: opt.Order, Seq: oi})
			}
			sr.Questions = append(sr.Questions, qr)
		}
		row.Sections = append(row.Sections, sr)
	}
	for li, lvl := range a.RiskLevels {
		row.RiskLevels = append(row.RiskLevels, riskLevelRow{
			ID:           lvl.ID,
			AssessmentID: a.ID,
			MinScore:     lvl.MinScore,
			MaxScore:     lvl.MaxScore,
			Level:        lvl.Level,
			Message:      lvl.Message,
			Resources:    pq.StringArray(lvl.Resources),
			Position:     lvl.Order,
			Seq:          li,
		})
	}
	return row
}

func fromAssessmentRow(row *assessmentRow, withDetails bool) *services.Assessment {
	a := &services.Assessment{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
	if !withDetails {
		return a
	}
	a.Sections = make([]services.Section, 0, len(row.Sections))
	for _, sr := range row.Sections {
		sec := services.Section{ID: sr.ID, Name: sr.Name, Description: sr.Description, Order: sr.Position, Questions: make([]services.Question, 0, len(sr.Questions))}
		for _, qr := range sr.Questions {
			q := services.Question{ID: qr.ID, QuestionText: qr.QuestionText, Explanation: qr.Explanation, Order: qr.Position, Options: make([]services.Option, 0, len(qr.Options))}
			for _, opt := range qr.Options {
				q.Options = append(q.Options, services.Option{ID: opt.ID, Text: opt.Text, PointValue: opt.PointValue, Order: opt.Position})
			}
			sec.Questions = append(sec.Questions, q)
		}
		a.Sections = append(a.Sections, sec)
	}
	a.RiskLevels = make([]services.RiskLevel, 0, len(row.RiskLevels))
	for _, lr := range row.RiskLevels {
		resources := []string(lr.Resources)
		if resources == nil {
			resources = []string{}
		}
		a.RiskLevels = append(a.RiskLevels, services.RiskLevel{
			ID:        lr.ID,
			MinScore:  lr.MinScore,
			MaxScore:  lr.MaxScore,
			Level:     lr.Level,
			Message:   lr.Message,
			Resources: resources,
			Order:     lr.Position,
		})
	}
	// Preload already orders by (position, seq); the stable sort keeps that.
	services.SortAssessment(a)
	return a
}

// byPosition orders children by Order, falling back to insertion sequence so
// equal orders read back the way they were written.
func byPosition(db *gorm.DB) *gorm.DB { return db.Order("position ASC, seq ASC") }

func preloadDetails(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Sections", byPosition).
		Preload("Sections.Questions", byPosition).
		Preload("Sections.Questions.Options", byPosition).
		Preload("RiskLevels", byPosition)
}

func (s *PostgresStore) AddAssessment(ctx context.Context, a *services.Assessment) error {
	if a == nil {
		return services.NewInvalidError("assessment required")
	}
	row := toAssessmentRow(a)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return services.NewConflictError("assessment " + a.ID + " already exists")
		}
		s.log.Error("AddAssessment", zap.Error(err))
		return err
	}
	return nil
}

func (s *PostgresStore) GetAssessment(ctx context.Context, id string) (*services.Assessment, error) {
	var row assessmentRow
	if err := preloadDetails(s.db.WithContext(ctx)).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.log.Error("GetAssessment", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return fromAssessmentRow(&row, true), nil
}

func (s *PostgresStore) ListAssessments(ctx context.Context, filter services.AssessmentFilter) ([]*services.Assessment, error) {
	q := s.db.WithContext(ctx).Model(&assessmentRow{})
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IncludeDetails {
		q = preloadDetails(q)
	}
	var rows []assessmentRow
	if err := q.Order("created_at DESC, id ASC").Find(&rows).Error; err != nil {
		s.log.Error("ListAssessments", zap.Error(err))
		return nil, err
	}
	out := make([]*services.Assessment, 0, len(rows))
	for i := range rows {
		out = append(out, fromAssessmentRow(&rows[i], filter.IncludeDetails))
	}
	return out, nil
}

func (s *PostgresStore) UpdateAssessment(ctx context.Context, a *services.Assessment) (bool, error) {
	res := s.db.WithContext(ctx).Model(&assessmentRow{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
		"title":       a.Title,
		"description": a.Description,
		"is_active":   a.IsActive,
		"updated_at":  a.UpdatedAt.UTC(),
	})
	if res.Error != nil {
		s.log.Error("UpdateAssessment", zap.Error(res.Error))
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *PostgresStore) DeleteAssessment(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&assessmentRow{}, "id = ?", id)
	if res.Error != nil {
		s.log.Error("DeleteAssessment", zap.Error(res.Error))
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func toUserRow(u *services.User) *userRow {
	return &userRow{
		ID:          u.ID,
		ProviderUID: u.ProviderUID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		CreatedAt:   u.CreatedAt.UTC(),
		LastLoginAt: u.LastLoginAt.UTC(),
	}
}

func fromUserRow(r *userRow) *services.User {
	return &services.User{
		ID:          r.ID,
		ProviderUID: r.ProviderUID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		PhotoURL:    r.PhotoURL,
		CreatedAt:   r.CreatedAt.UTC(),
		LastLoginAt: r.LastLoginAt.UTC(),
	}
}

func (s *PostgresStore) AddUser(ctx context.Context, u *services.User) error {
	if u == nil {
		return services.NewInvalidError("user required")
	}
	if err := s.db.WithContext(ctx).Create(toUserRow(u)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return services.NewConflictError("user already exists")
		}
		s.log.Error("AddUser", zap.Error(err))
		return err
	}
	return nil
}

func (s *PostgresStore) GetUserByProviderUID(ctx context.Context, uid string) (*services.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, "provider_uid = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.log.Error("GetUserByProviderUID", zap.Error(err))
		return nil, err
	}
	return fromUserRow(&row), nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*services.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.log.Error("GetUserByID", zap.Error(err))
		return nil, err
	}
	return fromUserRow(&row), nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u *services.User) (bool, error) {
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("provider_uid = ?", u.ProviderUID).Updates(map[string]interface{}{
		"email":         u.Email,
		"display_name":  u.DisplayName,
		"photo_url":     u.PhotoURL,
		"last_login_at": u.LastLoginAt.UTC(),
	})
	if res.Error != nil {
		s.log.Error("UpdateUser", zap.Error(res.Error))
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteUser removes the account and its stories in one transaction.
func (s *PostgresStore) DeleteUser(ctx context.Context, uid string) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row userRow
		if err := tx.First(&row, "provider_uid = ?", uid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Delete(&storyRow{}, "user_id = ?", row.ID).Error; err != nil {
			return err
		}
		res := tx.Delete(&userRow{}, "id = ?", row.ID)
		deleted = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		s.log.Error("DeleteUser", zap.Error(err))
		return false, err
	}
	return deleted, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
