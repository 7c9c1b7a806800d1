package db

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/safehaven/safehaven-api/internal/services"
)

// dryRunDB renders SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=safehaven dbname=safehaven sslmode=disable",
		PreferSimpleProtocol: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return gdb
}

// unordered builds an assessment whose children all share Order 0.
func unordered(id string) *services.Assessment {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &services.Assessment{
		ID: id, Title: "Ties", IsActive: true, CreatedAt: now, UpdatedAt: now,
		Sections: []services.Section{
			{ID: id + "-s-c", Name: "C", Questions: []services.Question{
				{ID: id + "-q-z", QuestionText: "z", Options: []services.Option{
					{ID: id + "-o-3", Text: "3", PointValue: 3},
					{ID: id + "-o-1", Text: "1", PointValue: 1},
					{ID: id + "-o-2", Text: "2", PointValue: 2},
				}},
				{ID: id + "-q-a", QuestionText: "a", Options: []services.Option{{ID: id + "-o-a", Text: "a"}}},
			}},
			{ID: id + "-s-a", Name: "A", Questions: []services.Question{}},
			{ID: id + "-s-b", Name: "B", Questions: []services.Question{}},
		},
		RiskLevels: []services.RiskLevel{
			{ID: id + "-r-high", MinScore: 4, MaxScore: 9, Level: "High", Message: "m"},
			{ID: id + "-r-low", MinScore: 0, MaxScore: 3, Level: "Low", Message: "m"},
		},
	}
}

func sectionNames(a *services.Assessment) string {
	names := make([]string, 0, len(a.Sections))
	for _, sec := range a.Sections {
		names = append(names, sec.Name)
	}
	return strings.Join(names, ",")
}

func TestAssessmentRowWritesInactiveFlag(t *testing.T) {
	gdb := dryRunDB(t)
	inactive := sampleAssessment("p-off", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), false)
	sql := gdb.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Omit("Sections", "RiskLevels").Create(toAssessmentRow(inactive))
	})
	if !strings.Contains(sql, `"is_active"`) {
		t.Fatalf("insert omits is_active, so the column default wins: %s", sql)
	}
	if !strings.Contains(sql, "false") {
		t.Fatalf("insert does not write false: %s", sql)
	}
}

func TestContentRowsWriteFalseFlags(t *testing.T) {
	gdb := dryRunDB(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := map[string]struct {
		row    any
		column string
	}{
		"article":     {toArticleRow(&services.Article{ID: "a", Title: "t", Slug: "s", Content: "c", Author: "x", CreatedAt: now, UpdatedAt: now}), `"published"`},
		"help center": {toHelpCenterRow(&services.HelpCenter{ID: "h", Name: "n", Email: "e@example.com", CreatedAt: now, UpdatedAt: now}), `"is_active"`},
		"testimonial": {toTestimonialRow(&services.Testimonial{ID: "t", Title: "t", VideoURL: "v", AdminID: "u", Date: now, CreatedAt: now, UpdatedAt: now}), `"published"`},
	}
	for name, c := range cases {
		sql := gdb.ToSQL(func(tx *gorm.DB) *gorm.DB { return tx.Create(c.row) })
		if !strings.Contains(sql, c.column) || !strings.Contains(sql, "false") {
			t.Fatalf("%s insert does not write %s=false: %s", name, c.column, sql)
		}
	}
}

func TestChildRowsCarryInsertionSequence(t *testing.T) {
	row := toAssessmentRow(unordered("seq"))
	for i, sec := range row.Sections {
		if sec.Position != 0 || sec.Seq != i {
			t.Fatalf("section %d: position=%d seq=%d", i, sec.Position, sec.Seq)
		}
	}
	for i, opt := range row.Sections[0].Questions[0].Options {
		if opt.Seq != i {
			t.Fatalf("option %d: seq=%d", i, opt.Seq)
		}
	}
	if row.Sections[0].Questions[1].Seq != 1 || row.RiskLevels[1].Seq != 1 {
		t.Fatalf("question or risk level seq not assigned: %+v %+v", row.Sections[0].Questions[1], row.RiskLevels[1])
	}

	back := fromAssessmentRow(row, true)
	if got := sectionNames(back); got != "C,A,B" {
		t.Fatalf("sections = %s, want C,A,B", got)
	}
	opts := back.Sections[0].Questions[0].Options
	if opts[0].Text != "3" || opts[1].Text != "1" || opts[2].Text != "2" {
		t.Fatalf("options reordered: %+v", opts)
	}
	if back.RiskLevels[0].Level != "High" {
		t.Fatalf("risk levels reordered: %+v", back.RiskLevels)
	}

	sql := dryRunDB(t).ToSQL(func(tx *gorm.DB) *gorm.DB {
		return byPosition(tx).Find(&[]sectionRow{})
	})
	if !strings.Contains(sql, "ORDER BY position ASC, seq ASC") {
		t.Fatalf("children not ordered by insertion sequence on ties: %s", sql)
	}
}

func TestAssessmentRowConversion(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	src := sampleAssessment("p1", created, true)
	row := toAssessmentRow(src)
	if len(row.Sections) != 2 || row.Sections[0].AssessmentID != "p1" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.Sections[1].Questions[0].Options[0].QuestionID != "p1-q1" {
		t.Fatalf("option not linked to its question: %+v", row.Sections[1].Questions[0].Options[0])
	}
	if len(row.RiskLevels[1].Resources) != 2 {
		t.Fatalf("resources lost: %+v", row.RiskLevels[1])
	}

	back := fromAssessmentRow(row, true)
	if back.Sections[0].Name != "First" || back.Sections[0].Questions[0].Options[0].Text != "a" {
		t.Fatalf("round trip not ordered: %+v", back.Sections)
	}
	if back.RiskLevels[0].Resources == nil {
		t.Fatalf("empty resources should convert to an empty slice")
	}

	header := fromAssessmentRow(row, false)
	if header.Sections != nil || header.RiskLevels != nil || header.Title != src.Title {
		t.Fatalf("header-only conversion carried details: %+v", header)
	}
}

// Runs only when a disposable database is provided.
func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("SAFEHAVEN_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SAFEHAVEN_TEST_POSTGRES_DSN not set")
	}
	st, err := OpenPostgres(dsn, nil)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer st.Close()
	ctx := context.Background()
	id := "pg-" + time.Now().Format("150405.000000")
	if err := st.AddAssessment(ctx, sampleAssessment(id, time.Now().UTC().Truncate(time.Microsecond), true)); err != nil {
		t.Fatalf("AddAssessment: %v", err)
	}
	defer st.DeleteAssessment(ctx, id)

	got, err := st.GetAssessment(ctx, id)
	if err != nil || got == nil {
		t.Fatalf("GetAssessment = %v, %v", got, err)
	}
	if len(got.Sections) != 2 || got.Sections[0].Name != "First" || len(got.RiskLevels[1].Resources) != 2 {
		t.Fatalf("unexpected assessment: %+v", got)
	}
	if err := st.AddAssessment(ctx, sampleAssessment(id, time.Now(), true)); !services.IsCode(err, services.ErrorConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	ok, err := st.DeleteAssessment(ctx, id)
	if err != nil || !ok {
		t.Fatalf("DeleteAssessment = %v, %v", ok, err)
	}
	gone, err := st.GetAssessment(ctx, id)
	if err != nil || gone != nil {
		t.Fatalf("expected assessment gone, got %v, %v", gone, err)
	}

	off := sampleAssessment(id+"-off", time.Now().UTC().Truncate(time.Microsecond), false)
	if err := st.AddAssessment(ctx, off); err != nil {
		t.Fatalf("AddAssessment inactive: %v", err)
	}
	defer st.DeleteAssessment(ctx, off.ID)
	if got, err := st.GetAssessment(ctx, off.ID); err != nil || got.IsActive {
		t.Fatalf("inactive assessment read back as %+v, %v", got, err)
	}

	ties := unordered(id + "-ties")
	if err := st.AddAssessment(ctx, ties); err != nil {
		t.Fatalf("AddAssessment ties: %v", err)
	}
	defer st.DeleteAssessment(ctx, ties.ID)
	for i := 0; i < 3; i++ {
		got, err := st.GetAssessment(ctx, ties.ID)
		if err != nil {
			t.Fatalf("GetAssessment ties: %v", err)
		}
		if names := sectionNames(got); names != "C,A,B" {
			t.Fatalf("read %d: sections = %s, want C,A,B", i, names)
		}
		if o := got.Sections[0].Questions[0].Options; o[0].Text != "3" || o[2].Text != "2" {
			t.Fatalf("read %d: options = %+v", i, o)
		}
	}
}
