package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/safehaven/safehaven-api/internal/services"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), "", nil)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleAssessment(id string, created time.Time, active bool) *services.Assessment {
	return &services.Assessment{
		ID:          id,
		Title:       "Check " + id,
		Description: "desc",
		IsActive:    active,
		CreatedAt:   created,
		UpdatedAt:   created,
		Sections: []services.Section{
			{ID: id + "-s2", Name: "Second", Order: 1, Questions: []services.Question{
				{ID: id + "-q2", QuestionText: "q2", Options: []services.Option{
					{ID: id + "-o3", Text: "low", PointValue: 0},
					{ID: id + "-o4", Text: "high", PointValue: 4, Order: 1},
				}},
			}},
			{ID: id + "-s1", Name: "First", Questions: []services.Question{
				{ID: id + "-q1", QuestionText: "q1", Explanation: "because", Options: []services.Option{
					{ID: id + "-o2", Text: "b", PointValue: 3, Order: 1},
					{ID: id + "-o1", Text: "a", PointValue: 0},
				}},
			}},
		},
		RiskLevels: []services.RiskLevel{
			{ID: id + "-r1", MinScore: 0, MaxScore: 3, Level: "Low", Message: "fine", Resources: []string{}},
			{ID: id + "-r2", MinScore: 4, MaxScore: 7, Level: "High", Message: "call", Resources: []string{"hotline", "shelter"}, Order: 1},
		},
	}
}

func TestSQLiteAssessmentRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := st.AddAssessment(ctx, sampleAssessment("a1", created, true)); err != nil {
		t.Fatalf("AddAssessment: %v", err)
	}
	got, err := st.GetAssessment(ctx, "a1")
	if err != nil || got == nil {
		t.Fatalf("GetAssessment = %v, %v", got, err)
	}
	if got.Title != "Check a1" || !got.IsActive || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected header: %+v", got)
	}
	if len(got.Sections) != 2 || got.Sections[0].Name != "First" {
		t.Fatalf("sections not ordered: %+v", got.Sections)
	}
	q1 := got.Sections[0].Questions[0]
	if q1.Explanation != "because" || q1.Options[0].ID != "a1-o1" || q1.Options[1].PointValue != 3 {
		t.Fatalf("unexpected question: %+v", q1)
	}
	if len(got.RiskLevels) != 2 || got.RiskLevels[1].Resources[1] != "shelter" {
		t.Fatalf("unexpected risk levels: %+v", got.RiskLevels)
	}
	if got.RiskLevels[0].Resources == nil {
		t.Fatalf("empty resources should decode to an empty slice")
	}

	if err := st.AddAssessment(ctx, sampleAssessment("a1", created, true)); !services.IsCode(err, services.ErrorConflict) {
		t.Fatalf("expected conflict on duplicate id, got %v", err)
	}

	missing, err := st.GetAssessment(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for unknown id, got %v, %v", missing, err)
	}
}

func TestSQLiteListUpdateDelete(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		if err := st.AddAssessment(ctx, sampleAssessment(id, base.Add(time.Duration(i)*time.Hour), id != "mid")); err != nil {
			t.Fatalf("AddAssessment %s: %v", id, err)
		}
	}

	all, err := st.ListAssessments(ctx, services.AssessmentFilter{})
	if err != nil {
		t.Fatalf("ListAssessments: %v", err)
	}
	if len(all) != 3 || all[0].ID != "new" || all[2].ID != "old" {
		t.Fatalf("expected newest first, got %v", ids(all))
	}
	if all[0].Sections != nil {
		t.Fatalf("details should not load without IncludeDetails")
	}

	active := true
	list, err := st.ListAssessments(ctx, services.AssessmentFilter{IsActive: &active, IncludeDetails: true})
	if err != nil {
		t.Fatalf("ListAssessments active: %v", err)
	}
	if len(list) != 2 || len(list[0].Sections) != 2 {
		t.Fatalf("unexpected active list: %v", ids(list))
	}

	upd := *all[1]
	upd.Title = "Renamed"
	upd.IsActive = true
	upd.UpdatedAt = base.Add(48 * time.Hour)
	ok, err := st.UpdateAssessment(ctx, &upd)
	if err != nil || !ok {
		t.Fatalf("UpdateAssessment = %v, %v", ok, err)
	}
	got, _ := st.GetAssessment(ctx, "mid")
	if got.Title != "Renamed" || !got.IsActive || len(got.Sections) != 2 {
		t.Fatalf("update changed more than metadata: %+v", got)
	}
	ghost := upd
	ghost.ID = "ghost"
	if ok, _ := st.UpdateAssessment(ctx, &ghost); ok {
		t.Fatalf("update of unknown id reported success")
	}

	ok, err = st.DeleteAssessment(ctx, "mid")
	if err != nil || !ok {
		t.Fatalf("DeleteAssessment = %v, %v", ok, err)
	}
	var orphans int
	if err := st.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assessment_options WHERE id LIKE 'mid-%'`).Scan(&orphans); err != nil {
		t.Fatalf("count options: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("delete did not cascade, %d options left", orphans)
	}
	if ok, _ := st.DeleteAssessment(ctx, "mid"); ok {
		t.Fatalf("second delete reported success")
	}
}

func TestSQLiteUsers(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC)
	u := &services.User{ID: "u1", ProviderUID: "google-1", Email: "a@example.com", CreatedAt: now, LastLoginAt: now}
	if err := st.AddUser(ctx, u); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if err := st.AddUser(ctx, u); !services.IsCode(err, services.ErrorConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	got, err := st.GetUserByProviderUID(ctx, "google-1")
	if err != nil || got == nil || got.Email != "a@example.com" || !got.CreatedAt.Equal(now) {
		t.Fatalf("GetUserByProviderUID = %+v, %v", got, err)
	}
	got.DisplayName = "Ada"
	got.LastLoginAt = now.Add(time.Hour)
	if ok, err := st.UpdateUser(ctx, got); err != nil || !ok {
		t.Fatalf("UpdateUser = %v, %v", ok, err)
	}
	again, _ := st.GetUserByProviderUID(ctx, "google-1")
	if again.DisplayName != "Ada" || !again.LastLoginAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("update not persisted: %+v", again)
	}
	if ok, err := st.DeleteUser(ctx, "google-1"); err != nil || !ok {
		t.Fatalf("DeleteUser = %v, %v", ok, err)
	}
	gone, err := st.GetUserByProviderUID(ctx, "google-1")
	if err != nil || gone != nil {
		t.Fatalf("expected user gone, got %+v, %v", gone, err)
	}
}

func ids(list []*services.Assessment) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}
