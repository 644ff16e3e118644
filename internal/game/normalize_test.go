package game_test

import (
	"reflect"
	"testing"

	"github.com/mhollis/quizdeck/internal/game"
	"github.com/mhollis/quizdeck/internal/models"
)

func TestNormalizeSession_SeedsMissingShape(t *testing.T) {
	sess := &models.Session{ID: "sess_1"}
	game.NormalizeSession(sess)

	if sess.Teams == nil || sess.Categories == nil {
		t.Errorf("expected slices seeded, got teams=%v categories=%v", sess.Teams, sess.Categories)
	}
	if sess.Play.Responses == nil || sess.Play.NextMemberIDByTeamID == nil {
		t.Errorf("expected play state seeded")
	}
	if sess.Settings.TurnSeconds != game.DefaultTurnSeconds {
		t.Errorf("expected default turn seconds, got %d", sess.Settings.TurnSeconds)
	}
	if sess.Settings.RefLabel != game.DefaultRefLabel {
		t.Errorf("expected default ref label, got %q", sess.Settings.RefLabel)
	}
}

func TestNormalizeSession_Idempotent(t *testing.T) {
	sess := &models.Session{
		ID: "sess_1",
		Teams: []models.Team{
			{ID: "t1", Members: []models.Member{{ID: "m1", Name: "Ann"}}},
			{ID: "t2"},
		},
		Categories: []models.Category{{ID: "c1", Enabled: true}},
		Play: models.PlayState{
			ActiveCategoryID:     "gone",
			NextMemberIDByTeamID: map[string]string{"t1": "bogus", "t_gone": "m9"},
			TurnEndsAt:           -5,
			LastRemainingMS:      -5,
			CategoryTurnsUsed:    -1,
		},
	}

	game.NormalizeSession(sess)
	first := *sess
	firstMap := map[string]string{}
	for k, v := range sess.Play.NextMemberIDByTeamID {
		firstMap[k] = v
	}

	game.NormalizeSession(sess)
	if !reflect.DeepEqual(firstMap, sess.Play.NextMemberIDByTeamID) {
		t.Errorf("second normalize changed pointers: %v vs %v", firstMap, sess.Play.NextMemberIDByTeamID)
	}
	if first.Play.ActiveCategoryID != sess.Play.ActiveCategoryID {
		t.Errorf("second normalize changed active category")
	}
}

func TestNormalizeSession_RepairsPointers(t *testing.T) {
	sess := &models.Session{
		ID: "sess_1",
		Teams: []models.Team{
			{ID: "t1", Members: []models.Member{{ID: "m1", Name: "Ann"}, {ID: "m2", Name: "Amy"}}},
			{ID: "t2", Members: []models.Member{}},
		},
		Play: models.PlayState{
			NextMemberIDByTeamID: map[string]string{
				"t1":     "gone",
				"t2":     "m9",
				"t_gone": "m1",
			},
		},
	}
	game.NormalizeSession(sess)

	if got := sess.Play.NextMemberIDByTeamID["t1"]; got != "m1" {
		t.Errorf("stale pointer should reset to first member, got %q", got)
	}
	if _, ok := sess.Play.NextMemberIDByTeamID["t2"]; ok {
		t.Errorf("memberless team should have no pointer")
	}
	if _, ok := sess.Play.NextMemberIDByTeamID["t_gone"]; ok {
		t.Errorf("pointer for deleted team should be pruned")
	}
}

func TestNormalizeSession_DanglingActiveCategoryCascade(t *testing.T) {
	sess := &models.Session{
		ID: "sess_1",
		Categories: []models.Category{
			{ID: "c1", Name: "One", Enabled: false},
			{ID: "c2", Name: "Two", Enabled: true},
		},
		Play: models.PlayState{ActiveCategoryID: "deleted"},
	}
	game.NormalizeSession(sess)
	if sess.Play.ActiveCategoryID != "c2" {
		t.Errorf("dangling active should fall back to first enabled, got %q", sess.Play.ActiveCategoryID)
	}

	// No enabled category: fall back to the first one.
	sess.Categories[1].Enabled = false
	sess.Play.ActiveCategoryID = "deleted"
	game.NormalizeSession(sess)
	if sess.Play.ActiveCategoryID != "c1" {
		t.Errorf("expected first category fallback, got %q", sess.Play.ActiveCategoryID)
	}

	// No categories at all: none.
	sess.Categories = nil
	sess.Play.ActiveCategoryID = "deleted"
	game.NormalizeSession(sess)
	if sess.Play.ActiveCategoryID != "" {
		t.Errorf("expected no active category, got %q", sess.Play.ActiveCategoryID)
	}
}

func TestNormalizeSession_EmptyActiveCategoryStaysEmpty(t *testing.T) {
	// "No active category" is a legal resting state (e.g. after the last
	// category was retired by a challenge); normalization must not promote.
	sess := &models.Session{
		ID:         "sess_1",
		Categories: []models.Category{{ID: "c1", Name: "One", Enabled: true}},
	}
	game.NormalizeSession(sess)
	if sess.Play.ActiveCategoryID != "" {
		t.Errorf("normalize must not activate a category, got %q", sess.Play.ActiveCategoryID)
	}
}

func TestEnsureActiveCategory_PromotesOnOpen(t *testing.T) {
	sess := &models.Session{
		ID: "sess_1",
		Categories: []models.Category{
			{ID: "c1", Name: "One", Enabled: false},
			{ID: "c2", Name: "Two", Enabled: true},
		},
	}
	game.NormalizeSession(sess)
	game.EnsureActiveCategory(sess)
	if sess.Play.ActiveCategoryID != "c2" {
		t.Errorf("expected first enabled category, got %q", sess.Play.ActiveCategoryID)
	}

	// An already-valid active category is left alone.
	sess.Play.ActiveCategoryID = "c1"
	game.EnsureActiveCategory(sess)
	if sess.Play.ActiveCategoryID != "c1" {
		t.Errorf("valid active category should be kept, got %q", sess.Play.ActiveCategoryID)
	}
}

func TestNormalizeRoot(t *testing.T) {
	doc := &models.RootDocument{
		Active: "gone",
		Sessions: []models.Session{
			{ID: "sess_1"},
		},
	}
	game.NormalizeRoot(doc)

	if doc.Version != models.DocumentVersion {
		t.Errorf("expected version %d, got %d", models.DocumentVersion, doc.Version)
	}
	if doc.Active != "" {
		t.Errorf("dangling active session should reset, got %q", doc.Active)
	}
	if doc.Sessions[0].Play.NextMemberIDByTeamID == nil {
		t.Errorf("nested sessions should be normalized")
	}

	doc.Active = "sess_1"
	game.NormalizeRoot(doc)
	if doc.Active != "sess_1" {
		t.Errorf("valid active session should be kept")
	}
}

func TestActiveSession(t *testing.T) {
	doc := &models.RootDocument{
		Sessions: []models.Session{{ID: "sess_1"}},
	}
	if got := game.ActiveSession(doc); got != nil {
		t.Errorf("no active session expected, got %v", got)
	}
	doc.Active = "sess_1"
	sess := game.ActiveSession(doc)
	if sess == nil || sess.ID != "sess_1" {
		t.Fatalf("expected sess_1, got %v", sess)
	}
	if sess.Play.NextMemberIDByTeamID == nil {
		t.Errorf("ActiveSession should return a normalized session")
	}
}
