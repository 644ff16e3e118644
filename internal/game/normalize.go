package game

import "github.com/mhollis/quizdeck/internal/models"

// Default values substituted for missing or malformed session fields.
const (
	DefaultTeamName    = "Team"
	DefaultCategory    = "Category"
	DefaultRefLabel    = "Verse"
	DefaultTurnSeconds = 30
	MinTurnSeconds     = 5
)

// NormalizeRoot repairs the shape of a loaded root document. It never fails:
// storage is an untyped shared medium that may have been written by an older
// version or edited out of band, so every field gets a safe default instead
// of an error. Idempotent.
func NormalizeRoot(doc *models.RootDocument) {
	if doc.Version <= 0 || doc.Version > models.DocumentVersion {
		doc.Version = models.DocumentVersion
	}
	if doc.Sessions == nil {
		doc.Sessions = []models.Session{}
	}
	for i := range doc.Sessions {
		NormalizeSession(&doc.Sessions[i])
	}
	// Active must reference an existing session; reset when dangling.
	if doc.Active != "" && FindSession(doc, doc.Active) == nil {
		doc.Active = ""
	}
}

// NormalizeSession makes a session satisfy every invariant the engine relies
// on. Called before every read; must be a no-op on an already-normal session.
func NormalizeSession(sess *models.Session) {
	if sess.Teams == nil {
		sess.Teams = []models.Team{}
	}
	if sess.Categories == nil {
		sess.Categories = []models.Category{}
	}

	for i := range sess.Teams {
		t := &sess.Teams[i]
		if t.Members == nil {
			t.Members = []models.Member{}
		}
		if t.Name == "" {
			t.Name = DefaultTeamName
		}
	}
	for i := range sess.Categories {
		if sess.Categories[i].Name == "" {
			sess.Categories[i].Name = DefaultCategory
		}
	}

	normalizeSettings(&sess.Settings)
	normalizePlay(sess)
}

func normalizeSettings(s *models.Settings) {
	if s.TurnSeconds <= 0 {
		s.TurnSeconds = DefaultTurnSeconds
	}
	if s.RefLabel == "" {
		s.RefLabel = DefaultRefLabel
	}
	if s.TurnsPerCategory < 0 {
		s.TurnsPerCategory = 0
	}
}

func normalizePlay(sess *models.Session) {
	p := &sess.Play
	if p.Responses == nil {
		p.Responses = []models.Response{}
	}
	if p.CategoryTurnsUsed < 0 {
		p.CategoryTurnsUsed = 0
	}
	if p.NextMemberIDByTeamID == nil {
		p.NextMemberIDByTeamID = map[string]string{}
	}

	// Seed missing pointers, and reset pointers that no longer resolve to a
	// member of their team.
	for i := range sess.Teams {
		t := &sess.Teams[i]
		if len(t.Members) == 0 {
			delete(p.NextMemberIDByTeamID, t.ID)
			continue
		}
		id, ok := p.NextMemberIDByTeamID[t.ID]
		if !ok || findMember(t, id) < 0 {
			p.NextMemberIDByTeamID[t.ID] = t.Members[0].ID
		}
	}
	// Prune pointers for teams that no longer exist.
	for id := range p.NextMemberIDByTeamID {
		if findTeam(sess, id) < 0 {
			delete(p.NextMemberIDByTeamID, id)
		}
	}

	// A dangling active category resets through the cascade: first enabled,
	// else first, else none. An empty id is left alone: activation is an
	// explicit operation, and stop-challenge relies on "none" surviving.
	if p.ActiveCategoryID != "" && FindCategory(sess, p.ActiveCategoryID) == nil {
		p.ActiveCategoryID = fallbackCategoryID(sess)
	}

	if p.TurnEndsAt < 0 {
		p.TurnEndsAt = 0
	}
	if p.LastRemainingMS < 0 {
		p.LastRemainingMS = 0
	}
	// CurrentTeamIndex is folded modulo the playable count on read; no fix
	// needed here beyond sanity.
	if p.CurrentTeamIndex < 0 && len(PlayableTeams(sess)) == 0 {
		p.CurrentTeamIndex = 0
	}
}

// EnsureActiveCategory promotes an empty active category to the first enabled
// one (or the first at all). Invoked when a session is opened for play, not
// during normalization.
func EnsureActiveCategory(sess *models.Session) {
	if len(sess.Categories) == 0 {
		sess.Play.ActiveCategoryID = ""
		return
	}
	if FindCategory(sess, sess.Play.ActiveCategoryID) != nil {
		return
	}
	sess.Play.ActiveCategoryID = fallbackCategoryID(sess)
}

func fallbackCategoryID(sess *models.Session) string {
	for _, c := range sess.Categories {
		if c.Enabled {
			return c.ID
		}
	}
	if len(sess.Categories) > 0 {
		return sess.Categories[0].ID
	}
	return ""
}

// FindSession returns the session with the given id, or nil.
func FindSession(doc *models.RootDocument, id string) *models.Session {
	for i := range doc.Sessions {
		if doc.Sessions[i].ID == id {
			return &doc.Sessions[i]
		}
	}
	return nil
}

// ActiveSession returns the active session, normalized, or nil when no
// session is active.
func ActiveSession(doc *models.RootDocument) *models.Session {
	if doc.Active == "" {
		return nil
	}
	sess := FindSession(doc, doc.Active)
	if sess != nil {
		NormalizeSession(sess)
	}
	return sess
}

// FindCategory returns the category with the given id, or nil.
func FindCategory(sess *models.Session, id string) *models.Category {
	if id == "" {
		return nil
	}
	for i := range sess.Categories {
		if sess.Categories[i].ID == id {
			return &sess.Categories[i]
		}
	}
	return nil
}

func findTeam(sess *models.Session, id string) int {
	for i := range sess.Teams {
		if sess.Teams[i].ID == id {
			return i
		}
	}
	return -1
}

func findMember(t *models.Team, id string) int {
	if id == "" {
		return -1
	}
	for i := range t.Members {
		if t.Members[i].ID == id {
			return i
		}
	}
	return -1
}
