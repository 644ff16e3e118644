package models

// DocumentVersion is the current schema version of the persisted root
// document. The normalizer upgrades anything older (or shapeless) on load.
const DocumentVersion = 1

// RootDocument is the single persisted blob holding every session.
// Active is the id of the session currently being played, or "" for none.
type RootDocument struct {
	Version  int       `json:"version"`
	Sessions []Session `json:"sessions"`
	Active   string    `json:"active"`
}

// Session is one scheduled game instance with its own teams, categories,
// settings, and response log.
type Session struct {
	ID         string     `json:"id"`
	Date       string     `json:"date"` // YYYY-MM-DD
	Title      string     `json:"title"`
	Teams      []Team     `json:"teams"`
	Categories []Category `json:"categories"`
	Settings   Settings   `json:"settings"`
	Play       PlayState  `json:"play"`
}

// Team holds a roster and a running point total. Teams with no members are
// not playable and sit out of turn rotation.
type Team struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Points  int      `json:"points"`
	Members []Member `json:"members"`
}

// Member belongs to exactly one team.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Category is a quiz topic. Enabled controls inclusion in auto-rotation; a
// disabled category can still be started manually.
type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Settings are per-session game options.
type Settings struct {
	TurnSeconds      int    `json:"turnSeconds"`      // per-turn countdown, min 5
	RefLabel         string `json:"refLabel"`         // label for the reference field, e.g. "Verse"
	TurnsPerCategory int    `json:"turnsPerCategory"` // 0 disables auto-rotation
	ShowTimerConfig  bool   `json:"showTimerConfig"`
}

// PlayState is the mutable game cursor for a session.
//
// TurnEndsAt and LastRemainingMS are persisted timer checkpoints: while the
// timer runs, TurnEndsAt minus the wall clock is authoritative; while Paused,
// LastRemainingMS is.
type PlayState struct {
	ActiveCategoryID     string            `json:"activeCategoryId"`
	CurrentTeamIndex     int               `json:"currentTeamIndex"`
	NextMemberIDByTeamID map[string]string `json:"nextMemberIdByTeamId"`
	Paused               bool              `json:"paused"`
	CategoryTurnsUsed    int               `json:"categoryTurnsUsed"`
	Responses            []Response        `json:"responses"`
	TurnEndsAt           int64             `json:"turnEndsAt"` // epoch ms, 0 when idle
	LastRemainingMS      int64             `json:"lastRemainingMs"`
}

// Response is an append-only log entry. MemberName and RefLabel are
// denormalized snapshots so history survives renames and deletions.
type Response struct {
	TS         int64  `json:"ts"` // epoch ms
	CategoryID string `json:"categoryId"`
	TeamID     string `json:"teamId"`
	MemberID   string `json:"memberId"`
	MemberName string `json:"memberName"`
	RefLabel   string `json:"refLabel"`
	RefNumber  string `json:"refNumber"`
	Text       string `json:"text"`
}

// WSMessage is the envelope for hub broadcasts.
type WSMessage struct {
	Type    string      `json:"type"`
	TS      int64       `json:"ts,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// TickPayload rides a "tick" message: a best-effort timer overlay. Consumers
// apply it only when SessionID matches the session they display, and treat
// full re-reads as authoritative.
type TickPayload struct {
	SessionID   string `json:"sessionId"`
	RemainingMS int64  `json:"remainingMs"`
	Paused      bool   `json:"paused"`
}

// Message types carried by the hub.
const (
	MsgState = "state" // something changed; re-read the document
	MsgTick  = "tick"  // timer overlay, TickPayload
)
