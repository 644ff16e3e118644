package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/jonboulle/clockwork"

	"github.com/mhollis/quizdeck/internal/errors"
	"github.com/mhollis/quizdeck/internal/game"
	"github.com/mhollis/quizdeck/internal/logger"
	"github.com/mhollis/quizdeck/internal/models"
	"github.com/mhollis/quizdeck/internal/repository"
)

// DisplayService builds the read-only snapshot the display view renders. It
// never mutates persisted state and derives every field with the same
// rotation engine the control path uses, so the two views cannot disagree
// structurally.
type DisplayService struct {
	log   logger.Logger
	repo  repository.DocumentRepository
	clock clockwork.Clock
}

// NewDisplayService creates a DisplayService.
func NewDisplayService(log logger.Logger, repo repository.DocumentRepository, clock clockwork.Clock) *DisplayService {
	return &DisplayService{log: log, repo: repo, clock: clock}
}

// TeamScore is one row of the scoreboard.
type TeamScore struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// NextUpEntry is one row of the "who's up next" panel.
type NextUpEntry struct {
	TeamName   string `json:"teamName"`
	MemberName string `json:"memberName"`
}

// ResponseRow is one display/report row with names resolved (live name
// first, snapshot fallback).
type ResponseRow struct {
	Team   string `json:"team"`
	Member string `json:"member"`
	Ref    string `json:"ref"`
	Text   string `json:"text"`
}

// DisplaySnapshot is everything the display view needs for one full render.
//
// Fingerprint identifies the response set (category plus row identities):
// the view rebuilds its pager only when it changes, so routine re-reads
// don't reset the page that is on screen.
type DisplaySnapshot struct {
	SessionID         string        `json:"sessionId"`
	Title             string        `json:"title"`
	CategoryName      string        `json:"categoryName"`
	HasActiveCategory bool          `json:"hasActiveCategory"`
	CurrentTeamName   string        `json:"currentTeamName"`
	CurrentMemberName string        `json:"currentMemberName"`
	TurnsUsed         int           `json:"turnsUsed"`
	TurnsTotal        int           `json:"turnsTotal"` // 0 when auto-rotation is off
	RemainingMS       int64         `json:"remainingMs"`
	Paused            bool          `json:"paused"`
	Scores            []TeamScore   `json:"scores"`
	NextUp            []NextUpEntry `json:"nextUp"`
	Responses         []ResponseRow `json:"responses"`
	Fingerprint       string        `json:"fingerprint"`
}

// Snapshot computes the display model for a session. The remaining time is
// reconstructed from the persisted checkpoints: the frozen remainder while
// paused, the deadline against the clock otherwise. A relayed tick is never
// required for correctness.
func (s *DisplayService) Snapshot(ctx context.Context, sessionID string) (*DisplaySnapshot, error) {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	sess := game.FindSession(doc, sessionID)
	if sess == nil {
		return nil, errors.NotFoundf("session %s not found", sessionID)
	}
	game.NormalizeSession(sess)

	info := game.CurrentAndNext(sess)
	snap := &DisplaySnapshot{
		SessionID: sess.ID,
		Title:     sess.Title,
		Paused:    sess.Play.Paused,
	}

	if cat := game.FindCategory(sess, sess.Play.ActiveCategoryID); cat != nil {
		snap.CategoryName = cat.Name
		snap.HasActiveCategory = true
	}
	if info.CurrentTeam != nil && info.CurrentMember != nil {
		snap.CurrentTeamName = info.CurrentTeam.Name
		snap.CurrentMemberName = info.CurrentMember.Name
	}

	if sess.Settings.TurnsPerCategory > 0 && snap.HasActiveCategory && len(info.Playable) > 0 {
		snap.TurnsTotal = sess.Settings.TurnsPerCategory * len(info.Playable)
		snap.TurnsUsed = sess.Play.CategoryTurnsUsed
	}

	if sess.Play.Paused {
		snap.RemainingMS = sess.Play.LastRemainingMS
	} else {
		remaining := sess.Play.TurnEndsAt - s.clock.Now().UnixMilli()
		if remaining < 0 {
			remaining = 0
		}
		snap.RemainingMS = remaining
	}

	snap.Scores = scoreboard(sess)
	snap.NextUp = nextUpOrder(sess, info)
	snap.Responses = responseRows(sess, sess.Play.ActiveCategoryID)
	snap.Fingerprint = responseFingerprint(sess.Play.ActiveCategoryID, snap.Responses)
	return snap, nil
}

// scoreboard returns all teams sorted by points descending.
func scoreboard(sess *models.Session) []TeamScore {
	scores := make([]TeamScore, 0, len(sess.Teams))
	for _, t := range sess.Teams {
		scores = append(scores, TeamScore{Name: t.Name, Points: t.Points})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Points > scores[j].Points
	})
	return scores
}

// nextUpOrder lists playable teams starting after the current one, wrapping
// so the current team appears last, each with the member who answers next.
func nextUpOrder(sess *models.Session, info game.TurnInfo) []NextUpEntry {
	playable := info.Playable
	if len(playable) == 0 {
		return []NextUpEntry{}
	}
	cti := sess.Play.CurrentTeamIndex % len(playable)

	ordered := append(append([]*models.Team{}, playable[cti+1:]...), playable[:cti+1]...)
	out := make([]NextUpEntry, 0, len(ordered))
	for _, t := range ordered {
		entry := NextUpEntry{TeamName: t.Name}
		if m := info.NextByTeam[t.ID]; m != nil {
			entry.MemberName = m.Name
		}
		out = append(out, entry)
	}
	return out
}

// responseRows returns the category's responses as display rows ordered by
// reference number, resolving names against the live roster with the
// snapshot as fallback.
func responseRows(sess *models.Session, categoryID string) []ResponseRow {
	if categoryID == "" {
		return []ResponseRow{}
	}
	rows := make([]ResponseRow, 0)
	for _, r := range responsesForCategory(sess, categoryID) {
		rows = append(rows, ResponseRow{
			Team:   teamNameFor(sess, r.TeamID),
			Member: memberNameFor(sess, r.TeamID, r.MemberID, r.MemberName),
			Ref:    r.RefNumber,
			Text:   r.Text,
		})
	}
	return rows
}

// responseFingerprint hashes the category id and row identities so routine
// re-reads with unchanged content produce an identical value.
func responseFingerprint(categoryID string, rows []ResponseRow) string {
	h := fnv.New64a()
	h.Write([]byte(categoryID))
	for _, r := range rows {
		h.Write([]byte{0})
		h.Write([]byte(r.Team))
		h.Write([]byte{1})
		h.Write([]byte(r.Member))
		h.Write([]byte{2})
		h.Write([]byte(r.Ref))
		h.Write([]byte{3})
		h.Write([]byte(r.Text))
	}
	return fmt.Sprintf("%d:%x", len(rows), h.Sum64())
}

// PageCount returns how many fixed-capacity pages the rows fill; always at
// least one.
func PageCount(totalRows, rowsPerPage int) int {
	if rowsPerPage < 1 {
		rowsPerPage = 1
	}
	pages := (totalRows + rowsPerPage - 1) / rowsPerPage
	if pages < 1 {
		pages = 1
	}
	return pages
}

// PageBounds returns the [start, end) slice bounds of a page, clamping the
// page index into range (wrapping, for rotation).
func PageBounds(page, rowsPerPage, totalRows int) (int, int) {
	if rowsPerPage < 1 {
		rowsPerPage = 1
	}
	pages := PageCount(totalRows, rowsPerPage)
	page = ((page % pages) + pages) % pages
	start := page * rowsPerPage
	if start > totalRows {
		start = totalRows
	}
	end := start + rowsPerPage
	if end > totalRows {
		end = totalRows
	}
	return start, end
}

func teamNameFor(sess *models.Session, teamID string) string {
	for _, t := range sess.Teams {
		if t.ID == teamID {
			return t.Name
		}
	}
	return "(Deleted team)"
}

func memberNameFor(sess *models.Session, teamID, memberID, snapshot string) string {
	for _, t := range sess.Teams {
		if t.ID != teamID {
			continue
		}
		for _, m := range t.Members {
			if m.ID == memberID {
				return m.Name
			}
		}
	}
	if snapshot != "" {
		return snapshot
	}
	return "(Deleted member)"
}
