package services

import (
	"context"
	"sort"
	"strings"

	"github.com/mhollis/quizdeck/internal/errors"
	"github.com/mhollis/quizdeck/internal/game"
	"github.com/mhollis/quizdeck/internal/logger"
	"github.com/mhollis/quizdeck/internal/models"
	"github.com/mhollis/quizdeck/internal/repository"
)

// PlayService runs the active session: roster and category edits, turn
// resolution, and settings. Every mutation follows the same strict sequence
// (load+normalize, mutate in memory, persist, broadcast) synchronously, so
// handlers in this process never interleave mid-mutation.
type PlayService struct {
	log         logger.Logger
	repo        repository.DocumentRepository
	timer       *TimerEngine
	broadcaster Broadcaster
}

// NewPlayService creates a PlayService.
func NewPlayService(log logger.Logger, repo repository.DocumentRepository, timer *TimerEngine) *PlayService {
	return &PlayService{log: log, repo: repo, timer: timer}
}

// SetBroadcaster sets the notification channel for state changes.
func (s *PlayService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// ErrNoActiveSession is returned by operations that need an open session.
var ErrNoActiveSession = errors.NotFound("no active session")

// mutateActive runs fn against the active session and persists the result
// when fn reports a change. fn may return changed=false to refuse silently.
// The whole sequence runs under the repository's update lock, so it cannot
// interleave with a concurrent timer tick or another handler.
func (s *PlayService) mutateActive(ctx context.Context, fn func(doc *models.RootDocument, sess *models.Session) (bool, error)) error {
	saved := false
	err := s.repo.Update(ctx, func(doc *models.RootDocument) (bool, error) {
		sess := game.ActiveSession(doc)
		if sess == nil {
			return false, ErrNoActiveSession
		}
		changed, err := fn(doc, sess)
		saved = changed && err == nil
		return changed, err
	})
	if err != nil {
		return err
	}
	if saved && s.broadcaster != nil {
		s.broadcaster.BroadcastState()
	}
	return nil
}

// ==================== Teams & members ====================

// AddTeam appends a new (memberless, hence not yet playable) team.
func (s *PlayService) AddTeam(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = game.DefaultTeamName
	}
	return s.mutateActive(ctx, func(doc *models.RootDocument, sess *models.Session) (bool, error) {
		sess.Teams = append(sess.Teams, models.Team{
			ID:      game.NewID(game.TeamIDPrefix),
			Name:    name,
			Members: []models.Member{},
		})
		return true, nil
	})
}

// RenameTeam changes a team's name.
func (s *PlayService) RenameTeam(ctx context.Context, teamID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = game.DefaultTeamName
	}
	return s.mutateActive(ctx, func(doc *models.RootDocument, sess *models.Session) (bool, error) {
		team := findTeamByID(sess, teamID)
		if team == nil {
			return false, errors.NotFoundf("team %s not found", teamID)
		}
		team.Name = name
		return true, nil
	})
}

// DeleteTeam removes a team and repairs the turn cursor by identity: if the
// team that was up survives, the cursor follows it to its new position in
// the playable list rather than trusting the stale index.
func (s *PlayService) DeleteTeam(ctx context.Context, teamID string) error {
	return s.mutateActive(ctx, func(doc *models.RootDocument, sess *models.Session) (bool, error) {
		if findTeamByID(sess, teamID) == nil {
			return false, errors.NotFoundf("team %s not found", teamID)
		}

		currentTeamID := ""
		if info := game.CurrentAndNext(sess); info.CurrentTeam != nil {
			currentTeamID = info.CurrentTeam.ID
		}

		kept := sess.Teams[:0]
		for _, t := range sess.Teams {
			if t.ID != teamID {
				kept = append(kept, t)
			}
		}
		sess.Teams = kept
		delete(sess.Play.NextMemberIDByTeamID, teamID)

		playable := game.PlayableTeams(sess)
		switch {
		case len(playable) == 0:
			sess.Play.CurrentTeamIndex = 0
			sess.Play.Paused = true
		case currentTeamID != "":
			idx := -1
			for i, t := range playable {
				if t.ID == currentTeamID {
					idx = i
					break
				}
			}
			if idx >= 0 {
				sess.Play.CurrentTeamIndex = idx
			} else if sess.Play.CurrentTeamIndex > len(playable)-1 {
				sess.Play.CurrentTeamIndex = len(playable) - 1
			}
		default:
			if sess.Play.CurrentTeamIndex > len(playable)-1 {
				sess.Play.CurrentTeamIndex = len(playable) - 1
			}
		}
		return true, nil
	})
}

// AddMember appends a member to a team. Adding the first member makes the
// team playable; a stale or missing pointer is re-seeded to the roster head.
func (s *PlayService) AddMember(ctx context.Context, teamID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.Validation("member name is required")
	}
	return s.mutateActive(ctx, func(doc *models.RootDocument, sess *models.Session) (bool, error) {
		team := findTeamByID(sess, teamID)
		if team == nil {
			return false, errors.NotFoundf("team %s not found", teamID)
		}
		team.Members = append(team.Members, models.Member{
			ID:   game.NewID(game.MemberIDPrefix),
			Name: name,
		})

		stored := sess.Play.NextMemberIDByTeamID[team.ID]
		if !memberExists(team, stored) {
			sess.Play.NextMemberIDByTeamID[team.ID] = team.Members[0].ID
		}
		return true, nil
	})
}

// RemoveMember deletes a member. The team's pointer is preserved when the
// pointed member survives, reset to the roster head when it was the one
// removed, and cleared when the team empties.
func (s *PlayService) RemoveMember(ctx context.Context, teamID, memberID string) error {
	return s.mutateActive(ctx, func(doc *models.RootDocument, sess *models.Session) (bool, error) {
		team := findTeamByID(sess, teamID)
		if team == nil {
			return false, errors.NotFoundf("team %s not found", teamID)
		}

		stored := sess.Play.NextMemberIDByTeamID[team.ID]
		kept := team.Members[:0]
		for _, m := range team.Members {
			if m.ID != memberID {
				kept = append(kept, m)
			}
		}
		team.Members = kept

		switch {
		case len(team.Members) == 0:
			delete(sess.Play.NextMemberIDByTeamID, team.ID)
		case memberExists(team, stored):
			sess.Play.NextMemberIDByTeamID[team.ID] = stored
		default:
			sess.Play.NextMemberIDByTeamID[team.ID] = team.Members[0].ID
		}
		return true, nil
	})
}

// ==================== Categories ====================

// AddCategory appends an enabled category. Names are unique
// case-insensitively.
func (s *PlayService) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.Validation("category name is required")
	}
	return s.mutateActive(ctx, func(doc *models.RootDocument, sess *models.Session) (bool, error) {
		for _, c := range sess.Categories {
			if strings.EqualFold(strings.TrimSpace(c.Name), name) {
				return false, errors.Conflict("a category with that name already exists")
			}
		}
		sess.Categories = append(sess.Categories, models.Category{
			ID:      game.NewID(game.CategoryIDPrefix),
			Name:    name,
			Enabled: true,
		})
		return true, nil
	})
}

// RemoveCategory deletes a category. Removing the active one clears it,
// pauses play, resets the category turn counter, and stops the countdown.
func (s *PlayService) RemoveCategory(ctx context.Context, categoryID string) error {
	stopTimer := false
	err := s.mutateActive(ctx, func(doc *models.RootDocument, sess *models.Session) (bool, error) {
		if game.FindCategory(sess, categoryID) == nil {
			return false, errors.NotFoundf("category %s not found", categoryID)
		}
		if sess.Play.ActiveCategoryID == categoryID {
			sess.Play.ActiveCategoryID = ""
			sess.Play.Paused = true
			sess.Play.CategoryTurnsUsed = 0
			stopTimer = true
		}
		kept := sess.Categories[:0]
		for _, c := range sess.Categories {
			if c.ID != categoryID {
				kept = append(kept, c)
			}
		}
		sess.Categories = kept
		return true, nil
	})
	if err == nil && stopTimer {
		s.timer.Stop()
	}
	return err
}

// SetCategoryEnabled includes or excludes a category from auto-rotation.
func (s *PlayService) SetCategoryEnabled(ctx context.Context, categoryID string, enabled bool) error {
	return s.mutateActive(ctx, func(doc *models.RootDocument, sess *models.Session) (bool, error) {
		cat := game.FindCategory(sess, categoryID)
		if cat == nil {
			return false, errors.NotFoundf("category %s not found", categoryID)
		}
		cat.Enabled = enabled
		return true, nil
	})
}

// StartCategory activates a category (disabled ones may be started manually)
// and begins a fresh turn countdown, unless no team is playable yet, in
// which case play stays paused.
func (s *PlayService) StartCategory(ctx context.Context, categoryID string) error {
	var sessionID string
	startTimer := false
	err := s.mutateActive(ctx, func(doc *models.RootDocument, sess *models.Session) (bool, error) {
		if game.FindCategory(sess, categoryID) == nil {
			return false, errors.NotFoundf("category %s not found", categoryID)
		}
		sess.Play.ActiveCategoryID = categoryID
		sess.Play.CategoryTurnsUsed = 0

		if len(game.PlayableTeams(sess)) == 0 {
			sess.Play.Paused = true
			return true, nil
		}
		sess.Play.Paused = false
		sessionID = sess.ID
		startTimer = true
		return true, nil
	})
	if err == nil && startTimer {
		return s.timer.Start(ctx, sessionID)
	}
	return err
}

// ==================== Turn resolution ====================

// SubmitResponse records the current member's answer, awards a point, and
// advances the turn. Missing reference number or text is refused with a
// validation error and no state change; no current team/member refuses
// silently.
func (s *PlayService) SubmitResponse(ctx context.Context, refNumber, text string) error {
	refNumber = strings.TrimSpace(refNumber)
	text = strings.TrimSpace(text)

	var sessionID string
	resolved := false
	err := s.mutateActive(ctx, func(doc *models.RootDocument, sess *models.Session) (bool, error) {
		if sess.Play.ActiveCategoryID == "" {
			return false, nil
		}
		info := game.CurrentAndNext(sess)
		if info.CurrentTeam == nil || info.CurrentMember == nil {
			return false, nil
		}
		if refNumber == "" {
			return false, errors.Validation("reference number is required")
		}
		if text == "" {
			return false, errors.Validation("response text is required")
		}

		refLabel := strings.TrimSpace(sess.Settings.RefLabel)
		if refLabel == "" {
			refLabel = game.DefaultRefLabel
		}
		sess.Play.Responses = append(sess.Play.Responses, models.Response{
			TS:         s.timer.clock.Now().UnixMilli(),
			CategoryID: sess.Play.ActiveCategoryID,
			TeamID:     info.CurrentTeam.ID,
			MemberID:   info.CurrentMember.ID,
			MemberName: info.CurrentMember.Name,
			RefLabel:   refLabel,
			RefNumber:  refNumber,
			Text:       text,
		})
		game.AddPoints(sess, info.CurrentTeam.ID, 1)

		sess.Play.CategoryTurnsUsed++
		game.AdvanceTurn(sess)
		game.MaybeRotateByTurns(sess)
		sess.Play.Paused = false

		sessionID = sess.ID
		resolved = true
		return true, nil
	})
	if err != nil || !resolved {
		return err
	}
	return s.afterTurn(ctx, sessionID)
}

// Skip advances the turn without recording a response or awarding a point.
// The skipped turn does not count against the category's turn budget.
func (s *PlayService) Skip(ctx context.Context) error {
	var sessionID string
	resolved := false
	err := s.mutateActive(ctx, func(doc *models.RootDocument, sess *models.Session) (bool, error) {
		if sess.Play.ActiveCategoryID == "" {
			return false, nil
		}
		game.AdvanceTurn(sess)
		game.MaybeRotateByTurns(sess)
		sess.Play.Paused = false
		sessionID = sess.ID
		resolved = true
		return true, nil
	})
	if err != nil || !resolved {
		return err
	}
	return s.afterTurn(ctx, sessionID)
}

// StopChallenge resolves a successful challenge: the current team takes +5,
// the category is knocked out of auto-rotation for the rest of the session,
// play rotates to the next enabled category, and the turn advances. With no
// enabled category left, the session is left with no active category.
func (s *PlayService) StopChallenge(ctx context.Context) error {
	var sessionID string
	resolved := false
	err := s.mutateActive(ctx, func(doc *models.RootDocument, sess *models.Session) (bool, error) {
		if sess.Play.ActiveCategoryID == "" {
			return false, nil
		}
		info := game.CurrentAndNext(sess)
		if info.CurrentTeam == nil {
			return false, nil
		}

		game.AddPoints(sess, info.CurrentTeam.ID, 5)
		if cat := game.FindCategory(sess, sess.Play.ActiveCategoryID); cat != nil {
			cat.Enabled = false
		}
		game.RotateToNextEnabledCategory(sess)
		game.AdvanceTurn(sess)
		sess.Play.Paused = false

		sessionID = sess.ID
		resolved = true
		return true, nil
	})
	if err != nil || !resolved {
		return err
	}
	return s.afterTurn(ctx, sessionID)
}

// afterTurn starts the next countdown, or stops it when rotation ran out of
// categories.
func (s *PlayService) afterTurn(ctx context.Context, sessionID string) error {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	sess := game.FindSession(doc, sessionID)
	if sess == nil || sess.Play.ActiveCategoryID == "" {
		s.timer.Stop()
		return nil
	}
	return s.timer.Start(ctx, sessionID)
}

// ClearResponses wipes the active session's response log.
func (s *PlayService) ClearResponses(ctx context.Context) error {
	return s.mutateActive(ctx, func(doc *models.RootDocument, sess *models.Session) (bool, error) {
		sess.Play.Responses = []models.Response{}
		return true, nil
	})
}

// TogglePause delegates the pause/resume transition to the timer engine.
func (s *PlayService) TogglePause(ctx context.Context) error {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if doc.Active == "" {
		return ErrNoActiveSession
	}
	return s.timer.TogglePause(ctx, doc.Active)
}

// SettingsUpdate carries optional settings changes; nil fields are left
// untouched.
type SettingsUpdate struct {
	TurnSeconds      *int    `json:"turnSeconds"`
	RefLabel         *string `json:"refLabel"`
	TurnsPerCategory *int    `json:"turnsPerCategory"`
	ShowTimerConfig  *bool   `json:"showTimerConfig"`
}

// UpdateSettings applies a partial settings update, clamping values to their
// documented floors.
func (s *PlayService) UpdateSettings(ctx context.Context, upd SettingsUpdate) error {
	return s.mutateActive(ctx, func(doc *models.RootDocument, sess *models.Session) (bool, error) {
		if upd.TurnSeconds != nil {
			v := *upd.TurnSeconds
			if v < game.MinTurnSeconds {
				v = game.MinTurnSeconds
			}
			sess.Settings.TurnSeconds = v
		}
		if upd.RefLabel != nil {
			v := strings.TrimSpace(*upd.RefLabel)
			if v == "" {
				v = game.DefaultRefLabel
			}
			sess.Settings.RefLabel = v
		}
		if upd.TurnsPerCategory != nil {
			v := *upd.TurnsPerCategory
			if v < 0 {
				v = 0
			}
			sess.Settings.TurnsPerCategory = v
		}
		if upd.ShowTimerConfig != nil {
			sess.Settings.ShowTimerConfig = *upd.ShowTimerConfig
		}
		return true, nil
	})
}

// ==================== Control snapshot ====================

// ControlState is the full state the control view renders.
type ControlState struct {
	Session           *models.Session `json:"session"`
	CurrentTeamID     string          `json:"currentTeamId,omitempty"`
	CurrentTeamName   string          `json:"currentTeamName,omitempty"`
	CurrentMemberID   string          `json:"currentMemberId,omitempty"`
	CurrentMemberName string          `json:"currentMemberName,omitempty"`
	NextMemberByTeam  map[string]string `json:"nextMemberByTeam"` // team id -> member name
	PlayableCount     int             `json:"playableCount"`
	TurnsNeeded       int             `json:"turnsNeeded"` // 0 when auto-rotation is off
	CategoryResponses []models.Response `json:"categoryResponses"`
	TimerRunning      bool            `json:"timerRunning"`
}

// State returns the control snapshot for the active session, or
// ErrNoActiveSession. The read is pure with respect to persisted state.
func (s *PlayService) State(ctx context.Context) (*ControlState, error) {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	sess := game.ActiveSession(doc)
	if sess == nil {
		return nil, ErrNoActiveSession
	}

	info := game.CurrentAndNext(sess)
	state := &ControlState{
		Session:          sess,
		NextMemberByTeam: map[string]string{},
		PlayableCount:    len(info.Playable),
		TimerRunning:     s.timer.Running(),
	}
	if info.CurrentTeam != nil {
		state.CurrentTeamID = info.CurrentTeam.ID
		state.CurrentTeamName = info.CurrentTeam.Name
	}
	if info.CurrentMember != nil {
		state.CurrentMemberID = info.CurrentMember.ID
		state.CurrentMemberName = info.CurrentMember.Name
	}
	for teamID, m := range info.NextByTeam {
		state.NextMemberByTeam[teamID] = m.Name
	}
	if sess.Settings.TurnsPerCategory > 0 && len(info.Playable) > 0 {
		state.TurnsNeeded = sess.Settings.TurnsPerCategory * len(info.Playable)
	}
	if sess.Play.ActiveCategoryID != "" {
		state.CategoryResponses = responsesForCategory(sess, sess.Play.ActiveCategoryID)
	} else {
		state.CategoryResponses = []models.Response{}
	}
	return state, nil
}

// responsesForCategory returns the category's responses ordered by
// reference number.
func responsesForCategory(sess *models.Session, categoryID string) []models.Response {
	var rows []models.Response
	for _, r := range sess.Play.Responses {
		if r.CategoryID == categoryID {
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return game.CompareRefs(rows[i].RefNumber, rows[j].RefNumber) < 0
	})
	if rows == nil {
		rows = []models.Response{}
	}
	return rows
}

func findTeamByID(sess *models.Session, id string) *models.Team {
	for i := range sess.Teams {
		if sess.Teams[i].ID == id {
			return &sess.Teams[i]
		}
	}
	return nil
}

func memberExists(t *models.Team, id string) bool {
	if id == "" {
		return false
	}
	for _, m := range t.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}
