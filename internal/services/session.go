package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/mhollis/quizdeck/internal/errors"
	"github.com/mhollis/quizdeck/internal/game"
	"github.com/mhollis/quizdeck/internal/logger"
	"github.com/mhollis/quizdeck/internal/models"
	"github.com/mhollis/quizdeck/internal/repository"
)

// SessionRepository is what SessionService needs from the store.
type SessionRepository interface {
	repository.DocumentRepository
	repository.SettingsRepository
}

// SessionService manages the session list: creation (copying the previous
// session's rosters forward), deletion, and opening a session for play.
type SessionService struct {
	log         logger.Logger
	repo        SessionRepository
	timer       *TimerEngine
	broadcaster Broadcaster
}

// NewSessionService creates a SessionService.
func NewSessionService(log logger.Logger, repo SessionRepository, timer *TimerEngine) *SessionService {
	return &SessionService{log: log, repo: repo, timer: timer}
}

// SetBroadcaster sets the notification channel for state changes.
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SessionSummary is the list-view projection of a session.
type SessionSummary struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	Title         string `json:"title"`
	TeamCount     int    `json:"teamCount"`
	CategoryCount int    `json:"categoryCount"`
	ResponseCount int    `json:"responseCount"`
	Active        bool   `json:"active"`
}

// List returns all sessions, most recent first (date desc, then id desc).
func (s *SessionService) List(ctx context.Context) ([]SessionSummary, error) {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	ordered := sessionsNewestFirst(doc.Sessions)

	out := make([]SessionSummary, 0, len(ordered))
	for i := range ordered {
		sess := &ordered[i]
		out = append(out, SessionSummary{
			ID:            sess.ID,
			Date:          sess.Date,
			Title:         sess.Title,
			TeamCount:     len(sess.Teams),
			CategoryCount: len(sess.Categories),
			ResponseCount: len(sess.Play.Responses),
			Active:        doc.Active == sess.ID,
		})
	}
	return out, nil
}

// Create adds a new session, copying the most recent session's teams and
// members with fresh ids and zero points. The starting team rotates one past
// the previous session's cursor, and each team's member pointer starts one
// past the roster head, so consecutive sessions don't open on the same
// player.
func (s *SessionService) Create(ctx context.Context, date, title string) (string, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if title == "" {
		title = "Untitled"
	}

	var newID string
	teamCount := 0
	err := s.repo.Update(ctx, func(doc *models.RootDocument) (bool, error) {
		var prev *models.Session
		if ordered := sessionsNewestFirst(doc.Sessions); len(ordered) > 0 {
			prev = &ordered[0]
		}

		sess := models.Session{
			ID:    game.NewID(game.SessionIDPrefix),
			Date:  date,
			Title: title,
			Settings: models.Settings{
				TurnSeconds: game.DefaultTurnSeconds,
				RefLabel:    game.DefaultRefLabel,
			},
			Play: models.PlayState{
				Paused:               true,
				NextMemberIDByTeamID: map[string]string{},
				Responses:            []models.Response{},
			},
		}

		if prev != nil {
			for _, t := range prev.Teams {
				team := models.Team{
					ID:   game.NewID(game.TeamIDPrefix),
					Name: t.Name,
				}
				for _, m := range t.Members {
					team.Members = append(team.Members, models.Member{
						ID:   game.NewID(game.MemberIDPrefix),
						Name: m.Name,
					})
				}
				sess.Teams = append(sess.Teams, team)
			}

			if playablePrev := game.PlayableTeams(prev); len(playablePrev) > 0 {
				sess.Play.CurrentTeamIndex = (prev.Play.CurrentTeamIndex + 1) % len(playablePrev)
			}
			for i := range sess.Teams {
				team := &sess.Teams[i]
				if len(team.Members) == 0 {
					continue
				}
				// Rotate each member pointer forward by one from the roster head.
				sess.Play.NextMemberIDByTeamID[team.ID] = team.Members[1%len(team.Members)].ID
			}
		}

		game.NormalizeSession(&sess)
		doc.Sessions = append(doc.Sessions, sess)
		newID = sess.ID
		teamCount = len(sess.Teams)
		return true, nil
	})
	if err != nil {
		return "", err
	}
	s.notifyState()
	s.log.Info("Session created", "id", newID, "title", title, "teams", teamCount)
	return newID, nil
}

// Delete removes a session. Deleting the active session clears the active
// pointer; a running countdown for it stops silently on its next tick.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	err := s.repo.Update(ctx, func(doc *models.RootDocument) (bool, error) {
		if game.FindSession(doc, id) == nil {
			return false, errors.NotFoundf("session %s not found", id)
		}

		kept := doc.Sessions[:0]
		for _, sess := range doc.Sessions {
			if sess.ID != id {
				kept = append(kept, sess)
			}
		}
		doc.Sessions = kept
		if doc.Active == id {
			doc.Active = ""
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	s.notifyState()
	s.log.Info("Session deleted", "id", id)
	return nil
}

// Open makes a session the active one and repairs any stale play-state
// references before anything reads it. If the session was left mid-countdown
// (active category, not paused), the countdown resumes from the persisted
// deadline rather than restarting at full duration.
func (s *SessionService) Open(ctx context.Context, id string) error {
	resume := false
	err := s.repo.Update(ctx, func(doc *models.RootDocument) (bool, error) {
		sess := game.FindSession(doc, id)
		if sess == nil {
			return false, errors.NotFoundf("session %s not found", id)
		}

		doc.Active = id
		game.NormalizeSession(sess)
		game.EnsureActiveCategory(sess)
		game.CurrentAndNext(sess) // folds the team cursor into range

		resume = sess.Play.ActiveCategoryID != "" && !sess.Play.Paused
		return true, nil
	})
	if err != nil {
		return err
	}
	s.notifyState()

	if resume {
		s.timer.EnsureRunning(id)
	}
	return nil
}

// CloseActive clears the active session (back to the session list) and stops
// any running countdown.
func (s *SessionService) CloseActive(ctx context.Context) error {
	s.timer.Stop()

	closed := false
	err := s.repo.Update(ctx, func(doc *models.RootDocument) (bool, error) {
		if doc.Active == "" {
			return false, nil
		}
		doc.Active = ""
		closed = true
		return true, nil
	})
	if err != nil {
		return err
	}
	if closed {
		s.notifyState()
	}
	return nil
}

// DisplayQR renders a QR code PNG pointing at the display view for the
// session, using the configured base URL (LAN address by default) so another
// device can scan it.
func (s *SessionService) DisplayQR(ctx context.Context, id string) ([]byte, error) {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if game.FindSession(doc, id) == nil {
		return nil, errors.NotFoundf("session %s not found", id)
	}

	baseURL, err := s.repo.GetSetting(ctx, "base_url")
	if err != nil && err != repository.ErrNotFound {
		return nil, err
	}
	if baseURL == "" {
		return nil, errors.Validation("base URL is not configured")
	}

	url := fmt.Sprintf("%s/display?session=%s", baseURL, id)
	return qrcode.Encode(url, qrcode.Medium, 256)
}

func (s *SessionService) notifyState() {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastState()
	}
}

// sessionsNewestFirst returns a sorted copy: date desc, id desc as the
// tie-break.
func sessionsNewestFirst(sessions []models.Session) []models.Session {
	ordered := make([]models.Session, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Date != ordered[j].Date {
			return ordered[i].Date > ordered[j].Date
		}
		return ordered[i].ID > ordered[j].ID
	})
	return ordered
}
