package services

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mhollis/quizdeck/internal/game"
	"github.com/mhollis/quizdeck/internal/logger"
	"github.com/mhollis/quizdeck/internal/models"
	"github.com/mhollis/quizdeck/internal/repository"
)

const (
	// tickPeriod is how often a running countdown re-derives remaining time.
	tickPeriod = 250 * time.Millisecond
	// persistWindowMS bounds document writes: the checkpoint is persisted
	// only on the tick where remaining time crosses a second boundary.
	persistWindowMS = 300
)

// TimerEngine owns the process's countdown task. At most one countdown runs
// at a time by construction: Start and EnsureRunning replace any existing
// task, Stop tears it down and is safe to call when nothing is running.
//
// The authoritative remaining time while running is TurnEndsAt minus the
// clock, never a decrementing counter, so a suspended process or a reload
// reconstructs the countdown from the persisted deadline. While paused, the
// persisted LastRemainingMS is authoritative instead.
type TimerEngine struct {
	log         logger.Logger
	repo        repository.DocumentRepository
	clock       clockwork.Clock
	broadcaster Broadcaster

	mu        sync.Mutex
	stop      chan struct{} // nil when no task is running
	sessionID string
}

// NewTimerEngine creates a TimerEngine. Pass clockwork.NewRealClock() in
// production; tests inject a fake clock.
func NewTimerEngine(log logger.Logger, repo repository.DocumentRepository, clock clockwork.Clock) *TimerEngine {
	return &TimerEngine{log: log, repo: repo, clock: clock}
}

// SetBroadcaster sets the notification channel for state and tick messages.
func (e *TimerEngine) SetBroadcaster(b Broadcaster) {
	e.broadcaster = b
}

// Start begins a fresh full-duration turn countdown for the session: deadline
// persisted immediately, tick broadcast, task (re)started. A missing session
// is a silent no-op.
func (e *TimerEngine) Start(ctx context.Context, sessionID string) error {
	var remaining int64
	found := false
	err := e.repo.Update(ctx, func(doc *models.RootDocument) (bool, error) {
		sess := game.FindSession(doc, sessionID)
		if sess == nil {
			return false, nil
		}
		game.NormalizeSession(sess)

		remaining = int64(turnSeconds(sess)) * 1000
		sess.Play.Paused = false
		sess.Play.TurnEndsAt = e.clock.Now().UnixMilli() + remaining
		sess.Play.LastRemainingMS = remaining
		found = true
		return true, nil
	})
	if err != nil {
		return err
	}
	if !found {
		e.Stop()
		return nil
	}
	e.notifyState()
	e.notifyTick(sessionID, remaining, false)
	e.replaceTask(sessionID)
	return nil
}

// TogglePause flips the pause state for the session's countdown.
//
// Pausing freezes the remaining time derived from the deadline. Resuming
// recomputes a fresh deadline from that frozen remainder (the full turn
// duration when resuming after expiry) and makes sure the task is running.
// Without an active category there is nothing to pause: silent no-op.
func (e *TimerEngine) TogglePause(ctx context.Context, sessionID string) error {
	var remaining int64
	var resumed bool
	acted := false
	err := e.repo.Update(ctx, func(doc *models.RootDocument) (bool, error) {
		sess := game.FindSession(doc, sessionID)
		if sess == nil || sess.Play.ActiveCategoryID == "" {
			return false, nil
		}
		game.NormalizeSession(sess)

		now := e.clock.Now().UnixMilli()
		if sess.Play.Paused {
			remaining = sess.Play.LastRemainingMS
			if remaining <= 0 {
				remaining = int64(turnSeconds(sess)) * 1000
			}
			sess.Play.Paused = false
			sess.Play.TurnEndsAt = now + remaining
			sess.Play.LastRemainingMS = remaining
			resumed = true
		} else {
			remaining = sess.Play.TurnEndsAt - now
			if remaining < 0 {
				remaining = 0
			}
			sess.Play.Paused = true
			sess.Play.LastRemainingMS = remaining
		}
		acted = true
		return true, nil
	})
	if err != nil || !acted {
		return err
	}
	e.notifyState()
	e.notifyTick(sessionID, remaining, !resumed)
	if resumed {
		e.EnsureRunning(sessionID)
	}
	return nil
}

// EnsureRunning starts the tick task for the session without touching
// persisted state, used when a session is reopened mid-countdown and the
// deadline is already on disk. A task already serving this session is left
// alone.
func (e *TimerEngine) EnsureRunning(sessionID string) {
	e.mu.Lock()
	if e.stop != nil && e.sessionID == sessionID {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	e.replaceTask(sessionID)
}

// Stop halts the countdown task. Idempotent and safe when no task is active.
// Persisted timer state is untouched; stopping is cancellation, not a
// transition.
func (e *TimerEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
		e.sessionID = ""
	}
}

// Running reports whether a countdown task is active.
func (e *TimerEngine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stop != nil
}

func (e *TimerEngine) replaceTask(sessionID string) {
	e.mu.Lock()
	if e.stop != nil {
		close(e.stop)
	}
	stop := make(chan struct{})
	e.stop = stop
	e.sessionID = sessionID
	e.mu.Unlock()

	go e.loop(stop, sessionID)
}

func (e *TimerEngine) loop(stop chan struct{}, sessionID string) {
	ticker := e.clock.NewTicker(tickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			if !e.step(context.Background(), sessionID) {
				e.mu.Lock()
				if e.stop == stop {
					e.stop = nil
					e.sessionID = ""
				}
				e.mu.Unlock()
				return
			}
		}
	}
}

// step advances the countdown by one tick. Returns false when the task must
// end: the session vanished from storage (terminal, silent) or the countdown
// expired. The read-modify-write runs under the repository's update lock, so
// a response submitted between this tick's load and its checkpoint cannot be
// overwritten.
func (e *TimerEngine) step(ctx context.Context, sessionID string) bool {
	var (
		remaining    int64
		gone         bool
		pausedHold   bool
		expired      bool
		checkpointed bool
	)
	err := e.repo.Update(ctx, func(doc *models.RootDocument) (bool, error) {
		sess := game.FindSession(doc, sessionID)
		if sess == nil {
			// Deleted from another view mid-countdown.
			gone = true
			return false, nil
		}
		game.NormalizeSession(sess)

		if sess.Play.Paused {
			pausedHold = true
			remaining = sess.Play.LastRemainingMS
			return false, nil
		}

		remaining = sess.Play.TurnEndsAt - e.clock.Now().UnixMilli()
		if remaining < 0 {
			remaining = 0
		}
		sess.Play.LastRemainingMS = remaining

		if remaining <= 0 {
			// Expired: freeze at zero and wait for the operator. The turn is
			// never auto-advanced.
			sess.Play.Paused = true
			sess.Play.LastRemainingMS = 0
			sess.Play.TurnEndsAt = 0
			expired = true
			return true, nil
		}

		// Checkpoint once per second so a reload loses at most that much.
		checkpointed = remaining%1000 < persistWindowMS
		return checkpointed, nil
	})
	if err != nil {
		e.log.Warn("Timer tick failed", "error", err)
		return true
	}
	if gone {
		return false
	}
	if pausedHold {
		e.notifyTick(sessionID, remaining, true)
		return true
	}
	if expired {
		e.notifyState()
		e.notifyTick(sessionID, 0, true)
		return false
	}
	if checkpointed {
		e.notifyState()
	}
	e.notifyTick(sessionID, remaining, false)
	return true
}

func (e *TimerEngine) notifyState() {
	if e.broadcaster != nil {
		e.broadcaster.BroadcastState()
	}
}

func (e *TimerEngine) notifyTick(sessionID string, remainingMS int64, paused bool) {
	if e.broadcaster != nil {
		e.broadcaster.BroadcastTick(sessionID, remainingMS, paused)
	}
}

// turnSeconds returns the session's configured turn length, floored at the
// minimum.
func turnSeconds(sess *models.Session) int {
	if sess.Settings.TurnSeconds < game.MinTurnSeconds {
		return game.MinTurnSeconds
	}
	return sess.Settings.TurnSeconds
}
