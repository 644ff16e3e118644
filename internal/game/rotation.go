package game

import "github.com/mhollis/quizdeck/internal/models"

// TurnInfo is the resolved "who plays now, who plays next" view of a session.
// Pointers alias the session's own slices; callers must not retain them past
// the next mutation.
type TurnInfo struct {
	Playable      []*models.Team
	CurrentTeam   *models.Team
	CurrentMember *models.Member
	NextByTeam    map[string]*models.Member
}

// PlayableTeams returns the teams with at least one member, in original team
// order. Order matters: turn rotation is index arithmetic over this slice.
func PlayableTeams(sess *models.Session) []*models.Team {
	var out []*models.Team
	for i := range sess.Teams {
		if len(sess.Teams[i].Members) > 0 {
			out = append(out, &sess.Teams[i])
		}
	}
	return out
}

// CurrentAndNext resolves the current team and member plus the next member
// for every playable team.
//
// As a deliberate side effect it folds CurrentTeamIndex into the valid modulo
// range on the session, repairing the cursor after teams are removed. It makes
// no other mutation: a stale member pointer is resolved to the team's first
// member for this read without being repaired in place (only AdvanceTurn
// moves pointers).
func CurrentAndNext(sess *models.Session) TurnInfo {
	playable := PlayableTeams(sess)
	info := TurnInfo{Playable: playable, NextByTeam: map[string]*models.Member{}}
	if len(playable) == 0 {
		return info
	}

	cti := mod(sess.Play.CurrentTeamIndex, len(playable))
	sess.Play.CurrentTeamIndex = cti

	info.CurrentTeam = playable[cti]
	info.CurrentMember = resolveNextMember(sess, info.CurrentTeam)

	for _, t := range playable {
		info.NextByTeam[t.ID] = resolveNextMember(sess, t)
	}
	return info
}

// resolveNextMember returns the member the stored pointer names, falling back
// to the team's first member when the pointer is stale.
func resolveNextMember(sess *models.Session, t *models.Team) *models.Member {
	if len(t.Members) == 0 {
		return nil
	}
	idx := findMember(t, sess.Play.NextMemberIDByTeamID[t.ID])
	if idx < 0 {
		idx = 0
	}
	return &t.Members[idx]
}

// AdvanceTurn moves the current team's member pointer to the member after the
// one that just played (wrapping), then moves the team cursor to the next
// playable team (wrapping). A memberless current team skips the pointer
// advance but the cursor still moves.
//
// This is the sole mutator of turn order; call it exactly once per resolved
// turn (response submitted, skip, or challenge stop).
func AdvanceTurn(sess *models.Session) {
	playable := PlayableTeams(sess)
	if len(playable) == 0 {
		return
	}
	cti := mod(sess.Play.CurrentTeamIndex, len(playable))
	ct := playable[cti]
	if len(ct.Members) > 0 {
		idx := findMember(ct, sess.Play.NextMemberIDByTeamID[ct.ID])
		if idx < 0 {
			idx = 0
		}
		sess.Play.NextMemberIDByTeamID[ct.ID] = ct.Members[(idx+1)%len(ct.Members)].ID
	}
	sess.Play.CurrentTeamIndex = (cti + 1) % len(playable)
}

// EnabledCategories returns the categories included in auto-rotation, in
// list order.
func EnabledCategories(sess *models.Session) []*models.Category {
	var out []*models.Category
	for i := range sess.Categories {
		if sess.Categories[i].Enabled {
			out = append(out, &sess.Categories[i])
		}
	}
	return out
}

// RotateToNextEnabledCategory activates the next enabled category after the
// current one in list order (wrapping), clearing the active category when
// none are enabled. The per-category turn counter resets either way.
func RotateToNextEnabledCategory(sess *models.Session) {
	enabled := EnabledCategories(sess)
	if len(enabled) == 0 {
		sess.Play.ActiveCategoryID = ""
		sess.Play.CategoryTurnsUsed = 0
		return
	}
	// An active category absent from the enabled list (just disabled, or
	// none active) is treated as the list head, so the +1 lands one past the
	// first enabled entry (or on it, when it is the only one left).
	idx := 0
	for i, c := range enabled {
		if c.ID == sess.Play.ActiveCategoryID {
			idx = i
			break
		}
	}
	sess.Play.ActiveCategoryID = enabled[(idx+1)%len(enabled)].ID
	sess.Play.CategoryTurnsUsed = 0
}

// MaybeRotateByTurns auto-rotates the category once every playable team has
// had TurnsPerCategory turns in it. The threshold uses the playable count at
// the time of the check; a team removed mid-category shrinks the threshold
// and can trigger an earlier rotation, which is accepted behavior.
func MaybeRotateByTurns(sess *models.Session) {
	rounds := sess.Settings.TurnsPerCategory
	if rounds <= 0 {
		return
	}
	playableCount := len(PlayableTeams(sess))
	if playableCount <= 0 {
		return
	}
	if sess.Play.CategoryTurnsUsed >= rounds*playableCount {
		RotateToNextEnabledCategory(sess)
	}
}

// AddPoints adds a signed delta to a team's total. Unknown team ids are
// ignored.
func AddPoints(sess *models.Session, teamID string, delta int) {
	if i := findTeam(sess, teamID); i >= 0 {
		sess.Teams[i].Points += delta
	}
}

// mod is the floored modulo: the result is in [0, n) even for negative x.
func mod(x, n int) int {
	return ((x % n) + n) % n
}
