package game

import "github.com/google/uuid"

// NewID returns a prefixed unique id, e.g. "team_6f1c...". The prefix keeps
// persisted documents readable when debugging.
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// Prefixes used for the entities in a session document.
const (
	SessionIDPrefix  = "sess"
	TeamIDPrefix     = "team"
	MemberIDPrefix   = "m"
	CategoryIDPrefix = "cat"
)
