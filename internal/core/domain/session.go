package domain

import "time"

// Role identifies the author of a SessionTurn.
type Role string

const (
	// RoleUser is a turn written by the person asking questions.
	RoleUser Role = "user"

	// RoleAssistant is a turn produced by answer generation.
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// SessionTurn is one message in a conversation.
// Turns for a session are strictly ordered by Index.
type SessionTurn struct {
	SessionID string
	Index     int
	Role      Role
	Content   string
	Timestamp time.Time
}
