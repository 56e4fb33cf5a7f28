package models

import "strings"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Label returns the role name with its first letter capitalized ("User", "Assistant"),
// as used when a history is rendered into a prompt.
func (r Role) Label() string {
	s := string(r)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Turn is one message in a user's conversation with the admission assistant.
// The JSON shape is the persisted history format.
type Turn struct {
	Role    Role   `json:"role"`
	Message string `json:"message"`
}

// UserTurn returns a turn authored by the user.
func UserTurn(message string) Turn {
	return Turn{Role: RoleUser, Message: message}
}

// AssistantTurn returns a turn authored by the assistant.
func AssistantTurn(message string) Turn {
	return Turn{Role: RoleAssistant, Message: message}
}
