package domain

import (
	"encoding/json"
	"time"
)

// SessionEventType names a session transition observed by subscribers.
type SessionEventType string

const (
	EventLogin       SessionEventType = "login"
	EventLoginFailed SessionEventType = "login_failed"
	EventLogout      SessionEventType = "logout"
	EventExpired     SessionEventType = "expired"
	EventRestored    SessionEventType = "restored"
	EventRefreshed   SessionEventType = "refreshed"
)

// SessionEvent is published by the auth store on every transition and is
// the unit persisted by the audit trail.
type SessionEvent struct {
	Type      SessionEventType
	ContextID string
	UserID    string
	Role      Role
	From      SessionState
	To        SessionState
	At        time.Time
}

// PendingAuth is the continuation held while the login dialog is open.
// An empty Action means the dialog is open with nothing to resume.
type PendingAuth struct {
	Action    string          `json:"action,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
