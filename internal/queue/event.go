// Package queue defines the auth audit events exchanged over the message
// broker and the consumer that records them.
package queue

import "time"

// QueueName is the durable queue auth events are published to.
const QueueName = "auth.events"

// Event types.
const (
    EventRegistered   = "user.registered"
    EventLoggedIn     = "user.logged_in"
    EventLoginFailed  = "user.login_failed"
    EventRefreshed    = "session.refreshed"
    EventLoggedOut    = "user.logged_out"
)

// AuthEvent describes one authentication state change.  UserID is zero for
// failed logins, which carry the attempted email instead.
type AuthEvent struct {
    Type   string    `json:"type"`
    UserID uint64    `json:"user_id,omitempty"`
    Email  string    `json:"email,omitempty"`
    Role   string    `json:"role,omitempty"`
    IP     string    `json:"ip,omitempty"`
    At     time.Time `json:"at"`
}
