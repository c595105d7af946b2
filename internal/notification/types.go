// Package notification provides a system for managing and broadcasting
// user-visible notifications for the voice archive. Every
// persistence-affecting operation reports its outcome here exactly once.
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type represents the category of a notification
type Type string

const (
	// TypeError indicates a failed operation
	TypeError Type = "error"
	// TypeWarning indicates a degraded but working state
	TypeWarning Type = "warning"
	// TypeInfo indicates an informational notification
	TypeInfo Type = "info"
	// TypeSuccess indicates a completed operation
	TypeSuccess Type = "success"
)

// DefaultExpiry is how long a notification stays visible before the
// cleanup loop removes it.
const DefaultExpiry = 3 * time.Second

// Notification represents a single user-visible notification event
type Notification struct {
	// ID is the unique identifier for the notification
	ID string `json:"id"`
	// Type categorizes the notification
	Type Type `json:"type"`
	// Message provides the user-visible text
	Message string `json:"message"`
	// Component identifies the source component (e.g., "datastore", "capture")
	Component string `json:"component,omitempty"`
	// Timestamp indicates when the notification was created
	Timestamp time.Time `json:"timestamp"`
	// ExpiresAt indicates when the notification should be auto-removed
	ExpiresAt time.Time `json:"expires_at"`
}

// NewNotification creates a new notification with a unique ID, timestamp and
// the default expiry.
func NewNotification(notifType Type, message string) *Notification {
	now := time.Now()
	return &Notification{
		ID:        uuid.New().String(),
		Type:      notifType,
		Message:   message,
		Timestamp: now,
		ExpiresAt: now.Add(DefaultExpiry),
	}
}

// WithComponent sets the component field and returns the notification for chaining
func (n *Notification) WithComponent(component string) *Notification {
	n.Component = component
	return n
}

// WithExpiry sets the expiration time and returns the notification for chaining
func (n *Notification) WithExpiry(duration time.Duration) *Notification {
	n.ExpiresAt = n.Timestamp.Add(duration)
	return n
}

// IsExpired checks if the notification has expired
func (n *Notification) IsExpired() bool {
	return time.Now().After(n.ExpiresAt)
}

// Clone creates a copy of the notification so it can be broadcast to
// multiple subscribers safely.
func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}
	clone := *n
	return &clone
}
