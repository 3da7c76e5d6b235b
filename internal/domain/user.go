package domain

import "time"

// User is an account known to the tracker.
type User struct {
	ID          string
	Login       string
	TokenDigest string
	CreatedAt   time.Time
}

// ActorContext identifies who performs an operation.
// It is resolved by the caller (HTTP auth middleware) and passed explicitly
// into every service call; project roles are looked up per call.
type ActorContext struct {
	UserID string
}
