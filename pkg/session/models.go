package session

import (
	"time"
)

// Namespace is the fixed durable-storage namespace for client session
// state. It survives process restarts and deployment generations.
const Namespace = "devpath-auth"

// State is the single persisted session row for a namespace.
type State struct {
	ID              uint   `gorm:"primaryKey"`
	Namespace       string `gorm:"uniqueIndex;not null"`
	Credential      string
	DisplayIdentity string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
