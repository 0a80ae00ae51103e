package models

import (
	"time"
)

type User struct {
	UID          string    `firestore:"uid" json:"uid"`
	Email        string    `firestore:"email" json:"email"`
	Name         string    `firestore:"name" json:"name"`
	PasswordHash string    `firestore:"passwordHash,omitempty" json:"-"` // local auth only
	CreatedAt    time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// PasswordReset is keyed by the SHA-256 of the emailed token.
type PasswordReset struct {
	UID       string    `firestore:"uid"`
	ExpiresAt time.Time `firestore:"expiresAt"`
	CreatedAt time.Time `firestore:"createdAt"`
}
