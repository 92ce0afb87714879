package model

import "time"

// User represents a registered account.
//
// Accounts are either local (login + bcrypt password hash) or linked to a
// GitHub identity. GitHubID is zero for local accounts; in the database it is
// NULL so the UNIQUE constraint only applies to linked accounts.
type User struct {
	ID           string    `json:"id"`
	GitHubID     int64     `json:"githubId,omitempty"`
	Login        string    `json:"login"`
	Email        string    `json:"email"`
	AvatarURL    string    `json:"avatarUrl"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
