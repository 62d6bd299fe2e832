// Package db provides SQLite persistence for user accounts and auth state.
package db

import "time"

// User is one registered account holder.
type User struct {
	ID            string
	Name          string
	Email         string
	EmailVerified *time.Time
	Image         string
	PasswordHash  string
	CreatedAt     time.Time
}

// Account links a user to one external auth provider identity. Each row
// references exactly one user and is removed when the user is deleted.
type Account struct {
	ID                string
	UserID            string
	Type              string // "credentials" or "oauth"
	Provider          string
	ProviderAccountID string
	RefreshToken      string
	AccessToken       string
	ExpiresAt         *time.Time
	TokenType         string
	Scope             string
}

// Session is one server-side login session, identified by its unique token.
type Session struct {
	ID           string
	SessionToken string
	UserID       string
	Expires      time.Time
}

// VerificationToken is a single-use email verification token.
type VerificationToken struct {
	Identifier string // the email being verified
	Token      string
	Expires    time.Time
}
