package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL UNIQUE,
	email_verified REAL,
	image TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	created_at REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	provider TEXT NOT NULL,
	provider_account_id TEXT NOT NULL,
	refresh_token TEXT NOT NULL DEFAULT '',
	access_token TEXT NOT NULL DEFAULT '',
	expires_at REAL,
	token_type TEXT NOT NULL DEFAULT '',
	scope TEXT NOT NULL DEFAULT '',
	UNIQUE(provider, provider_account_id)
);

CREATE TABLE IF NOT EXISTS auth_sessions (
	id TEXT PRIMARY KEY,
	session_token TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	expires REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS verification_tokens (
	identifier TEXT NOT NULL,
	token TEXT NOT NULL UNIQUE,
	expires REAL NOT NULL,
	UNIQUE(identifier, token)
);
`

// Store wraps the auth database.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default database location.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".rehearse", "rehearse.sqlite")
}

// Open opens (creating if needed) the database at path with the pragmas we
// rely on: WAL journaling, enforced foreign keys, and a busy timeout so
// concurrent writers back off instead of failing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 10000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory store for tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema when it doesn't exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// CreateUser inserts a new user. An empty ID is assigned a fresh UUID.
// Returns the stored user.
func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, email_verified, image, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Name, u.Email, unixPtr(u.EmailVerified), u.Image, u.PasswordHash, unix(u.CreatedAt))
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// UserByEmail returns the user with the given email, or nil when absent.
func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, email_verified, image, password_hash, created_at
		FROM users WHERE email = ?
	`, email))
}

// UserByID returns the user with the given id, or nil when absent.
func (s *Store) UserByID(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, email_verified, image, password_hash, created_at
		FROM users WHERE id = ?
	`, id))
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var u User
	var verified sql.NullFloat64
	var created float64

	if err := row.Scan(&u.ID, &u.Name, &u.Email, &verified, &u.Image, &u.PasswordHash, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.CreatedAt = timeFromUnix(created)
	if verified.Valid {
		t := timeFromUnix(verified.Float64)
		u.EmailVerified = &t
	}
	return &u, nil
}

// DeleteUser removes a user. Accounts and sessions cascade.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// LinkAccount attaches a provider identity to a user.
func (s *Store) LinkAccount(ctx context.Context, a Account) (Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, type, provider, provider_account_id,
			refresh_token, access_token, expires_at, token_type, scope)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.UserID, a.Type, a.Provider, a.ProviderAccountID,
		a.RefreshToken, a.AccessToken, unixPtr(a.ExpiresAt), a.TokenType, a.Scope)
	if err != nil {
		return Account{}, fmt.Errorf("insert account: %w", err)
	}
	return a, nil
}

// AccountByProvider looks up an account by its provider identity, or nil.
func (s *Store) AccountByProvider(ctx context.Context, provider, providerAccountID string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, provider, provider_account_id,
			refresh_token, access_token, expires_at, token_type, scope
		FROM accounts WHERE provider = ? AND provider_account_id = ?
	`, provider, providerAccountID)

	var a Account
	var expires sql.NullFloat64
	if err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.Provider, &a.ProviderAccountID,
		&a.RefreshToken, &a.AccessToken, &expires, &a.TokenType, &a.Scope); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	if expires.Valid {
		t := timeFromUnix(expires.Float64)
		a.ExpiresAt = &t
	}
	return &a, nil
}

// AccountsForUser lists the provider identities linked to a user.
func (s *Store) AccountsForUser(ctx context.Context, userID string) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, provider, provider_account_id,
			refresh_token, access_token, expires_at, token_type, scope
		FROM accounts WHERE user_id = ? ORDER BY provider
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		var expires sql.NullFloat64
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Provider, &a.ProviderAccountID,
			&a.RefreshToken, &a.AccessToken, &expires, &a.TokenType, &a.Scope); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if expires.Valid {
			t := timeFromUnix(expires.Float64)
			a.ExpiresAt = &t
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// CreateSession opens a login session for a user with a fresh unique token.
func (s *Store) CreateSession(ctx context.Context, userID string, expires time.Time) (Session, error) {
	sess := Session{
		ID:           uuid.NewString(),
		SessionToken: uuid.NewString(),
		UserID:       userID,
		Expires:      expires,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_sessions (id, session_token, user_id, expires)
		VALUES (?, ?, ?, ?)
	`, sess.ID, sess.SessionToken, sess.UserID, unix(sess.Expires))
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// SessionByToken returns the unexpired session for a token, or nil.
func (s *Store) SessionByToken(ctx context.Context, token string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_token, user_id, expires
		FROM auth_sessions WHERE session_token = ?
	`, token)

	var sess Session
	var expires float64
	if err := row.Scan(&sess.ID, &sess.SessionToken, &sess.UserID, &expires); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	sess.Expires = timeFromUnix(expires)
	if time.Now().After(sess.Expires) {
		return nil, nil
	}
	return &sess, nil
}

// DeleteSession removes a session by token (logout).
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE session_token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions prunes sessions past their expiry.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE expires < ?`, unix(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

// CreateVerificationToken issues a single-use token for the identifier.
func (s *Store) CreateVerificationToken(ctx context.Context, identifier string, ttl time.Duration) (VerificationToken, error) {
	vt := VerificationToken{
		Identifier: identifier,
		Token:      uuid.NewString(),
		Expires:    time.Now().Add(ttl),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_tokens (identifier, token, expires)
		VALUES (?, ?, ?)
	`, vt.Identifier, vt.Token, unix(vt.Expires))
	if err != nil {
		return VerificationToken{}, fmt.Errorf("insert verification token: %w", err)
	}
	return vt, nil
}

// ConsumeVerificationToken deletes the token and reports whether it existed
// and was still valid. Each token can be consumed at most once.
func (s *Store) ConsumeVerificationToken(ctx context.Context, identifier, token string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT expires FROM verification_tokens WHERE identifier = ? AND token = ?
	`, identifier, token)

	var expires float64
	if err := row.Scan(&expires); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("scan verification token: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM verification_tokens WHERE identifier = ? AND token = ?
	`, identifier, token); err != nil {
		return false, fmt.Errorf("delete verification token: %w", err)
	}

	if time.Now().After(timeFromUnix(expires)) {
		return false, nil
	}
	return true, nil
}

// MarkEmailVerified stamps the user's email_verified time.
func (s *Store) MarkEmailVerified(ctx context.Context, userID string, at time.Time) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE users SET email_verified = ? WHERE id = ?
	`, unix(at), userID); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	return nil
}

func unix(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func unixPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return unix(*t)
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
