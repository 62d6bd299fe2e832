package devserver

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tbeaumont/rehearse/internal/auth"
	"github.com/tbeaumont/rehearse/internal/db"
)

const (
	tokenTTL            = 24 * time.Hour
	sessionTTL          = 30 * 24 * time.Hour
	verificationTTL     = 24 * time.Hour
	credentialsProvider = "credentials"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type authResponse struct {
	Token        string `json:"token"`
	SessionToken string `json:"session_token"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
}

// authReady reports whether the auth store and signing secret are wired.
func (s *Server) authReady(w http.ResponseWriter) bool {
	if s.store == nil || len(s.opts.JWTSecret) == 0 {
		writeError(w, http.StatusServiceUnavailable, "auth is not configured")
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.authReady(w) {
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if existing, err := s.store.UserByEmail(ctx, req.Email); err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	} else if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	user, err := s.store.CreateUser(ctx, db.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create user failed")
		return
	}

	if _, err := s.store.LinkAccount(ctx, db.Account{
		UserID:            user.ID,
		Type:              credentialsProvider,
		Provider:          credentialsProvider,
		ProviderAccountID: user.ID,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "link account failed")
		return
	}

	// The verification token would normally go out by email; the dev server
	// just logs it so it can be pasted into /auth/verify-email.
	vt, err := s.store.CreateVerificationToken(ctx, user.Email, verificationTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "verification token failed")
		return
	}
	log.Printf("verification token for %s: %s", user.Email, vt.Token)

	s.issueAuth(w, r, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.authReady(w) {
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx := r.Context()
	user, err := s.store.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	// Same response for unknown email and wrong password.
	if user == nil || user.PasswordHash == "" || !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	s.issueAuth(w, r, *user)
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if !s.authReady(w) {
		return
	}

	var req verifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx := r.Context()
	ok, err := s.store.ConsumeVerificationToken(ctx, email, req.Token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid or expired token")
		return
	}

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "user lookup failed")
		return
	}
	if err := s.store.MarkEmailVerified(ctx, user.ID, time.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, "mark verified failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

// handleGoogleCallback completes the Google OAuth flow: exchange the code,
// upsert the user, link the provider identity, and issue tokens.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !s.authReady(w) {
		return
	}
	if s.opts.GoogleOAuth == nil || s.opts.GoogleOAuth.ClientID == "" {
		writeError(w, http.StatusServiceUnavailable, "google oauth is not configured")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing code")
		return
	}

	ctx := r.Context()
	provider := auth.NewGoogleProvider(*s.opts.GoogleOAuth)
	profile, token, err := auth.FetchGoogleUser(ctx, provider, code)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "google exchange failed")
		return
	}

	account, err := s.store.AccountByProvider(ctx, "google", profile.ProviderUserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "account lookup failed")
		return
	}

	var user db.User
	if account != nil {
		u, err := s.store.UserByID(ctx, account.UserID)
		if err != nil || u == nil {
			writeError(w, http.StatusInternalServerError, "user lookup failed")
			return
		}
		user = *u
	} else {
		// First Google login: reuse an existing user with the same email,
		// otherwise create one. Google emails arrive verified.
		existing, err := s.store.UserByEmail(ctx, strings.ToLower(profile.Email))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		if existing != nil {
			user = *existing
		} else {
			now := time.Now()
			user, err = s.store.CreateUser(ctx, db.User{
				Name:          profile.Name,
				Email:         strings.ToLower(profile.Email),
				EmailVerified: &now,
				Image:         profile.AvatarURL,
			})
			if err != nil {
				writeError(w, http.StatusInternalServerError, "create user failed")
				return
			}
		}

		var expiresAt *time.Time
		if !token.Expiry.IsZero() {
			expiresAt = &token.Expiry
		}
		if _, err := s.store.LinkAccount(ctx, db.Account{
			UserID:            user.ID,
			Type:              "oauth",
			Provider:          "google",
			ProviderAccountID: profile.ProviderUserID,
			RefreshToken:      token.RefreshToken,
			AccessToken:       token.AccessToken,
			ExpiresAt:         expiresAt,
			TokenType:         token.TokenType,
		}); err != nil {
			writeError(w, http.StatusInternalServerError, "link account failed")
			return
		}
	}

	s.issueAuth(w, r, user)
}

// issueAuth creates a server-side session and a signed JWT for user.
func (s *Server) issueAuth(w http.ResponseWriter, r *http.Request, user db.User) {
	sess, err := s.store.CreateSession(r.Context(), user.ID, time.Now().Add(sessionTTL))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create session failed")
		return
	}

	token, err := auth.GenerateToken(s.opts.JWTSecret, &auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}, tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign token failed")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token:        token,
		SessionToken: sess.SessionToken,
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
	})
}
