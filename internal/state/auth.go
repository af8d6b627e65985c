package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bookhaven/bookhaven-cli/internal/api"
	"github.com/bookhaven/bookhaven-cli/pkg/models"
)

// Session is a snapshot of the current user identity. Token and the user
// fields are either all set (authenticated) or all empty (anonymous); no
// other combination is produced.
type Session struct {
	UserID    string
	UserName  string
	UserEmail string
	UserRole  string
	Token     string
	Loading   bool
	Error     string
}

// Auth owns the session and the operations that mutate it. Persistence goes
// through the CredentialStore so the container never touches durable storage
// directly.
type Auth struct {
	mu    sync.Mutex
	api   *api.Client
	store CredentialStore
	log   zerolog.Logger
	s     Session
}

func NewAuth(client *api.Client, store CredentialStore, log zerolog.Logger) *Auth {
	return &Auth{
		api:   client,
		store: store,
		log:   log.With().Str("container", "auth").Logger(),
	}
}

// Load initializes the session from persisted credentials. Nothing stored
// means an anonymous session; a half-written record is an error rather than
// a silent default.
func (a *Auth) Load() error {
	token, user, err := a.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load stored credentials: %w", err)
	}
	if token == "" || user == nil {
		return nil
	}
	if user.ID == "" || user.Role == "" {
		return fmt.Errorf("stored credentials are incomplete, run login again")
	}

	a.mu.Lock()
	a.s.UserID = user.ID
	a.s.UserName = user.Name
	a.s.UserEmail = user.Email
	a.s.UserRole = user.Role
	a.s.Token = token
	a.mu.Unlock()

	a.log.Debug().Str("user", user.Name).Msg("session restored")
	return nil
}

// Session returns a copy of the current session.
func (a *Auth) Session() Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.s
}

// Token returns the current bearer token, empty when anonymous.
func (a *Auth) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.s.Token
}

func (a *Auth) Login(ctx context.Context, req models.LoginRequest) error {
	a.pending("login")
	res, err := a.api.Login(ctx, req)
	if err != nil {
		return a.reject("login", err, "Login failed")
	}
	return a.establish("login", res.Token, res.User)
}

func (a *Auth) Register(ctx context.Context, req models.RegisterRequest) error {
	a.pending("register")
	res, err := a.api.Register(ctx, req)
	if err != nil {
		return a.reject("register", err, "Register failed")
	}
	return a.establish("register", res.Token, res.User)
}

// UpdateProfile replaces name and email on the backend, in the session, and
// in the persisted record. The session is untouched on failure.
func (a *Auth) UpdateProfile(ctx context.Context, id string, req models.UpdateProfileRequest) error {
	a.mu.Lock()
	token := a.s.Token
	a.mu.Unlock()

	a.pending("update_profile")
	user, err := a.api.UpdateUser(ctx, token, id, req)
	if err != nil {
		return a.reject("update_profile", err, "Update failed")
	}

	a.mu.Lock()
	a.s.UserName = user.Name
	a.s.UserEmail = user.Email
	a.s.Loading = false
	stored := models.User{
		ID:    a.s.UserID,
		Name:  a.s.UserName,
		Email: a.s.UserEmail,
		Role:  a.s.UserRole,
	}
	a.mu.Unlock()

	if err := a.store.Save(token, stored); err != nil {
		a.log.Warn().Err(err).Msg("failed to persist updated profile")
	}
	a.log.Debug().Str("op", "update_profile").Msg("fulfilled")
	return nil
}

// Logout clears the persisted credentials and the session. It is synchronous
// and idempotent; there is no server round-trip.
func (a *Auth) Logout() error {
	if err := a.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear stored credentials: %w", err)
	}
	a.mu.Lock()
	a.s = Session{}
	a.mu.Unlock()
	a.log.Debug().Str("op", "logout").Msg("session cleared")
	return nil
}

func (a *Auth) establish(op, token string, user models.User) error {
	// Persist before updating the session so token and user never diverge
	// between memory and storage.
	if err := a.store.Save(token, user); err != nil {
		return a.reject(op, err, "Failed to save credentials")
	}

	a.mu.Lock()
	a.s.UserID = user.ID
	a.s.UserName = user.Name
	a.s.UserEmail = user.Email
	a.s.UserRole = user.Role
	a.s.Token = token
	a.s.Loading = false
	a.s.Error = ""
	a.mu.Unlock()

	a.log.Debug().Str("op", op).Str("user", user.Name).Msg("fulfilled")
	return nil
}

func (a *Auth) pending(op string) {
	a.mu.Lock()
	a.s.Loading = true
	a.s.Error = ""
	a.mu.Unlock()
	a.log.Debug().Str("op", op).Msg("pending")
}

func (a *Auth) reject(op string, err error, fallback string) error {
	msg := api.ErrorMessage(err, fallback)
	a.mu.Lock()
	a.s.Loading = false
	a.s.Error = msg
	a.mu.Unlock()
	a.log.Debug().Str("op", op).Str("error", msg).Msg("rejected")
	return fmt.Errorf("%s: %w", fallback, err)
}
