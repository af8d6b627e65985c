// Package state holds the client-side application state: the session, the
// book catalog view, and the reviews for the currently viewed book. Each
// container is constructed by the composition root and mutated only through
// its operations, which follow a pending/fulfilled/rejected lifecycle around
// a backend call.
package state

import (
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/bookhaven/bookhaven-cli/internal/api"
	"github.com/bookhaven/bookhaven-cli/pkg/models"
)

// CredentialStore persists the authenticated identity between runs. Save
// writes token and user as one record; Load returns a nil user when nothing
// is stored (anonymous session).
type CredentialStore interface {
	Save(token string, user models.User) error
	Load() (token string, user *models.User, err error)
	Clear() error
}

// Containers bundles the three state containers sharing one API client.
type Containers struct {
	Auth    *Auth
	Books   *Books
	Reviews *Reviews
}

func New(client *api.Client, store CredentialStore, log zerolog.Logger) *Containers {
	auth := NewAuth(client, store, log)
	validate := validator.New()
	return &Containers{
		Auth:    auth,
		Books:   NewBooks(client, auth, validate, log),
		Reviews: NewReviews(client, auth, validate, log),
	}
}
