package state_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bookhaven/bookhaven-cli/internal/api"
	"github.com/bookhaven/bookhaven-cli/internal/state"
	"github.com/bookhaven/bookhaven-cli/pkg/models"
)

// memStore is the in-memory CredentialStore used by tests.
type memStore struct {
	mu    sync.Mutex
	token string
	user  *models.User
	saves int
}

var _ state.CredentialStore = (*memStore)(nil)

func (m *memStore) Save(token string, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	u := user
	m.user = &u
	m.saves++
	return nil
}

func (m *memStore) Load() (string, *models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.user, nil
}

func (m *memStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	return nil
}

func (m *memStore) snapshot() (string, *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.user
}

// newTestContainers spins up a fake backend from the given routes and wires
// the containers against it.
func newTestContainers(t *testing.T, store *memStore, routes func(r *gin.Engine)) *state.Containers {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if routes != nil {
		routes(router)
	}
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	client := api.New(srv.URL, zerolog.Nop())
	return state.New(client, store, zerolog.Nop())
}

func adminUser() models.User {
	return models.User{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: "admin"}
}

func plainUser() models.User {
	return models.User{ID: "u2", Name: "Bob", Email: "bob@example.com", Role: "user"}
}

func bytesReader(s string) io.Reader {
	return strings.NewReader(s)
}
