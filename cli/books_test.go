package cli

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-cli/cli/config"
	"github.com/bookhaven/bookhaven-cli/pkg/models"
)

// startBackend stands up a fake API server and points the CLI at it,
// with a throwaway config dir so tests never touch the real one.
func startBackend(t *testing.T, routes func(r *gin.Engine)) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if routes != nil {
		routes(router)
	}
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	t.Setenv("BOOKHAVEN_CONFIG_DIR", t.TempDir())
	t.Setenv("BOOKHAVEN_API_URL", srv.URL)
	require.NoError(t, config.Init())
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	return rootCmd.Execute()
}

func TestBooksDelete_AnonymousIsDeniedBeforeDispatch(t *testing.T) {
	var deletes atomic.Int64
	startBackend(t, func(r *gin.Engine) {
		r.DELETE("/books/:id", func(c *gin.Context) {
			deletes.Add(1)
			c.JSON(http.StatusOK, gin.H{"message": "deleted"})
		})
	})

	err := runCommand(t, "books", "delete", "b1")
	require.Error(t, err)
	require.EqualValues(t, 0, deletes.Load(), "anonymous delete must never reach the backend")
}

func TestBooksDelete_NonAdminIsDeniedBeforeDispatch(t *testing.T) {
	var deletes atomic.Int64
	startBackend(t, func(r *gin.Engine) {
		r.DELETE("/books/:id", func(c *gin.Context) {
			deletes.Add(1)
			c.JSON(http.StatusOK, gin.H{"message": "deleted"})
		})
	})
	require.NoError(t, config.NewCredentialStore().Save("user-token", models.User{
		ID:    "u1",
		Name:  "pat",
		Email: "pat@example.com",
		Role:  "user",
	}))

	err := runCommand(t, "books", "delete", "b1")
	require.Error(t, err)
	require.EqualValues(t, 0, deletes.Load(), "non-admin delete must never reach the backend")
}

func TestBooksDelete_AdminDispatches(t *testing.T) {
	var deletes atomic.Int64
	startBackend(t, func(r *gin.Engine) {
		r.DELETE("/books/:id", func(c *gin.Context) {
			deletes.Add(1)
			c.JSON(http.StatusOK, gin.H{"message": "deleted"})
		})
	})
	require.NoError(t, config.NewCredentialStore().Save("admin-token", models.User{
		ID:    "a1",
		Name:  "root",
		Email: "root@example.com",
		Role:  models.RoleAdmin,
	}))

	err := runCommand(t, "books", "delete", "b1")
	require.NoError(t, err)
	require.EqualValues(t, 1, deletes.Load())
}

func TestBooksAdd_AnonymousIsDeniedBeforeDispatch(t *testing.T) {
	var posts atomic.Int64
	startBackend(t, func(r *gin.Engine) {
		r.POST("/books", func(c *gin.Context) {
			posts.Add(1)
			c.JSON(http.StatusCreated, gin.H{"message": "created"})
		})
	})

	// The guard runs before the upload paths are opened, so the files
	// need not exist.
	err := runCommand(t, "books", "add",
		"--title", "T", "--author", "A",
		"--thumbnail", "no-such-thumb.jpg", "--file", "no-such-book.pdf")
	require.Error(t, err)
	require.EqualValues(t, 0, posts.Load(), "anonymous add must never reach the backend")
}

func TestTruncate_CutsOnRuneBoundaries(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))

	got := truncate("日本語の本です", 3)
	require.Equal(t, "日本語...", got)
	require.True(t, utf8.ValidString(got))
}
