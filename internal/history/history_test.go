package history_test

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-cli/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.Open(filepath.Join(t.TempDir(), "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecent_EmptyStore(t *testing.T) {
	s := openStore(t)
	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRecordAndRecent_NewestFirst(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.RecordSearch("golang"))
	require.NoError(t, s.RecordDownload("b1", "/tmp/book.pdf"))
	require.NoError(t, s.RecordSearch("rust"))

	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.Equal(t, history.KindSearch, entries[0].Kind)
	require.Equal(t, "rust", entries[0].Detail)
	require.Equal(t, history.KindDownload, entries[1].Kind)
	require.Equal(t, "b1", entries[1].BookID)
	require.Equal(t, "/tmp/book.pdf", entries[1].Detail)
	require.Equal(t, "golang", entries[2].Detail)
}

func TestRecent_RespectsLimit(t *testing.T) {
	s := openStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordSearch("query"))
	}

	entries, err := s.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Zero falls back to the default window.
	entries, err = s.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 5)
}
