package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/bookhaven/bookhaven-cli/internal/api"
	"github.com/bookhaven/bookhaven-cli/pkg/models"
)

// Pagination mirrors the metadata returned alongside each catalog page.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalBooks  int
}

// BooksState is a snapshot of the catalog view. Books is replaced wholesale
// by every successful list fetch and cleared by a failed one; stale entries
// are never shown next to an error.
type BooksState struct {
	Books        []models.Book
	Pagination   Pagination
	SelectedBook *models.Book
	BookFile     []byte
	Message      string
	Loading      bool
	Downloading  bool
	Error        string
}

type Books struct {
	mu       sync.Mutex
	api      *api.Client
	auth     *Auth
	validate *validator.Validate
	log      zerolog.Logger
	s        BooksState

	// fetchSeq orders list fetches so a slow response cannot overwrite the
	// result of a later one.
	fetchSeq uint64
}

func NewBooks(client *api.Client, auth *Auth, validate *validator.Validate, log zerolog.Logger) *Books {
	return &Books{
		api:      client,
		auth:     auth,
		validate: validate,
		log:      log.With().Str("container", "books").Logger(),
	}
}

// State returns a copy of the current catalog state.
func (b *Books) State() BooksState {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.s
	s.Books = append([]models.Book(nil), b.s.Books...)
	return s
}

// FetchBooks loads one catalog page. On success books and pagination are
// replaced; on failure books is cleared and the error recorded. A fetch that
// has been superseded by a newer one discards its result.
func (b *Books) FetchBooks(ctx context.Context, q api.ListQuery) error {
	b.mu.Lock()
	b.fetchSeq++
	seq := b.fetchSeq
	b.s.Loading = true
	b.s.Error = ""
	b.mu.Unlock()
	b.log.Debug().Str("op", "fetch_books").Uint64("seq", seq).Msg("pending")

	page, err := b.api.ListBooks(ctx, q)

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq != b.fetchSeq {
		b.log.Debug().Str("op", "fetch_books").Uint64("seq", seq).Msg("stale result discarded")
		return nil
	}
	b.s.Loading = false
	if err != nil {
		b.s.Books = []models.Book{}
		b.s.Error = api.ErrorMessage(err, "Failed to load books")
		b.log.Debug().Str("op", "fetch_books").Str("error", b.s.Error).Msg("rejected")
		return fmt.Errorf("failed to load books: %w", err)
	}
	b.s.Books = page.Data
	if b.s.Books == nil {
		b.s.Books = []models.Book{}
	}
	b.s.Pagination = Pagination{
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
		TotalBooks:  page.TotalBooks,
	}
	b.log.Debug().Str("op", "fetch_books").Int("count", len(b.s.Books)).Msg("fulfilled")
	return nil
}

// FetchBookByID populates the selected book without touching the list.
func (b *Books) FetchBookByID(ctx context.Context, id string) error {
	b.mu.Lock()
	b.s.Loading = true
	b.s.Error = ""
	b.mu.Unlock()
	b.log.Debug().Str("op", "fetch_book").Str("id", id).Msg("pending")

	book, err := b.api.GetBook(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.s.Loading = false
	if err != nil {
		b.s.Error = api.ErrorMessage(err, "Failed to load book")
		b.log.Debug().Str("op", "fetch_book").Str("error", b.s.Error).Msg("rejected")
		return fmt.Errorf("failed to load book: %w", err)
	}
	b.s.SelectedBook = book
	b.log.Debug().Str("op", "fetch_book").Str("title", book.Title).Msg("fulfilled")
	return nil
}

// AddBook uploads a new book record. The created record is returned but not
// merged into the list; the next fetch picks it up.
func (b *Books) AddBook(ctx context.Context, input models.BookInput, thumbnail, book api.Upload) (*models.Book, error) {
	if err := b.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid book: %w", err)
	}
	token := b.auth.Token()

	b.mu.Lock()
	b.s.Loading = true
	b.s.Error = ""
	b.mu.Unlock()
	b.log.Debug().Str("op", "add_book").Str("title", input.Title).Msg("pending")

	created, err := b.api.AddBook(ctx, token, input, thumbnail, book)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.s.Loading = false
	if err != nil {
		b.s.Error = api.ErrorMessage(err, "Failed to add book")
		b.log.Debug().Str("op", "add_book").Str("error", b.s.Error).Msg("rejected")
		return nil, fmt.Errorf("failed to add book: %w", err)
	}
	b.log.Debug().Str("op", "add_book").Str("id", created.ID).Msg("fulfilled")
	return created, nil
}

// DeleteBook removes the book on the backend and, on success, drops the
// matching entry from the list.
func (b *Books) DeleteBook(ctx context.Context, id string) error {
	token := b.auth.Token()

	b.mu.Lock()
	b.s.Loading = true
	b.s.Error = ""
	b.mu.Unlock()
	b.log.Debug().Str("op", "delete_book").Str("id", id).Msg("pending")

	err := b.api.DeleteBook(ctx, token, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.s.Loading = false
	if err != nil {
		b.s.Error = api.ErrorMessage(err, "Failed to delete book")
		b.log.Debug().Str("op", "delete_book").Str("error", b.s.Error).Msg("rejected")
		return fmt.Errorf("failed to delete book: %w", err)
	}
	kept := b.s.Books[:0]
	for _, book := range b.s.Books {
		if book.ID != id {
			kept = append(kept, book)
		}
	}
	b.s.Books = kept
	b.s.Message = "Book deleted successfully."
	b.log.Debug().Str("op", "delete_book").Str("id", id).Msg("fulfilled")
	return nil
}

// DownloadBook fetches the raw book file into BookFile and returns it with
// the backend's suggested filename. The bytes are transient state, not a
// cache.
func (b *Books) DownloadBook(ctx context.Context, id string) ([]byte, string, error) {
	b.mu.Lock()
	b.s.Downloading = true
	b.s.Error = ""
	b.mu.Unlock()
	b.log.Debug().Str("op", "download_book").Str("id", id).Msg("pending")

	data, filename, err := b.api.DownloadBook(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.s.Downloading = false
	if err != nil {
		b.s.Error = api.ErrorMessage(err, "Failed to download book")
		b.log.Debug().Str("op", "download_book").Str("error", b.s.Error).Msg("rejected")
		return nil, "", fmt.Errorf("failed to download book: %w", err)
	}
	b.s.BookFile = data
	b.log.Debug().Str("op", "download_book").Int("bytes", len(data)).Msg("fulfilled")
	return data, filename, nil
}
