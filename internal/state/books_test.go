package state_test

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-cli/internal/api"
	"github.com/bookhaven/bookhaven-cli/pkg/models"
)

func testBooks(n int) []models.Book {
	books := make([]models.Book, n)
	for i := range books {
		books[i] = models.Book{
			ID:     "b" + strconv.Itoa(i+1),
			Title:  "Book " + strconv.Itoa(i+1),
			Author: "Author",
			Genre:  "Fiction",
		}
	}
	return books
}

func TestFetchBooks_PopulatesPageAndPagination(t *testing.T) {
	c := newTestContainers(t, &memStore{}, func(r *gin.Engine) {
		r.GET("/books", func(ctx *gin.Context) {
			require.Equal(t, "2", ctx.Query("page"))
			require.Equal(t, "3", ctx.Query("limit"))
			ctx.JSON(http.StatusOK, gin.H{
				"data":        testBooks(3),
				"currentPage": 2,
				"totalPages":  4,
				"totalBooks":  10,
			})
		})
	})

	err := c.Books.FetchBooks(context.Background(), api.ListQuery{Page: 2, Limit: 3})
	require.NoError(t, err)

	s := c.Books.State()
	require.Len(t, s.Books, 3)
	require.Equal(t, 2, s.Pagination.CurrentPage)
	require.Equal(t, 4, s.Pagination.TotalPages)
	require.False(t, s.Loading)
	require.Empty(t, s.Error)
}

func TestFetchBooks_DefaultsAndFilters(t *testing.T) {
	var gotQuery map[string][]string
	c := newTestContainers(t, &memStore{}, func(r *gin.Engine) {
		r.GET("/books", func(ctx *gin.Context) {
			gotQuery = ctx.Request.URL.Query()
			ctx.JSON(http.StatusOK, gin.H{"data": []models.Book{}, "currentPage": 1, "totalPages": 0})
		})
	})

	require.NoError(t, c.Books.FetchBooks(context.Background(), api.ListQuery{}))
	require.Equal(t, []string{"1"}, gotQuery["page"])
	require.Equal(t, []string{"6"}, gotQuery["limit"])
	require.NotContains(t, gotQuery, "search")
	require.NotContains(t, gotQuery, "featured")

	require.NoError(t, c.Books.FetchBooks(context.Background(), api.ListQuery{Search: "go", Featured: true}))
	require.Equal(t, []string{"go"}, gotQuery["search"])
	require.Equal(t, []string{"true"}, gotQuery["featured"])
}

func TestFetchBooks_FailureClearsBooks(t *testing.T) {
	var fail atomic.Bool
	c := newTestContainers(t, &memStore{}, func(r *gin.Engine) {
		r.GET("/books", func(ctx *gin.Context) {
			if fail.Load() {
				ctx.JSON(http.StatusInternalServerError, gin.H{"message": "boom"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": testBooks(2), "currentPage": 1, "totalPages": 1})
		})
	})

	require.NoError(t, c.Books.FetchBooks(context.Background(), api.ListQuery{}))
	require.Len(t, c.Books.State().Books, 2)

	fail.Store(true)
	err := c.Books.FetchBooks(context.Background(), api.ListQuery{})
	require.Error(t, err)

	s := c.Books.State()
	require.Empty(t, s.Books)
	require.Equal(t, "boom", s.Error)
	require.False(t, s.Loading)
}

func TestFetchBooks_StaleResponseDiscarded(t *testing.T) {
	firstArrived := make(chan struct{})
	releaseFirst := make(chan struct{})
	var calls atomic.Int64

	c := newTestContainers(t, &memStore{}, func(r *gin.Engine) {
		r.GET("/books", func(ctx *gin.Context) {
			if calls.Add(1) == 1 {
				close(firstArrived)
				<-releaseFirst
				ctx.JSON(http.StatusOK, gin.H{"data": []models.Book{{ID: "stale", Title: "Stale"}}, "currentPage": 1, "totalPages": 1})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": []models.Book{{ID: "fresh", Title: "Fresh"}}, "currentPage": 1, "totalPages": 1})
		})
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Books.FetchBooks(context.Background(), api.ListQuery{})
	}()

	// The first fetch holds its sequence number before the second starts.
	<-firstArrived
	require.NoError(t, c.Books.FetchBooks(context.Background(), api.ListQuery{}))
	require.Equal(t, "fresh", c.Books.State().Books[0].ID)

	close(releaseFirst)
	wg.Wait()

	// The slow first response must not overwrite the newer data.
	s := c.Books.State()
	require.Len(t, s.Books, 1)
	require.Equal(t, "fresh", s.Books[0].ID)
	require.False(t, s.Loading)
	require.Empty(t, s.Error)
}

func TestFetchBookByID_SetsSelectedWithoutTouchingList(t *testing.T) {
	c := newTestContainers(t, &memStore{}, func(r *gin.Engine) {
		r.GET("/books", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"data": testBooks(2), "currentPage": 1, "totalPages": 1})
		})
		r.GET("/books/:id", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"book": gin.H{"_id": ctx.Param("id"), "title": "Selected"}})
		})
	})

	require.NoError(t, c.Books.FetchBooks(context.Background(), api.ListQuery{}))
	require.NoError(t, c.Books.FetchBookByID(context.Background(), "b9"))

	s := c.Books.State()
	require.NotNil(t, s.SelectedBook)
	require.Equal(t, "b9", s.SelectedBook.ID)
	require.Len(t, s.Books, 2)
}

func TestDeleteBook_RemovesMatchingEntry(t *testing.T) {
	store := &memStore{token: "tok-1", user: &models.User{ID: "u1", Name: "Alice", Email: "a@b.c", Role: "admin"}}
	var gotAuth string
	c := newTestContainers(t, store, func(r *gin.Engine) {
		r.GET("/books", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"data": testBooks(3), "currentPage": 1, "totalPages": 1})
		})
		r.DELETE("/books/:id", func(ctx *gin.Context) {
			gotAuth = ctx.GetHeader("Authorization")
			ctx.JSON(http.StatusOK, gin.H{"message": "deleted"})
		})
	})
	require.NoError(t, c.Auth.Load())
	require.NoError(t, c.Books.FetchBooks(context.Background(), api.ListQuery{}))

	require.NoError(t, c.Books.DeleteBook(context.Background(), "b2"))
	require.Equal(t, "Bearer tok-1", gotAuth)

	s := c.Books.State()
	require.Len(t, s.Books, 2)
	for _, b := range s.Books {
		require.NotEqual(t, "b2", b.ID)
	}
	require.Equal(t, "Book deleted successfully.", s.Message)
}

func TestDeleteBook_FailureLeavesListUnchanged(t *testing.T) {
	c := newTestContainers(t, &memStore{}, func(r *gin.Engine) {
		r.GET("/books", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"data": testBooks(3), "currentPage": 1, "totalPages": 1})
		})
		r.DELETE("/books/:id", func(ctx *gin.Context) {
			ctx.JSON(http.StatusForbidden, gin.H{"message": "Admins only"})
		})
	})
	require.NoError(t, c.Books.FetchBooks(context.Background(), api.ListQuery{}))

	err := c.Books.DeleteBook(context.Background(), "b2")
	require.Error(t, err)

	s := c.Books.State()
	require.Len(t, s.Books, 3)
	require.Equal(t, "Admins only", s.Error)
}

func TestDownloadBook_StoresBytes(t *testing.T) {
	payload := []byte("%PDF-1.4 fake book")
	c := newTestContainers(t, &memStore{}, func(r *gin.Engine) {
		r.GET("/books/:id/book", func(ctx *gin.Context) {
			ctx.Header("Content-Disposition", `attachment; filename="go-book.pdf"`)
			ctx.Data(http.StatusOK, "application/pdf", payload)
		})
	})

	data, filename, err := c.Books.DownloadBook(context.Background(), "b1")
	require.NoError(t, err)
	require.Equal(t, payload, data)
	require.Equal(t, "go-book.pdf", filename)

	s := c.Books.State()
	require.Equal(t, payload, s.BookFile)
	require.False(t, s.Downloading)
}

func TestAddBook_ReturnsCreatedWithoutMerging(t *testing.T) {
	store := &memStore{token: "tok-1", user: &models.User{ID: "u1", Name: "Alice", Email: "a@b.c", Role: "admin"}}
	c := newTestContainers(t, store, func(r *gin.Engine) {
		r.GET("/books", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"data": testBooks(1), "currentPage": 1, "totalPages": 1})
		})
		r.POST("/books", func(ctx *gin.Context) {
			require.Equal(t, "Bearer tok-1", ctx.GetHeader("Authorization"))
			require.Equal(t, "New Book", ctx.PostForm("title"))
			require.Equal(t, "true", ctx.PostForm("featured"))
			thumb, err := ctx.FormFile("thumbnail")
			require.NoError(t, err)
			require.NotZero(t, thumb.Size)
			_, err = ctx.FormFile("book")
			require.NoError(t, err)
			ctx.JSON(http.StatusCreated, gin.H{"_id": "b-new", "title": "New Book"})
		})
	})
	require.NoError(t, c.Auth.Load())
	require.NoError(t, c.Books.FetchBooks(context.Background(), api.ListQuery{}))

	created, err := c.Books.AddBook(context.Background(),
		models.BookInput{Title: "New Book", Author: "A", Description: "D", Genre: "G", Featured: true},
		api.Upload{Name: "cover.png", Reader: bytesReader("png-bytes")},
		api.Upload{Name: "book.pdf", Reader: bytesReader("pdf-bytes")},
	)
	require.NoError(t, err)
	require.Equal(t, "b-new", created.ID)

	// No optimistic merge: the list still holds the previous fetch.
	require.Len(t, c.Books.State().Books, 1)
}

func TestAddBook_InvalidInputRejectedBeforeDispatch(t *testing.T) {
	var hits atomic.Int64
	c := newTestContainers(t, &memStore{}, func(r *gin.Engine) {
		r.POST("/books", func(ctx *gin.Context) {
			hits.Add(1)
			ctx.JSON(http.StatusCreated, gin.H{})
		})
	})

	_, err := c.Books.AddBook(context.Background(),
		models.BookInput{Author: "A", Description: "D", Genre: "G"},
		api.Upload{Name: "cover.png", Reader: bytesReader("png")},
		api.Upload{Name: "book.pdf", Reader: bytesReader("pdf")},
	)
	require.Error(t, err, "missing title must fail validation")
	require.Zero(t, hits.Load())
}
