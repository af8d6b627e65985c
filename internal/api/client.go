package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookhaven/bookhaven-cli/pkg/models"
)

// RequestError is returned for any request the backend rejected. Message is
// the server-supplied message when the response body carried one, otherwise
// empty and Error falls back to the status code.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status == 0 {
		return "server connection error"
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// ErrorMessage extracts the user-facing message for err: the server message
// when the backend supplied one, otherwise the given fallback.
func ErrorMessage(err error, fallback string) string {
	var re *RequestError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return fallback
}

// Client talks to the BookHaven REST backend. A token is attached per call;
// the client itself holds no session state.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	requestsTotal int64
	requestFails  int64
}

func New(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: log,
	}
}

// Stats reports the number of requests issued and the number that failed
// since the client was created.
func (c *Client) Stats() (requests, failures int64) {
	return atomic.LoadInt64(&c.requestsTotal), atomic.LoadInt64(&c.requestFails)
}

// ListQuery selects a page of the catalog. Zero values fall back to the
// backend defaults: page 1, limit 6, no search filter, all books.
type ListQuery struct {
	Page     int
	Limit    int
	Search   string
	Featured bool
}

func (q ListQuery) encode() string {
	page := q.Page
	if page == 0 {
		page = 1
	}
	limit := q.Limit
	if limit == 0 {
		limit = 6
	}
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Featured {
		v.Set("featured", "true")
	}
	return v.Encode()
}

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, token, id string, req models.UpdateProfileRequest) (*models.User, error) {
	var out models.UpdateProfileResponse
	if err := c.doJSON(ctx, http.MethodPut, "/auth/user/"+url.PathEscape(id), token, req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) ListBooks(ctx context.Context, q ListQuery) (*models.BookPage, error) {
	var out models.BookPage
	if err := c.doJSON(ctx, http.MethodGet, "/books?"+q.encode(), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBook(ctx context.Context, id string) (*models.Book, error) {
	var out models.BookResponse
	if err := c.doJSON(ctx, http.MethodGet, "/books/"+url.PathEscape(id), "", nil, &out); err != nil {
		return nil, err
	}
	return &out.Book, nil
}

func (c *Client) DeleteBook(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/books/"+url.PathEscape(id), token, nil, nil)
}

func (c *Client) SubmitReview(ctx context.Context, token string, review models.ReviewInput) error {
	return c.doJSON(ctx, http.MethodPost, "/reviews", token, review, nil)
}

func (c *Client) ListReviews(ctx context.Context, bookID string) ([]models.Review, error) {
	var out models.ReviewList
	if err := c.doJSON(ctx, http.MethodGet, "/reviews?bookId="+url.QueryEscape(bookID), "", nil, &out); err != nil {
		return nil, err
	}
	return out.Reviews, nil
}

// Upload names a file streamed into a multipart request.
type Upload struct {
	Name   string
	Reader io.Reader
}

// AddBook creates a book record with its thumbnail and book file as a
// multipart upload. The backend enforces the admin role on the token.
func (c *Client) AddBook(ctx context.Context, token string, input models.BookInput, thumbnail, book Upload) (*models.Book, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":       input.Title,
		"author":      input.Author,
		"description": input.Description,
		"genre":       input.Genre,
		"featured":    strconv.FormatBool(input.Featured),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	for _, f := range []struct {
		field  string
		upload Upload
	}{
		{"thumbnail", thumbnail},
		{"book", book},
	} {
		part, err := w.CreateFormFile(f.field, f.upload.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file %s: %w", f.field, err)
		}
		if _, err := io.Copy(part, f.upload.Reader); err != nil {
			return nil, fmt.Errorf("failed to copy %s upload: %w", f.field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/books", token, &buf, w.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var out models.Book
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadBook fetches the raw book file. The suggested filename comes from
// the Content-Disposition header when the backend sets one.
func (c *Client) DownloadBook(ctx context.Context, id string) (data []byte, filename string, err error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/books/"+url.PathEscape(id)+"/book", "", nil, "")
	if err != nil {
		return nil, "", err
	}
	atomic.AddInt64(&c.requestsTotal, 1)
	res, err := c.http.Do(req)
	if err != nil {
		atomic.AddInt64(&c.requestFails, 1)
		return nil, "", &RequestError{Status: 0}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		atomic.AddInt64(&c.requestFails, 1)
		body, _ := io.ReadAll(res.Body)
		return nil, "", errorFromBody(res.StatusCode, body)
	}

	data, err = io.ReadAll(res.Body)
	if err != nil {
		atomic.AddInt64(&c.requestFails, 1)
		return nil, "", fmt.Errorf("failed to read book file: %w", err)
	}

	if cd := res.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			filename = params["filename"]
		}
	}
	return data, filename, nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, token, body, contentType)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	atomic.AddInt64(&c.requestsTotal, 1)
	c.log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("request")

	res, err := c.http.Do(req)
	if err != nil {
		atomic.AddInt64(&c.requestFails, 1)
		c.log.Debug().Err(err).Msg("request failed")
		return &RequestError{Status: 0}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		atomic.AddInt64(&c.requestFails, 1)
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		atomic.AddInt64(&c.requestFails, 1)
		return errorFromBody(res.StatusCode, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func errorFromBody(status int, body []byte) error {
	var errRes struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &errRes)
	return &RequestError{Status: status, Message: errRes.Message}
}
