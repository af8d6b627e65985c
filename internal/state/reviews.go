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

// ReviewsState is a snapshot of the reviews for the last book queried.
// Switching books replaces the whole list.
type ReviewsState struct {
	Reviews []models.Review
	Loading bool
	Error   string
	Success bool
}

type Reviews struct {
	mu       sync.Mutex
	api      *api.Client
	auth     *Auth
	validate *validator.Validate
	log      zerolog.Logger
	s        ReviewsState

	fetchSeq uint64
}

func NewReviews(client *api.Client, auth *Auth, validate *validator.Validate, log zerolog.Logger) *Reviews {
	return &Reviews{
		api:      client,
		auth:     auth,
		validate: validate,
		log:      log.With().Str("container", "reviews").Logger(),
	}
}

// State returns a copy of the current review state.
func (r *Reviews) State() ReviewsState {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.s
	s.Reviews = append([]models.Review(nil), r.s.Reviews...)
	return s
}

// SubmitReview posts a review for a book. The rating range is validated
// before any request goes out; an invalid input never reaches the backend
// and never touches container state. The token is read from the auth
// container, not taken from the caller.
func (r *Reviews) SubmitReview(ctx context.Context, input models.ReviewInput) error {
	if err := r.validate.Struct(input); err != nil {
		return fmt.Errorf("invalid review: %w", err)
	}
	token := r.auth.Token()

	r.mu.Lock()
	r.s.Loading = true
	r.s.Error = ""
	r.s.Success = false
	r.mu.Unlock()
	r.log.Debug().Str("op", "submit_review").Str("book", input.Book).Msg("pending")

	err := r.api.SubmitReview(ctx, token, input)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.Loading = false
	if err != nil {
		r.s.Error = api.ErrorMessage(err, "Review failed")
		r.log.Debug().Str("op", "submit_review").Str("error", r.s.Error).Msg("rejected")
		return fmt.Errorf("review failed: %w", err)
	}
	// The list is left alone; callers re-fetch to see the new review.
	r.s.Success = true
	r.log.Debug().Str("op", "submit_review").Msg("fulfilled")
	return nil
}

// FetchReviewsByBook replaces the review list with the reviews for bookID.
// Like the catalog fetch, a superseded request discards its result.
func (r *Reviews) FetchReviewsByBook(ctx context.Context, bookID string) error {
	r.mu.Lock()
	r.fetchSeq++
	seq := r.fetchSeq
	r.s.Loading = true
	r.s.Error = ""
	r.mu.Unlock()
	r.log.Debug().Str("op", "fetch_reviews").Str("book", bookID).Msg("pending")

	reviews, err := r.api.ListReviews(ctx, bookID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.fetchSeq {
		r.log.Debug().Str("op", "fetch_reviews").Uint64("seq", seq).Msg("stale result discarded")
		return nil
	}
	r.s.Loading = false
	if err != nil {
		r.s.Error = api.ErrorMessage(err, "Failed to load reviews")
		r.log.Debug().Str("op", "fetch_reviews").Str("error", r.s.Error).Msg("rejected")
		return fmt.Errorf("failed to load reviews: %w", err)
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	r.s.Reviews = reviews
	r.log.Debug().Str("op", "fetch_reviews").Int("count", len(reviews)).Msg("fulfilled")
	return nil
}

// ResetStatus returns the submission state to neutral, used after the
// success or error banner has been shown.
func (r *Reviews) ResetStatus() {
	r.mu.Lock()
	r.s.Loading = false
	r.s.Error = ""
	r.s.Success = false
	r.mu.Unlock()
}
