package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookhaven/bookhaven-cli/internal/guard"
	"github.com/bookhaven/bookhaven-cli/pkg/models"
)

var (
	reviewRating  int
	reviewComment string
)

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Review commands",
	Long:  `Read and submit book reviews.`,
}

var reviewsSubmitCmd = &cobra.Command{
	Use:   "submit [book-id]",
	Short: "Submit a review",
	Long:  `Submit a rating (1-5) and comment for a book. Requires login.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := checkGuard(guard.RequireAuth(a.auth.Session())); err != nil {
			return err
		}

		input := models.ReviewInput{
			Book:    args[0],
			Rating:  reviewRating,
			Comment: reviewComment,
		}
		if err := a.reviews.SubmitReview(cmd.Context(), input); err != nil {
			s := a.reviews.State()
			if s.Error != "" {
				printError(s.Error)
			} else {
				// Rejected before dispatch: a field failed validation.
				printError("Invalid review: rating must be 1-5 and comment is required")
			}
			return err
		}

		printSuccess("Review submitted!")
		a.reviews.ResetStatus()
		fmt.Println("See it with: bookhaven reviews list " + args[0])
		return nil
	},
}

var reviewsListCmd = &cobra.Command{
	Use:   "list [book-id]",
	Short: "List reviews for a book",
	Long:  `List all reviews for the given book.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.reviews.FetchReviewsByBook(cmd.Context(), args[0]); err != nil {
			printError(a.reviews.State().Error)
			return err
		}

		reviews := a.reviews.State().Reviews
		if len(reviews) == 0 {
			fmt.Println("No reviews yet.")
			return nil
		}

		fmt.Printf("Found %d review(s):\n\n", len(reviews))
		for i, r := range reviews {
			fmt.Printf("%d. [%d/5] by %s\n", i+1, r.Rating, r.User.Name)
			fmt.Printf("   %s\n", r.Comment)
			if !r.CreatedAt.IsZero() {
				fmt.Printf("   %s\n", r.CreatedAt.Format("2006-01-02"))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	reviewsSubmitCmd.Flags().IntVar(&reviewRating, "rating", 0, "Rating from 1 to 5")
	reviewsSubmitCmd.Flags().StringVar(&reviewComment, "comment", "", "Review comment")
	reviewsSubmitCmd.MarkFlagRequired("rating")
	reviewsSubmitCmd.MarkFlagRequired("comment")

	reviewsCmd.AddCommand(reviewsSubmitCmd)
	reviewsCmd.AddCommand(reviewsListCmd)
}
