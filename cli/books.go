package cli

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/bookhaven/bookhaven-cli/internal/api"
	"github.com/bookhaven/bookhaven-cli/internal/download"
	"github.com/bookhaven/bookhaven-cli/internal/guard"
	"github.com/bookhaven/bookhaven-cli/pkg/models"
)

var (
	bookPage      int
	bookLimit     int
	bookSearch    string
	bookFeatured  bool
	bookTitle     string
	bookAuthor    string
	bookDesc      string
	bookGenre     string
	bookThumbnail string
	bookFile      string
	downloadOut   string
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Catalog commands",
	Long:  `Browse, search, and manage the BookHaven catalog.`,
}

var booksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List books",
	Long:  `List a page of the catalog, optionally filtered by search text or featured status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		q := api.ListQuery{Page: bookPage, Limit: bookLimit, Search: bookSearch, Featured: bookFeatured}
		if err := a.books.FetchBooks(cmd.Context(), q); err != nil {
			printError(a.books.State().Error)
			return err
		}
		if bookSearch != "" {
			if err := a.history.RecordSearch(bookSearch); err != nil {
				printInfo("Could not record search history")
			}
		}

		s := a.books.State()
		if len(s.Books) == 0 {
			fmt.Println("No books found.")
			return nil
		}

		fmt.Printf("Page %d of %d (%d books total):\n\n", s.Pagination.CurrentPage, s.Pagination.TotalPages, s.Pagination.TotalBooks)
		for i, b := range s.Books {
			printBook(i+1, b)
		}
		fmt.Println("To view details:")
		fmt.Println("  bookhaven books get <id>")
		return nil
	},
}

var booksGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a book",
	Long:  `Display the details of one book together with its reviews.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.books.FetchBookByID(cmd.Context(), args[0]); err != nil {
			printError(a.books.State().Error)
			return err
		}

		b := a.books.State().SelectedBook
		fmt.Printf("%s\n", b.Title)
		fmt.Printf("  ID: %s\n", b.ID)
		fmt.Printf("  Author: %s\n", b.Author)
		fmt.Printf("  Genre: %s\n", b.Genre)
		if b.Featured {
			fmt.Println("  Featured: yes")
		}
		if b.Description != "" {
			fmt.Printf("  Description: %s\n", truncate(b.Description, 200))
		}

		if err := a.reviews.FetchReviewsByBook(cmd.Context(), b.ID); err != nil {
			printInfo("Reviews unavailable")
			return nil
		}
		reviews := a.reviews.State().Reviews
		if len(reviews) == 0 {
			fmt.Println("\nNo reviews yet.")
			return nil
		}
		fmt.Printf("\nReviews (%d):\n", len(reviews))
		for _, r := range reviews {
			fmt.Printf("  [%d/5] %s — %s\n", r.Rating, r.User.Name, truncate(r.Comment, 120))
		}
		return nil
	},
}

var booksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a book (admin)",
	Long:  `Upload a new book with its thumbnail and book file. Admin only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := checkGuard(guard.RequireAdmin(a.auth.Session())); err != nil {
			return err
		}

		thumb, err := os.Open(bookThumbnail)
		if err != nil {
			return fmt.Errorf("failed to open thumbnail: %w", err)
		}
		defer thumb.Close()
		file, err := os.Open(bookFile)
		if err != nil {
			return fmt.Errorf("failed to open book file: %w", err)
		}
		defer file.Close()

		input := models.BookInput{
			Title:       bookTitle,
			Author:      bookAuthor,
			Description: bookDesc,
			Genre:       bookGenre,
			Featured:    bookFeatured,
		}
		created, err := a.books.AddBook(cmd.Context(), input,
			api.Upload{Name: bookThumbnail, Reader: thumb},
			api.Upload{Name: bookFile, Reader: file},
		)
		if err != nil {
			printError(fmt.Sprintf("Failed to add book: %s", a.books.State().Error))
			return err
		}

		printSuccess("Book added!")
		fmt.Printf("ID: %s\n", created.ID)
		fmt.Printf("Title: %s\n", created.Title)
		fmt.Println("\nIt will appear in the next catalog fetch:")
		fmt.Println("  bookhaven books list")
		return nil
	},
}

var booksDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a book (admin)",
	Long:  `Delete a book from the catalog. Admin only.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := checkGuard(guard.RequireAdmin(a.auth.Session())); err != nil {
			return err
		}

		if err := a.books.DeleteBook(cmd.Context(), args[0]); err != nil {
			printError(fmt.Sprintf("Failed to delete book: %s", a.books.State().Error))
			return err
		}

		printSuccess(a.books.State().Message)
		return nil
	},
}

var booksDownloadCmd = &cobra.Command{
	Use:   "download [id]",
	Short: "Download a book file",
	Long:  `Download the book file and save it locally.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		data, filename, err := a.books.DownloadBook(cmd.Context(), args[0])
		if err != nil {
			printError(a.books.State().Error)
			return err
		}

		dst := downloadOut
		if dst == "" {
			dst = filename
		}
		if dst == "" {
			dst = args[0] + ".pdf"
		}

		if err := a.downloads.Deliver(data, filename, download.SaveTo(dst)); err != nil {
			printError(fmt.Sprintf("Failed to save download: %v", err))
			return err
		}
		if err := a.history.RecordDownload(args[0], dst); err != nil {
			printInfo("Could not record download history")
		}

		printSuccess(fmt.Sprintf("Saved %s (%d bytes)", dst, len(data)))
		return nil
	},
}

func printBook(n int, b models.Book) {
	fmt.Printf("%d. %s\n", n, b.Title)
	fmt.Printf("   ID: %s\n", b.ID)
	fmt.Printf("   Author: %s\n", b.Author)
	fmt.Printf("   Genre: %s\n", b.Genre)
	if b.Featured {
		fmt.Println("   Featured: yes")
	}
	if b.Description != "" {
		fmt.Printf("   Description: %s\n", truncate(b.Description, 100))
	}
	fmt.Println()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func init() {
	booksListCmd.Flags().IntVar(&bookPage, "page", 1, "Page number")
	booksListCmd.Flags().IntVar(&bookLimit, "limit", 6, "Books per page")
	booksListCmd.Flags().StringVar(&bookSearch, "search", "", "Search filter")
	booksListCmd.Flags().BoolVar(&bookFeatured, "featured", false, "Featured books only")

	booksAddCmd.Flags().StringVar(&bookTitle, "title", "", "Book title")
	booksAddCmd.Flags().StringVar(&bookAuthor, "author", "", "Book author")
	booksAddCmd.Flags().StringVar(&bookDesc, "description", "", "Book description")
	booksAddCmd.Flags().StringVar(&bookGenre, "genre", "", "Book genre")
	booksAddCmd.Flags().BoolVar(&bookFeatured, "featured", false, "Mark as featured")
	booksAddCmd.Flags().StringVar(&bookThumbnail, "thumbnail", "", "Path to thumbnail image")
	booksAddCmd.Flags().StringVar(&bookFile, "file", "", "Path to book file")
	booksAddCmd.MarkFlagRequired("title")
	booksAddCmd.MarkFlagRequired("author")
	booksAddCmd.MarkFlagRequired("thumbnail")
	booksAddCmd.MarkFlagRequired("file")

	booksDownloadCmd.Flags().StringVar(&downloadOut, "out", "", "Destination path")

	booksCmd.AddCommand(booksListCmd)
	booksCmd.AddCommand(booksGetCmd)
	booksCmd.AddCommand(booksAddCmd)
	booksCmd.AddCommand(booksDeleteCmd)
	booksCmd.AddCommand(booksDownloadCmd)
}
