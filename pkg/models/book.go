package models

// FileRef points at a stored asset (thumbnail image or book file) owned by
// the backend's file storage.
type FileRef struct {
	URL string `json:"url"`
}

type Book struct {
	ID          string  `json:"_id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Description string  `json:"description"`
	Genre       string  `json:"genre"`
	Featured    bool    `json:"featured"`
	Thumbnail   FileRef `json:"thumbnail"`
	Book        FileRef `json:"book"`
}

type BookInput struct {
	Title       string `validate:"required"`
	Author      string `validate:"required"`
	Description string `validate:"required"`
	Genre       string `validate:"required"`
	Featured    bool
}

// BookPage is the response shape of GET /books: the page of books plus the
// pagination metadata fields alongside it.
type BookPage struct {
	Data        []Book `json:"data"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	TotalBooks  int    `json:"totalBooks"`
}

type BookResponse struct {
	Book Book `json:"book"`
}
