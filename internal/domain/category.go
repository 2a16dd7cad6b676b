package domain

// Category groups books. A category cannot be deleted while books reference it.
type Category struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Timestamps
	BooksCount int64 `json:"books_count"`

	// Books holds the caller's own books in this category.
	// Only populated on list and show.
	Books []*Book `json:"books,omitzero"`
}
