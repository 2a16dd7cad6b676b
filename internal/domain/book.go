package domain

// Upload directories for book files, relative to the storage root.
const (
	CoverImageDir = "cover_images"
	PDFDir        = "pdfs"
)

// Book is owned by exactly one user and belongs to one category.
type Book struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	CategoryID  int64   `json:"category_id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Description *string `json:"description"`
	CoverImage  *string `json:"cover_image"`
	PDFFile     *string `json:"pdf_file"`
	Timestamps
}

// IsOwnedBy reports whether the book belongs to userID.
func (b *Book) IsOwnedBy(userID int64) bool {
	return b.UserID == userID
}

// BookFilter narrows a book listing.
type BookFilter struct {
	UserID     int64
	CategoryID *int64
}
