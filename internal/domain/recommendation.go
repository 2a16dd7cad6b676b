package domain

// Recommendation is a free-text note linking a user to a book.
type Recommendation struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	BookID  int64  `json:"book_id"`
	Message string `json:"recommendation_message"`
	Timestamps
}
