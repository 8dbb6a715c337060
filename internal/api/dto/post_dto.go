package dto

import "time"

// CreatePostRequest is the payload for publishing a post.
type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PostResponse is the wire shape for a post.
type PostResponse struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"authorId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
