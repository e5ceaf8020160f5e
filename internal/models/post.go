package models

import "time"

// DefaultCategory is applied when a post is created or updated without one.
const DefaultCategory = "general"

// Post is a piece of content authored by a user. AuthorUsername is copied
// from the author at creation time and is not kept in sync afterwards.
type Post struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Title          string    `gorm:"not null" json:"title"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Category       string    `gorm:"not null" json:"category"`
	AuthorID       string    `gorm:"size:36;index;not null" json:"author_id"`
	AuthorUsername string    `gorm:"not null" json:"author_username"`
	CreatedAt      time.Time `gorm:"index;autoCreateTime:false;not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime:false;not null" json:"updated_at"`
}

// CreatePostRequest is the body of POST /posts.
type CreatePostRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Category *string `json:"category"`
}

// UpdatePostRequest is the body of PUT /posts/{id}. Nil fields are left
// untouched.
type UpdatePostRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
}

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// RootResponse is returned by GET /.
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}
