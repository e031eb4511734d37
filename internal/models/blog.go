package models

import (
	"time"

	"github.com/google/uuid"
)

type Blog struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	Title        string
	Subtitle     string
	Description  string
	Thumbnail    string // public URL, empty if no thumbnail
	ThumbnailKey string // object storage key, empty if no thumbnail
	AuthorID     uuid.UUID
	CategoryID   uuid.UUID
	IsPublished  bool

	// Denormalized names filled by list/get queries
	AuthorName   string
	CategoryName string
}

// BlogPage is one page of a blog listing
type BlogPage struct {
	Blogs       []Blog
	TotalBlogs  int64
	TotalPages  int64
	CurrentPage int64
}
