package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkarpov/blogify/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with same email exists must return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, name string, email string, hashedPassword string, role string) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// Session registry interface: user id -> currently valid refresh token.
// At most one entry per user.
type SessionRepo interface {
	// Store the refresh token for the user, overwriting any existing entry
	Put(ctx context.Context, userID uuid.UUID, refreshToken string, expiresAt time.Time) error

	// Return the current entry for the user
	// Absent or expired entries must return apperrors.ErrSessionNotFound
	Get(ctx context.Context, userID uuid.UUID) (models.Session, error)

	// Remove the entry. Deleting an absent entry is not an error
	Delete(ctx context.Context, userID uuid.UUID) error

	// Remove entries whose expiry has passed
	DeleteExpired(ctx context.Context) (int64, error)
}

type ListBlogsParams struct {
	// Zero CategoryID means no category filter
	CategoryID uuid.UUID

	// Case insensitive match against title and description, empty means no filter
	Search string

	// Only published blogs are listed when true
	PublishedOnly bool

	Page  int64
	Limit int64
}

type UpdateBlogParams struct {
	Title        *string
	Subtitle     *string
	Description  *string
	Thumbnail    *string
	ThumbnailKey *string
	CategoryID   *uuid.UUID
	IsPublished  *bool
}

// Blog repository interface
type BlogRepo interface {
	CreateBlog(ctx context.Context, blog models.Blog) (models.Blog, error)

	// If blog not found must return apperrors.ErrBlogNotFound
	GetBlogByID(ctx context.Context, blogID uuid.UUID) (models.Blog, error)
	UpdateBlog(ctx context.Context, blogID uuid.UUID, params UpdateBlogParams) (models.Blog, error)
	DeleteBlog(ctx context.Context, blogID uuid.UUID) error

	ListBlogs(ctx context.Context, params ListBlogsParams) (models.BlogPage, error)

	// Toggle like for the pair (userID, blogID). Returns true if the blog
	// is liked after the call
	ToggleLike(ctx context.Context, userID uuid.UUID, blogID uuid.UUID) (bool, error)
	ListLikedBlogs(ctx context.Context, userID uuid.UUID) ([]models.Blog, error)
}

// Category repository interface
type CategoryRepo interface {
	// If category with same name exists must return apperrors.ErrCategoryAlreadyExists
	CreateCategory(ctx context.Context, name string, description string) (models.Category, error)

	// If category not found must return apperrors.ErrCategoryNotFound
	GetCategoryByID(ctx context.Context, categoryID uuid.UUID) (models.Category, error)
	UpdateCategory(ctx context.Context, categoryID uuid.UUID, name *string, description *string) (models.Category, error)
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) error

	ListCategories(ctx context.Context) ([]models.Category, error)
}

// Storage aggregates all repositories over a single connection or transaction
type Storage interface {
	User() UserRepo
	Session() SessionRepo
	Blog() BlogRepo
	Category() CategoryRepo

	InTx(ctx context.Context, fn func(Storage) error) error
}
