package blog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkarpov/blogify/internal/apperrors"
	"github.com/nkarpov/blogify/internal/models"
	"github.com/nkarpov/blogify/internal/repository"
)

// ImageStore is the external object storage the thumbnails live in
type ImageStore interface {
	// Upload stores the buffer and returns the public URL and storage key
	Upload(ctx context.Context, data []byte, contentType string) (url string, key string, err error)

	// Delete removes the object. Deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
}

type CreateParams struct {
	Title       string
	Subtitle    string
	Description string
	CategoryID  uuid.UUID
	IsPublished bool

	// Optional thumbnail buffer, skipped when empty
	Thumbnail     []byte
	ThumbnailType string
}

type UpdateParams struct {
	Title       *string
	Subtitle    *string
	Description *string
	CategoryID  *uuid.UUID
	IsPublished *bool

	Thumbnail     []byte
	ThumbnailType string
}

type ListParams struct {
	CategoryID uuid.UUID
	Search     string
	Page       int64
	Limit      int64
}

type BlogService struct {
	blogRepo repository.BlogRepo
	images   ImageStore
}

func NewService(blogRepo repository.BlogRepo, images ImageStore) (*BlogService, error) {
	if blogRepo == nil || images == nil {
		return nil, errors.New("blog repo and image store must not be nil")
	}

	return &BlogService{blogRepo: blogRepo, images: images}, nil
}

func (s *BlogService) Create(ctx context.Context, author models.User, params CreateParams) (models.Blog, error) {
	blog := models.Blog{
		Title:       params.Title,
		Subtitle:    params.Subtitle,
		Description: params.Description,
		AuthorID:    author.ID,
		CategoryID:  params.CategoryID,
		IsPublished: params.IsPublished,
	}

	if len(params.Thumbnail) > 0 {
		url, key, err := s.images.Upload(ctx, params.Thumbnail, params.ThumbnailType)
		if err != nil {
			return models.Blog{}, fmt.Errorf("can't upload thumbnail. Err: %w", err)
		}
		blog.Thumbnail = url
		blog.ThumbnailKey = key
	}

	created, err := s.blogRepo.CreateBlog(ctx, blog)
	if err != nil {
		return models.Blog{}, err
	}

	return created, nil
}

func (s *BlogService) Update(ctx context.Context, blogID uuid.UUID, params UpdateParams) (models.Blog, error) {
	blog, err := s.blogRepo.GetBlogByID(ctx, blogID)
	if err != nil {
		return models.Blog{}, err
	}

	repoParams := repository.UpdateBlogParams{
		Title:       params.Title,
		Subtitle:    params.Subtitle,
		Description: params.Description,
		CategoryID:  params.CategoryID,
		IsPublished: params.IsPublished,
	}

	if len(params.Thumbnail) > 0 {
		if blog.ThumbnailKey != "" {
			if err := s.images.Delete(ctx, blog.ThumbnailKey); err != nil {
				return models.Blog{}, fmt.Errorf("can't delete old thumbnail. Err: %w", err)
			}
		}

		url, key, err := s.images.Upload(ctx, params.Thumbnail, params.ThumbnailType)
		if err != nil {
			return models.Blog{}, fmt.Errorf("can't upload thumbnail. Err: %w", err)
		}
		repoParams.Thumbnail = &url
		repoParams.ThumbnailKey = &key
	}

	return s.blogRepo.UpdateBlog(ctx, blogID, repoParams)
}

func (s *BlogService) Delete(ctx context.Context, blogID uuid.UUID) error {
	blog, err := s.blogRepo.GetBlogByID(ctx, blogID)
	if err != nil {
		return err
	}

	if blog.ThumbnailKey != "" {
		if err := s.images.Delete(ctx, blog.ThumbnailKey); err != nil {
			return fmt.Errorf("can't delete thumbnail. Err: %w", err)
		}
	}

	return s.blogRepo.DeleteBlog(ctx, blogID)
}

// List returns published blogs only: it serves the public listing
func (s *BlogService) List(ctx context.Context, params ListParams) (models.BlogPage, error) {
	return s.blogRepo.ListBlogs(ctx, repository.ListBlogsParams{
		CategoryID:    params.CategoryID,
		Search:        params.Search,
		PublishedOnly: true,
		Page:          params.Page,
		Limit:         params.Limit,
	})
}

// Get returns the blog. Unpublished blogs are visible to admins only:
// everyone else gets ErrBlogNotPublished
func (s *BlogService) Get(ctx context.Context, blogID uuid.UUID, viewer *models.User) (models.Blog, error) {
	blog, err := s.blogRepo.GetBlogByID(ctx, blogID)
	if err != nil {
		return models.Blog{}, err
	}

	if !blog.IsPublished && (viewer == nil || !viewer.IsAdmin()) {
		return models.Blog{}, apperrors.ErrBlogNotPublished
	}

	return blog, nil
}

// ToggleLike likes the blog for the user, or removes the like if it exists.
// Returns true if the blog is liked after the call
func (s *BlogService) ToggleLike(ctx context.Context, user models.User, blogID uuid.UUID) (bool, error) {
	// Ensure the blog exists so a like on a missing blog is a 404, not a row
	if _, err := s.blogRepo.GetBlogByID(ctx, blogID); err != nil {
		return false, err
	}

	return s.blogRepo.ToggleLike(ctx, user.ID, blogID)
}

func (s *BlogService) ListLiked(ctx context.Context, user models.User) ([]models.Blog, error) {
	return s.blogRepo.ListLikedBlogs(ctx, user.ID)
}
