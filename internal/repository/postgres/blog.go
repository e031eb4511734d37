package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkarpov/blogify/internal/apperrors"
	"github.com/nkarpov/blogify/internal/models"
	"github.com/nkarpov/blogify/internal/repository"
)

type BlogRepo struct {
	DB DBTX
}

// Constraint name from the schema migration. Only a violation of this exact
// constraint means the category is gone, other FK failures stay db errors
const blogCategoryFK = "blogs_category_id_fkey"

func isCategoryFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.ForeignKeyViolation &&
		pgErr.ConstraintName == blogCategoryFK
}

const createBlog = `-- name: CreateBlog
INSERT INTO blogs (id, title, subtitle, description, thumbnail, thumbnail_key, author_id, category_id, is_published)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id
`

func (r *BlogRepo) CreateBlog(ctx context.Context, blog models.Blog) (models.Blog, error) {
	if blog.ID == uuid.Nil {
		blog.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createBlog,
		blog.ID, blog.Title, blog.Subtitle, blog.Description,
		blog.Thumbnail, blog.ThumbnailKey, blog.AuthorID, blog.CategoryID, blog.IsPublished,
	)
	id, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		if isCategoryFKViolation(err) {
			return blog, apperrors.ErrCategoryNotFound
		}
		return blog, fmt.Errorf("db error: %w", err)
	}

	return r.GetBlogByID(ctx, id)
}

const getBlogByID = `-- name: GetBlogByID with author and category names
SELECT b.id, b.created_at, b.title, b.subtitle, b.description,
       b.thumbnail, b.thumbnail_key, b.author_id, b.category_id, b.is_published,
       u.name, c.name
FROM blogs b
JOIN users u ON u.id = b.author_id
JOIN categories c ON c.id = b.category_id
WHERE b.id = $1
`

func (r *BlogRepo) GetBlogByID(ctx context.Context, blogID uuid.UUID) (models.Blog, error) {
	rows, _ := r.DB.Query(ctx, getBlogByID, blogID)
	blog, err := pgx.CollectOneRow(rows, rowToBlog)

	switch {
	case err == nil:
		return blog, nil
	case errors.Is(err, pgx.ErrNoRows):
		return blog, apperrors.ErrBlogNotFound
	default:
		return blog, fmt.Errorf("db error: %w", err)
	}
}

const updateBlog = `-- name: UpdateBlog partial
UPDATE blogs
SET title = COALESCE($2, title),
    subtitle = COALESCE($3, subtitle),
    description = COALESCE($4, description),
    thumbnail = COALESCE($5, thumbnail),
    thumbnail_key = COALESCE($6, thumbnail_key),
    category_id = COALESCE($7, category_id),
    is_published = COALESCE($8, is_published)
WHERE id = $1
RETURNING id
`

func (r *BlogRepo) UpdateBlog(ctx context.Context, blogID uuid.UUID, params repository.UpdateBlogParams) (models.Blog, error) {
	rows, _ := r.DB.Query(ctx, updateBlog,
		blogID,
		params.Title, params.Subtitle, params.Description,
		params.Thumbnail, params.ThumbnailKey, params.CategoryID, params.IsPublished,
	)
	id, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	switch {
	case err == nil:
		return r.GetBlogByID(ctx, id)
	case errors.Is(err, pgx.ErrNoRows):
		return models.Blog{}, apperrors.ErrBlogNotFound
	default:
		if isCategoryFKViolation(err) {
			return models.Blog{}, apperrors.ErrCategoryNotFound
		}
		return models.Blog{}, fmt.Errorf("db error: %w", err)
	}
}

const deleteBlog = `-- name: DeleteBlog
DELETE FROM blogs
WHERE id = $1
`

func (r *BlogRepo) DeleteBlog(ctx context.Context, blogID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteBlog, blogID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrBlogNotFound
	}
	return nil
}

func (r *BlogRepo) ListBlogs(ctx context.Context, params repository.ListBlogsParams) (models.BlogPage, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 10
	}

	where := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if params.PublishedOnly {
		where = append(where, "b.is_published")
	}
	if params.CategoryID != uuid.Nil {
		args = append(args, params.CategoryID)
		where = append(where, fmt.Sprintf("b.category_id = $%d", len(args)))
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = append(where, fmt.Sprintf("(b.title ILIKE $%d OR b.description ILIKE $%d)", len(args), len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT count(*) FROM blogs b %s`, whereClause)
	rows, _ := r.DB.Query(ctx, countQuery, args...)
	total, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return models.BlogPage{}, fmt.Errorf("db error: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT b.id, b.created_at, b.title, b.subtitle, b.description,
		       b.thumbnail, b.thumbnail_key, b.author_id, b.category_id, b.is_published,
		       u.name, c.name
		FROM blogs b
		JOIN users u ON u.id = b.author_id
		JOIN categories c ON c.id = b.category_id
		%s
		ORDER BY b.created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, len(args)+1, len(args)+2,
	)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, _ = r.DB.Query(ctx, listQuery, args...)
	blogs, err := pgx.CollectRows(rows, rowToBlog)
	if err != nil {
		return models.BlogPage{}, fmt.Errorf("db error: %w", err)
	}

	return models.BlogPage{
		Blogs:       blogs,
		TotalBlogs:  total,
		TotalPages:  (total + params.Limit - 1) / params.Limit,
		CurrentPage: params.Page,
	}, nil
}

const deleteLike = `-- name: DeleteLike
DELETE FROM blog_likes
WHERE user_id = $1 AND blog_id = $2
`

const insertLike = `-- name: InsertLike
INSERT INTO blog_likes (user_id, blog_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

// ToggleLike removes the like if present, creates it otherwise.
// The delete-first order makes a concurrent double toggle settle as liked
func (r *BlogRepo) ToggleLike(ctx context.Context, userID uuid.UUID, blogID uuid.UUID) (bool, error) {
	tag, err := r.DB.Exec(ctx, deleteLike, userID, blogID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = r.DB.Exec(ctx, insertLike, userID, blogID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return false, apperrors.ErrBlogNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}

	return true, nil
}

const listLikedBlogs = `-- name: ListLikedBlogs
SELECT b.id, b.created_at, b.title, b.subtitle, b.description,
       b.thumbnail, b.thumbnail_key, b.author_id, b.category_id, b.is_published,
       u.name, c.name
FROM blog_likes l
JOIN blogs b ON b.id = l.blog_id
JOIN users u ON u.id = b.author_id
JOIN categories c ON c.id = b.category_id
WHERE l.user_id = $1
ORDER BY l.created_at DESC
`

func (r *BlogRepo) ListLikedBlogs(ctx context.Context, userID uuid.UUID) ([]models.Blog, error) {
	rows, _ := r.DB.Query(ctx, listLikedBlogs, userID)
	blogs, err := pgx.CollectRows(rows, rowToBlog)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return blogs, nil
}

func rowToBlog(row pgx.CollectableRow) (models.Blog, error) {
	var b models.Blog
	err := row.Scan(
		&b.ID, &b.CreatedAt, &b.Title, &b.Subtitle, &b.Description,
		&b.Thumbnail, &b.ThumbnailKey, &b.AuthorID, &b.CategoryID, &b.IsPublished,
		&b.AuthorName, &b.CategoryName,
	)
	return b, err
}
