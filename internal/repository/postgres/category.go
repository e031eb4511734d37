package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkarpov/blogify/internal/apperrors"
	"github.com/nkarpov/blogify/internal/models"
)

type CategoryRepo struct {
	DB DBTX
}

const createCategory = `-- name: CreateCategory
INSERT INTO categories (id, name, description)
VALUES ($1, $2, $3)
RETURNING id, created_at, name, description
`

func (r *CategoryRepo) CreateCategory(ctx context.Context, name string, description string) (models.Category, error) {
	rows, _ := r.DB.Query(ctx, createCategory, uuid.New(), name, description)
	category, err := pgx.CollectOneRow(rows, rowToCategory)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return category, apperrors.ErrCategoryAlreadyExists
		}
		return category, fmt.Errorf("db error: %w", err)
	}

	return category, nil
}

const getCategoryByID = `-- name: GetCategoryByID
SELECT id, created_at, name, description FROM categories
WHERE id = $1
`

func (r *CategoryRepo) GetCategoryByID(ctx context.Context, categoryID uuid.UUID) (models.Category, error) {
	rows, _ := r.DB.Query(ctx, getCategoryByID, categoryID)
	category, err := pgx.CollectOneRow(rows, rowToCategory)

	switch {
	case err == nil:
		return category, nil
	case errors.Is(err, pgx.ErrNoRows):
		return category, apperrors.ErrCategoryNotFound
	default:
		return category, fmt.Errorf("db error: %w", err)
	}
}

const updateCategory = `-- name: UpdateCategory partial
UPDATE categories
SET name = COALESCE($2, name),
    description = COALESCE($3, description)
WHERE id = $1
RETURNING id, created_at, name, description
`

func (r *CategoryRepo) UpdateCategory(ctx context.Context, categoryID uuid.UUID, name *string, description *string) (models.Category, error) {
	rows, _ := r.DB.Query(ctx, updateCategory, categoryID, name, description)
	category, err := pgx.CollectOneRow(rows, rowToCategory)

	switch {
	case err == nil:
		return category, nil
	case errors.Is(err, pgx.ErrNoRows):
		return category, apperrors.ErrCategoryNotFound
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return category, apperrors.ErrCategoryAlreadyExists
		}
		return category, fmt.Errorf("db error: %w", err)
	}
}

const deleteCategory = `-- name: DeleteCategory
DELETE FROM categories
WHERE id = $1
`

func (r *CategoryRepo) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteCategory, categoryID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

const listCategories = `-- name: ListCategories
SELECT id, created_at, name, description FROM categories
ORDER BY created_at DESC
`

func (r *CategoryRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, _ := r.DB.Query(ctx, listCategories)
	categories, err := pgx.CollectRows(rows, rowToCategory)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return categories, nil
}

func rowToCategory(row pgx.CollectableRow) (models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.CreatedAt, &c.Name, &c.Description)
	return c, err
}
