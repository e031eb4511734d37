package category

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nkarpov/blogify/internal/models"
	"github.com/nkarpov/blogify/internal/repository"
)

type CategoryService struct {
	categoryRepo repository.CategoryRepo
}

func NewService(categoryRepo repository.CategoryRepo) (*CategoryService, error) {
	if categoryRepo == nil {
		return nil, errors.New("category repo must not be nil")
	}

	return &CategoryService{categoryRepo: categoryRepo}, nil
}

func (s *CategoryService) Create(ctx context.Context, name string, description string) (models.Category, error) {
	return s.categoryRepo.CreateCategory(ctx, name, description)
}

func (s *CategoryService) Get(ctx context.Context, categoryID uuid.UUID) (models.Category, error) {
	return s.categoryRepo.GetCategoryByID(ctx, categoryID)
}

func (s *CategoryService) Update(ctx context.Context, categoryID uuid.UUID, name *string, description *string) (models.Category, error) {
	return s.categoryRepo.UpdateCategory(ctx, categoryID, name, description)
}

func (s *CategoryService) Delete(ctx context.Context, categoryID uuid.UUID) error {
	return s.categoryRepo.DeleteCategory(ctx, categoryID)
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.ListCategories(ctx)
}
