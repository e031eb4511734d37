package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkarpov/blogify/internal/apperrors"
	"github.com/nkarpov/blogify/internal/handlers/render"
	"github.com/nkarpov/blogify/internal/logger"
	"github.com/nkarpov/blogify/internal/models"
)

type categoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func toCategoryResponse(c models.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func handleCreateCategory(categoryService categoryService, l logger.Logger) http.Handler {
	type request struct {
		Name        string `json:"name" validate:"required,min=2,max=100"`
		Description string `json:"description" validate:"max=500"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		created, err := categoryService.Create(r.Context(), data.Name, data.Description)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrCategoryAlreadyExists):
				render.ServiceError(w, "Category already exists", http.StatusConflict)
			default:
				l.Error("Failed to create category", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSONWithStatus(w, toCategoryResponse(created), http.StatusCreated)
	})
}

func handleUpdateCategory(categoryService categoryService, l logger.Logger) http.Handler {
	type request struct {
		Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
		Description *string `json:"description" validate:"omitempty,max=500"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid category id", http.StatusBadRequest)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		updated, err := categoryService.Update(r.Context(), categoryID, data.Name, data.Description)
		switch {
		case err == nil:
			render.JSON(w, toCategoryResponse(updated))
		case errors.Is(err, apperrors.ErrCategoryNotFound):
			render.ServiceError(w, "Category not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrCategoryAlreadyExists):
			render.ServiceError(w, "Category already exists", http.StatusConflict)
		default:
			l.Error("Failed to update category", "error", err, "category_id", categoryID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleDeleteCategory(categoryService categoryService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid category id", http.StatusBadRequest)
			return
		}

		err = categoryService.Delete(r.Context(), categoryID)
		switch {
		case err == nil:
			render.JSON(w, response{Message: "Category deleted successfully"})
		case errors.Is(err, apperrors.ErrCategoryNotFound):
			render.ServiceError(w, "Category not found", http.StatusNotFound)
		default:
			l.Error("Failed to delete category", "error", err, "category_id", categoryID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleGetCategory(categoryService categoryService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid category id", http.StatusBadRequest)
			return
		}

		found, err := categoryService.Get(r.Context(), categoryID)
		switch {
		case err == nil:
			render.JSON(w, toCategoryResponse(found))
		case errors.Is(err, apperrors.ErrCategoryNotFound):
			render.ServiceError(w, "Category not found", http.StatusNotFound)
		default:
			l.Error("Failed to get category", "error", err, "category_id", categoryID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListCategories(categoryService categoryService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		categories, err := categoryService.List(r.Context())
		if err != nil {
			l.Error("Failed to list categories", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		out := make([]categoryResponse, 0, len(categories))
		for _, c := range categories {
			out = append(out, toCategoryResponse(c))
		}
		render.JSON(w, out)
	})
}
