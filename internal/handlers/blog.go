package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nkarpov/blogify/internal/apperrors"
	"github.com/nkarpov/blogify/internal/handlers/render"
	"github.com/nkarpov/blogify/internal/handlers/userctx"
	"github.com/nkarpov/blogify/internal/logger"
	"github.com/nkarpov/blogify/internal/models"
	"github.com/nkarpov/blogify/internal/service/blog"
)

// Thumbnails are images, anything bigger than this is not a thumbnail
const maxThumbnailBytes = 10 << 20

type blogResponse struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Subtitle     string    `json:"subtitle"`
	Description  string    `json:"description"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	AuthorID     uuid.UUID `json:"author_id"`
	AuthorName   string    `json:"author_name,omitempty"`
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	IsPublished  bool      `json:"is_published"`
	CreatedAt    time.Time `json:"created_at"`
}

func toBlogResponse(b models.Blog) blogResponse {
	return blogResponse{
		ID:           b.ID,
		Title:        b.Title,
		Subtitle:     b.Subtitle,
		Description:  b.Description,
		Thumbnail:    b.Thumbnail,
		AuthorID:     b.AuthorID,
		AuthorName:   b.AuthorName,
		CategoryID:   b.CategoryID,
		CategoryName: b.CategoryName,
		IsPublished:  b.IsPublished,
		CreatedAt:    b.CreatedAt,
	}
}

// readThumbnail pulls the optional 'thumbnail' file out of a multipart form.
// Returns nil data when the field is absent.
func readThumbnail(r *http.Request) (data []byte, contentType string, err error) {
	file, header, err := r.FormFile("thumbnail")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return nil, "", nil
	case err != nil:
		return nil, "", err
	}
	defer file.Close() //nolint:errcheck

	data, err = io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}

	return data, thumbnailContentType(header), nil
}

func thumbnailContentType(header *multipart.FileHeader) string {
	ct := header.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ct
}

func handleCreateBlog(blogService blogService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxThumbnailBytes)
		if err := r.ParseMultipartForm(maxThumbnailBytes); err != nil {
			render.ServiceError(w, "Failed to parse multipart form", http.StatusBadRequest)
			return
		}

		categoryID, err := uuid.Parse(r.FormValue("category"))
		if err != nil {
			render.ServiceError(w, "Invalid category id", http.StatusBadRequest)
			return
		}

		thumbnail, thumbnailType, err := readThumbnail(r)
		if err != nil {
			render.ServiceError(w, "Failed to read thumbnail", http.StatusBadRequest)
			return
		}

		params := blog.CreateParams{
			Title:         r.FormValue("title"),
			Subtitle:      r.FormValue("subtitle"),
			Description:   r.FormValue("description"),
			CategoryID:    categoryID,
			IsPublished:   r.FormValue("isPublished") == "true",
			Thumbnail:     thumbnail,
			ThumbnailType: thumbnailType,
		}
		if params.Title == "" {
			render.ServiceError(w, "Title is required", http.StatusBadRequest)
			return
		}

		created, err := blogService.Create(r.Context(), user, params)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrCategoryNotFound):
				render.ServiceError(w, "Category not found", http.StatusBadRequest)
			default:
				l.Error("Failed to create blog", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSONWithStatus(w, toBlogResponse(created), http.StatusCreated)
	})
}

func handleUpdateBlog(blogService blogService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blogID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid blog id", http.StatusBadRequest)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxThumbnailBytes)
		if err := r.ParseMultipartForm(maxThumbnailBytes); err != nil {
			render.ServiceError(w, "Failed to parse multipart form", http.StatusBadRequest)
			return
		}

		params := blog.UpdateParams{}
		// Multipart fields are optional on update: absent means keep as is
		if v := r.FormValue("title"); r.Form.Has("title") {
			params.Title = &v
		}
		if v := r.FormValue("subtitle"); r.Form.Has("subtitle") {
			params.Subtitle = &v
		}
		if v := r.FormValue("description"); r.Form.Has("description") {
			params.Description = &v
		}
		if r.Form.Has("category") {
			categoryID, err := uuid.Parse(r.FormValue("category"))
			if err != nil {
				render.ServiceError(w, "Invalid category id", http.StatusBadRequest)
				return
			}
			params.CategoryID = &categoryID
		}
		if r.Form.Has("isPublished") {
			published := r.FormValue("isPublished") == "true"
			params.IsPublished = &published
		}

		params.Thumbnail, params.ThumbnailType, err = readThumbnail(r)
		if err != nil {
			render.ServiceError(w, "Failed to read thumbnail", http.StatusBadRequest)
			return
		}

		updated, err := blogService.Update(r.Context(), blogID, params)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrBlogNotFound):
				render.ServiceError(w, "Blog not found", http.StatusNotFound)
			case errors.Is(err, apperrors.ErrCategoryNotFound):
				render.ServiceError(w, "Category not found", http.StatusBadRequest)
			default:
				l.Error("Failed to update blog", "error", err, "blog_id", blogID)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, toBlogResponse(updated))
	})
}

func handleDeleteBlog(blogService blogService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blogID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid blog id", http.StatusBadRequest)
			return
		}

		err = blogService.Delete(r.Context(), blogID)
		switch {
		case err == nil:
			render.JSON(w, response{Message: "Blog deleted successfully"})
		case errors.Is(err, apperrors.ErrBlogNotFound):
			render.ServiceError(w, "Blog not found", http.StatusNotFound)
		default:
			l.Error("Failed to delete blog", "error", err, "blog_id", blogID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListBlogs(blogService blogService, l logger.Logger) http.Handler {
	type response struct {
		Blogs       []blogResponse `json:"blogs"`
		TotalBlogs  int64          `json:"total_blogs"`
		TotalPages  int64          `json:"total_pages"`
		CurrentPage int64          `json:"current_page"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := blog.ListParams{}

		query := r.URL.Query()
		if raw := query.Get("category"); raw != "" {
			categoryID, err := uuid.Parse(raw)
			if err != nil {
				render.ServiceError(w, "Invalid category id", http.StatusBadRequest)
				return
			}
			params.CategoryID = categoryID
		}
		params.Search = query.Get("search")
		if raw := query.Get("page"); raw != "" {
			page, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || page < 1 {
				render.ServiceError(w, "Invalid page number", http.StatusBadRequest)
				return
			}
			params.Page = page
		}
		if raw := query.Get("limit"); raw != "" {
			limit, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || limit < 1 {
				render.ServiceError(w, "Invalid page limit", http.StatusBadRequest)
				return
			}
			params.Limit = limit
		}

		page, err := blogService.List(r.Context(), params)
		if err != nil {
			l.Error("Failed to list blogs", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		blogs := make([]blogResponse, 0, len(page.Blogs))
		for _, b := range page.Blogs {
			blogs = append(blogs, toBlogResponse(b))
		}
		render.JSON(w, response{
			Blogs:       blogs,
			TotalBlogs:  page.TotalBlogs,
			TotalPages:  page.TotalPages,
			CurrentPage: page.CurrentPage,
		})
	})
}

func handleGetBlog(blogService blogService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blogID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid blog id", http.StatusBadRequest)
			return
		}

		// Viewer is optional here: the route is public but admins may see
		// unpublished blogs, so pass the principal through when present
		var viewer *models.User
		if user, ok := userctx.FromContext(r.Context()); ok {
			viewer = &user
		}

		found, err := blogService.Get(r.Context(), blogID, viewer)
		switch {
		case err == nil:
			render.JSON(w, toBlogResponse(found))
		case errors.Is(err, apperrors.ErrBlogNotFound):
			render.ServiceError(w, "Blog not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrBlogNotPublished):
			render.ServiceError(w, "Blog is not published", http.StatusForbidden)
		default:
			l.Error("Failed to get blog", "error", err, "blog_id", blogID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleToggleLike(blogService blogService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
		Liked   bool   `json:"liked"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		blogID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid blog id", http.StatusBadRequest)
			return
		}

		liked, err := blogService.ToggleLike(r.Context(), user, blogID)
		switch {
		case err == nil:
			message := "Blog unliked"
			if liked {
				message = "Blog liked"
			}
			render.JSON(w, response{Message: message, Liked: liked})
		case errors.Is(err, apperrors.ErrBlogNotFound):
			render.ServiceError(w, "Blog not found", http.StatusNotFound)
		default:
			l.Error("Failed to toggle like", "error", err, "blog_id", blogID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListLikedBlogs(blogService blogService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		liked, err := blogService.ListLiked(r.Context(), user)
		if err != nil {
			l.Error("Failed to list liked blogs", "error", err, "user_id", user.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		blogs := make([]blogResponse, 0, len(liked))
		for _, b := range liked {
			blogs = append(blogs, toBlogResponse(b))
		}
		render.JSON(w, blogs)
	})
}
