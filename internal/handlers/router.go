package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkarpov/blogify/internal/handlers/middleware"
	"github.com/nkarpov/blogify/internal/handlers/render"
	"github.com/nkarpov/blogify/internal/logger"
	"github.com/nkarpov/blogify/internal/models"
	"github.com/nkarpov/blogify/internal/service/blog"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	auth authService,
	blogService blogService,
	categoryService categoryService,
	l logger.Logger,
) http.Handler {
	guard := middleware.NewAuth(auth)
	protected := func(h http.Handler) http.Handler {
		return guard.Protect(h)
	}
	adminOnly := func(h http.Handler) http.Handler {
		return guard.Protect(guard.AdminOnly(h))
	}

	apiauth := http.NewServeMux()
	apiauth.Handle("POST /register", handleRegister(auth, l))
	apiauth.Handle("POST /login", handleLogin(auth, models.RoleUser, l))
	apiauth.Handle("POST /admin/login", handleLogin(auth, models.RoleAdmin, l))
	apiauth.Handle("POST /refresh", handleRefresh(auth, l))
	apiauth.Handle("POST /logout", protected(handleLogout(auth, l)))
	apiauth.Handle("GET /me", protected(handleUserMe()))

	apiblogs := http.NewServeMux()
	apiblogs.Handle("GET /all", handleListBlogs(blogService, l))
	apiblogs.Handle("GET /liked", protected(handleListLikedBlogs(blogService, l)))
	apiblogs.Handle("GET /{id}", guard.Identify(handleGetBlog(blogService, l)))
	apiblogs.Handle("POST /likes/{id}", protected(handleToggleLike(blogService, l)))
	apiblogs.Handle("POST /create", adminOnly(handleCreateBlog(blogService, l)))
	apiblogs.Handle("PUT /update/{id}", adminOnly(handleUpdateBlog(blogService, l)))
	apiblogs.Handle("DELETE /delete/{id}", adminOnly(handleDeleteBlog(blogService, l)))

	apicategories := http.NewServeMux()
	apicategories.Handle("GET /all", handleListCategories(categoryService, l))
	apicategories.Handle("GET /{id}", handleGetCategory(categoryService, l))
	apicategories.Handle("POST /create", adminOnly(handleCreateCategory(categoryService, l)))
	apicategories.Handle("PUT /update/{id}", adminOnly(handleUpdateCategory(categoryService, l)))
	apicategories.Handle("DELETE /delete/{id}", adminOnly(handleDeleteCategory(categoryService, l)))

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", apiauth))
	root.Handle("/api/blogs/", http.StripPrefix("/api/blogs", apiblogs))
	root.Handle("/api/categories/", http.StripPrefix("/api/categories", apicategories))
	root.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		render.JSON(w, map[string]string{"status": "ok"})
	})

	handler := chain(root,
		middleware.LoggerMiddleware(l),
	)

	return handler
}

type authService interface {
	// Register user with name, email and password. New users always get the
	// regular role. Has to return apperrors.ErrUserAlreadyExists on
	// duplicate email.
	Register(ctx context.Context, name string, email string, password string) (models.User, error)

	// Login user with email and password for the given role entry point.
	// Has to return apperrors.ErrUserNotFound if user not found,
	// apperrors.ErrRoleMismatch if the account role differs from wantRole
	// and apperrors.ErrInvalidCredentials on password mismatch.
	Login(ctx context.Context, email string, password string, wantRole string) (models.TokenPair, models.User, error)

	// Refresh the pair using a presented refresh token.
	// Anything but a signed, unexpired token that exactly matches the
	// stored session has to fail with apperrors.ErrRefreshRejected.
	Refresh(ctx context.Context, presented string) (models.TokenPair, error)

	// Logout drops the user's session. Idempotent.
	Logout(ctx context.Context, userID uuid.UUID) error

	// Set auth tokens (access, refresh) cookies on the response
	SetTokens(w http.ResponseWriter, pair models.TokenPair)

	// Expire both auth cookies
	ClearTokens(w http.ResponseWriter)

	// Get refresh token from request
	ReadRefreshToken(r *http.Request) (string, error)

	// Get request and return user if it authenticated or error
	UserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type blogService interface {
	Create(ctx context.Context, author models.User, params blog.CreateParams) (models.Blog, error)
	Update(ctx context.Context, blogID uuid.UUID, params blog.UpdateParams) (models.Blog, error)
	Delete(ctx context.Context, blogID uuid.UUID) error
	List(ctx context.Context, params blog.ListParams) (models.BlogPage, error)
	Get(ctx context.Context, blogID uuid.UUID, viewer *models.User) (models.Blog, error)
	ToggleLike(ctx context.Context, user models.User, blogID uuid.UUID) (bool, error)
	ListLiked(ctx context.Context, user models.User) ([]models.Blog, error)
}

type categoryService interface {
	Create(ctx context.Context, name string, description string) (models.Category, error)
	Get(ctx context.Context, categoryID uuid.UUID) (models.Category, error)
	Update(ctx context.Context, categoryID uuid.UUID, name *string, description *string) (models.Category, error)
	Delete(ctx context.Context, categoryID uuid.UUID) error
	List(ctx context.Context) ([]models.Category, error)
}
