package e2e

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/nkarpov/blogify/internal/handlers"
	"github.com/nkarpov/blogify/internal/logger"
	"github.com/nkarpov/blogify/internal/repository"
	"github.com/nkarpov/blogify/internal/repository/postgres"
	"github.com/nkarpov/blogify/internal/service/auth"
	"github.com/nkarpov/blogify/internal/service/auth/tokenmanager"
	"github.com/nkarpov/blogify/internal/service/blog"
	"github.com/nkarpov/blogify/internal/service/category"
	"github.com/nkarpov/blogify/internal/testutil"
)

type Services struct {
	AuthService     *auth.AuthService
	BlogService     *blog.BlogService
	CategoryService *category.CategoryService
	Storage         repository.Storage
}

// ImageStore backed by a map, the tests don't need a real bucket
type FakeImageStore struct {
	Objects map[string][]byte
}

func (s *FakeImageStore) Upload(_ context.Context, data []byte, _ string) (string, string, error) {
	key := uuid.NewString()
	s.Objects[key] = data
	return "https://img.test/" + key, key, nil
}

func (s *FakeImageStore) Delete(_ context.Context, key string) error {
	delete(s.Objects, key)
	return nil
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		tokenManager, err := tokenmanager.New(tokenmanager.Config{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
		})
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, storage.User(), storage.Session())
		require.NoError(t, err, "auth service starting error")

		bs, err := blog.NewService(storage.Blog(), &FakeImageStore{Objects: map[string][]byte{}})
		require.NoError(t, err, "blog service starting error")

		cs, err := category.NewService(storage.Category())
		require.NoError(t, err, "category service starting error")

		router := handlers.NewRouter(as, bs, cs, logger.NewNoOpLogger())

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			AuthService:     as,
			BlogService:     bs,
			CategoryService: cs,
			Storage:         storage,
		})
	})
}
