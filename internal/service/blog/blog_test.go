package blog

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkarpov/blogify/internal/apperrors"
	"github.com/nkarpov/blogify/internal/models"
	"github.com/nkarpov/blogify/internal/repository/postgres"
	"github.com/nkarpov/blogify/internal/testutil"
)

// fakeImageStore records uploads and deletions instead of talking to S3
type fakeImageStore struct {
	nextKey int
	objects map[string][]byte
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{objects: map[string][]byte{}}
}

func (f *fakeImageStore) Upload(_ context.Context, data []byte, _ string) (string, string, error) {
	f.nextKey++
	key := fmt.Sprintf("blogs/fake/%d", f.nextKey)
	f.objects[key] = data
	return "https://img.test/" + key, key, nil
}

func (f *fakeImageStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func Test_BlogService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	type fixture struct {
		service  *BlogService
		images   *fakeImageStore
		admin    models.User
		user     models.User
		category models.Category
	}

	withTx := func(t *testing.T, fn func(f fixture)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			userRepo := &postgres.UserRepo{DB: tx}

			admin, err := userRepo.CreateUser(t.Context(), "Admin", "admin@example.com", "hashed", models.RoleAdmin)
			require.NoError(t, err)
			user, err := userRepo.CreateUser(t.Context(), "Reader", "reader@example.com", "hashed", models.RoleUser)
			require.NoError(t, err)

			category, err := (&postgres.CategoryRepo{DB: tx}).CreateCategory(t.Context(), "go", "")
			require.NoError(t, err)

			images := newFakeImageStore()
			service, err := NewService(&postgres.BlogRepo{DB: tx}, images)
			require.NoError(t, err)

			fn(fixture{service: service, images: images, admin: admin, user: user, category: category})
		})
	}

	t.Run("create with thumbnail", func(t *testing.T) {
		withTx(t, func(f fixture) {
			blog, err := f.service.Create(t.Context(), f.admin, CreateParams{
				Title:         "Post",
				CategoryID:    f.category.ID,
				IsPublished:   true,
				Thumbnail:     []byte("png-bytes"),
				ThumbnailType: "image/png",
			})

			require.NoError(t, err)
			assert.NotEmpty(t, blog.Thumbnail, "thumbnail URL should be set")
			assert.NotEmpty(t, blog.ThumbnailKey)
			assert.Len(t, f.images.objects, 1, "one object should be uploaded")
		})
	})

	t.Run("create without thumbnail", func(t *testing.T) {
		withTx(t, func(f fixture) {
			blog, err := f.service.Create(t.Context(), f.admin, CreateParams{
				Title:      "Plain post",
				CategoryID: f.category.ID,
			})

			require.NoError(t, err)
			assert.Empty(t, blog.Thumbnail)
			assert.Empty(t, f.images.objects, "nothing should be uploaded")
		})
	})

	t.Run("update replaces thumbnail object", func(t *testing.T) {
		withTx(t, func(f fixture) {
			blog, err := f.service.Create(t.Context(), f.admin, CreateParams{
				Title:         "Post",
				CategoryID:    f.category.ID,
				Thumbnail:     []byte("old"),
				ThumbnailType: "image/png",
			})
			require.NoError(t, err)
			oldKey := blog.ThumbnailKey

			updated, err := f.service.Update(t.Context(), blog.ID, UpdateParams{
				Thumbnail:     []byte("new"),
				ThumbnailType: "image/png",
			})

			require.NoError(t, err)
			assert.NotEqual(t, oldKey, updated.ThumbnailKey)
			assert.NotContains(t, f.images.objects, oldKey, "old object should be deleted")
			assert.Contains(t, f.images.objects, updated.ThumbnailKey)
		})
	})

	t.Run("delete removes thumbnail object", func(t *testing.T) {
		withTx(t, func(f fixture) {
			blog, err := f.service.Create(t.Context(), f.admin, CreateParams{
				Title:         "Post",
				CategoryID:    f.category.ID,
				Thumbnail:     []byte("bytes"),
				ThumbnailType: "image/png",
			})
			require.NoError(t, err)

			require.NoError(t, f.service.Delete(t.Context(), blog.ID))

			assert.Empty(t, f.images.objects, "object should be deleted with the blog")
			_, err = f.service.Get(t.Context(), blog.ID, &f.admin)
			require.ErrorIs(t, err, apperrors.ErrBlogNotFound)
		})
	})

	t.Run("unpublished blog visibility", func(t *testing.T) {
		withTx(t, func(f fixture) {
			draft, err := f.service.Create(t.Context(), f.admin, CreateParams{
				Title:      "Draft",
				CategoryID: f.category.ID,
			})
			require.NoError(t, err)

			_, err = f.service.Get(t.Context(), draft.ID, nil)
			require.ErrorIs(t, err, apperrors.ErrBlogNotPublished, "anonymous viewer should be refused")

			_, err = f.service.Get(t.Context(), draft.ID, &f.user)
			require.ErrorIs(t, err, apperrors.ErrBlogNotPublished, "regular user should be refused")

			got, err := f.service.Get(t.Context(), draft.ID, &f.admin)
			require.NoError(t, err, "admin should see the draft")
			assert.Equal(t, draft.ID, got.ID)

			page, err := f.service.List(t.Context(), ListParams{})
			require.NoError(t, err)
			assert.Zero(t, page.TotalBlogs, "drafts should not be listed publicly")
		})
	})

	t.Run("like toggle round trip", func(t *testing.T) {
		withTx(t, func(f fixture) {
			blog, err := f.service.Create(t.Context(), f.admin, CreateParams{
				Title:       "Likeable",
				CategoryID:  f.category.ID,
				IsPublished: true,
			})
			require.NoError(t, err)

			liked, err := f.service.ToggleLike(t.Context(), f.user, blog.ID)
			require.NoError(t, err)
			assert.True(t, liked)

			blogs, err := f.service.ListLiked(t.Context(), f.user)
			require.NoError(t, err)
			require.Len(t, blogs, 1)

			liked, err = f.service.ToggleLike(t.Context(), f.user, blog.ID)
			require.NoError(t, err)
			assert.False(t, liked)

			blogs, err = f.service.ListLiked(t.Context(), f.user)
			require.NoError(t, err)
			assert.Empty(t, blogs)
		})
	})
}
