package postgres

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkarpov/blogify/internal/apperrors"
	"github.com/nkarpov/blogify/internal/models"
	"github.com/nkarpov/blogify/internal/repository"
	"github.com/nkarpov/blogify/internal/testutil"
)

type blogFixture struct {
	author   models.User
	category models.Category
}

func newBlogFixture(t *testing.T, tx pgx.Tx) blogFixture {
	t.Helper()

	author, err := (&UserRepo{DB: tx}).CreateUser(t.Context(), "Author", "author@example.com", "hashed", models.RoleAdmin)
	require.NoError(t, err)

	category, err := (&CategoryRepo{DB: tx}).CreateCategory(t.Context(), "go", "Posts about Go")
	require.NoError(t, err)

	return blogFixture{author: author, category: category}
}

func (f blogFixture) blog(title string, published bool) models.Blog {
	return models.Blog{
		Title:       title,
		Subtitle:    "subtitle",
		Description: "a longer description",
		AuthorID:    f.author.ID,
		CategoryID:  f.category.ID,
		IsPublished: published,
	}
}

func Test_BlogRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create and get", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &BlogRepo{DB: tx}
			f := newBlogFixture(t, tx)

			created, err := repo.CreateBlog(t.Context(), f.blog("First post", true))

			require.NoError(t, err)
			assert.Equal(t, "First post", created.Title)
			assert.Equal(t, "Author", created.AuthorName, "author name should be joined in")
			assert.Equal(t, "go", created.CategoryName, "category name should be joined in")

			got, err := repo.GetBlogByID(t.Context(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, created, got)
		})
	})

	t.Run("create with unknown category fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &BlogRepo{DB: tx}
			f := newBlogFixture(t, tx)

			blog := f.blog("Post", true)
			blog.CategoryID = uuid.New()

			_, err := repo.CreateBlog(t.Context(), blog)
			require.ErrorIs(t, err, apperrors.ErrCategoryNotFound)
		})
	})

	t.Run("create with unknown author is a plain db error", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &BlogRepo{DB: tx}
			f := newBlogFixture(t, tx)

			blog := f.blog("Post", true)
			blog.AuthorID = uuid.New()

			_, err := repo.CreateBlog(t.Context(), blog)
			require.Error(t, err)
			assert.NotErrorIs(t, err, apperrors.ErrCategoryNotFound, "only the category constraint maps to category not found")
		})
	})

	t.Run("get absent", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &BlogRepo{DB: tx}

			_, err := repo.GetBlogByID(t.Context(), uuid.New())
			require.ErrorIs(t, err, apperrors.ErrBlogNotFound)
		})
	})

	t.Run("partial update", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &BlogRepo{DB: tx}
			f := newBlogFixture(t, tx)

			created, err := repo.CreateBlog(t.Context(), f.blog("Draft", false))
			require.NoError(t, err)

			title := "Renamed"
			published := true
			updated, err := repo.UpdateBlog(t.Context(), created.ID, repository.UpdateBlogParams{
				Title:       &title,
				IsPublished: &published,
			})

			require.NoError(t, err)
			assert.Equal(t, "Renamed", updated.Title)
			assert.True(t, updated.IsPublished)
			assert.Equal(t, created.Subtitle, updated.Subtitle, "untouched fields should survive")
			assert.Equal(t, created.Description, updated.Description)

			_, err = repo.UpdateBlog(t.Context(), uuid.New(), repository.UpdateBlogParams{Title: &title})
			require.ErrorIs(t, err, apperrors.ErrBlogNotFound)

			unknownCategory := uuid.New()
			_, err = repo.UpdateBlog(t.Context(), created.ID, repository.UpdateBlogParams{CategoryID: &unknownCategory})
			require.ErrorIs(t, err, apperrors.ErrCategoryNotFound)
		})
	})

	t.Run("delete", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &BlogRepo{DB: tx}
			f := newBlogFixture(t, tx)

			created, err := repo.CreateBlog(t.Context(), f.blog("Doomed", true))
			require.NoError(t, err)

			require.NoError(t, repo.DeleteBlog(t.Context(), created.ID))

			_, err = repo.GetBlogByID(t.Context(), created.ID)
			require.ErrorIs(t, err, apperrors.ErrBlogNotFound)

			require.ErrorIs(t, repo.DeleteBlog(t.Context(), created.ID), apperrors.ErrBlogNotFound)
		})
	})

	t.Run("list", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &BlogRepo{DB: tx}
			f := newBlogFixture(t, tx)

			otherCategory, err := (&CategoryRepo{DB: tx}).CreateCategory(t.Context(), "news", "")
			require.NoError(t, err)

			for i := range 5 {
				_, err := repo.CreateBlog(t.Context(), f.blog(fmt.Sprintf("Go post %d", i), true))
				require.NoError(t, err)
			}
			_, err = repo.CreateBlog(t.Context(), f.blog("Unpublished draft", false))
			require.NoError(t, err)

			newsBlog := f.blog("Weekly news", true)
			newsBlog.CategoryID = otherCategory.ID
			_, err = repo.CreateBlog(t.Context(), newsBlog)
			require.NoError(t, err)

			t.Run("published only", func(t *testing.T) {
				page, err := repo.ListBlogs(t.Context(), repository.ListBlogsParams{PublishedOnly: true})
				require.NoError(t, err)
				assert.Equal(t, int64(6), page.TotalBlogs, "draft should be filtered out")
			})

			t.Run("category filter", func(t *testing.T) {
				page, err := repo.ListBlogs(t.Context(), repository.ListBlogsParams{
					PublishedOnly: true,
					CategoryID:    otherCategory.ID,
				})
				require.NoError(t, err)
				require.Len(t, page.Blogs, 1)
				assert.Equal(t, "Weekly news", page.Blogs[0].Title)
			})

			t.Run("search is case insensitive", func(t *testing.T) {
				page, err := repo.ListBlogs(t.Context(), repository.ListBlogsParams{
					PublishedOnly: true,
					Search:        "wEEkly",
				})
				require.NoError(t, err)
				require.Len(t, page.Blogs, 1)
				assert.Equal(t, "Weekly news", page.Blogs[0].Title)
			})

			t.Run("pagination", func(t *testing.T) {
				page, err := repo.ListBlogs(t.Context(), repository.ListBlogsParams{
					PublishedOnly: true,
					Page:          2,
					Limit:         4,
				})
				require.NoError(t, err)
				assert.Equal(t, int64(6), page.TotalBlogs)
				assert.Equal(t, int64(2), page.TotalPages)
				assert.Equal(t, int64(2), page.CurrentPage)
				assert.Len(t, page.Blogs, 2, "second page of 4 over 6 rows holds 2")
			})
		})
	})

	t.Run("toggle like", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &BlogRepo{DB: tx}
			f := newBlogFixture(t, tx)

			created, err := repo.CreateBlog(t.Context(), f.blog("Likeable", true))
			require.NoError(t, err)

			liked, err := repo.ToggleLike(t.Context(), f.author.ID, created.ID)
			require.NoError(t, err)
			assert.True(t, liked, "first toggle likes")

			likedBlogs, err := repo.ListLikedBlogs(t.Context(), f.author.ID)
			require.NoError(t, err)
			require.Len(t, likedBlogs, 1)
			assert.Equal(t, created.ID, likedBlogs[0].ID)

			liked, err = repo.ToggleLike(t.Context(), f.author.ID, created.ID)
			require.NoError(t, err)
			assert.False(t, liked, "second toggle unlikes")

			likedBlogs, err = repo.ListLikedBlogs(t.Context(), f.author.ID)
			require.NoError(t, err)
			assert.Empty(t, likedBlogs)
		})
	})

	t.Run("like unknown blog fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &BlogRepo{DB: tx}
			f := newBlogFixture(t, tx)

			_, err := repo.ToggleLike(t.Context(), f.author.ID, uuid.New())
			require.ErrorIs(t, err, apperrors.ErrBlogNotFound)
		})
	})
}
