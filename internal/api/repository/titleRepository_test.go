package repository

import (
	"context"
	"testing"

	"titlehub/database"
	"titlehub/internal/api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection: a pooled :memory: sqlite gives each conn its own db
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@x.com", Role: models.RoleUser, ConfirmationCode: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestTitleRepo_Ratings(t *testing.T) {
	db := openTestDB(t)
	repo := NewTitleRepo(db)
	ctx := context.Background()

	rated := models.Title{Name: "Rated", Year: 2000}
	bare := models.Title{Name: "Bare", Year: 2001}
	require.NoError(t, db.Create(&rated).Error)
	require.NoError(t, db.Create(&bare).Error)

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")
	for _, r := range []models.Review{
		{TitleID: rated.ID, AuthorID: alice.ID, Text: "a", Score: 5},
		{TitleID: rated.ID, AuthorID: bob.ID, Text: "b", Score: 6},
		{TitleID: rated.ID, AuthorID: carol.ID, Text: "c", Score: 6},
	} {
		require.NoError(t, db.Create(&r).Error)
	}

	got, err := repo.GetByID(ctx, rated.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	// (5+6+6)/3 rounded to two decimals
	assert.Equal(t, 5.67, *got.Rating)

	got, err = repo.GetByID(ctx, bare.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Rating)
}

func TestTitleRepo_Filters(t *testing.T) {
	db := openTestDB(t)
	repo := NewTitleRepo(db)
	ctx := context.Background()

	books := models.Category{Name: "Books", Slug: "books"}
	movies := models.Category{Name: "Movies", Slug: "movies"}
	require.NoError(t, db.Create(&books).Error)
	require.NoError(t, db.Create(&movies).Error)

	drama := models.Genre{Name: "Drama", Slug: "drama"}
	comedy := models.Genre{Name: "Comedy", Slug: "comedy"}
	require.NoError(t, db.Create(&drama).Error)
	require.NoError(t, db.Create(&comedy).Error)

	require.NoError(t, repo.Create(ctx, &models.Title{Name: "Hamlet", Year: 1601, CategoryID: &books.ID}, []models.Genre{drama}))
	require.NoError(t, repo.Create(ctx, &models.Title{Name: "Hamlet", Year: 1996, CategoryID: &movies.ID}, []models.Genre{drama}))
	require.NoError(t, repo.Create(ctx, &models.Title{Name: "Clueless", Year: 1995, CategoryID: &movies.ID}, []models.Genre{comedy, drama}))

	// single filter
	list, total, err := repo.GetAll(ctx, TitleFilter{CategorySlug: "movies"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	// filters combine with AND
	list, total, err = repo.GetAll(ctx, TitleFilter{CategorySlug: "movies", GenreSlug: "drama", Year: 1996}, 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, "Hamlet", list[0].Name)
	assert.Equal(t, 1996, list[0].Year)

	// name match is case-insensitive, and a title with two genres is not
	// duplicated by the join
	list, total, err = repo.GetAll(ctx, TitleFilter{Name: "clueless"}, 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Genres, 2)

	list, total, err = repo.GetAll(ctx, TitleFilter{GenreSlug: "comedy", Year: 1601}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, list)
}

func TestCategoryDelete_DetachesTitles(t *testing.T) {
	db := openTestDB(t)
	catRepo := NewCategoryRepository(db)

	cat := models.Category{Name: "Books", Slug: "books"}
	require.NoError(t, db.Create(&cat).Error)
	title := models.Title{Name: "Hamlet", Year: 1601, CategoryID: &cat.ID}
	require.NoError(t, db.Create(&title).Error)

	require.NoError(t, catRepo.DeleteBySlug("books"))

	var got models.Title
	require.NoError(t, db.First(&got, title.ID).Error)
	assert.Nil(t, got.CategoryID)

	var n int64
	require.NoError(t, db.Model(&models.Category{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}

func TestGenreDelete_KeepsTitles(t *testing.T) {
	db := openTestDB(t)
	titleRepo := NewTitleRepo(db)
	genreRepo := NewGenreRepository(db)
	ctx := context.Background()

	drama := models.Genre{Name: "Drama", Slug: "drama"}
	require.NoError(t, db.Create(&drama).Error)
	title := models.Title{Name: "Hamlet", Year: 1601}
	require.NoError(t, titleRepo.Create(ctx, &title, []models.Genre{drama}))

	require.NoError(t, genreRepo.DeleteBySlug("drama"))

	got, err := titleRepo.GetByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Genres)

	var joins int64
	require.NoError(t, db.Model(&models.GenreTitle{}).Count(&joins).Error)
	assert.Equal(t, int64(0), joins)
}

func TestTitleRepo_DeleteCascades(t *testing.T) {
	db := openTestDB(t)
	repo := NewTitleRepo(db)
	ctx := context.Background()

	drama := models.Genre{Name: "Drama", Slug: "drama"}
	require.NoError(t, db.Create(&drama).Error)
	title := models.Title{Name: "Hamlet", Year: 1601}
	require.NoError(t, repo.Create(ctx, &title, []models.Genre{drama}))

	alice := seedUser(t, db, "alice")
	review := models.Review{TitleID: title.ID, AuthorID: alice.ID, Text: "fine", Score: 7}
	require.NoError(t, db.Create(&review).Error)
	require.NoError(t, db.Create(&models.Comment{ReviewID: review.ID, AuthorID: alice.ID, Text: "indeed"}).Error)

	require.NoError(t, repo.Delete(ctx, title.ID))

	for _, m := range []any{&models.Review{}, &models.Comment{}, &models.GenreTitle{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Equal(t, int64(0), n)
	}
	assert.False(t, func() bool { ok, _ := repo.Exists(ctx, title.ID); return ok }())
}
