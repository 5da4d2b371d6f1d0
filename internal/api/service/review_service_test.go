package service

import (
	"context"
	"testing"

	"titlehub/internal/api/models"
	"titlehub/internal/api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type reviewFixture struct {
	db    *gorm.DB
	svc   ReviewService
	title models.Title
	user  models.User
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	db := openTestDB(t)

	user := models.User{Username: "alice", Email: "a@x.com", Role: models.RoleUser, ConfirmationCode: "x"}
	require.NoError(t, db.Create(&user).Error)

	title := models.Title{Name: "Dune", Year: 2021}
	require.NoError(t, db.Create(&title).Error)

	reviewRepo := repository.NewReviewRepository(db)
	titleRepo := repository.NewTitleRepo(db)
	return &reviewFixture{
		db:    db,
		svc:   NewReviewService(reviewRepo, titleRepo),
		title: title,
		user:  user,
	}
}

func (f *reviewFixture) addUser(t *testing.T, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@x.com", Role: models.RoleUser, ConfirmationCode: "x"}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func TestReviewCreate(t *testing.T) {
	f := newReviewFixture(t)

	review, err := f.svc.Create(context.Background(), f.title.ID, f.user.ID, "great read", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, review.Score)
	assert.Equal(t, "alice", review.Author.Username)
	assert.False(t, review.PubDate.IsZero())
}

func TestReviewCreate_ScoreBounds(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.Create(context.Background(), f.title.ID, f.user.ID, "too low", 0)
	assert.ErrorIs(t, err, ErrScoreOutOfRange)
	_, err = f.svc.Create(context.Background(), f.title.ID, f.user.ID, "too high", 11)
	assert.ErrorIs(t, err, ErrScoreOutOfRange)

	// nothing was written
	var n int64
	require.NoError(t, f.db.Model(&models.Review{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)

	// both ends of the range are valid
	bob := f.addUser(t, "bob")
	_, err = f.svc.Create(context.Background(), f.title.ID, f.user.ID, "min", 1)
	assert.NoError(t, err)
	_, err = f.svc.Create(context.Background(), f.title.ID, bob.ID, "max", 10)
	assert.NoError(t, err)
}

func TestReviewCreate_OnePerTitlePerAuthor(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.Create(context.Background(), f.title.ID, f.user.ID, "first", 7)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.title.ID, f.user.ID, "second", 3)
	assert.ErrorIs(t, err, ErrDuplicateReview)

	// exactly one row survives, with the original content
	var reviews []models.Review
	require.NoError(t, f.db.Find(&reviews).Error)
	require.Len(t, reviews, 1)
	assert.Equal(t, "first", reviews[0].Text)
	assert.Equal(t, 7, reviews[0].Score)
}

func TestReviewCreate_MissingTitle(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.Create(context.Background(), 9999, f.user.ID, "nope", 5)
	assert.ErrorIs(t, err, ErrTitleNotFound)
}

func TestReviewList_MissingTitleShortCircuits(t *testing.T) {
	f := newReviewFixture(t)

	_, _, err := f.svc.ListByTitle(context.Background(), 9999, 1, 20)
	assert.ErrorIs(t, err, ErrTitleNotFound)
}

func TestReviewDelete_RemovesComments(t *testing.T) {
	f := newReviewFixture(t)

	review, err := f.svc.Create(context.Background(), f.title.ID, f.user.ID, "with comments", 8)
	require.NoError(t, err)

	comment := models.Comment{ReviewID: review.ID, AuthorID: f.user.ID, Text: "agreed"}
	require.NoError(t, f.db.Create(&comment).Error)

	require.NoError(t, f.svc.Delete(context.Background(), review))

	var n int64
	require.NoError(t, f.db.Model(&models.Comment{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}
