package service

import (
	"context"
	"errors"

	"titlehub/internal/api/models"
	"titlehub/internal/api/repository"

	"gorm.io/gorm"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("only one review per title is allowed")
	ErrScoreOutOfRange = errors.New("score must be between 1 and 10")
)

type ReviewService interface {
	ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error)
	Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	Create(ctx context.Context, titleID int64, authorID, text string, score int) (*models.Review, error)
	Update(ctx context.Context, review *models.Review, text *string, score *int) (*models.Review, error)
	Delete(ctx context.Context, review *models.Review) error
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  *repository.TitleRepo
}

func NewReviewService(reviewRepo repository.ReviewRepository, titleRepo *repository.TitleRepo) ReviewService {
	return &reviewService{reviewRepo: reviewRepo, titleRepo: titleRepo}
}

// ListByTitle fails with ErrTitleNotFound before any listing when the
// parent title does not exist.
func (s *reviewService) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, 0, err
	}
	return s.reviewRepo.GetByTitle(titleID, page, pageSize)
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	review, err := s.reviewRepo.GetByID(titleID, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}

// Create validates the score, then inserts. Two concurrent reviews from
// the same author race on the store's unique constraint; the loser gets
// ErrDuplicateReview, never a silent overwrite.
func (s *reviewService) Create(ctx context.Context, titleID int64, authorID, text string, score int) (*models.Review, error) {
	if score < 1 || score > 10 {
		return nil, ErrScoreOutOfRange
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: authorID,
		Text:     text,
		Score:    score,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}
	return s.reviewRepo.GetByID(titleID, review.ID)
}

func (s *reviewService) Update(ctx context.Context, review *models.Review, text *string, score *int) (*models.Review, error) {
	if score != nil {
		if *score < 1 || *score > 10 {
			return nil, ErrScoreOutOfRange
		}
		review.Score = *score
	}
	if text != nil {
		review.Text = *text
	}
	if err := s.reviewRepo.Save(review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, review *models.Review) error {
	return s.reviewRepo.Delete(review)
}

func (s *reviewService) requireTitle(ctx context.Context, titleID int64) error {
	ok, err := s.titleRepo.Exists(ctx, titleID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTitleNotFound
	}
	return nil
}
