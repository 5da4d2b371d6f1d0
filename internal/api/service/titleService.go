package service

import (
	"context"
	"errors"
	"time"

	"titlehub/internal/api/models"
	"titlehub/internal/api/repository"

	"gorm.io/gorm"
)

var (
	ErrTitleNotFound = errors.New("title not found")
	ErrYearInFuture  = errors.New("year must not be later than the current year")
)

// TitleInput is the write payload: genre and category arrive as slugs
// and are resolved to entities before anything is persisted. A slug that
// does not resolve is a not-found failure (documented contract).
type TitleInput struct {
	Name        *string
	Year        *int
	Description *string
	Category    *string
	Genre       []string
}

type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) ([]models.Title, int64, error)
	Get(ctx context.Context, id int64) (*models.Title, error)
	Create(ctx context.Context, in TitleInput) (*models.Title, error)
	Update(ctx context.Context, id int64, in TitleInput) (*models.Title, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titleRepo    *repository.TitleRepo
	categoryRepo repository.CategoryRepository
	genreRepo    repository.GenreRepository
}

func NewTitleService(titleRepo *repository.TitleRepo, categoryRepo repository.CategoryRepository, genreRepo repository.GenreRepository) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
	}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	return s.titleRepo.GetAll(ctx, filter, page, pageSize)
}

func (s *titleService) Get(ctx context.Context, id int64) (*models.Title, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}
	return title, nil
}

func (s *titleService) Create(ctx context.Context, in TitleInput) (*models.Title, error) {
	if in.Year != nil && *in.Year > time.Now().Year() {
		return nil, ErrYearInFuture
	}

	title := &models.Title{}
	if in.Name != nil {
		title.Name = *in.Name
	}
	if in.Year != nil {
		title.Year = *in.Year
	}
	if in.Description != nil {
		title.Description = *in.Description
	}

	category, genres, err := s.resolveSlugs(in)
	if err != nil {
		return nil, err
	}
	if category != nil {
		title.CategoryID = &category.ID
		title.Category = category
	}

	if err := s.titleRepo.Create(ctx, title, genres); err != nil {
		return nil, err
	}
	return title, nil
}

func (s *titleService) Update(ctx context.Context, id int64, in TitleInput) (*models.Title, error) {
	title, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Year != nil && *in.Year > time.Now().Year() {
		return nil, ErrYearInFuture
	}

	if in.Name != nil {
		title.Name = *in.Name
	}
	if in.Year != nil {
		title.Year = *in.Year
	}
	if in.Description != nil {
		title.Description = *in.Description
	}

	category, genres, err := s.resolveSlugs(in)
	if err != nil {
		return nil, err
	}
	if category != nil {
		title.CategoryID = &category.ID
		title.Category = category
	}

	// genres == nil means the payload did not touch the genre set
	if err := s.titleRepo.Update(ctx, title, genres); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.titleRepo.Delete(ctx, id)
}

// resolveSlugs maps the payload's category slug and genre slugs to
// entities. Resolution happens before any write so a failure leaves no
// partial state.
func (s *titleService) resolveSlugs(in TitleInput) (*models.Category, []models.Genre, error) {
	var category *models.Category
	if in.Category != nil {
		c, err := s.categoryRepo.FindBySlug(*in.Category)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrCategoryNotFound
			}
			return nil, nil, err
		}
		category = c
	}

	var genres []models.Genre
	if in.Genre != nil {
		found, err := s.genreRepo.FindBySlugs(in.Genre)
		if err != nil {
			return nil, nil, err
		}
		bySlug := make(map[string]models.Genre, len(found))
		for _, g := range found {
			bySlug[g.Slug] = g
		}
		genres = make([]models.Genre, 0, len(in.Genre))
		for _, slug := range in.Genre {
			g, ok := bySlug[slug]
			if !ok {
				return nil, nil, ErrGenreNotFound
			}
			genres = append(genres, g)
		}
	}

	return category, genres, nil
}
