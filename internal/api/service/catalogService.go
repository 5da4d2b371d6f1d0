package service

import (
	"errors"

	"titlehub/internal/api/models"
	"titlehub/internal/api/repository"

	"gorm.io/gorm"
)

var (
	ErrSlugTaken        = errors.New("slug already in use")
	ErrCategoryNotFound = errors.New("category not found")
	ErrGenreNotFound    = errors.New("genre not found")
)

// CatalogService covers categories and genres; the two resources are
// deliberately identical in shape and verb set (list, create, delete).
type CatalogService interface {
	ListCategories(search string, page, pageSize int) ([]models.Category, int64, error)
	CreateCategory(name, slug string) (*models.Category, error)
	DeleteCategory(slug string) error

	ListGenres(search string, page, pageSize int) ([]models.Genre, int64, error)
	CreateGenre(name, slug string) (*models.Genre, error)
	DeleteGenre(slug string) error
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	genreRepo    repository.GenreRepository
}

func NewCatalogService(categoryRepo repository.CategoryRepository, genreRepo repository.GenreRepository) CatalogService {
	return &catalogService{categoryRepo: categoryRepo, genreRepo: genreRepo}
}

func (s *catalogService) ListCategories(search string, page, pageSize int) ([]models.Category, int64, error) {
	return s.categoryRepo.List(search, page, pageSize)
}

func (s *catalogService) CreateCategory(name, slug string) (*models.Category, error) {
	category := &models.Category{Name: name, Slug: slug}
	if err := s.categoryRepo.Create(category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(slug string) error {
	if err := s.categoryRepo.DeleteBySlug(slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

func (s *catalogService) ListGenres(search string, page, pageSize int) ([]models.Genre, int64, error) {
	return s.genreRepo.List(search, page, pageSize)
}

func (s *catalogService) CreateGenre(name, slug string) (*models.Genre, error) {
	genre := &models.Genre{Name: name, Slug: slug}
	if err := s.genreRepo.Create(genre); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return genre, nil
}

func (s *catalogService) DeleteGenre(slug string) error {
	if err := s.genreRepo.DeleteBySlug(slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGenreNotFound
		}
		return err
	}
	return nil
}
