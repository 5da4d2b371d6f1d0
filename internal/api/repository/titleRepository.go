package repository

import (
	"context"
	"fmt"
	"math"

	"titlehub/internal/api/models"

	"gorm.io/gorm"
)

// TitleFilter holds the list filters; zero values mean "not set".
// Multiple filters combine with AND.
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         int
}

type TitleRepo struct {
	db *gorm.DB
}

func NewTitleRepo(db *gorm.DB) *TitleRepo {
	return &TitleRepo{db: db}
}

func (r *TitleRepo) GetAll(ctx context.Context, filter TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	var list []models.Title
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Title{})

	if filter.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = titles.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
	}
	if filter.GenreSlug != "" {
		q = q.Joins("JOIN genre_titles ON genre_titles.title_id = titles.id").
			Joins("JOIN genres ON genres.id = genre_titles.genre_id").
			Where("genres.slug = ?", filter.GenreSlug)
	}
	if filter.Name != "" {
		q = q.Where("LOWER(titles.name) = LOWER(?)", filter.Name)
	}
	if filter.Year != 0 {
		q = q.Where("titles.year = ?", filter.Year)
	}

	if err := q.Distinct("titles.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := q.Distinct().
		Preload("Category").
		Preload("Genres").
		Order("titles.id").
		Limit(pageSize).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}

	if err := r.attachRatings(ctx, list); err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *TitleRepo) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Genres").
		First(&t, id).Error; err != nil {
		return nil, err
	}
	list := []models.Title{t}
	if err := r.attachRatings(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// Exists is the cheap parent check for the nested review routes.
func (r *TitleRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Title{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts the title and its genre join rows in one transaction.
func (r *TitleRepo) Create(ctx context.Context, t *models.Title, genres []models.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Genres", "Category").Create(t).Error; err != nil {
			return fmt.Errorf("create title: %w", err)
		}
		for _, g := range genres {
			if err := tx.Create(&models.GenreTitle{TitleID: t.ID, GenreID: g.ID}).Error; err != nil {
				return fmt.Errorf("link genre: %w", err)
			}
		}
		t.Genres = genres
		return nil
	})
}

// Update saves base fields and, when genres is non-nil, replaces the
// join rows with the new set.
func (r *TitleRepo) Update(ctx context.Context, t *models.Title, genres []models.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Genres", "Category").Save(t).Error; err != nil {
			return fmt.Errorf("update title: %w", err)
		}
		if genres == nil {
			return nil
		}
		if err := tx.Where("title_id = ?", t.ID).Delete(&models.GenreTitle{}).Error; err != nil {
			return err
		}
		for _, g := range genres {
			if err := tx.Create(&models.GenreTitle{TitleID: t.ID, GenreID: g.ID}).Error; err != nil {
				return err
			}
		}
		t.Genres = genres
		return nil
	})
}

// Delete removes the title; its join rows, reviews and their comments go
// with it.
func (r *TitleRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reviewIDs []int64
		if err := tx.Model(&models.Review{}).Where("title_id = ?", id).Pluck("id", &reviewIDs).Error; err != nil {
			return err
		}
		if len(reviewIDs) > 0 {
			if err := tx.Where("review_id IN ?", reviewIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.GenreTitle{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Title{}, id).Error
	})
}

// attachRatings computes each title's average review score in one grouped
// query and rounds it to two decimals. Titles without reviews keep a nil
// rating.
func (r *TitleRepo) attachRatings(ctx context.Context, titles []models.Title) error {
	if len(titles) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(titles))
	for _, t := range titles {
		ids = append(ids, t.ID)
	}

	type row struct {
		TitleID int64
		Avg     float64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("title_id, AVG(score) AS avg").
		Where("title_id IN ?", ids).
		Group("title_id").
		Scan(&rows).Error; err != nil {
		return err
	}

	byID := make(map[int64]float64, len(rows))
	for _, row := range rows {
		byID[row.TitleID] = math.Round(row.Avg*100) / 100
	}
	for i := range titles {
		if avg, ok := byID[titles[i].ID]; ok {
			v := avg
			titles[i].Rating = &v
		}
	}
	return nil
}
