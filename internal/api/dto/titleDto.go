package dto

import (
	"titlehub/internal/api/models"
	"titlehub/internal/api/service"
)

// CreateTitleDTO used for POST /api/v1/titles; category and genre carry
// slugs, resolved server-side.
type CreateTitleDTO struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        int      `json:"year" binding:"required"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Genre       []string `json:"genre,omitempty"`
}

// UpdateTitleDTO used for PATCH /api/v1/titles/:id (partial updates allowed)
type UpdateTitleDTO struct {
	Name        *string  `json:"name,omitempty" binding:"omitempty,max=256"`
	Year        *int     `json:"year,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Genre       []string `json:"genre,omitempty"`
}

type TitleResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Rating      *float64          `json:"rating"`
	Description string            `json:"description"`
	Category    *CategoryResponse `json:"category"`
	Genre       []GenreResponse   `json:"genre"`
}

func (d CreateTitleDTO) ToInput() service.TitleInput {
	return service.TitleInput{
		Name:        &d.Name,
		Year:        &d.Year,
		Description: d.Description,
		Category:    d.Category,
		Genre:       d.Genre,
	}
}

func (d UpdateTitleDTO) ToInput() service.TitleInput {
	return service.TitleInput{
		Name:        d.Name,
		Year:        d.Year,
		Description: d.Description,
		Category:    d.Category,
		Genre:       d.Genre,
	}
}

func TitleFromModel(t models.Title) TitleResponse {
	resp := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       make([]GenreResponse, 0, len(t.Genres)),
	}
	if t.Category != nil {
		c := CategoryFromModel(*t.Category)
		resp.Category = &c
	}
	for _, g := range t.Genres {
		resp.Genre = append(resp.Genre, GenreFromModel(g))
	}
	return resp
}
