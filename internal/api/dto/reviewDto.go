package dto

import (
	"time"

	"titlehub/internal/api/models"
)

type CreateReviewDTO struct {
	Text  string `json:"text" binding:"required,max=400"`
	Score int    `json:"score" binding:"required"`
}

type UpdateReviewDTO struct {
	Text  *string `json:"text,omitempty" binding:"omitempty,max=400"`
	Score *int    `json:"score,omitempty"`
}

type ReviewResponse struct {
	ID      int64     `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func ReviewFromModel(r models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Author:  r.Author.Username,
		Text:    r.Text,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}
