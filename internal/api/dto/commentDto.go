package dto

import (
	"time"

	"titlehub/internal/api/models"
)

type CreateCommentDTO struct {
	Text string `json:"text" binding:"required,max=150"`
}

type UpdateCommentDTO struct {
	Text string `json:"text" binding:"required,max=150"`
}

type CommentResponse struct {
	ID      int64     `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pub_date"`
}

func CommentFromModel(c models.Comment) CommentResponse {
	return CommentResponse{
		ID:      c.ID,
		Author:  c.Author.Username,
		Text:    c.Text,
		PubDate: c.PubDate,
	}
}
