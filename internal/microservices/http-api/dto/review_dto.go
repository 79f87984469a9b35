package dto

import (
	"time"

	"reviewhub/internal/microservices/http-api/models"
)

type CreateReviewRequest struct {
	Text  string `json:"text" binding:"required,max=2000"`
	Score *int   `json:"score" binding:"required,min=0,max=10"`
}

type UpdateReviewRequest struct {
	Text  *string `json:"text" binding:"omitempty,min=1,max=2000"`
	Score *int    `json:"score" binding:"omitempty,min=0,max=10"`
}

type ReviewResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

// FromModelToReviewResponse expects Author to be loaded.
func FromModelToReviewResponse(r *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Author:  r.Author.Username,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}
