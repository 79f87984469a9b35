package dto

import "reviewhub/internal/microservices/http-api/models"

// ClassificationRequest creates a category or a genre. Slug defaults to one
// derived from name.
type ClassificationRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"omitempty,max=50,slug"`
}

type ClassificationResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func FromCategory(c *models.Category) ClassificationResponse {
	return ClassificationResponse{Name: c.Name, Slug: c.Slug}
}

func FromGenre(g *models.Genre) ClassificationResponse {
	return ClassificationResponse{Name: g.Name, Slug: g.Slug}
}
