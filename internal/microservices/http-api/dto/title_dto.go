package dto

import "reviewhub/internal/microservices/http-api/models"

type CreateTitleRequest struct {
	Name        string   `json:"name" binding:"required,max=150"`
	Year        int      `json:"year" binding:"required"`
	Description string   `json:"description" binding:"max=2000"`
	Genre       []string `json:"genre" binding:"omitempty,dive,required"`
	Category    *string  `json:"category"`
}

// UpdateTitleRequest is a partial update. A nil Genre keeps the current links.
type UpdateTitleRequest struct {
	Name        *string   `json:"name" binding:"omitempty,min=1,max=150"`
	Year        *int      `json:"year"`
	Description *string   `json:"description" binding:"omitempty,max=2000"`
	Genre       *[]string `json:"genre"`
	Category    *string   `json:"category"`
}

// TitleResponse is the read view of a title.
type TitleResponse struct {
	ID          int64                    `json:"id"`
	Name        string                   `json:"name"`
	Year        int                      `json:"year"`
	Rating      *float64                 `json:"rating"`
	Description string                   `json:"description"`
	Genre       []ClassificationResponse `json:"genre"`
	Category    *ClassificationResponse  `json:"category"`
}

// TitleWriteResponse echoes a created or updated title with slugs.
type TitleWriteResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	Genre       []string `json:"genre"`
	Category    *string  `json:"category"`
}

func FromModelToTitleResponse(t *models.Title) TitleResponse {
	genres := make([]ClassificationResponse, 0, len(t.Genres))
	for i := range t.Genres {
		genres = append(genres, FromGenre(&t.Genres[i]))
	}

	var category *ClassificationResponse
	if t.Category != nil {
		c := FromCategory(t.Category)
		category = &c
	}

	return TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       genres,
		Category:    category,
	}
}

func FromModelToTitleWriteResponse(t *models.Title) TitleWriteResponse {
	genres := make([]string, 0, len(t.Genres))
	for _, g := range t.Genres {
		genres = append(genres, g.Slug)
	}

	var category *string
	if t.Category != nil {
		slug := t.Category.Slug
		category = &slug
	}

	return TitleWriteResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Description: t.Description,
		Genre:       genres,
		Category:    category,
	}
}
