package service

import (
	"context"
	"time"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/shared"
)

type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter, page shared.Page) ([]models.Title, int64, error)
	Get(ctx context.Context, id int64) (*models.Title, error)
	Create(ctx context.Context, in dto.CreateTitleRequest) (*models.Title, error)
	Update(ctx context.Context, id int64, in dto.UpdateTitleRequest) (*models.Title, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titleRepo    repository.TitleRepository
	categoryRepo repository.CategoryRepository
	genreRepo    repository.GenreRepository
	now          func() time.Time
}

func NewTitleService(
	titleRepo repository.TitleRepository,
	categoryRepo repository.CategoryRepository,
	genreRepo repository.GenreRepository,
) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		now:          time.Now,
	}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page shared.Page) ([]models.Title, int64, error) {
	return s.titleRepo.List(ctx, filter, page)
}

func (s *titleService) Get(ctx context.Context, id int64) (*models.Title, error) {
	t, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *titleService) Create(ctx context.Context, in dto.CreateTitleRequest) (*models.Title, error) {
	if err := s.validateYear(in.Year); err != nil {
		return nil, err
	}

	t := &models.Title{
		Name:        in.Name,
		Year:        in.Year,
		Description: in.Description,
	}

	if in.Category != nil {
		category, err := s.resolveCategory(ctx, *in.Category)
		if err != nil {
			return nil, err
		}
		t.CategoryID = &category.ID
		t.Category = category
	}

	genres, err := s.resolveGenres(ctx, in.Genre)
	if err != nil {
		return nil, err
	}

	if err := s.titleRepo.Create(ctx, t, genres); err != nil {
		return nil, err
	}
	t.Genres = genres
	return t, nil
}

func (s *titleService) Update(ctx context.Context, id int64, in dto.UpdateTitleRequest) (*models.Title, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Year != nil {
		if err := s.validateYear(*in.Year); err != nil {
			return nil, err
		}
		t.Year = *in.Year
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Category != nil {
		category, err := s.resolveCategory(ctx, *in.Category)
		if err != nil {
			return nil, err
		}
		t.CategoryID = &category.ID
		t.Category = category
	}

	genres := t.Genres
	replace := in.Genre != nil
	if replace {
		genres, err = s.resolveGenres(ctx, *in.Genre)
		if err != nil {
			return nil, err
		}
	}

	if err := s.titleRepo.Update(ctx, t, genres, replace); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}
	t.Genres = genres
	return t, nil
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	if err := s.titleRepo.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrTitleNotFound
		}
		return err
	}
	return nil
}

// validateYear accepts 0 < year <= the current year.
func (s *titleService) validateYear(year int) error {
	if year <= 0 || year > s.now().Year() {
		return ErrInvalidYear
	}
	return nil
}

func (s *titleService) resolveCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUnknownCategory
		}
		return nil, err
	}
	return category, nil
}

// resolveGenres maps slugs to genres, failing if any slug is unknown.
func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	unique := make([]string, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if !seen[slug] {
			seen[slug] = true
			unique = append(unique, slug)
		}
	}
	if len(unique) == 0 {
		return []models.Genre{}, nil
	}

	genres, err := s.genreRepo.FindBySlugs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(genres) != len(unique) {
		return nil, ErrUnknownGenre
	}
	return genres, nil
}
