package service

import (
	"context"

	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/shared"
)

type GenreService interface {
	List(ctx context.Context, search string, page shared.Page) ([]models.Genre, int64, error)
	Create(ctx context.Context, name, slug string) (*models.Genre, error)
	Delete(ctx context.Context, slug string) error
}

type genreService struct {
	repo repository.GenreRepository
}

func NewGenreService(repo repository.GenreRepository) GenreService {
	return &genreService{repo: repo}
}

func (s *genreService) List(ctx context.Context, search string, page shared.Page) ([]models.Genre, int64, error) {
	return s.repo.List(ctx, search, page)
}

func (s *genreService) Create(ctx context.Context, name, slug string) (*models.Genre, error) {
	slug, err := resolveSlug(name, slug)
	if err != nil {
		return nil, err
	}

	if s.slugTaken(ctx, slug) {
		return nil, ErrSlugInUse
	}

	g := &models.Genre{Name: name, Slug: slug}
	if err := s.repo.Create(ctx, g); err != nil {
		if repository.IsUniqueViolation(err) {
			if s.slugTaken(ctx, slug) {
				return nil, ErrSlugInUse
			}
			return nil, ErrClassNameInUse
		}
		return nil, err
	}
	return g, nil
}

func (s *genreService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		if repository.IsNotFound(err) {
			return ErrGenreNotFound
		}
		return err
	}
	return nil
}

func (s *genreService) slugTaken(ctx context.Context, slug string) bool {
	found, err := s.repo.FindBySlugs(ctx, []string{slug})
	return err == nil && len(found) > 0
}
