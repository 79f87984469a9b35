package service

import (
	"context"

	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/shared"
)

type CategoryService interface {
	List(ctx context.Context, search string, page shared.Page) ([]models.Category, int64, error)
	Create(ctx context.Context, name, slug string) (*models.Category, error)
	Delete(ctx context.Context, slug string) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) List(ctx context.Context, search string, page shared.Page) ([]models.Category, int64, error) {
	return s.repo.List(ctx, search, page)
}

func (s *categoryService) Create(ctx context.Context, name, slug string) (*models.Category, error) {
	slug, err := resolveSlug(name, slug)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindBySlug(ctx, slug); err == nil {
		return nil, ErrSlugInUse
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	c := &models.Category{Name: name, Slug: slug}
	if err := s.repo.Create(ctx, c); err != nil {
		if repository.IsUniqueViolation(err) {
			if _, lookupErr := s.repo.FindBySlug(ctx, slug); lookupErr == nil {
				return nil, ErrSlugInUse
			}
			return nil, ErrClassNameInUse
		}
		return nil, err
	}
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		if repository.IsNotFound(err) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

// resolveSlug returns slug, or one derived from name when slug is empty.
func resolveSlug(name, slug string) (string, error) {
	if slug != "" {
		if !shared.IsValidSlug(slug) {
			return "", ErrInvalidSlug
		}
		return slug, nil
	}
	derived := shared.Slugify(name)
	if derived == "" {
		return "", ErrInvalidSlug
	}
	return derived, nil
}
