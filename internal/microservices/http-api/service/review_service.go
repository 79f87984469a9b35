package service

import (
	"context"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/shared"
)

type ReviewService interface {
	List(ctx context.Context, titleID int64, page shared.Page) ([]models.Review, int64, error)
	Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	CheckTitle(ctx context.Context, titleID int64) error
	Create(ctx context.Context, titleID int64, author *models.User, in dto.CreateReviewRequest) (*models.Review, error)
	Update(ctx context.Context, review *models.Review, in dto.UpdateReviewRequest) (*models.Review, error)
	Delete(ctx context.Context, review *models.Review) error
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  repository.TitleRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository, titleRepo repository.TitleRepository) ReviewService {
	return &reviewService{reviewRepo: reviewRepo, titleRepo: titleRepo}
}

func (s *reviewService) ensureTitle(ctx context.Context, titleID int64) error {
	exists, err := s.titleRepo.Exists(ctx, titleID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrTitleNotFound
	}
	return nil
}

// CheckTitle returns ErrTitleNotFound for an unknown title.
func (s *reviewService) CheckTitle(ctx context.Context, titleID int64) error {
	return s.ensureTitle(ctx, titleID)
}

func (s *reviewService) List(ctx context.Context, titleID int64, page shared.Page) ([]models.Review, int64, error) {
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, 0, err
	}
	return s.reviewRepo.ListByTitle(ctx, titleID, page)
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, titleID, reviewID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}

// Create stores the caller's review. Each user reviews a title at most once.
func (s *reviewService) Create(ctx context.Context, titleID int64, author *models.User, in dto.CreateReviewRequest) (*models.Review, error) {
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, err
	}
	text := shared.SanitizeText(in.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	exists, err := s.reviewRepo.ExistsForAuthor(ctx, titleID, author.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: author.ID,
		Text:     text,
		Score:    *in.Score,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}
	review.Author = *author
	return review, nil
}

func (s *reviewService) Update(ctx context.Context, review *models.Review, in dto.UpdateReviewRequest) (*models.Review, error) {
	if in.Text != nil {
		text := shared.SanitizeText(*in.Text)
		if text == "" {
			return nil, ErrEmptyText
		}
		review.Text = text
	}
	if in.Score != nil {
		review.Score = *in.Score
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, review *models.Review) error {
	if err := s.reviewRepo.Delete(ctx, review.ID); err != nil {
		if repository.IsNotFound(err) {
			return ErrReviewNotFound
		}
		return err
	}
	return nil
}
