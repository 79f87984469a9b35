package service

import (
	"context"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/shared"
)

type CommentService interface {
	List(ctx context.Context, titleID, reviewID int64, page shared.Page) ([]models.Comment, int64, error)
	Get(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error)
	CheckReview(ctx context.Context, titleID, reviewID int64) error
	Create(ctx context.Context, titleID, reviewID int64, author *models.User, in dto.CreateCommentDTO) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment, in dto.UpdateCommentDTO) (*models.Comment, error)
	Delete(ctx context.Context, comment *models.Comment) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
}

func NewCommentService(commentRepo repository.CommentRepository, reviewRepo repository.ReviewRepository) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
	}
}

// ensureReview checks the review exists under that title.
func (s *commentService) ensureReview(ctx context.Context, titleID, reviewID int64) error {
	if _, err := s.reviewRepo.GetByID(ctx, titleID, reviewID); err != nil {
		if repository.IsNotFound(err) {
			return ErrReviewNotFound
		}
		return err
	}
	return nil
}

// CheckReview returns ErrReviewNotFound unless the review belongs to the title.
func (s *commentService) CheckReview(ctx context.Context, titleID, reviewID int64) error {
	return s.ensureReview(ctx, titleID, reviewID)
}

func (s *commentService) List(ctx context.Context, titleID, reviewID int64, page shared.Page) ([]models.Comment, int64, error) {
	if err := s.ensureReview(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	return s.commentRepo.ListByReview(ctx, reviewID, page)
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	if err := s.ensureReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, reviewID, commentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

func (s *commentService) Create(ctx context.Context, titleID, reviewID int64, author *models.User, in dto.CreateCommentDTO) (*models.Comment, error) {
	if err := s.ensureReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	text := shared.SanitizeText(in.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: author.ID,
		Text:     text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = *author
	return comment, nil
}

func (s *commentService) Update(ctx context.Context, comment *models.Comment, in dto.UpdateCommentDTO) (*models.Comment, error) {
	if in.Text != nil {
		text := shared.SanitizeText(*in.Text)
		if text == "" {
			return nil, ErrEmptyText
		}
		comment.Text = text
	}

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *commentService) Delete(ctx context.Context, comment *models.Comment) error {
	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		if repository.IsNotFound(err) {
			return ErrCommentNotFound
		}
		return err
	}
	return nil
}
