package service

import (
	"context"
	"fmt"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/shared"
)

type UserService interface {
	List(ctx context.Context, filter repository.UserFilter, page shared.Page) ([]models.User, int64, error)
	Get(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, in dto.CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, username string, in dto.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, username string) error
	UpdateProfile(ctx context.Context, caller *models.User, in dto.UpdateUserRequest) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) List(ctx context.Context, filter repository.UserFilter, page shared.Page) ([]models.User, int64, error) {
	return s.userRepo.List(ctx, filter, page)
}

func (s *userService) Get(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Create adds a user on behalf of an administrator. No code is mailed; the
// user requests one through signup.
func (s *userService) Create(ctx context.Context, in dto.CreateUserRequest) (*models.User, error) {
	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Role:      in.Role,
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	if err := s.validate(ctx, user, ""); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, s.mapConflict(ctx, err, user, "")
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, username string, in dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, user, in)
}

func (s *userService) Delete(ctx context.Context, username string) error {
	if err := s.userRepo.Delete(ctx, username); err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// UpdateProfile lets callers edit themselves. Only administrators may change
// their own role, anyone else keeps the current one.
func (s *userService) UpdateProfile(ctx context.Context, caller *models.User, in dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, caller.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if in.Role != nil && !user.HasAdminRights() {
		in.Role = nil
	}
	return s.save(ctx, user, in)
}

func (s *userService) save(ctx context.Context, user *models.User, in dto.UpdateUserRequest) (*models.User, error) {
	original := user.Username
	in.Apply(user)

	if err := s.validate(ctx, user, original); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, s.mapConflict(ctx, err, user, original)
	}
	return user, nil
}

// validate checks the fields binding cannot: reserved names, allowed roles
// and uniqueness. original is the username before the change, empty on create.
func (s *userService) validate(ctx context.Context, user *models.User, original string) error {
	if !dto.ValidUsername(user.Username) {
		return ErrInvalidUsername
	}
	if user.Username == ReservedUsername {
		return ErrReservedUsername
	}
	if !models.ValidRole(user.Role) {
		return ErrInvalidRole
	}

	except := original
	if except == "" {
		except = user.Username
	}
	taken, err := s.userRepo.EmailTakenByOther(ctx, user.Email, except)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailInUse
	}

	if user.Username != original {
		_, err := s.userRepo.FindByUsername(ctx, user.Username)
		if err == nil {
			return ErrNameInUse
		}
		if !repository.IsNotFound(err) {
			return fmt.Errorf("lookup username: %w", err)
		}
	}
	return nil
}

func (s *userService) mapConflict(ctx context.Context, err error, user *models.User, original string) error {
	if !repository.IsUniqueViolation(err) {
		return err
	}
	except := original
	if except == "" {
		except = user.Username
	}
	if taken, _ := s.userRepo.EmailTakenByOther(ctx, user.Email, except); taken {
		return ErrEmailInUse
	}
	return ErrNameInUse
}
