package repository

import (
	"context"
	"errors"
	"fmt"

	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/shared"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, username string) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	GetOrCreate(ctx context.Context, email, username string) (user *models.User, created bool, err error)
	SetConfirmationCode(ctx context.Context, userID, code string) error
	EmailTakenByOther(ctx context.Context, email, exceptUsername string) (bool, error)
	List(ctx context.Context, filter UserFilter, page shared.Page) ([]models.User, int64, error)
}

// userRepository is the GORM implementation of UserRepository.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository in a GORM implementation
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update writes every column, so callers pass a fully loaded user.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, username string) error {
	result := r.db.WithContext(ctx).Where("username = ?", username).Delete(&models.User{})
	if result.Error != nil {
		return fmt.Errorf("delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	// return nil on error, a zero-value user would look like a match
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreate returns the user matching both email and username, creating it
// when absent. A concurrent insert surfaces as a unique violation.
func (r *userRepository) GetOrCreate(ctx context.Context, email, username string) (*models.User, bool, error) {
	var user models.User
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ? AND username = ?", email, username).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		user = models.User{Email: email, Username: username, Role: models.RoleUser}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("get or create user: %w", err)
	}
	return &user, created, nil
}

func (r *userRepository) SetConfirmationCode(ctx context.Context, userID, code string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("confirmation_code", code)
	if result.Error != nil {
		return fmt.Errorf("set confirmation code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) EmailTakenByOther(ctx context.Context, email, exceptUsername string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if exceptUsername != "" {
		q = q.Where("username <> ?", exceptUsername)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

// UserFilter narrows and orders the admin user listing. Ordering takes
// "username" or "-username"; anything else falls back to ascending.
type UserFilter struct {
	Search   string
	Ordering string
}

var userOrderings = map[string]string{
	"username":  "username ASC",
	"-username": "username DESC",
}

func (f UserFilter) orderClause() string {
	if clause, ok := userOrderings[f.Ordering]; ok {
		return clause
	}
	return userOrderings["username"]
}

func (r *userRepository) List(ctx context.Context, f UserFilter, page shared.Page) ([]models.User, int64, error) {
	var users []models.User
	var total int64
	search := f.Search

	filter := func(db *gorm.DB) *gorm.DB {
		if search != "" {
			return db.Where("username ILIKE ?", likePattern(search))
		}
		return db
	}

	if err := r.db.WithContext(ctx).Model(&models.User{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	err := r.db.WithContext(ctx).Scopes(filter).
		Order(f.orderClause()).
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}
