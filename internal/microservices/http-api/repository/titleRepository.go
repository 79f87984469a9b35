package repository

import (
	"context"
	"fmt"

	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/shared"

	"gorm.io/gorm"
)

// ratingSelect computes the average score in the query. NULL when unreviewed.
const ratingSelect = "titles.*, (SELECT AVG(reviews.score) FROM reviews WHERE reviews.title_id = titles.id) AS rating"

// TitleFilter narrows a title listing. Empty fields are ignored.
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         *int
}

type TitleRepository interface {
	List(ctx context.Context, filter TitleFilter, page shared.Page) ([]models.Title, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, t *models.Title, genres []models.Genre) error
	Update(ctx context.Context, t *models.Title, genres []models.Genre, replaceGenres bool) error
	Delete(ctx context.Context, id int64) error
}

type titleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

func (f TitleFilter) apply(db *gorm.DB) *gorm.DB {
	if f.CategorySlug != "" {
		db = db.Where("titles.category_id IN (SELECT id FROM categories WHERE slug = ?)", f.CategorySlug)
	}
	if f.GenreSlug != "" {
		db = db.Where(`EXISTS (SELECT 1 FROM genre_titles gt JOIN genres g ON g.id = gt.genre_id
			WHERE gt.title_id = titles.id AND g.slug = ?)`, f.GenreSlug)
	}
	if f.Name != "" {
		db = db.Where("titles.name ILIKE ?", likePattern(f.Name))
	}
	if f.Year != nil {
		db = db.Where("titles.year = ?", *f.Year)
	}
	return db
}

func genresByName(db *gorm.DB) *gorm.DB {
	return db.Order("genres.name ASC")
}

func (r *titleRepository) List(ctx context.Context, filter TitleFilter, page shared.Page) ([]models.Title, int64, error) {
	var list []models.Title
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Title{}).Scopes(filter.apply).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}

	err := r.db.WithContext(ctx).
		Model(&models.Title{}).
		Select(ratingSelect).
		Scopes(filter.apply).
		Preload("Category").
		Preload("Genres", genresByName).
		Order("titles.name ASC, titles.id ASC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&list).Error
	if err != nil {
		return nil, 0, fmt.Errorf("get titles: %w", err)
	}
	return list, total, nil
}

func (r *titleRepository) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	err := r.db.WithContext(ctx).
		Select(ratingSelect).
		Preload("Category").
		Preload("Genres", genresByName).
		Where("titles.id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *titleRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Title{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check title: %w", err)
	}
	return count > 0, nil
}

// Create inserts the title and links it to genres in one transaction.
// The genres must already exist.
func (r *titleRepository) Create(ctx context.Context, t *models.Title, genres []models.Genre) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t.Genres = genres
		return tx.Omit("Category", "Genres.*").Create(t).Error
	})
	if err != nil {
		return fmt.Errorf("create title: %w", err)
	}
	return nil
}

func (r *titleRepository) Update(ctx context.Context, t *models.Title, genres []models.Genre, replaceGenres bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Title{ID: t.ID}).
			Select("Name", "Year", "Description", "CategoryID").
			Updates(t)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if !replaceGenres {
			return nil
		}
		if len(genres) == 0 {
			return tx.Model(t).Association("Genres").Clear()
		}
		return tx.Model(t).Omit("Genres.*").Association("Genres").Replace(genres)
	})
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	return nil
}

// Delete removes the title. Reviews and their comments go with it.
func (r *titleRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Title{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete title: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
