package service

import (
	"context"
	"testing"
	"time"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type titleFixture struct {
	titles     *MockTitleRepository
	categories *MockCategoryRepository
	genres     *MockGenreRepository
	svc        *titleService
}

func newTitleFixture() *titleFixture {
	f := &titleFixture{
		titles:     new(MockTitleRepository),
		categories: new(MockCategoryRepository),
		genres:     new(MockGenreRepository),
	}
	f.svc = NewTitleService(f.titles, f.categories, f.genres).(*titleService)
	f.svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func TestCreateTitle_Success(t *testing.T) {
	f := newTitleFixture()
	ctx := context.Background()
	films := &models.Category{ID: 1, Name: "Films", Slug: "films"}
	genres := []models.Genre{{ID: 2, Name: "Drama", Slug: "drama"}}

	f.categories.On("FindBySlug", ctx, "films").Return(films, nil)
	f.genres.On("FindBySlugs", ctx, []string{"drama"}).Return(genres, nil)
	f.titles.On("Create", ctx, mock.AnythingOfType("*models.Title"), genres).Return(nil)

	category := "films"
	got, err := f.svc.Create(ctx, dto.CreateTitleRequest{
		Name:     "Stalker",
		Year:     1979,
		Genre:    []string{"drama", "drama"},
		Category: &category,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), *got.CategoryID)
	assert.Equal(t, films, got.Category)
	assert.Equal(t, genres, got.Genres)
	f.titles.AssertExpectations(t)
}

func TestCreateTitle_Year(t *testing.T) {
	f := newTitleFixture()
	ctx := context.Background()
	f.titles.On("Create", ctx, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Create(ctx, dto.CreateTitleRequest{Name: "Future", Year: 2025})
	assert.ErrorIs(t, err, ErrInvalidYear)

	_, err = f.svc.Create(ctx, dto.CreateTitleRequest{Name: "Zero", Year: 0})
	assert.ErrorIs(t, err, ErrInvalidYear)

	_, err = f.svc.Create(ctx, dto.CreateTitleRequest{Name: "This year", Year: 2024})
	assert.NoError(t, err)
}

func TestCreateTitle_UnknownSlugs(t *testing.T) {
	f := newTitleFixture()
	ctx := context.Background()

	f.categories.On("FindBySlug", ctx, "nope").Return(nil, gorm.ErrRecordNotFound)
	category := "nope"
	_, err := f.svc.Create(ctx, dto.CreateTitleRequest{Name: "X", Year: 2000, Category: &category})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	f.genres.On("FindBySlugs", ctx, []string{"drama", "ghost"}).
		Return([]models.Genre{{ID: 2, Slug: "drama"}}, nil)
	_, err = f.svc.Create(ctx, dto.CreateTitleRequest{Name: "X", Year: 2000, Genre: []string{"drama", "ghost"}})
	assert.ErrorIs(t, err, ErrUnknownGenre)

	f.titles.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateTitle_KeepsGenresWhenOmitted(t *testing.T) {
	f := newTitleFixture()
	ctx := context.Background()
	existing := &models.Title{ID: 5, Name: "Old", Year: 1990, Genres: []models.Genre{{ID: 2, Slug: "drama"}}}

	f.titles.On("GetByID", ctx, int64(5)).Return(existing, nil)
	f.titles.On("Update", ctx, existing, existing.Genres, false).Return(nil)

	name := "New"
	got, err := f.svc.Update(ctx, 5, dto.UpdateTitleRequest{Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Len(t, got.Genres, 1)
	f.titles.AssertExpectations(t)
}

func TestUpdateTitle_ClearsGenres(t *testing.T) {
	f := newTitleFixture()
	ctx := context.Background()
	existing := &models.Title{ID: 5, Name: "Old", Year: 1990, Genres: []models.Genre{{ID: 2, Slug: "drama"}}}

	f.titles.On("GetByID", ctx, int64(5)).Return(existing, nil)
	f.titles.On("Update", ctx, existing, []models.Genre{}, true).Return(nil)

	empty := []string{}
	got, err := f.svc.Update(ctx, 5, dto.UpdateTitleRequest{Genre: &empty})

	require.NoError(t, err)
	assert.Empty(t, got.Genres)
}

func TestTitle_NotFound(t *testing.T) {
	f := newTitleFixture()
	ctx := context.Background()
	f.titles.On("GetByID", ctx, int64(9)).Return(nil, gorm.ErrRecordNotFound)
	f.titles.On("Delete", ctx, int64(9)).Return(gorm.ErrRecordNotFound)

	_, err := f.svc.Get(ctx, 9)
	assert.ErrorIs(t, err, ErrTitleNotFound)

	_, err = f.svc.Update(ctx, 9, dto.UpdateTitleRequest{})
	assert.ErrorIs(t, err, ErrTitleNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, 9), ErrTitleNotFound)
}
