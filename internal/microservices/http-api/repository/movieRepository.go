package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"favmovies/internal/microservices/http-api/models"
)

// ErrDuplicateTitle is returned by Create when a movie with the same title
// is already stored.
var ErrDuplicateTitle = errors.New("movie title already exists")

// unratedSortKey is the text a missing rating sorts as.
const unratedSortKey = "None"

type MovieRepository interface {
	GetAllByRating(ctx context.Context) ([]models.Movie, error)
	GetByID(ctx context.Context, id int64) (*models.Movie, error)
	Create(ctx context.Context, movie *models.Movie) error
	UpdateRatingAndReview(ctx context.Context, id int64, rating, review string) error
	UpdateRankings(ctx context.Context, rankings map[int64]int) error
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

type movieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) MovieRepository {
	return &movieRepository{db: db}
}

// GetAllByRating returns every movie ordered by rating as text, so "10"
// sorts before "2". An unrated movie sorts as the text "None" and ties fall
// back to id.
func (r *movieRepository) GetAllByRating(ctx context.Context) ([]models.Movie, error) {
	var movies []models.Movie

	ratingOrder := "COALESCE(rating, '" + unratedSortKey + "') ASC"
	if r.db.Dialector.Name() == "postgres" {
		// byte order, matching sqlite's BINARY collation
		ratingOrder = "COALESCE(rating, '" + unratedSortKey + "') COLLATE \"C\" ASC"
	}

	err := r.db.WithContext(ctx).
		Order(ratingOrder).
		Order("id ASC").
		Find(&movies).Error
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return movies, nil
}

func (r *movieRepository) GetByID(ctx context.Context, id int64) (*models.Movie, error) {
	var m models.Movie
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *movieRepository) Create(ctx context.Context, movie *models.Movie) error {
	if err := r.db.WithContext(ctx).Create(movie).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create movie %q: %w", movie.Title, ErrDuplicateTitle)
		}
		return fmt.Errorf("create movie: %w", err)
	}
	// GORM will populate movie.ID and movie.CreatedAt
	return nil
}

// UpdateRatingAndReview overwrites rating and review only, leaving ranking
// and the metadata columns untouched.
func (r *movieRepository) UpdateRatingAndReview(ctx context.Context, id int64, rating, review string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Movie{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rating": rating,
			"review": review,
		})
	if result.Error != nil {
		return fmt.Errorf("update movie: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateRankings persists the given id -> ranking assignments in one transaction.
func (r *movieRepository) UpdateRankings(ctx context.Context, rankings map[int64]int) error {
	if len(rankings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, ranking := range rankings {
			err := tx.Model(&models.Movie{}).
				Where("id = ?", id).
				UpdateColumn("ranking", ranking).Error
			if err != nil {
				return fmt.Errorf("update ranking of movie %d: %w", id, err)
			}
		}
		return nil
	})
}

func (r *movieRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Movie{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete movie: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *movieRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
