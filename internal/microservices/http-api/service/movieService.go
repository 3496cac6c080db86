package service

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"favmovies/internal/ingestion/tmdb"
	"favmovies/internal/microservices/http-api/dto"
	"favmovies/internal/microservices/http-api/models"
	"favmovies/internal/microservices/http-api/repository"
)

// MetadataClient is the part of the TMDb client the service needs.
type MetadataClient interface {
	SearchMovies(ctx context.Context, query string) ([]tmdb.SearchResult, error)
	GetMovie(ctx context.Context, id int64) (*tmdb.MovieDetail, error)
}

type MovieService interface {
	ListMovies(ctx context.Context) ([]models.Movie, error)
	GetMovie(ctx context.Context, id int64) (*models.Movie, error)
	BeginAdd(ctx context.Context, title string) ([]dto.Candidate, error)
	SelectCandidate(ctx context.Context, externalID int64) (*models.Movie, error)
	EditMovie(ctx context.Context, id int64, rating, review string) (*models.Movie, error)
	DeleteMovie(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

type movieService struct {
	repo         repository.MovieRepository
	metadata     MetadataClient
	imageBaseURL string
	log          *log.Entry
}

func NewMovieService(repo repository.MovieRepository, metadata MetadataClient, imageBaseURL string, logger *log.Logger) MovieService {
	if imageBaseURL == "" {
		imageBaseURL = tmdb.DefaultImageBaseURL
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &movieService{
		repo:         repo,
		metadata:     metadata,
		imageBaseURL: imageBaseURL,
		log:          logger.WithField("component", "movie_service"),
	}
}

// ListMovies returns all movies in rating order and refreshes their rankings
// on the way: the last movie in that order is ranked 1.
func (s *movieService) ListMovies(ctx context.Context) ([]models.Movie, error) {
	movies, err := s.repo.GetAllByRating(ctx)
	if err != nil {
		return nil, err
	}

	changed := assignRankings(movies)
	if err := s.repo.UpdateRankings(ctx, changed); err != nil {
		return nil, err
	}
	if len(changed) > 0 {
		s.log.WithField("changed", len(changed)).Debug("rankings refreshed")
	}
	return movies, nil
}

// assignRankings sets ranking = count - index on every movie and returns the
// assignments that differ from what was stored.
func assignRankings(movies []models.Movie) map[int64]int {
	changed := make(map[int64]int)
	for i := range movies {
		ranking := len(movies) - i
		if movies[i].Ranking == nil || *movies[i].Ranking != ranking {
			changed[movies[i].ID] = ranking
		}
		r := ranking
		movies[i].Ranking = &r
	}
	return changed
}

func (s *movieService) GetMovie(ctx context.Context, id int64) (*models.Movie, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return m, nil
}

// BeginAdd searches the metadata source for candidates matching title.
func (s *movieService) BeginAdd(ctx context.Context, title string) ([]dto.Candidate, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalidInput("title is required")
	}

	results, err := s.metadata.SearchMovies(ctx, title)
	if err != nil {
		return nil, s.externalError("search", err)
	}

	candidates := make([]dto.Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, dto.Candidate{
			ExternalID:  r.ID,
			Title:       r.Title,
			ReleaseDate: r.ReleaseDate,
		})
	}
	return candidates, nil
}

// SelectCandidate fetches the chosen movie from the metadata source and
// stores it unrated.
func (s *movieService) SelectCandidate(ctx context.Context, externalID int64) (*models.Movie, error) {
	if externalID <= 0 {
		return nil, invalidInput("external id must be positive, got %d", externalID)
	}

	detail, err := s.metadata.GetMovie(ctx, externalID)
	if err != nil {
		return nil, s.externalError("detail", err)
	}

	movie := &models.Movie{
		Title:       detail.Title,
		Year:        detail.ReleaseDate,
		Description: detail.Overview,
		ImgURL:      tmdb.PosterURL(s.imageBaseURL, detail.PosterPath),
	}
	if err := s.repo.Create(ctx, movie); err != nil {
		return nil, mapStoreError(err)
	}

	s.log.WithFields(log.Fields{
		"movie_id":    movie.ID,
		"external_id": externalID,
		"title":       movie.Title,
	}).Info("movie added")
	return movie, nil
}

// EditMovie overwrites rating and review. The rating is free text and is
// stored verbatim.
func (s *movieService) EditMovie(ctx context.Context, id int64, rating, review string) (*models.Movie, error) {
	rating = strings.TrimSpace(rating)
	review = strings.TrimSpace(review)
	if rating == "" {
		return nil, invalidInput("rating is required")
	}
	if review == "" {
		return nil, invalidInput("review is required")
	}

	if err := s.repo.UpdateRatingAndReview(ctx, id, rating, review); err != nil {
		return nil, mapStoreError(err)
	}

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	s.log.WithField("movie_id", id).Info("movie rated")
	return m, nil
}

func (s *movieService) DeleteMovie(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStoreError(err)
	}
	s.log.WithField("movie_id", id).Info("movie deleted")
	return nil
}

func (s *movieService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *movieService) externalError(op string, err error) error {
	extErr := &ExternalServiceError{Op: op, Timeout: tmdb.IsTimeout(err), Err: err}
	s.log.WithError(err).WithField("op", op).Error("metadata request failed")
	return extErr
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrMovieNotFound
	case errors.Is(err, repository.ErrDuplicateTitle):
		return ErrDuplicateTitle
	default:
		return err
	}
}
