package app

import (
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"favmovies/database"
	"favmovies/internal/config"
	"favmovies/internal/ingestion/tmdb"
	"favmovies/internal/microservices/http-api/repository"
	"favmovies/internal/microservices/http-api/service"
)

// App holds the long-lived dependencies shared by the web server and the CLI.
type App struct {
	Config *config.Config
	Logger *log.Logger
	DB     *gorm.DB
	Movies service.MovieService
}

// New opens the store and wires repository, TMDb client and service.
func New(cfg *config.Config, logger *log.Logger) (*App, error) {
	db, err := database.OpenGorm(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewWithDB(cfg, logger, db), nil
}

// NewWithDB wires the service on top of an already opened store.
func NewWithDB(cfg *config.Config, logger *log.Logger, db *gorm.DB) *App {
	catalog := tmdb.NewClient(tmdb.Options{
		BaseURL:    cfg.TMDBAPIURL,
		APIKey:     cfg.TMDBAPIKey,
		Timeout:    cfg.TMDBTimeout,
		MaxRetries: cfg.TMDBMaxRetries,
		RetryDelay: cfg.TMDBRetryDelay,
		RateLimit:  cfg.TMDBRateLimit,
		Logger:     logger,
	})
	repo := repository.NewMovieRepository(db)

	return &App{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Movies: service.NewMovieService(repo, catalog, cfg.TMDBImageBaseURL, logger),
	}
}

func (a *App) Close() {
	database.Close(a.DB)
}
