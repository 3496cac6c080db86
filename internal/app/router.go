package app

import (
	"github.com/gin-gonic/gin"

	"favmovies/internal/microservices/http-api/handler"
	"favmovies/internal/microservices/http-api/middleware"
	"favmovies/internal/microservices/http-api/views"
)

// NewRouter builds the gin engine serving the movie pages.
func (a *App) NewRouter() (*gin.Engine, error) {
	if a.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	renderer, err := views.NewRenderer()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.HTMLRender = renderer
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(a.Logger))
	r.Use(middleware.Sessions(a.Config.SessionName, a.Config.SecretKey, a.Config.IsProduction()))
	r.Use(middleware.CSRF(a.Config.SecretKey), middleware.CSRFToken())

	handler.NewMovieHandler(a.Movies, a.Logger).RegisterRoutes(r)
	return r, nil
}
