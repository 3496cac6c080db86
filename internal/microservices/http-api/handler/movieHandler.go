package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"favmovies/internal/microservices/http-api/dto"
	"favmovies/internal/microservices/http-api/middleware"
	"favmovies/internal/microservices/http-api/service"
	"favmovies/internal/microservices/http-api/views"
)

const (
	storeTimeout = 5 * time.Second
	// covers the TMDb client's own retries
	externalTimeout = 45 * time.Second
)

type MovieHandler struct {
	svc service.MovieService
	log *log.Entry
}

func NewMovieHandler(svc service.MovieService, logger *log.Logger) *MovieHandler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &MovieHandler{svc: svc, log: logger.WithField("component", "movie_handler")}
}

// RegisterRoutes mounts the pages. Mutating routes also answer GET so the
// plain links on the list page keep working.
func (h *MovieHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Home)
	r.GET("/edit/:id", h.EditForm)
	r.POST("/edit/:id", h.Edit)
	// GET delete is kept for old links; only the POST form carries a CSRF token
	r.GET("/delete/:id", h.Delete)
	r.POST("/delete/:id", h.Delete)
	r.GET("/add", h.AddForm)
	r.POST("/add", h.Add)
	r.GET("/select/:external_id", h.Select)
	r.POST("/select/:external_id", h.Select)
	r.GET("/check-conn", h.CheckConn)
}

func (h *MovieHandler) Home(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	movies, err := h.svc.ListMovies(ctx)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.render(c, http.StatusOK, views.Index, gin.H{
		"Movies": dto.FromModelsToViews(movies),
	})
}

func (h *MovieHandler) EditForm(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	m, err := h.svc.GetMovie(ctx, id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.render(c, http.StatusOK, views.Edit, gin.H{
		"Movie": dto.FromModelToView(*m),
		"Form":  dto.RateFormFromModel(*m),
	})
}

func (h *MovieHandler) Edit(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	var in dto.RateMovieForm
	bindErr := c.ShouldBind(&in)
	if bindErr == nil {
		_, err := h.svc.EditMovie(ctx, id, in.Rating, in.Review)
		if err == nil {
			h.flash(c, "Movie updated")
			c.Redirect(http.StatusFound, "/")
			return
		}
		if !errors.Is(err, service.ErrInvalidInput) {
			h.renderError(c, err)
			return
		}
		bindErr = err
	}

	// redisplay the form next to the stored movie
	m, err := h.svc.GetMovie(ctx, id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusBadRequest, views.Edit, gin.H{
		"Movie": dto.FromModelToView(*m),
		"Form":  in,
		"Error": formMessage(bindErr),
	})
}

func (h *MovieHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	if err := h.svc.DeleteMovie(ctx, id); err != nil {
		h.renderError(c, err)
		return
	}
	h.flash(c, "Movie removed")
	c.Redirect(http.StatusFound, "/")
}

func (h *MovieHandler) AddForm(c *gin.Context) {
	h.render(c, http.StatusOK, views.Add, gin.H{"Form": dto.AddMovieForm{}})
}

func (h *MovieHandler) Add(c *gin.Context) {
	var in dto.AddMovieForm
	if err := c.ShouldBind(&in); err != nil {
		h.render(c, http.StatusBadRequest, views.Add, gin.H{"Form": in, "Error": formMessage(err)})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), externalTimeout)
	defer cancel()

	candidates, err := h.svc.BeginAdd(ctx, in.Title)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			h.render(c, http.StatusBadRequest, views.Add, gin.H{"Form": in, "Error": formMessage(err)})
			return
		}
		h.renderError(c, err)
		return
	}

	h.render(c, http.StatusOK, views.Select, gin.H{
		"Query":      strings.TrimSpace(in.Title),
		"Candidates": candidates,
	})
}

func (h *MovieHandler) Select(c *gin.Context) {
	externalID, ok := h.parseID(c, "external_id")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), externalTimeout)
	defer cancel()

	m, err := h.svc.SelectCandidate(ctx, externalID)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateTitle) {
			h.render(c, http.StatusConflict, views.Add, gin.H{
				"Form":  dto.AddMovieForm{},
				"Error": service.ErrDuplicateTitle.Error(),
			})
			return
		}
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/edit/%d", m.ID))
}

func (h *MovieHandler) CheckConn(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.Ping(ctx); err != nil {
		h.log.WithError(err).Error("database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *MovieHandler) parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		h.renderStatus(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// render adds the values every page expects: pending flashes and the CSRF token.
func (h *MovieHandler) render(c *gin.Context, status int, page string, data gin.H) {
	data["CSRFToken"] = c.GetString(middleware.CSRFTokenKey)

	session := sessions.Default(c)
	if flashes := session.Flashes(); len(flashes) > 0 {
		data["Flashes"] = flashes
		if err := session.Save(); err != nil {
			h.log.WithError(err).Warn("failed to clear flashes")
		}
	}
	c.HTML(status, page, data)
}

func (h *MovieHandler) flash(c *gin.Context, msg string) {
	session := sessions.Default(c)
	session.AddFlash(msg)
	if err := session.Save(); err != nil {
		h.log.WithError(err).Warn("failed to store flash")
	}
}

func (h *MovieHandler) renderError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
		msg = "Something went wrong."
	}
	_ = c.Error(err)
	h.renderStatus(c, status, msg)
}

func (h *MovieHandler) renderStatus(c *gin.Context, status int, msg string) {
	h.render(c, status, views.Error, gin.H{
		"Status":     status,
		"StatusText": http.StatusText(status),
		"Message":    msg,
	})
}

func statusFor(err error) int {
	var extErr *service.ExternalServiceError
	switch {
	case errors.Is(err, service.ErrMovieNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateTitle):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.As(err, &extErr):
		if extErr.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// formMessage turns binding and validation failures into text for the form.
func formMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, strings.ToLower(fe.Field())+" is required")
		}
		return strings.Join(msgs, ", ")
	}
	if errors.Is(err, service.ErrInvalidInput) {
		return strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")
	}
	return err.Error()
}
