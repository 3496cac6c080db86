package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"favmovies/internal/microservices/http-api/dto"
	"favmovies/internal/microservices/http-api/handler"
	"favmovies/internal/microservices/http-api/middleware"
	"favmovies/internal/microservices/http-api/models"
	"favmovies/internal/microservices/http-api/service"
	"favmovies/internal/microservices/http-api/views"
)

// --- HELPER FUNCTIONS FOR POINTERS ---
func stringPtr(s string) *string { return &s }
func intPtr(i int) *int          { return &i }

// --- MOCK SERVICE ---

type MockMovieService struct {
	mock.Mock
}

func (m *MockMovieService) ListMovies(ctx context.Context) ([]models.Movie, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Movie), args.Error(1)
}

func (m *MockMovieService) GetMovie(ctx context.Context, id int64) (*models.Movie, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Movie), args.Error(1)
}

func (m *MockMovieService) BeginAdd(ctx context.Context, title string) ([]dto.Candidate, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.Candidate), args.Error(1)
}

func (m *MockMovieService) SelectCandidate(ctx context.Context, externalID int64) (*models.Movie, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Movie), args.Error(1)
}

func (m *MockMovieService) EditMovie(ctx context.Context, id int64, rating, review string) (*models.Movie, error) {
	args := m.Called(ctx, id, rating, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Movie), args.Error(1)
}

func (m *MockMovieService) DeleteMovie(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMovieService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- SETUP ---

func setupRouter(t *testing.T) (*gin.Engine, *MockMovieService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	renderer, err := views.NewRenderer()
	require.NoError(t, err)

	logger := log.New()
	logger.SetOutput(io.Discard)

	svc := new(MockMovieService)
	r := gin.New()
	r.HTMLRender = renderer
	r.Use(middleware.Sessions("test_session", "0123456789abcdef0123456789abcdef", false))
	handler.NewMovieHandler(svc, logger).RegisterRoutes(r)
	return r, svc
}

func doRequest(r *gin.Engine, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleMovie() *models.Movie {
	return &models.Movie{
		ID:          1,
		Title:       "Phone Booth",
		Year:        "2002",
		Description: "Publicist Stuart Shepard finds himself trapped in a phone booth.",
		Rating:      stringPtr("7.3"),
		Ranking:     intPtr(1),
		Review:      stringPtr("My favourite character was the caller."),
		ImgURL:      "https://image.tmdb.org/t/p/w500/tjrX2oWRCM3Tvarz38zlZM7Uc10.jpg",
	}
}

// --- TESTS ---

func TestHome(t *testing.T) {
	r, svc := setupRouter(t)
	unrated := models.Movie{ID: 2, Title: "Avatar", Ranking: intPtr(2)}
	svc.On("ListMovies", mock.Anything).Return([]models.Movie{unrated, *sampleMovie()}, nil).Once()

	w := doRequest(r, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Phone Booth")
	assert.Contains(t, body, "Avatar")
	assert.Contains(t, body, "None")
	assert.Contains(t, body, `href="/edit/1"`)
	svc.AssertExpectations(t)
}

func TestHome_StoreFailure(t *testing.T) {
	r, svc := setupRouter(t)
	svc.On("ListMovies", mock.Anything).Return(nil, errors.New("disk I/O error")).Once()

	w := doRequest(r, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something went wrong.")
	assert.NotContains(t, w.Body.String(), "disk I/O error")
}

func TestEditForm(t *testing.T) {
	t.Run("PrefillsStoredValues", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("GetMovie", mock.Anything, int64(1)).Return(sampleMovie(), nil).Once()

		w := doRequest(r, http.MethodGet, "/edit/1", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `value="7.3"`)
	})

	t.Run("NotFound", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("GetMovie", mock.Anything, int64(99)).Return(nil, service.ErrMovieNotFound).Once()

		w := doRequest(r, http.MethodGet, "/edit/99", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "movie not found")
	})

	t.Run("InvalidID", func(t *testing.T) {
		r, svc := setupRouter(t)

		w := doRequest(r, http.MethodGet, "/edit/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "GetMovie", mock.Anything, mock.Anything)
	})
}

func TestEdit(t *testing.T) {
	t.Run("SuccessRedirectsWithFlash", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("EditMovie", mock.Anything, int64(1), "8.5", "Great").Return(sampleMovie(), nil).Once()
		svc.On("ListMovies", mock.Anything).Return([]models.Movie{*sampleMovie()}, nil).Once()

		w := doRequest(r, http.MethodPost, "/edit/1", url.Values{"rating": {"8.5"}, "review": {"Great"}})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))

		// the flash is shown once on the next page
		home := doRequest(r, http.MethodGet, "/", nil, w.Result().Cookies()...)
		assert.Contains(t, home.Body.String(), "Movie updated")
		svc.AssertExpectations(t)
	})

	t.Run("MissingReviewRedisplaysForm", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("GetMovie", mock.Anything, int64(1)).Return(sampleMovie(), nil).Once()

		w := doRequest(r, http.MethodPost, "/edit/1", url.Values{"rating": {"9"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "review is required")
		assert.Contains(t, w.Body.String(), `value="9"`)
		svc.AssertNotCalled(t, "EditMovie", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BlankRatingRejectedByService", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("EditMovie", mock.Anything, int64(1), "  ", "ok").
			Return(nil, errors.Join(service.ErrInvalidInput, errors.New("rating is required"))).Once()
		svc.On("GetMovie", mock.Anything, int64(1)).Return(sampleMovie(), nil).Once()

		w := doRequest(r, http.MethodPost, "/edit/1", url.Values{"rating": {"  "}, "review": {"ok"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("EditMovie", mock.Anything, int64(7), "5", "meh").Return(nil, service.ErrMovieNotFound).Once()

		w := doRequest(r, http.MethodPost, "/edit/7", url.Values{"rating": {"5"}, "review": {"meh"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDelete(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			r, svc := setupRouter(t)
			svc.On("DeleteMovie", mock.Anything, int64(3)).Return(nil).Once()

			w := doRequest(r, method, "/delete/3", url.Values{})
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, "/", w.Header().Get("Location"))
			svc.AssertExpectations(t)
		})
	}

	t.Run("NotFound", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("DeleteMovie", mock.Anything, int64(3)).Return(service.ErrMovieNotFound).Once()

		w := doRequest(r, http.MethodGet, "/delete/3", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdd(t *testing.T) {
	t.Run("FormPage", func(t *testing.T) {
		r, _ := setupRouter(t)

		w := doRequest(r, http.MethodGet, "/add", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `name="title"`)
	})

	t.Run("ShowsCandidates", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("BeginAdd", mock.Anything, "Inception").Return([]dto.Candidate{
			{ExternalID: 27205, Title: "Inception", ReleaseDate: "2010-07-15"},
		}, nil).Once()

		w := doRequest(r, http.MethodPost, "/add", url.Values{"title": {"Inception"}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `action="/select/27205"`)
	})

	t.Run("NoCandidates", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("BeginAdd", mock.Anything, "zzzz").Return([]dto.Candidate{}, nil).Once()

		w := doRequest(r, http.MethodPost, "/add", url.Values{"title": {"zzzz"}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "No movies matched")
	})

	t.Run("MissingTitle", func(t *testing.T) {
		r, svc := setupRouter(t)

		w := doRequest(r, http.MethodPost, "/add", url.Values{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "title is required")
		svc.AssertNotCalled(t, "BeginAdd", mock.Anything, mock.Anything)
	})

	t.Run("ExternalFailure", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("BeginAdd", mock.Anything, "Inception").
			Return(nil, &service.ExternalServiceError{Op: "search", Err: errors.New("503")}).Once()

		w := doRequest(r, http.MethodPost, "/add", url.Values{"title": {"Inception"}})
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("ExternalTimeout", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("BeginAdd", mock.Anything, "Inception").
			Return(nil, &service.ExternalServiceError{Op: "search", Timeout: true, Err: context.DeadlineExceeded}).Once()

		w := doRequest(r, http.MethodPost, "/add", url.Values{"title": {"Inception"}})
		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	})
}

func TestSelect(t *testing.T) {
	t.Run("RedirectsToEdit", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("SelectCandidate", mock.Anything, int64(603)).Return(&models.Movie{ID: 12, Title: "The Matrix"}, nil).Once()

		w := doRequest(r, http.MethodPost, "/select/603", url.Values{})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/edit/12", w.Header().Get("Location"))
	})

	t.Run("Duplicate", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("SelectCandidate", mock.Anything, int64(603)).Return(nil, service.ErrDuplicateTitle).Once()

		w := doRequest(r, http.MethodGet, "/select/603", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "already in your list")
	})

	t.Run("NonIntegerID", func(t *testing.T) {
		r, svc := setupRouter(t)

		w := doRequest(r, http.MethodGet, "/select/(603,%20'The%20Matrix')", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "SelectCandidate", mock.Anything, mock.Anything)
	})
}

func TestCheckConn(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("Ping", mock.Anything).Return(nil).Once()

		w := doRequest(r, http.MethodGet, "/check-conn", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp["status"])
	})

	t.Run("Unavailable", func(t *testing.T) {
		r, svc := setupRouter(t)
		svc.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()

		w := doRequest(r, http.MethodGet, "/check-conn", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
