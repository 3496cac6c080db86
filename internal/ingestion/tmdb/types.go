package tmdb

import (
	"fmt"
	"strings"
)

// SearchResponse represents the response from GET /search/movie
type SearchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// SearchResult is a single movie match
type SearchResult struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"poster_path"`
}

// MovieDetail represents the response from GET /movie/{id}
type MovieDetail struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"poster_path"`
}

// errorResponse is the body TMDb sends along with non-2xx statuses
type errorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}

// APIError is returned when TMDb answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tmdb: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("tmdb: HTTP %d: %s", e.StatusCode, e.Message)
}

// PosterURL joins the image base URL and a poster path. An empty path is
// not rejected and yields the bare base URL.
func PosterURL(imageBaseURL, posterPath string) string {
	return strings.TrimRight(imageBaseURL, "/") + "/" + strings.TrimLeft(posterPath, "/")
}
