package dto

import (
	"strconv"

	"favmovies/internal/microservices/http-api/models"
)

// unset is shown wherever a movie has no rating, review or ranking yet.
const unset = "None"

// AddMovieForm is submitted by POST /add
type AddMovieForm struct {
	Title string `form:"title" binding:"required"`
}

// RateMovieForm is submitted by POST /edit/:id
type RateMovieForm struct {
	Rating string `form:"rating" binding:"required"`
	Review string `form:"review" binding:"required"`
}

// Candidate is one TMDb search hit offered for selection before a movie is stored.
type Candidate struct {
	ExternalID  int64  `json:"external_id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
}

// MovieView is the flattened form of a movie the templates consume.
type MovieView struct {
	ID          int64
	Title       string
	Year        string
	Description string
	Rating      string
	Ranking     string
	Review      string
	ImgURL      string
	Rated       bool
}

func FromModelToView(m models.Movie) MovieView {
	v := MovieView{
		ID:          m.ID,
		Title:       m.Title,
		Year:        m.Year,
		Description: m.Description,
		Rating:      unset,
		Ranking:     unset,
		Review:      unset,
		ImgURL:      m.ImgURL,
		Rated:       m.IsRated(),
	}
	if m.Rating != nil {
		v.Rating = *m.Rating
	}
	if m.Review != nil {
		v.Review = *m.Review
	}
	if m.Ranking != nil {
		v.Ranking = strconv.Itoa(*m.Ranking)
	}
	return v
}

func FromModelsToViews(movies []models.Movie) []MovieView {
	views := make([]MovieView, 0, len(movies))
	for _, m := range movies {
		views = append(views, FromModelToView(m))
	}
	return views
}

// RateFormFromModel pre-fills the edit form with what is already stored.
func RateFormFromModel(m models.Movie) RateMovieForm {
	var f RateMovieForm
	if m.Rating != nil {
		f.Rating = *m.Rating
	}
	if m.Review != nil {
		f.Review = *m.Review
	}
	return f
}
