package models

import "time"

// Movie is one entry of the favorites list. Rating, Review and Ranking stay
// nil until the movie is rated (or, for Ranking, first listed).
type Movie struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string    `json:"title" gorm:"size:250;uniqueIndex;not null"`
	Year        string    `json:"year" gorm:"not null"`
	Description string    `json:"description" gorm:"size:1000;not null"`
	Rating      *string   `json:"rating,omitempty"`
	Ranking     *int      `json:"ranking,omitempty"`
	Review      *string   `json:"review,omitempty" gorm:"size:250"`
	ImgURL      string    `json:"img_url" gorm:"column:img_url;size:1000;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Movie) TableName() string {
	return "movies"
}

// IsRated reports whether the movie has been given a rating yet.
func (m Movie) IsRated() bool {
	return m.Rating != nil
}
