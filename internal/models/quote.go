package models

import "time"

// Quote is a static inspirational text.
type Quote struct {
	ID   int64  `json:"id" db:"id"`
	Text string `json:"text" db:"text"`
}

// DailyQuote is the quote selected for a calendar day.
type DailyQuote struct {
	Quote
	Day            string    `json:"day"` // YYYY-MM-DD in the rotation's location
	NextRotationAt time.Time `json:"nextRotationAt"`
}
