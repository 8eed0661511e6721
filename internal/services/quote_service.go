package services

import (
	"context"
	"time"

	"github.com/isdelr/slowmind-be/internal/models"
	"github.com/jmoiron/sqlx"
)

// QuoteServiceProvider defines the interface for quote services.
type QuoteServiceProvider interface {
	QuoteOfTheDay(ctx context.Context) (models.DailyQuote, error)
	ListQuotes(ctx context.Context) ([]models.Quote, error)
}

// QuoteService rotates through the quote collection once per calendar day.
type QuoteService struct {
	db  *sqlx.DB
	loc *time.Location
	now func() time.Time
}

// NewQuoteService creates a new QuoteService. Days roll over at midnight in loc.
func NewQuoteService(db *sqlx.DB, loc *time.Location) *QuoteService {
	if loc == nil {
		loc = time.UTC
	}
	return &QuoteService{db: db, loc: loc, now: time.Now}
}

// WithClock replaces the time source used to pick the day.
func (s *QuoteService) WithClock(now func() time.Time) *QuoteService {
	s.now = now
	return s
}

// ListQuotes returns every quote ordered by id.
func (s *QuoteService) ListQuotes(ctx context.Context) ([]models.Quote, error) {
	quotes := []models.Quote{}
	if err := s.db.SelectContext(ctx, &quotes, "SELECT id, text FROM motivational_quotes ORDER BY id ASC"); err != nil {
		return nil, storageErr("list quotes", err)
	}
	return quotes, nil
}

// QuoteOfTheDay picks the quote at position yearDay % count. The choice is
// stable for the whole day and only moves at midnight.
func (s *QuoteService) QuoteOfTheDay(ctx context.Context) (models.DailyQuote, error) {
	quotes, err := s.ListQuotes(ctx)
	if err != nil {
		return models.DailyQuote{}, err
	}
	if len(quotes) == 0 {
		return models.DailyQuote{}, ErrNoQuotesAvailable
	}

	now := s.now().In(s.loc)
	midnight, err := dailyAt(s.loc, 0, 0)
	if err != nil {
		return models.DailyQuote{}, err
	}

	return models.DailyQuote{
		Quote:          quotes[now.YearDay()%len(quotes)],
		Day:            now.Format(time.DateOnly),
		NextRotationAt: midnight.Next(now),
	}, nil
}
