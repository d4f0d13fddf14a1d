package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
	PeriodAll   = "all"
)

type Service interface {
	StreamAnalytics(ctx context.Context, query StreamQuery) (*StreamReport, error)
	SalesAnalytics(ctx context.Context, artistID string) (*SalesReport, error)
}

// StreamQuery scopes stream counts to an artist and/or a song over a period.
// At least one of ArtistID/SongID is required.
type StreamQuery struct {
	ArtistID string `form:"artist_id"`
	SongID   string `form:"song_id"`
	Period   string `form:"period"`
}

type TopSong struct {
	SongID  string `json:"song_id"`
	Title   string `json:"title"`
	Streams int64  `json:"streams"`
}

// StreamReport compares the current period window against the immediately
// preceding one. PercentChange is 0 whenever the previous window is empty;
// HasPreviousData lets callers tell that apart from a genuine 0% change.
type StreamReport struct {
	Period          string    `json:"period"`
	TotalStreams    int64     `json:"total_streams"`
	PreviousStreams int64     `json:"previous_streams"`
	PercentChange   float64   `json:"percent_change"`
	HasPreviousData bool      `json:"has_previous_data"`
	TopSongs        []TopSong `json:"top_songs,omitempty"`
}

type SongSales struct {
	SongID   string `json:"song_id"`
	Title    string `json:"title"`
	Count    int64  `json:"count"`
	Earnings int64  `json:"earnings"`
}

type DailySales struct {
	Date     string `json:"date"`
	Count    int64  `json:"count"`
	Earnings int64  `json:"earnings"`
}

type MethodSales struct {
	Method   string `json:"method"`
	Count    int64  `json:"count"`
	Earnings int64  `json:"earnings"`
}

type RecentPayment struct {
	TransactionID string    `json:"transaction_id"`
	SongID        string    `json:"song_id"`
	Amount        int64     `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
}

// SalesReport aggregates completed payments over a trailing 30-day window.
type SalesReport struct {
	ArtistID       string          `json:"artist_id"`
	Currency       string          `json:"currency"`
	TotalEarnings  int64           `json:"total_earnings"`
	TotalSales     int64           `json:"total_sales"`
	SongSales      []SongSales     `json:"song_sales"`
	DailySales     []DailySales    `json:"daily_sales"`
	MethodSales    []MethodSales   `json:"method_sales"`
	RecentPayments []RecentPayment `json:"recent_payments"`
	HasData        bool            `json:"has_data"`
}

var (
	ErrMissingSubject = errors.New("artist_or_song_required")
	ErrInvalidPeriod  = errors.New("invalid_period")
	ErrInvalidArtist  = errors.New("invalid_artist")
	ErrInvalidSong    = errors.New("invalid_song")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
