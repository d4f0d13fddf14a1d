package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Record(ctx context.Context, req RecordRequest) (*Response, error)
}

type RecordRequest struct {
	SongID   string `json:"song_id"`
	ArtistID string `json:"artist_id"`
	UserID   string `json:"user_id,omitempty"`
	Source   string `json:"source,omitempty"`
}

type Response struct {
	ID        string    `json:"id"`
	SongID    string    `json:"song_id"`
	ArtistID  string    `json:"artist_id"`
	UserID    string    `json:"user_id,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidSong   = errors.New("invalid_song")
	ErrInvalidArtist = errors.New("invalid_artist")
	ErrInvalidUser   = errors.New("invalid_user")
	ErrRateLimited   = errors.New("rate_limited")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
