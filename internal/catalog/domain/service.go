package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	CreateSong(ctx context.Context, req CreateSongRequest) (*SongResponse, error)
	GetSong(ctx context.Context, id string) (*SongResponse, error)
	GetArtist(ctx context.Context, id string) (*ArtistResponse, error)
	ListSongs(ctx context.Context, artistID string) ([]SongResponse, error)
	SongTitles(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]string, error)
	Library(ctx context.Context, userID string) ([]LibraryItem, error)
}

type CreateSongRequest struct {
	ArtistID string `json:"artist_id"`
	Title    string `json:"title"`
	Genre    string `json:"genre"`
	Price    int64  `json:"price"`
}

type SongResponse struct {
	ID        string    `json:"id"`
	ArtistID  string    `json:"artist_id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Genre     string    `json:"genre,omitempty"`
	Price     int64     `json:"price"`
	Streams   int64     `json:"streams"`
	Purchases int64     `json:"purchases"`
	CreatedAt time.Time `json:"created_at"`
}

type ArtistResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Genres       []string  `json:"genres,omitempty"`
	TotalStreams int64     `json:"total_streams"`
	TotalSales   int64     `json:"total_sales"`
	CreatedAt    time.Time `json:"created_at"`
}

type LibraryItem struct {
	SongID     string    `json:"song_id"`
	Title      string    `json:"title"`
	ArtistID   string    `json:"artist_id"`
	ArtistName string    `json:"artist_name"`
	Price      int64     `json:"price"`
	AddedAt    time.Time `json:"added_at"`
}

var (
	ErrInvalidArtist  = errors.New("invalid_artist")
	ErrInvalidTitle   = errors.New("invalid_title")
	ErrInvalidPrice   = errors.New("invalid_price")
	ErrInvalidUser    = errors.New("invalid_user")
	ErrInvalidID      = errors.New("invalid_id")
	ErrSongNotFound   = errors.New("song_not_found")
	ErrArtistNotFound = errors.New("artist_not_found")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
