package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertSong(ctx context.Context, db *gorm.DB, song *Song) error
	FindSongByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Song, error)
	FindSongsByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Song, error)
	ListSongs(ctx context.Context, db *gorm.DB) ([]Song, error)
	ListSongsByArtist(ctx context.Context, db *gorm.DB, artistID snowflake.ID) ([]Song, error)
	FindArtistByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Artist, error)
	ListLibrary(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]LibraryEntry, error)
}

// LibraryEntry is a library row joined with its song and artist metadata.
type LibraryEntry struct {
	SongID     snowflake.ID `gorm:"column:song_id"`
	Title      string       `gorm:"column:title"`
	ArtistID   snowflake.ID `gorm:"column:artist_id"`
	ArtistName string       `gorm:"column:artist_name"`
	Price      int64        `gorm:"column:price"`
	AddedAt    time.Time    `gorm:"column:added_at"`
}
