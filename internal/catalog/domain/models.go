package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
)

// User is a listener account.
type User struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Email     string       `json:"email" gorm:"type:text;not null;uniqueIndex:ux_users_email"`
	Password  string       `json:"-" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Artist is a performer account with denormalized sales and stream counters.
type Artist struct {
	ID           snowflake.ID   `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"type:text;not null"`
	Slug         string         `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_artists_slug"`
	Email        string         `json:"email" gorm:"type:text;not null;uniqueIndex:ux_artists_email"`
	Password     string         `json:"-" gorm:"type:text;not null"`
	Genres       pq.StringArray `json:"genres" gorm:"type:text[]"`
	TotalStreams int64          `json:"total_streams" gorm:"not null;default:0"`
	TotalSales   int64          `json:"total_sales" gorm:"not null;default:0"`
	CreatedAt    time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Artist) TableName() string { return "artists" }

// Song is a sellable, streamable track. Price is in the smallest currency
// unit. Streams and Purchases are denormalized counters maintained by the
// stream and purchase services.
type Song struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	ArtistID  snowflake.ID `json:"artist_id" gorm:"column:artist_id;not null;index:ix_songs_artist"`
	Title     string       `json:"title" gorm:"type:text;not null"`
	Slug      string       `json:"slug" gorm:"type:text;not null;index:ix_songs_slug"`
	Genre     string       `json:"genre" gorm:"type:text"`
	Price     int64        `json:"price" gorm:"not null;default:0"`
	Streams   int64        `json:"streams" gorm:"not null;default:0"`
	Purchases int64        `json:"purchases" gorm:"not null;default:0"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Song) TableName() string { return "songs" }

// LibrarySong links a purchased song to a user's library. The unique
// (user_id, song_id) index makes repeat purchases idempotent.
type LibrarySong struct {
	ID      snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID  snowflake.ID `json:"user_id" gorm:"column:user_id;not null;index:ux_library_user_song,priority:1"`
	SongID  snowflake.ID `json:"song_id" gorm:"column:song_id;not null;index:ux_library_user_song,priority:2"`
	AddedAt time.Time    `json:"added_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LibrarySong) TableName() string { return "library_songs" }
