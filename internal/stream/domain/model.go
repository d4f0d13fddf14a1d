package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DefaultSource is recorded when a play event does not name its origin.
const DefaultSource = "player"

// StreamEvent is one recorded play. UserID is nil for anonymous listeners.
// The event log is the source of truth; the counters on songs and artists
// are denormalized from it.
type StreamEvent struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	SongID    snowflake.ID  `json:"song_id" gorm:"column:song_id;not null;index:ix_streams_song_time,priority:1"`
	ArtistID  snowflake.ID  `json:"artist_id" gorm:"column:artist_id;not null;index:ix_streams_artist_time,priority:1"`
	UserID    *snowflake.ID `json:"user_id,omitempty" gorm:"column:user_id"`
	Source    string        `json:"source" gorm:"type:text;not null"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null;index:ix_streams_song_time,priority:2;index:ix_streams_artist_time,priority:2"`
}

// TableName sets the database table name.
func (StreamEvent) TableName() string { return "stream_events" }
