package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	streamdomain "github.com/musichub/musichub/internal/stream/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() streamdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *streamdomain.StreamEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO stream_events (id, song_id, artist_id, user_id, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.SongID,
		event.ArtistID,
		event.UserID,
		event.Source,
		event.CreatedAt,
	).Error
}

func (r *repo) IncrementStreamCounters(ctx context.Context, db *gorm.DB, songID, artistID snowflake.ID, at time.Time) error {
	if err := db.WithContext(ctx).Exec(
		`UPDATE songs SET streams = streams + 1, updated_at = ? WHERE id = ?`,
		at,
		songID,
	).Error; err != nil {
		return err
	}

	return db.WithContext(ctx).Exec(
		`UPDATE artists SET total_streams = total_streams + 1, updated_at = ? WHERE id = ?`,
		at,
		artistID,
	).Error
}
