package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *StreamEvent) error
	IncrementStreamCounters(ctx context.Context, db *gorm.DB, songID, artistID snowflake.ID, at time.Time) error
}
