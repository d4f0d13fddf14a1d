package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/musichub/musichub/internal/catalog/domain"
	"gorm.io/gorm"
)

type Repository interface {
	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	MarkCompleted(ctx context.Context, db *gorm.DB, id snowflake.ID, gatewayRef string, at time.Time) error
	MarkFailed(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, at time.Time) error
	InsertHistory(ctx context.Context, db *gorm.DB, entry *PurchaseHistory) error
	AddToLibrary(ctx context.Context, db *gorm.DB, entry *catalogdomain.LibrarySong) (bool, error)
	IncrementSaleCounters(ctx context.Context, db *gorm.DB, songID, artistID snowflake.ID, at time.Time) error
	ListByBuyer(ctx context.Context, db *gorm.DB, userID snowflake.ID, cursor *ListCursor, limit int) ([]Payment, error)
}

// ListCursor marks the last row of the previous page. Both fields are needed
// because created_at is not unique; the id breaks ties so rows sharing a
// timestamp are never skipped across a page boundary.
type ListCursor struct {
	Before   time.Time
	BeforeID snowflake.ID
}
