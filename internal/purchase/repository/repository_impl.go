package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/musichub/musichub/internal/catalog/domain"
	purchasedomain "github.com/musichub/musichub/internal/purchase/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() purchasedomain.Repository {
	return &repo{}
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, p *purchasedomain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, transaction_id, user_id, song_id, artist_id, amount, currency, payment_method, method_detail, status, gateway_ref, failure_reason, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.TransactionID,
		p.UserID,
		p.SongID,
		p.ArtistID,
		p.Amount,
		p.Currency,
		p.PaymentMethod,
		p.MethodDetail,
		p.Status,
		p.GatewayRef,
		p.FailureReason,
		p.CreatedAt,
		p.UpdatedAt,
	).Error
}

func (r *repo) MarkCompleted(ctx context.Context, db *gorm.DB, id snowflake.ID, gatewayRef string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?, gateway_ref = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		purchasedomain.StatusCompleted,
		gatewayRef,
		at,
		id,
		purchasedomain.StatusPending,
	).Error
}

func (r *repo) MarkFailed(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?, failure_reason = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		purchasedomain.StatusFailed,
		reason,
		at,
		id,
		purchasedomain.StatusPending,
	).Error
}

func (r *repo) InsertHistory(ctx context.Context, db *gorm.DB, entry *purchasedomain.PurchaseHistory) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO purchase_history (id, user_id, song_id, artist_id, payment_id, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		entry.SongID,
		entry.ArtistID,
		entry.PaymentID,
		entry.Amount,
		entry.CreatedAt,
	).Error
}

// AddToLibrary inserts the library row if absent. The (user_id, song_id)
// conflict target makes repeat purchases a no-op; the returned bool reports
// whether a row was actually inserted.
func (r *repo) AddToLibrary(ctx context.Context, db *gorm.DB, entry *catalogdomain.LibrarySong) (bool, error) {
	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "song_id"}},
		DoNothing: true,
	}

	result := db.WithContext(ctx).Clauses(conflict).Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) IncrementSaleCounters(ctx context.Context, db *gorm.DB, songID, artistID snowflake.ID, at time.Time) error {
	if err := db.WithContext(ctx).Exec(
		`UPDATE songs SET purchases = purchases + 1, updated_at = ? WHERE id = ?`,
		at,
		songID,
	).Error; err != nil {
		return err
	}

	return db.WithContext(ctx).Exec(
		`UPDATE artists SET total_sales = total_sales + 1, updated_at = ? WHERE id = ?`,
		at,
		artistID,
	).Error
}

func (r *repo) ListByBuyer(ctx context.Context, db *gorm.DB, userID snowflake.ID, cursor *purchasedomain.ListCursor, limit int) ([]purchasedomain.Payment, error) {
	query := `SELECT id, transaction_id, user_id, song_id, artist_id, amount, currency, payment_method, method_detail, status, gateway_ref, failure_reason, created_at, updated_at
		 FROM payments WHERE user_id = ?`
	args := []any{userID}

	if cursor != nil {
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, cursor.Before, cursor.Before, cursor.BeforeID)
	}

	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	var payments []purchasedomain.Payment
	err := db.WithContext(ctx).Raw(query, args...).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
