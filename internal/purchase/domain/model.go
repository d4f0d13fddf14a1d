package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const (
	MethodMobileMoney = "mobile_money"
	MethodCard        = "card"
)

// Payment is the audit record of a purchase attempt. Failed settlements
// keep their row with status "failed"; side effects only accompany
// "completed".
type Payment struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	TransactionID string       `json:"transaction_id" gorm:"column:transaction_id;type:text;not null;uniqueIndex:ux_payments_txn"`
	UserID        snowflake.ID `json:"user_id" gorm:"column:user_id;not null;index:ix_payments_user"`
	SongID        snowflake.ID `json:"song_id" gorm:"column:song_id;not null;index:ix_payments_song"`
	ArtistID      snowflake.ID `json:"artist_id" gorm:"column:artist_id;not null;index:ix_payments_artist"`
	Amount        int64        `json:"amount" gorm:"not null"`
	Currency      string       `json:"currency" gorm:"type:text;not null"`
	PaymentMethod string       `json:"payment_method" gorm:"column:payment_method;type:text;not null"`
	MethodDetail  string       `json:"method_detail" gorm:"column:method_detail;type:text"`
	Status        string       `json:"status" gorm:"type:text;not null"`
	GatewayRef    string       `json:"gateway_ref" gorm:"column:gateway_ref;type:text"`
	FailureReason string       `json:"failure_reason" gorm:"column:failure_reason;type:text"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// PurchaseHistory is an append-only log of completed purchases.
type PurchaseHistory struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID    snowflake.ID `json:"user_id" gorm:"column:user_id;not null;index:ix_history_user"`
	SongID    snowflake.ID `json:"song_id" gorm:"column:song_id;not null"`
	ArtistID  snowflake.ID `json:"artist_id" gorm:"column:artist_id;not null;index:ix_history_artist"`
	PaymentID snowflake.ID `json:"payment_id" gorm:"column:payment_id;not null"`
	Amount    int64        `json:"amount" gorm:"not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PurchaseHistory) TableName() string { return "purchase_history" }
