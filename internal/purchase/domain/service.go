package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/musichub/musichub/pkg/db/pagination"
)

type Service interface {
	Record(ctx context.Context, req RecordRequest) (*Response, error)
	ListByBuyer(ctx context.Context, req ListRequest) (*ListResponse, error)
}

type RecordRequest struct {
	UserID        string `json:"-"`
	SongID        string `json:"song_id"`
	ArtistID      string `json:"artist_id,omitempty"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	CardNumber    string `json:"card_number,omitempty"`
}

type ListRequest struct {
	UserID string
	pagination.Pagination
}

type Response struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	SongID        string    `json:"song_id"`
	ArtistID      string    `json:"artist_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	GatewayRef    string    `json:"gateway_ref,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ListResponse struct {
	Payments []Response           `json:"payments"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

var (
	ErrInvalidUser          = errors.New("invalid_user")
	ErrInvalidSong          = errors.New("invalid_song")
	ErrInvalidArtist        = errors.New("invalid_artist")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrInvalidPhoneNumber   = errors.New("invalid_phone_number")
	ErrInvalidCardNumber    = errors.New("invalid_card_number")
	ErrInvalidPageToken     = errors.New("invalid_page_token")
	ErrSettlementDeclined   = errors.New("settlement_declined")
	ErrSettlementTimeout    = errors.New("settlement_timeout")
	ErrPurchaseInProgress   = errors.New("purchase_in_progress")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
