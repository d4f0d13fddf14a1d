package domain

import (
	"context"

	catalogdomain "github.com/musichub/musichub/internal/catalog/domain"
	"gorm.io/gorm"
)

type Repository interface {
	InsertUser(ctx context.Context, db *gorm.DB, user *catalogdomain.User) error
	FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*catalogdomain.User, error)
	InsertArtist(ctx context.Context, db *gorm.DB, artist *catalogdomain.Artist) error
	FindArtistByEmail(ctx context.Context, db *gorm.DB, email string) (*catalogdomain.Artist, error)
}
