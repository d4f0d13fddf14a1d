package repository

import (
	"context"

	catalogdomain "github.com/musichub/musichub/internal/catalog/domain"
	identitydomain "github.com/musichub/musichub/internal/identity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() identitydomain.Repository {
	return &repo{}
}

func (r *repo) InsertUser(ctx context.Context, db *gorm.DB, user *catalogdomain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (id, name, email, password, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.Password,
		user.CreatedAt,
		user.UpdatedAt,
	).Error
}

func (r *repo) FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*catalogdomain.User, error) {
	var user catalogdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, password, created_at, updated_at
		 FROM users WHERE email = ?`,
		email,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) InsertArtist(ctx context.Context, db *gorm.DB, artist *catalogdomain.Artist) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO artists (id, name, slug, email, password, genres, total_streams, total_sales, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		artist.ID,
		artist.Name,
		artist.Slug,
		artist.Email,
		artist.Password,
		artist.Genres,
		artist.TotalStreams,
		artist.TotalSales,
		artist.CreatedAt,
		artist.UpdatedAt,
	).Error
}

func (r *repo) FindArtistByEmail(ctx context.Context, db *gorm.DB, email string) (*catalogdomain.Artist, error) {
	var artist catalogdomain.Artist
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, email, password, genres, total_streams, total_sales, created_at, updated_at
		 FROM artists WHERE email = ?`,
		email,
	).Scan(&artist).Error
	if err != nil {
		return nil, err
	}
	if artist.ID == 0 {
		return nil, nil
	}
	return &artist, nil
}
