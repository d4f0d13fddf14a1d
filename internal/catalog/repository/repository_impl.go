package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/musichub/musichub/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() catalogdomain.Repository {
	return &repo{}
}

func (r *repo) InsertSong(ctx context.Context, db *gorm.DB, song *catalogdomain.Song) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO songs (id, artist_id, title, slug, genre, price, streams, purchases, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		song.ID,
		song.ArtistID,
		song.Title,
		song.Slug,
		song.Genre,
		song.Price,
		song.Streams,
		song.Purchases,
		song.CreatedAt,
		song.UpdatedAt,
	).Error
}

func (r *repo) FindSongByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Song, error) {
	var song catalogdomain.Song
	err := db.WithContext(ctx).Raw(
		`SELECT id, artist_id, title, slug, genre, price, streams, purchases, created_at, updated_at
		 FROM songs WHERE id = ?`,
		id,
	).Scan(&song).Error
	if err != nil {
		return nil, err
	}
	if song.ID == 0 {
		return nil, nil
	}
	return &song, nil
}

func (r *repo) FindSongsByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]catalogdomain.Song, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var songs []catalogdomain.Song
	err := db.WithContext(ctx).Raw(
		`SELECT id, artist_id, title, slug, genre, price, streams, purchases, created_at, updated_at
		 FROM songs WHERE id IN ?`,
		ids,
	).Scan(&songs).Error
	if err != nil {
		return nil, err
	}
	return songs, nil
}

func (r *repo) ListSongs(ctx context.Context, db *gorm.DB) ([]catalogdomain.Song, error) {
	var songs []catalogdomain.Song
	err := db.WithContext(ctx).Raw(
		`SELECT id, artist_id, title, slug, genre, price, streams, purchases, created_at, updated_at
		 FROM songs ORDER BY created_at DESC`,
	).Scan(&songs).Error
	if err != nil {
		return nil, err
	}
	return songs, nil
}

func (r *repo) ListSongsByArtist(ctx context.Context, db *gorm.DB, artistID snowflake.ID) ([]catalogdomain.Song, error) {
	var songs []catalogdomain.Song
	err := db.WithContext(ctx).Raw(
		`SELECT id, artist_id, title, slug, genre, price, streams, purchases, created_at, updated_at
		 FROM songs WHERE artist_id = ? ORDER BY created_at ASC`,
		artistID,
	).Scan(&songs).Error
	if err != nil {
		return nil, err
	}
	return songs, nil
}

func (r *repo) FindArtistByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Artist, error) {
	var artist catalogdomain.Artist
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, email, password, genres, total_streams, total_sales, created_at, updated_at
		 FROM artists WHERE id = ?`,
		id,
	).Scan(&artist).Error
	if err != nil {
		return nil, err
	}
	if artist.ID == 0 {
		return nil, nil
	}
	return &artist, nil
}

func (r *repo) ListLibrary(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]catalogdomain.LibraryEntry, error) {
	var entries []catalogdomain.LibraryEntry
	err := db.WithContext(ctx).Raw(
		`SELECT ls.song_id, s.title, s.artist_id, a.name AS artist_name, s.price, ls.added_at
		 FROM library_songs ls
		 JOIN songs s ON s.id = ls.song_id
		 JOIN artists a ON a.id = s.artist_id
		 WHERE ls.user_id = ?
		 ORDER BY ls.added_at DESC`,
		userID,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
