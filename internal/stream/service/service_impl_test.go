package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/musichub/musichub/internal/clock"
	streamdomain "github.com/musichub/musichub/internal/stream/domain"
	streamrepo "github.com/musichub/musichub/internal/stream/repository"
	streamservice "github.com/musichub/musichub/internal/stream/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newStreamService(t *testing.T, db *gorm.DB, clk clock.Clock, node *snowflake.Node) streamdomain.Service {
	t.Helper()

	return streamservice.New(streamservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clk,
		GenID: node,
		Repo:  streamrepo.Provide(),
	})
}

func TestRecordStreamIncrementsCounters(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 30)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	artistID := node.Generate()
	songID := node.Generate()
	userID := node.Generate()
	seedArtist(t, db, artistID)
	seedSong(t, db, songID, artistID)

	svc := newStreamService(t, db, clk, node)

	for i := 0; i < 3; i++ {
		clk.Advance(time.Minute)
		resp, err := svc.Record(ctx, streamdomain.RecordRequest{
			SongID:   songID.String(),
			ArtistID: artistID.String(),
			UserID:   userID.String(),
			Source:   "playlist",
		})
		if err != nil {
			t.Fatalf("record stream %d: %v", i, err)
		}
		if resp.Source != "playlist" {
			t.Fatalf("expected source playlist, got %s", resp.Source)
		}
	}

	assertCount(t, db, "SELECT COUNT(1) FROM stream_events", 3)
	assertCount(t, db, "SELECT streams FROM songs WHERE id = "+songID.String(), 3)
	assertCount(t, db, "SELECT total_streams FROM artists WHERE id = "+artistID.String(), 3)
}

func TestRecordStreamAnonymousDefaultsSource(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 31)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	artistID := node.Generate()
	songID := node.Generate()
	seedArtist(t, db, artistID)
	seedSong(t, db, songID, artistID)

	svc := newStreamService(t, db, clk, node)

	resp, err := svc.Record(ctx, streamdomain.RecordRequest{
		SongID:   songID.String(),
		ArtistID: artistID.String(),
	})
	if err != nil {
		t.Fatalf("record stream: %v", err)
	}
	if resp.Source != streamdomain.DefaultSource {
		t.Fatalf("expected default source %q, got %q", streamdomain.DefaultSource, resp.Source)
	}
	if resp.UserID != "" {
		t.Fatalf("expected empty user id, got %q", resp.UserID)
	}

	var userID *int64
	if err := db.Raw("SELECT user_id FROM stream_events LIMIT 1").Scan(&userID).Error; err != nil {
		t.Fatalf("scan user_id: %v", err)
	}
	if userID != nil {
		t.Fatalf("expected NULL user_id, got %d", *userID)
	}
}

func TestRecordStreamValidation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 32)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	artistID := node.Generate()
	songID := node.Generate()
	seedArtist(t, db, artistID)
	seedSong(t, db, songID, artistID)

	svc := newStreamService(t, db, clk, node)

	cases := []struct {
		name    string
		req     streamdomain.RecordRequest
		wantErr error
	}{
		{
			name:    "missing song",
			req:     streamdomain.RecordRequest{ArtistID: artistID.String()},
			wantErr: streamdomain.ErrInvalidSong,
		},
		{
			name:    "missing artist",
			req:     streamdomain.RecordRequest{SongID: songID.String()},
			wantErr: streamdomain.ErrInvalidArtist,
		},
		{
			name: "junk user id",
			req: streamdomain.RecordRequest{
				SongID:   songID.String(),
				ArtistID: artistID.String(),
				UserID:   "abc",
			},
			wantErr: streamdomain.ErrInvalidUser,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Record(ctx, tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	assertCount(t, db, "SELECT COUNT(1) FROM stream_events", 0)
	assertCount(t, db, "SELECT streams FROM songs WHERE id = "+songID.String(), 0)
}

func newNode(t *testing.T, id int64) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(id)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_stream_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE artists (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL,
			email TEXT NOT NULL,
			password TEXT NOT NULL,
			genres TEXT NOT NULL DEFAULT '{}',
			total_streams BIGINT NOT NULL DEFAULT 0,
			total_sales BIGINT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE songs (
			id BIGINT PRIMARY KEY,
			artist_id BIGINT NOT NULL,
			title TEXT NOT NULL,
			slug TEXT NOT NULL,
			genre TEXT NOT NULL DEFAULT '',
			price BIGINT NOT NULL DEFAULT 0,
			streams BIGINT NOT NULL DEFAULT 0,
			purchases BIGINT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE stream_events (
			id BIGINT PRIMARY KEY,
			song_id BIGINT NOT NULL,
			artist_id BIGINT NOT NULL,
			user_id BIGINT,
			source TEXT NOT NULL DEFAULT 'player',
			created_at DATETIME NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	return db
}

func seedArtist(t *testing.T, db *gorm.DB, id snowflake.ID) {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	err := db.Exec(
		`INSERT INTO artists (id, name, slug, email, password, genres, total_streams, total_sales, created_at, updated_at)
		 VALUES (?, 'Nina', 'nina', 'nina@example.com', 'x', '{}', 0, 0, ?, ?)`,
		id, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed artist: %v", err)
	}
}

func seedSong(t *testing.T, db *gorm.DB, id, artistID snowflake.ID) {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	err := db.Exec(
		`INSERT INTO songs (id, artist_id, title, slug, genre, price, streams, purchases, created_at, updated_at)
		 VALUES (?, ?, 'Moonrise', 'moonrise', '', 5000, 0, 0, ?, ?)`,
		id, artistID, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed song: %v", err)
	}
}

func assertCount(t *testing.T, db *gorm.DB, query string, want int64) {
	t.Helper()
	var got int64
	if err := db.Raw(query).Scan(&got).Error; err != nil {
		t.Fatalf("count query %q: %v", query, err)
	}
	if got != want {
		t.Fatalf("query %q: expected %d, got %d", query, want, got)
	}
}
