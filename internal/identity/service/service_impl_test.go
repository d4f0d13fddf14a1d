package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/musichub/musichub/internal/clock"
	identitydomain "github.com/musichub/musichub/internal/identity/domain"
	identityrepo "github.com/musichub/musichub/internal/identity/repository"
	identityservice "github.com/musichub/musichub/internal/identity/service"
	"github.com/musichub/musichub/internal/identity/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newIdentityService(t *testing.T, db *gorm.DB, clk clock.Clock) identitydomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(50)
	require.NoError(t, err)

	issuer, err := token.NewIssuer("test-secret", time.Hour, clk)
	require.NoError(t, err)

	return identityservice.New(identityservice.Params{
		DB:     db,
		Log:    zap.NewNop(),
		Clock:  clk,
		GenID:  node,
		Repo:   identityrepo.Provide(),
		Issuer: issuer,
	})
}

func TestRegisterLoginVerifyRoundtrip(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := newIdentityService(t, db, clk)

	registered, err := svc.Register(ctx, identitydomain.RegisterRequest{
		Name:     "Ada",
		Email:    "Ada@Example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, identitydomain.RoleUser, registered.Role)
	assert.Equal(t, "ada@example.com", registered.Email)
	assert.NotEmpty(t, registered.Token)

	principal, err := svc.Verify(ctx, registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, principal.SubjectID.String())
	assert.Equal(t, identitydomain.RoleUser, principal.Role)

	loggedIn, err := svc.Login(ctx, identitydomain.LoginRequest{
		Email:    "ada@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, loggedIn.ID)

	_, err = svc.Login(ctx, identitydomain.LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, identitydomain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, identitydomain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "hunter22",
	})
	assert.ErrorIs(t, err, identitydomain.ErrInvalidCredentials)
}

func TestRegisterArtist(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := newIdentityService(t, db, clk)

	registered, err := svc.Register(ctx, identitydomain.RegisterRequest{
		Name:     "Nina Simone",
		Email:    "nina@example.com",
		Password: "feelinggood",
		Role:     identitydomain.RoleArtist,
		Genres:   []string{"jazz", "soul"},
	})
	require.NoError(t, err)
	assert.Equal(t, identitydomain.RoleArtist, registered.Role)

	var slug string
	require.NoError(t, db.Raw("SELECT slug FROM artists WHERE id = ?", registered.ID).Scan(&slug).Error)
	assert.Equal(t, "nina-simone", slug)

	principal, err := svc.Verify(ctx, registered.Token)
	require.NoError(t, err)
	assert.Equal(t, identitydomain.RoleArtist, principal.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := newIdentityService(t, db, clk)

	_, err := svc.Register(ctx, identitydomain.RegisterRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, identitydomain.RegisterRequest{
		Name:     "Other Ada",
		Email:    "ADA@example.com",
		Password: "different",
	})
	assert.ErrorIs(t, err, identitydomain.ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := newIdentityService(t, db, clk)

	cases := []struct {
		name    string
		req     identitydomain.RegisterRequest
		wantErr error
	}{
		{
			name:    "empty name",
			req:     identitydomain.RegisterRequest{Email: "a@b.com", Password: "secret1"},
			wantErr: identitydomain.ErrInvalidName,
		},
		{
			name:    "bad email",
			req:     identitydomain.RegisterRequest{Name: "Ada", Email: "not-an-email", Password: "secret1"},
			wantErr: identitydomain.ErrInvalidEmail,
		},
		{
			name:    "short password",
			req:     identitydomain.RegisterRequest{Name: "Ada", Email: "a@b.com", Password: "abc"},
			wantErr: identitydomain.ErrInvalidPassword,
		},
		{
			name:    "unknown role",
			req:     identitydomain.RegisterRequest{Name: "Ada", Email: "a@b.com", Password: "secret1", Role: "admin"},
			wantErr: identitydomain.ErrInvalidRole,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := newIdentityService(t, db, clk)

	for _, raw := range []string{"", "junk", "a.b.c", "Bearer something"} {
		_, err := svc.Verify(ctx, raw)
		assert.ErrorIs(t, err, identitydomain.ErrInvalidToken, "token %q", raw)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := newIdentityService(t, db, clk)

	registered, err := svc.Register(ctx, identitydomain.RegisterRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)

	_, err = svc.Verify(ctx, registered.Token)
	assert.ErrorIs(t, err, identitydomain.ErrInvalidToken)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_identity_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			password TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_users_email ON users(email)`,
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
		`CREATE UNIQUE INDEX ux_artists_email ON artists(email)`,
	}

	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}
