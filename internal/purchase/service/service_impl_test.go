package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/musichub/musichub/internal/catalog/domain"
	catalogrepo "github.com/musichub/musichub/internal/catalog/repository"
	"github.com/musichub/musichub/internal/clock"
	"github.com/musichub/musichub/internal/config"
	purchasedomain "github.com/musichub/musichub/internal/purchase/domain"
	"github.com/musichub/musichub/internal/purchase/gateway"
	purchaserepo "github.com/musichub/musichub/internal/purchase/repository"
	purchaseservice "github.com/musichub/musichub/internal/purchase/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type approveGateway struct {
	method string
}

func (g approveGateway) Method() string { return g.method }

func (g approveGateway) Settle(ctx context.Context, charge gateway.Charge) (*gateway.Receipt, error) {
	return &gateway.Receipt{Reference: "ref_" + charge.TransactionID, SettledAt: time.Now().UTC()}, nil
}

type declineGateway struct {
	method string
}

func (g declineGateway) Method() string { return g.method }

func (g declineGateway) Settle(ctx context.Context, charge gateway.Charge) (*gateway.Receipt, error) {
	return nil, errors.New("insufficient funds")
}

type stallGateway struct {
	method string
}

func (g stallGateway) Method() string { return g.method }

func (g stallGateway) Settle(ctx context.Context, charge gateway.Charge) (*gateway.Receipt, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newPurchaseService(t *testing.T, db *gorm.DB, clk clock.Clock, node *snowflake.Node, gateways ...gateway.Gateway) purchasedomain.Service {
	t.Helper()

	return purchaseservice.New(purchaseservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		Clock:      clk,
		GenID:      node,
		Cfg:        config.Config{Currency: "UGX"},
		Settlement: config.NewStaticSettlementConfigHolder(config.SettlementConfig{DelayMillis: 0, TimeoutMillis: 200}),
		Repo:       purchaserepo.Provide(),
		Catalog:    catalogrepo.Provide(),
		Gateways:   gateway.NewRegistry(gateways...),
	})
}

func TestRecordPurchaseCompletesAndGrantsLibrary(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 20)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	artistID := node.Generate()
	songID := node.Generate()
	userID := node.Generate()
	seedArtist(t, db, artistID, "Nina")
	seedSong(t, db, songID, artistID, "Moonrise", 5000)

	svc := newPurchaseService(t, db, clk, node, approveGateway{method: purchasedomain.MethodMobileMoney})

	resp, err := svc.Record(ctx, purchasedomain.RecordRequest{
		UserID:        userID.String(),
		SongID:        songID.String(),
		Amount:        5000,
		PaymentMethod: purchasedomain.MethodMobileMoney,
		PhoneNumber:   "256700123456",
	})
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}

	if resp.Status != purchasedomain.StatusCompleted {
		t.Fatalf("expected status %s, got %s", purchasedomain.StatusCompleted, resp.Status)
	}
	if !strings.HasPrefix(resp.TransactionID, "TXN") {
		t.Fatalf("expected TXN-prefixed transaction id, got %s", resp.TransactionID)
	}
	if resp.Currency != "UGX" {
		t.Fatalf("expected currency UGX, got %s", resp.Currency)
	}
	if resp.GatewayRef == "" {
		t.Fatalf("expected gateway reference on completed payment")
	}

	var status string
	if err := db.Raw("SELECT status FROM payments WHERE id = ?", resp.ID).Scan(&status).Error; err != nil {
		t.Fatalf("scan status: %v", err)
	}
	if status != purchasedomain.StatusCompleted {
		t.Fatalf("expected persisted status completed, got %s", status)
	}

	assertCount(t, db, "SELECT COUNT(1) FROM library_songs", 1)
	assertCount(t, db, "SELECT COUNT(1) FROM purchase_history", 1)
	assertCount(t, db, "SELECT purchases FROM songs WHERE id = "+songID.String(), 1)
	assertCount(t, db, "SELECT total_sales FROM artists WHERE id = "+artistID.String(), 1)
}

func TestRecordPurchaseDeclineLeavesNoSideEffects(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 21)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	artistID := node.Generate()
	songID := node.Generate()
	seedArtist(t, db, artistID, "Nina")
	seedSong(t, db, songID, artistID, "Moonrise", 5000)

	svc := newPurchaseService(t, db, clk, node, declineGateway{method: purchasedomain.MethodCard})

	_, err := svc.Record(ctx, purchasedomain.RecordRequest{
		UserID:        node.Generate().String(),
		SongID:        songID.String(),
		Amount:        5000,
		PaymentMethod: purchasedomain.MethodCard,
		CardNumber:    "4242424242424242",
	})
	if !errors.Is(err, purchasedomain.ErrSettlementDeclined) {
		t.Fatalf("expected ErrSettlementDeclined, got %v", err)
	}

	var row struct {
		Status        string
		FailureReason string
	}
	if err := db.Raw("SELECT status, failure_reason FROM payments LIMIT 1").Scan(&row).Error; err != nil {
		t.Fatalf("scan payment: %v", err)
	}
	if row.Status != purchasedomain.StatusFailed {
		t.Fatalf("expected failed payment, got %s", row.Status)
	}
	if row.FailureReason != purchasedomain.ErrSettlementDeclined.Error() {
		t.Fatalf("expected failure reason %q, got %q", purchasedomain.ErrSettlementDeclined.Error(), row.FailureReason)
	}

	assertCount(t, db, "SELECT COUNT(1) FROM library_songs", 0)
	assertCount(t, db, "SELECT COUNT(1) FROM purchase_history", 0)
	assertCount(t, db, "SELECT purchases FROM songs WHERE id = "+songID.String(), 0)
	assertCount(t, db, "SELECT total_sales FROM artists WHERE id = "+artistID.String(), 0)
}

func TestRecordPurchaseTimeout(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 22)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	artistID := node.Generate()
	songID := node.Generate()
	seedArtist(t, db, artistID, "Nina")
	seedSong(t, db, songID, artistID, "Moonrise", 5000)

	svc := newPurchaseService(t, db, clk, node, stallGateway{method: purchasedomain.MethodMobileMoney})

	_, err := svc.Record(ctx, purchasedomain.RecordRequest{
		UserID:        node.Generate().String(),
		SongID:        songID.String(),
		Amount:        5000,
		PaymentMethod: purchasedomain.MethodMobileMoney,
		PhoneNumber:   "256700123456",
	})
	if !errors.Is(err, purchasedomain.ErrSettlementTimeout) {
		t.Fatalf("expected ErrSettlementTimeout, got %v", err)
	}

	var reason string
	if err := db.Raw("SELECT failure_reason FROM payments LIMIT 1").Scan(&reason).Error; err != nil {
		t.Fatalf("scan failure_reason: %v", err)
	}
	if reason != purchasedomain.ErrSettlementTimeout.Error() {
		t.Fatalf("expected timeout reason, got %q", reason)
	}
	assertCount(t, db, "SELECT COUNT(1) FROM library_songs", 0)
}

func TestRecordPurchaseValidation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 23)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	artistID := node.Generate()
	songID := node.Generate()
	otherArtistID := node.Generate()
	seedArtist(t, db, artistID, "Nina")
	seedSong(t, db, songID, artistID, "Moonrise", 5000)

	svc := newPurchaseService(t, db, clk, node, approveGateway{method: purchasedomain.MethodMobileMoney})

	userID := node.Generate().String()
	valid := purchasedomain.RecordRequest{
		UserID:        userID,
		SongID:        songID.String(),
		Amount:        5000,
		PaymentMethod: purchasedomain.MethodMobileMoney,
		PhoneNumber:   "256700123456",
	}

	cases := []struct {
		name    string
		mutate  func(req *purchasedomain.RecordRequest)
		wantErr error
	}{
		{
			name:    "missing user",
			mutate:  func(req *purchasedomain.RecordRequest) { req.UserID = "" },
			wantErr: purchasedomain.ErrInvalidUser,
		},
		{
			name:    "bad song id",
			mutate:  func(req *purchasedomain.RecordRequest) { req.SongID = "not-a-number" },
			wantErr: purchasedomain.ErrInvalidSong,
		},
		{
			name:    "zero amount",
			mutate:  func(req *purchasedomain.RecordRequest) { req.Amount = 0 },
			wantErr: purchasedomain.ErrInvalidAmount,
		},
		{
			name:    "unknown method",
			mutate:  func(req *purchasedomain.RecordRequest) { req.PaymentMethod = "cheque" },
			wantErr: purchasedomain.ErrInvalidPaymentMethod,
		},
		{
			name: "short phone",
			mutate: func(req *purchasedomain.RecordRequest) {
				req.PhoneNumber = "0700"
			},
			wantErr: purchasedomain.ErrInvalidPhoneNumber,
		},
		{
			name: "artist mismatch",
			mutate: func(req *purchasedomain.RecordRequest) {
				req.ArtistID = otherArtistID.String()
			},
			wantErr: purchasedomain.ErrInvalidArtist,
		},
		{
			name: "unknown song",
			mutate: func(req *purchasedomain.RecordRequest) {
				req.SongID = node.Generate().String()
			},
			wantErr: catalogdomain.ErrSongNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)

			_, err := svc.Record(ctx, req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	// Rejected requests must never reach the payments table.
	assertCount(t, db, "SELECT COUNT(1) FROM payments", 0)
}

func TestRepeatPurchaseKeepsSingleLibraryEntry(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 24)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	artistID := node.Generate()
	songID := node.Generate()
	userID := node.Generate()
	seedArtist(t, db, artistID, "Nina")
	seedSong(t, db, songID, artistID, "Moonrise", 5000)

	svc := newPurchaseService(t, db, clk, node, approveGateway{method: purchasedomain.MethodMobileMoney})

	for i := 0; i < 2; i++ {
		clk.Advance(time.Minute)
		_, err := svc.Record(ctx, purchasedomain.RecordRequest{
			UserID:        userID.String(),
			SongID:        songID.String(),
			Amount:        5000,
			PaymentMethod: purchasedomain.MethodMobileMoney,
			PhoneNumber:   "256700123456",
		})
		if err != nil {
			t.Fatalf("record purchase %d: %v", i, err)
		}
	}

	assertCount(t, db, "SELECT COUNT(1) FROM library_songs", 1)
	assertCount(t, db, "SELECT COUNT(1) FROM payments", 2)
	assertCount(t, db, "SELECT COUNT(1) FROM purchase_history", 2)
	assertCount(t, db, "SELECT purchases FROM songs WHERE id = "+songID.String(), 2)
	assertCount(t, db, "SELECT total_sales FROM artists WHERE id = "+artistID.String(), 2)
}

func TestListByBuyerPaginates(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 25)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	artistID := node.Generate()
	songID := node.Generate()
	userID := node.Generate()
	seedArtist(t, db, artistID, "Nina")
	seedSong(t, db, songID, artistID, "Moonrise", 5000)

	svc := newPurchaseService(t, db, clk, node, approveGateway{method: purchasedomain.MethodMobileMoney})

	for i := 0; i < 3; i++ {
		clk.Advance(time.Hour)
		_, err := svc.Record(ctx, purchasedomain.RecordRequest{
			UserID:        userID.String(),
			SongID:        songID.String(),
			Amount:        5000,
			PaymentMethod: purchasedomain.MethodMobileMoney,
			PhoneNumber:   "256700123456",
		})
		if err != nil {
			t.Fatalf("record purchase %d: %v", i, err)
		}
	}

	first, err := svc.ListByBuyer(ctx, purchasedomain.ListRequest{UserID: userID.String()})
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(first.Payments) != 3 {
		t.Fatalf("expected 3 payments, got %d", len(first.Payments))
	}
	if !first.Payments[0].CreatedAt.After(first.Payments[2].CreatedAt) {
		t.Fatalf("expected newest-first ordering")
	}

	page, err := svc.ListByBuyer(ctx, listRequest(userID.String(), "", 2))
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if len(page.Payments) != 2 {
		t.Fatalf("expected 2 payments on first page, got %d", len(page.Payments))
	}
	if !page.PageInfo.HasMore || page.PageInfo.NextPageToken == "" {
		t.Fatalf("expected a next page")
	}

	rest, err := svc.ListByBuyer(ctx, listRequest(userID.String(), page.PageInfo.NextPageToken, 2))
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(rest.Payments) != 1 {
		t.Fatalf("expected 1 payment on second page, got %d", len(rest.Payments))
	}
	if rest.Payments[0].ID == page.Payments[0].ID || rest.Payments[0].ID == page.Payments[1].ID {
		t.Fatalf("second page repeated a payment")
	}

	_, err = svc.ListByBuyer(ctx, listRequest(userID.String(), "garbage-token", 2))
	if !errors.Is(err, purchasedomain.ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestListByBuyerEqualTimestampsSpanPages(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 26)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	artistID := node.Generate()
	songID := node.Generate()
	userID := node.Generate()
	seedArtist(t, db, artistID, "Nina")
	seedSong(t, db, songID, artistID, "Moonrise", 5000)

	svc := newPurchaseService(t, db, clk, node, approveGateway{method: purchasedomain.MethodMobileMoney})

	// All three payments share one created_at; only the id tie-break can
	// carry the page boundary.
	for i := 0; i < 3; i++ {
		_, err := svc.Record(ctx, purchasedomain.RecordRequest{
			UserID:        userID.String(),
			SongID:        songID.String(),
			Amount:        5000,
			PaymentMethod: purchasedomain.MethodMobileMoney,
			PhoneNumber:   "256700123456",
		})
		if err != nil {
			t.Fatalf("record purchase %d: %v", i, err)
		}
	}

	seen := make(map[string]bool)

	page, err := svc.ListByBuyer(ctx, listRequest(userID.String(), "", 2))
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if len(page.Payments) != 2 {
		t.Fatalf("expected 2 payments on first page, got %d", len(page.Payments))
	}
	if !page.PageInfo.HasMore || page.PageInfo.NextPageToken == "" {
		t.Fatalf("expected a next page")
	}
	for _, p := range page.Payments {
		seen[p.ID] = true
	}

	rest, err := svc.ListByBuyer(ctx, listRequest(userID.String(), page.PageInfo.NextPageToken, 2))
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(rest.Payments) != 1 {
		t.Fatalf("expected the remaining payment on second page, got %d", len(rest.Payments))
	}
	if seen[rest.Payments[0].ID] {
		t.Fatalf("second page repeated payment %s", rest.Payments[0].ID)
	}
	if rest.PageInfo.HasMore {
		t.Fatalf("expected no further pages")
	}
}

func listRequest(userID, token string, size int) purchasedomain.ListRequest {
	req := purchasedomain.ListRequest{UserID: userID}
	req.PageToken = token
	req.PageSize = size
	return req
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

	dsn := fmt.Sprintf("file:memdb_purchase_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
		`CREATE TABLE library_songs (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			song_id BIGINT NOT NULL,
			added_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_library_user_song ON library_songs(user_id, song_id)`,
		`CREATE TABLE payments (
			id BIGINT PRIMARY KEY,
			transaction_id TEXT NOT NULL,
			user_id BIGINT NOT NULL,
			song_id BIGINT NOT NULL,
			artist_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			currency TEXT NOT NULL,
			payment_method TEXT NOT NULL,
			method_detail TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			gateway_ref TEXT NOT NULL DEFAULT '',
			failure_reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_payments_txn ON payments(transaction_id)`,
		`CREATE TABLE purchase_history (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			song_id BIGINT NOT NULL,
			artist_id BIGINT NOT NULL,
			payment_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
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

func seedArtist(t *testing.T, db *gorm.DB, id snowflake.ID, name string) {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	err := db.Exec(
		`INSERT INTO artists (id, name, slug, email, password, genres, total_streams, total_sales, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, '{}', 0, 0, ?, ?)`,
		id, name, strings.ToLower(name), strings.ToLower(name)+"@example.com", "x", now, now,
	).Error
	if err != nil {
		t.Fatalf("seed artist: %v", err)
	}
}

func seedSong(t *testing.T, db *gorm.DB, id, artistID snowflake.ID, title string, price int64) {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	err := db.Exec(
		`INSERT INTO songs (id, artist_id, title, slug, genre, price, streams, purchases, created_at, updated_at)
		 VALUES (?, ?, ?, ?, '', ?, 0, 0, ?, ?)`,
		id, artistID, title, strings.ToLower(title), price, now, now,
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
