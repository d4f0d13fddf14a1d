package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/musichub/musichub/internal/analytics/domain"
	catalogdomain "github.com/musichub/musichub/internal/catalog/domain"
	"github.com/musichub/musichub/internal/clock"
	"github.com/musichub/musichub/internal/config"
	purchasedomain "github.com/musichub/musichub/internal/purchase/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const salesWindowDays = 30

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Cfg     config.Config
	Catalog catalogdomain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	cfg     config.Config
	catalog catalogdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("analytics.service"),
		clock:   p.Clock,
		cfg:     p.Cfg,
		catalog: p.Catalog,
	}
}

func (s *Service) StreamAnalytics(ctx context.Context, query domain.StreamQuery) (*domain.StreamReport, error) {
	var artistID, songID *snowflake.ID

	if raw := strings.TrimSpace(query.ArtistID); raw != "" {
		parsed, err := domain.ParseID(raw)
		if err != nil || parsed == 0 {
			return nil, domain.ErrInvalidArtist
		}
		artistID = &parsed
	}

	if raw := strings.TrimSpace(query.SongID); raw != "" {
		parsed, err := domain.ParseID(raw)
		if err != nil || parsed == 0 {
			return nil, domain.ErrInvalidSong
		}
		songID = &parsed
	}

	if artistID == nil && songID == nil {
		return nil, domain.ErrMissingSubject
	}

	period := strings.ToLower(strings.TrimSpace(query.Period))
	if period == "" {
		period = domain.PeriodMonth
	}
	if !validPeriod(period) {
		return nil, domain.ErrInvalidPeriod
	}

	now := s.clock.Now().UTC()
	start, end := currentWindow(period, now)

	total, err := s.countStreams(ctx, artistID, songID, start, end)
	if err != nil {
		return nil, err
	}

	var previous int64
	if period != domain.PeriodAll {
		prevStart, prevEnd := previousWindow(period, start)
		previous, err = s.countStreams(ctx, artistID, songID, prevStart, prevEnd)
		if err != nil {
			return nil, err
		}
	}

	report := &domain.StreamReport{
		Period:          period,
		TotalStreams:    total,
		PreviousStreams: previous,
		PercentChange:   percentChange(total, previous),
		HasPreviousData: previous > 0,
	}

	if artistID != nil && songID == nil {
		topSongs, err := s.topSongs(ctx, *artistID, start, end)
		if err != nil {
			return nil, err
		}
		report.TopSongs = topSongs
	}

	return report, nil
}

func (s *Service) SalesAnalytics(ctx context.Context, artistID string) (*domain.SalesReport, error) {
	id, err := domain.ParseID(strings.TrimSpace(artistID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidArtist
	}

	now := s.clock.Now().UTC()
	start := now.AddDate(0, 0, -salesWindowDays)

	totalSales, totalEarnings, err := s.salesTotals(ctx, id, start, now)
	if err != nil {
		return nil, err
	}

	songSales, err := s.songSales(ctx, id, start, now)
	if err != nil {
		return nil, err
	}

	dailySales, err := s.dailySales(ctx, id, start, now)
	if err != nil {
		return nil, err
	}

	methodSales, err := s.methodSales(ctx, id, start, now)
	if err != nil {
		return nil, err
	}

	recent, err := s.recentPayments(ctx, id, start, now)
	if err != nil {
		return nil, err
	}

	return &domain.SalesReport{
		ArtistID:       id.String(),
		Currency:       s.cfg.Currency,
		TotalEarnings:  totalEarnings,
		TotalSales:     totalSales,
		SongSales:      songSales,
		DailySales:     dailySales,
		MethodSales:    methodSales,
		RecentPayments: recent,
		HasData:        totalSales > 0,
	}, nil
}

func (s *Service) countStreams(ctx context.Context, artistID, songID *snowflake.ID, start, end time.Time) (int64, error) {
	query := `SELECT COUNT(1) FROM stream_events WHERE created_at >= ? AND created_at < ?`
	args := []any{start, end}

	if artistID != nil {
		query += ` AND artist_id = ?`
		args = append(args, *artistID)
	}
	if songID != nil {
		query += ` AND song_id = ?`
		args = append(args, *songID)
	}

	var count int64
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type topSongRow struct {
	SongID snowflake.ID `gorm:"column:song_id"`
	Count  int64        `gorm:"column:count"`
}

func (s *Service) topSongs(ctx context.Context, artistID snowflake.ID, start, end time.Time) ([]domain.TopSong, error) {
	var rows []topSongRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT song_id, COUNT(1) AS count
		 FROM stream_events
		 WHERE artist_id = ? AND created_at >= ? AND created_at < ?
		 GROUP BY song_id
		 ORDER BY count DESC, song_id ASC
		 LIMIT 5`,
		artistID,
		start,
		end,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]snowflake.ID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.SongID)
	}

	titles, err := s.songTitles(ctx, ids)
	if err != nil {
		return nil, err
	}

	top := make([]domain.TopSong, 0, len(rows))
	for _, row := range rows {
		title, ok := titles[row.SongID]
		if !ok {
			title = "Unknown"
		}
		top = append(top, domain.TopSong{
			SongID:  row.SongID.String(),
			Title:   title,
			Streams: row.Count,
		})
	}
	return top, nil
}

// songTitles degrades to placeholders rather than failing the report when
// song metadata cannot be resolved.
func (s *Service) songTitles(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]string, error) {
	songs, err := s.catalog.FindSongsByIDs(ctx, s.db, ids)
	if err != nil {
		s.log.Warn("top song title lookup failed", zap.Error(err))
		return map[snowflake.ID]string{}, nil
	}

	titles := make(map[snowflake.ID]string, len(songs))
	for i := range songs {
		titles[songs[i].ID] = songs[i].Title
	}
	return titles, nil
}

func (s *Service) salesTotals(ctx context.Context, artistID snowflake.ID, start, end time.Time) (int64, int64, error) {
	var row struct {
		Count    int64 `gorm:"column:count"`
		Earnings int64 `gorm:"column:earnings"`
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) AS count, COALESCE(SUM(amount), 0) AS earnings
		 FROM payments
		 WHERE artist_id = ? AND status = ? AND created_at >= ? AND created_at < ?`,
		artistID,
		purchasedomain.StatusCompleted,
		start,
		end,
	).Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Count, row.Earnings, nil
}

type songSalesRow struct {
	SongID   snowflake.ID `gorm:"column:song_id"`
	Count    int64        `gorm:"column:count"`
	Earnings int64        `gorm:"column:earnings"`
}

func (s *Service) songSales(ctx context.Context, artistID snowflake.ID, start, end time.Time) ([]domain.SongSales, error) {
	var rows []songSalesRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT song_id, COUNT(1) AS count, COALESCE(SUM(amount), 0) AS earnings
		 FROM payments
		 WHERE artist_id = ? AND status = ? AND created_at >= ? AND created_at < ?
		 GROUP BY song_id
		 ORDER BY count DESC, song_id ASC`,
		artistID,
		purchasedomain.StatusCompleted,
		start,
		end,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]snowflake.ID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.SongID)
	}
	titles, err := s.songTitles(ctx, ids)
	if err != nil {
		return nil, err
	}

	sales := make([]domain.SongSales, 0, len(rows))
	for _, row := range rows {
		title, ok := titles[row.SongID]
		if !ok {
			title = "Unknown"
		}
		sales = append(sales, domain.SongSales{
			SongID:   row.SongID.String(),
			Title:    title,
			Count:    row.Count,
			Earnings: row.Earnings,
		})
	}
	return sales, nil
}

type dailySaleRow struct {
	CreatedAt time.Time `gorm:"column:created_at"`
	Amount    int64     `gorm:"column:amount"`
}

// dailySales builds a per-calendar-day series in Go so the query stays
// portable across dialects; days without sales appear with zero values.
func (s *Service) dailySales(ctx context.Context, artistID snowflake.ID, start, end time.Time) ([]domain.DailySales, error) {
	var rows []dailySaleRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT created_at, amount
		 FROM payments
		 WHERE artist_id = ? AND status = ? AND created_at >= ? AND created_at < ?`,
		artistID,
		purchasedomain.StatusCompleted,
		start,
		end,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	type bucket struct {
		count    int64
		earnings int64
	}
	buckets := make(map[string]bucket)
	for _, row := range rows {
		day := row.CreatedAt.UTC().Format("2006-01-02")
		b := buckets[day]
		b.count++
		b.earnings += row.Amount
		buckets[day] = b
	}

	series := make([]domain.DailySales, 0, salesWindowDays+1)
	for day := truncateToDay(start); !day.After(truncateToDay(end)); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		b := buckets[key]
		series = append(series, domain.DailySales{
			Date:     key,
			Count:    b.count,
			Earnings: b.earnings,
		})
	}
	return series, nil
}

type methodSalesRow struct {
	Method   string `gorm:"column:payment_method"`
	Count    int64  `gorm:"column:count"`
	Earnings int64  `gorm:"column:earnings"`
}

func (s *Service) methodSales(ctx context.Context, artistID snowflake.ID, start, end time.Time) ([]domain.MethodSales, error) {
	var rows []methodSalesRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT payment_method, COUNT(1) AS count, COALESCE(SUM(amount), 0) AS earnings
		 FROM payments
		 WHERE artist_id = ? AND status = ? AND created_at >= ? AND created_at < ?
		 GROUP BY payment_method
		 ORDER BY payment_method ASC`,
		artistID,
		purchasedomain.StatusCompleted,
		start,
		end,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sales := make([]domain.MethodSales, 0, len(rows))
	for _, row := range rows {
		sales = append(sales, domain.MethodSales{
			Method:   row.Method,
			Count:    row.Count,
			Earnings: row.Earnings,
		})
	}
	return sales, nil
}

type recentPaymentRow struct {
	TransactionID string       `gorm:"column:transaction_id"`
	SongID        snowflake.ID `gorm:"column:song_id"`
	Amount        int64        `gorm:"column:amount"`
	PaymentMethod string       `gorm:"column:payment_method"`
	CreatedAt     time.Time    `gorm:"column:created_at"`
}

func (s *Service) recentPayments(ctx context.Context, artistID snowflake.ID, start, end time.Time) ([]domain.RecentPayment, error) {
	var rows []recentPaymentRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT transaction_id, song_id, amount, payment_method, created_at
		 FROM payments
		 WHERE artist_id = ? AND status = ? AND created_at >= ? AND created_at < ?
		 ORDER BY created_at DESC
		 LIMIT 10`,
		artistID,
		purchasedomain.StatusCompleted,
		start,
		end,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	recent := make([]domain.RecentPayment, 0, len(rows))
	for _, row := range rows {
		recent = append(recent, domain.RecentPayment{
			TransactionID: row.TransactionID,
			SongID:        row.SongID.String(),
			Amount:        row.Amount,
			PaymentMethod: row.PaymentMethod,
			CreatedAt:     row.CreatedAt,
		})
	}
	return recent, nil
}

func validPeriod(period string) bool {
	switch period {
	case domain.PeriodDay, domain.PeriodWeek, domain.PeriodMonth, domain.PeriodYear, domain.PeriodAll:
		return true
	default:
		return false
	}
}

// currentWindow returns the half-open window [start, now) for the period.
func currentWindow(period string, now time.Time) (time.Time, time.Time) {
	switch period {
	case domain.PeriodDay:
		return now.AddDate(0, 0, -1), now
	case domain.PeriodWeek:
		return now.AddDate(0, 0, -7), now
	case domain.PeriodMonth:
		return now.AddDate(0, -1, 0), now
	case domain.PeriodYear:
		return now.AddDate(-1, 0, 0), now
	default:
		return time.Unix(0, 0).UTC(), now
	}
}

// previousWindow returns the window of the same length immediately before
// start, half-open on the right so boundary events count exactly once.
func previousWindow(period string, start time.Time) (time.Time, time.Time) {
	switch period {
	case domain.PeriodDay:
		return start.AddDate(0, 0, -1), start
	case domain.PeriodWeek:
		return start.AddDate(0, 0, -7), start
	case domain.PeriodMonth:
		return start.AddDate(0, -1, 0), start
	case domain.PeriodYear:
		return start.AddDate(-1, 0, 0), start
	default:
		return start, start
	}
}

// percentChange is 0 when the previous window is empty, never NaN or Inf.
func percentChange(current, previous int64) float64 {
	if previous <= 0 {
		return 0
	}
	change := (float64(current-previous) / float64(previous)) * 100
	return math.Round(change*10) / 10
}

func truncateToDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
