package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/musichub/musichub/internal/catalog/domain"
	"github.com/musichub/musichub/internal/clock"
	"github.com/musichub/musichub/internal/config"
	"github.com/musichub/musichub/internal/observability/metrics"
	"github.com/musichub/musichub/internal/purchase/domain"
	"github.com/musichub/musichub/internal/purchase/gateway"
	"github.com/musichub/musichub/internal/ratelimit"
	"github.com/musichub/musichub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	GenID      *snowflake.Node
	Cfg        config.Config
	Settlement *config.SettlementConfigHolder
	Repo       domain.Repository
	Catalog    catalogdomain.Repository
	Gateways   *gateway.Registry
	Locker     *ratelimit.Locker `optional:"true"`
	Metrics    *metrics.Metrics  `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	genID      *snowflake.Node
	cfg        config.Config
	settlement *config.SettlementConfigHolder
	repo       domain.Repository
	catalog    catalogdomain.Repository
	gateways   *gateway.Registry
	locker     *ratelimit.Locker
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("purchase.service"),
		clock:      p.Clock,
		genID:      p.GenID,
		cfg:        p.Cfg,
		settlement: p.Settlement,
		repo:       p.Repo,
		catalog:    p.Catalog,
		gateways:   p.Gateways,
		locker:     p.Locker,
		metrics:    p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (*domain.Response, error) {
	userID, err := domain.ParseID(strings.TrimSpace(req.UserID))
	if err != nil || userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	songID, err := domain.ParseID(strings.TrimSpace(req.SongID))
	if err != nil || songID == 0 {
		return nil, domain.ErrInvalidSong
	}

	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if !s.gateways.MethodExists(method) {
		return nil, domain.ErrInvalidPaymentMethod
	}

	detail, err := methodDetail(method, req)
	if err != nil {
		return nil, err
	}

	song, err := s.catalog.FindSongByID(ctx, s.db, songID)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, catalogdomain.ErrSongNotFound
	}

	if artistID := strings.TrimSpace(req.ArtistID); artistID != "" {
		parsed, err := domain.ParseID(artistID)
		if err != nil || parsed != song.ArtistID {
			return nil, domain.ErrInvalidArtist
		}
	}

	artist, err := s.catalog.FindArtistByID(ctx, s.db, song.ArtistID)
	if err != nil {
		return nil, err
	}
	if artist == nil {
		return nil, catalogdomain.ErrArtistNotFound
	}

	if s.locker != nil {
		key := fmt.Sprintf("purchase:%d:%d", userID, songID)
		ttl := time.Duration(s.cfg.RateLimit.PurchaseLockTTLSeconds) * time.Second
		token, ok, err := s.locker.TryLock(ctx, key, ttl)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrPurchaseInProgress
		}
		defer func() {
			if err := s.locker.Release(ctx, key, token); err != nil {
				s.log.Warn("purchase lock release failed", zap.String("key", key), zap.Error(err))
			}
		}()
	}

	now := s.clock.Now()
	payment := &domain.Payment{
		ID:            s.genID.Generate(),
		TransactionID: "TXN" + s.genID.Generate().String(),
		UserID:        userID,
		SongID:        songID,
		ArtistID:      song.ArtistID,
		Amount:        req.Amount,
		Currency:      s.cfg.Currency,
		PaymentMethod: method,
		MethodDetail:  detail,
		Status:        domain.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.InsertPayment(ctx, s.db, payment); err != nil {
		return nil, err
	}

	receipt, settleErr := s.settle(ctx, method, payment)
	if settleErr != nil {
		failedAt := s.clock.Now()
		if err := s.repo.MarkFailed(ctx, s.db, payment.ID, settleErr.Error(), failedAt); err != nil {
			s.log.Error("failed payment not recorded", zap.String("transaction_id", payment.TransactionID), zap.Error(err))
			return nil, err
		}

		payment.Status = domain.StatusFailed
		payment.FailureReason = settleErr.Error()
		payment.UpdatedAt = failedAt
		s.recordOutcome(ctx, method, domain.StatusFailed)
		return nil, settleErr
	}

	completedAt := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.MarkCompleted(ctx, tx, payment.ID, receipt.Reference, completedAt); err != nil {
			return err
		}

		entry := &catalogdomain.LibrarySong{
			ID:      s.genID.Generate(),
			UserID:  userID,
			SongID:  songID,
			AddedAt: completedAt,
		}
		if _, err := s.repo.AddToLibrary(ctx, tx, entry); err != nil {
			return err
		}

		history := &domain.PurchaseHistory{
			ID:        s.genID.Generate(),
			UserID:    userID,
			SongID:    songID,
			ArtistID:  song.ArtistID,
			PaymentID: payment.ID,
			Amount:    req.Amount,
			CreatedAt: completedAt,
		}
		if err := s.repo.InsertHistory(ctx, tx, history); err != nil {
			return err
		}

		return s.repo.IncrementSaleCounters(ctx, tx, songID, song.ArtistID, completedAt)
	})
	if err != nil {
		return nil, err
	}

	payment.Status = domain.StatusCompleted
	payment.GatewayRef = receipt.Reference
	payment.UpdatedAt = completedAt
	s.recordOutcome(ctx, method, domain.StatusCompleted)

	s.log.Info("purchase recorded",
		zap.String("transaction_id", payment.TransactionID),
		zap.String("song_id", songID.String()),
		zap.String("payment_method", method),
	)

	return s.toResponse(payment), nil
}

// settle runs the gateway under the configured timeout and classifies the
// failure: a deadline hit is a timeout, anything else a decline.
func (s *Service) settle(ctx context.Context, method string, payment *domain.Payment) (*gateway.Receipt, error) {
	gw, err := s.gateways.Resolve(method)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, s.settlement.Get().Timeout())
	defer cancel()

	receipt, err := gw.Settle(sctx, gateway.Charge{
		TransactionID: payment.TransactionID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		Detail:        payment.MethodDetail,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || sctx.Err() != nil {
			return nil, domain.ErrSettlementTimeout
		}
		return nil, domain.ErrSettlementDeclined
	}
	return receipt, nil
}

func (s *Service) ListByBuyer(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	userID, err := domain.ParseID(strings.TrimSpace(req.UserID))
	if err != nil || userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	limit := req.PageSize
	if limit <= 0 {
		limit = 10
	}
	if limit > 250 {
		limit = 250
	}

	var cursor *domain.ListCursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		decoded, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		at, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		beforeID, err := domain.ParseID(decoded.ID)
		if err != nil || beforeID == 0 {
			return nil, domain.ErrInvalidPageToken
		}
		cursor = &domain.ListCursor{Before: at, BeforeID: beforeID}
	}

	payments, err := s.repo.ListByBuyer(ctx, s.db, userID, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	items := make([]*domain.Payment, 0, len(payments))
	for i := range payments {
		items = append(items, &payments[i])
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(limit), func(p *domain.Payment) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        p.ID.String(),
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	if len(items) > limit {
		items = items[:limit]
	}

	resp := make([]domain.Response, 0, len(items))
	for _, p := range items {
		resp = append(resp, *s.toResponse(p))
	}

	return &domain.ListResponse{Payments: resp, PageInfo: pageInfo}, nil
}

func (s *Service) recordOutcome(ctx context.Context, method, status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordPayment(ctx, method, status)
	if status == domain.StatusFailed {
		s.metrics.RecordSettlementOutcome(ctx, method, domain.StatusFailed)
	} else {
		s.metrics.RecordSettlementOutcome(ctx, method, domain.StatusCompleted)
	}
}

func (s *Service) toResponse(p *domain.Payment) *domain.Response {
	return &domain.Response{
		ID:            p.ID.String(),
		TransactionID: p.TransactionID,
		UserID:        p.UserID.String(),
		SongID:        p.SongID.String(),
		ArtistID:      p.ArtistID.String(),
		Amount:        p.Amount,
		Currency:      p.Currency,
		PaymentMethod: p.PaymentMethod,
		Status:        p.Status,
		GatewayRef:    p.GatewayRef,
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func methodDetail(method string, req domain.RecordRequest) (string, error) {
	switch method {
	case domain.MethodMobileMoney:
		phone := strings.TrimSpace(req.PhoneNumber)
		if len(phone) < 9 {
			return "", domain.ErrInvalidPhoneNumber
		}
		return maskTail(phone, 3), nil
	case domain.MethodCard:
		card := strings.ReplaceAll(strings.TrimSpace(req.CardNumber), " ", "")
		if len(card) < 12 {
			return "", domain.ErrInvalidCardNumber
		}
		return maskTail(card, 4), nil
	default:
		return "", domain.ErrInvalidPaymentMethod
	}
}

// maskTail keeps the last n characters and masks the rest.
func maskTail(value string, n int) string {
	if len(value) <= n {
		return value
	}
	return strings.Repeat("*", len(value)-n) + value[len(value)-n:]
}
