package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/musichub/musichub/internal/clock"
	"github.com/musichub/musichub/internal/observability/metrics"
	"github.com/musichub/musichub/internal/ratelimit"
	"github.com/musichub/musichub/internal/stream/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	GenID   *snowflake.Node
	Repo    domain.Repository
	Limiter *ratelimit.StreamIngestLimiter `optional:"true"`
	Metrics *metrics.Metrics               `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	genID   *snowflake.Node
	repo    domain.Repository
	limiter *ratelimit.StreamIngestLimiter
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("stream.service"),
		clock:   p.Clock,
		genID:   p.GenID,
		repo:    p.Repo,
		limiter: p.Limiter,
		metrics: p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (*domain.Response, error) {
	songID, err := domain.ParseID(strings.TrimSpace(req.SongID))
	if err != nil || songID == 0 {
		return nil, domain.ErrInvalidSong
	}

	artistID, err := domain.ParseID(strings.TrimSpace(req.ArtistID))
	if err != nil || artistID == 0 {
		return nil, domain.ErrInvalidArtist
	}

	var userID *snowflake.ID
	if raw := strings.TrimSpace(req.UserID); raw != "" {
		parsed, err := domain.ParseID(raw)
		if err != nil || parsed == 0 {
			return nil, domain.ErrInvalidUser
		}
		userID = &parsed
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = domain.DefaultSource
	}

	if err := s.allow(ctx, songID.String(), source); err != nil {
		return nil, err
	}

	event := &domain.StreamEvent{
		ID:        s.genID.Generate(),
		SongID:    songID,
		ArtistID:  artistID,
		UserID:    userID,
		Source:    source,
		CreatedAt: s.clock.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, event); err != nil {
			return err
		}
		return s.repo.IncrementStreamCounters(ctx, tx, songID, artistID, event.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordStreamIngest(ctx, source)
	}

	return s.toResponse(event), nil
}

func (s *Service) allow(ctx context.Context, songID, source string) error {
	if !s.limiter.Enabled() {
		return nil
	}

	sourceResult, err := s.limiter.AllowSource(ctx, source)
	if err != nil {
		s.log.Warn("stream source rate limit check failed", zap.Error(err))
		return nil
	}
	if !sourceResult.Allowed {
		s.recordDenied(ctx, "source")
		return domain.ErrRateLimited
	}

	songResult, err := s.limiter.AllowSong(ctx, songID)
	if err != nil {
		s.log.Warn("stream song rate limit check failed", zap.Error(err))
		return nil
	}
	if !songResult.Allowed {
		s.recordDenied(ctx, "song")
		return domain.ErrRateLimited
	}

	if s.metrics != nil {
		s.metrics.RecordRateLimitAllowed(ctx, "stream_ingest")
	}
	return nil
}

func (s *Service) recordDenied(ctx context.Context, reason string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordRateLimitDenied(ctx, "stream_ingest", reason)
}

func (s *Service) toResponse(event *domain.StreamEvent) *domain.Response {
	resp := &domain.Response{
		ID:        event.ID.String(),
		SongID:    event.SongID.String(),
		ArtistID:  event.ArtistID.String(),
		Source:    event.Source,
		CreatedAt: event.CreatedAt,
	}
	if event.UserID != nil {
		resp.UserID = event.UserID.String()
	}
	return resp
}
