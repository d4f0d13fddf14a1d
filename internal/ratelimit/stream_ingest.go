package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/musichub/musichub/internal/config"
)

const (
	keyStreamIngestSong   = "stream:ingest:song:%s"
	keyStreamIngestSource = "stream:ingest:source:%s"
)

// StreamIngestLimiter throttles the public stream ingestion endpoint with
// per-song and per-source token buckets.
type StreamIngestLimiter struct {
	enabled bool

	bucket *TokenBucket

	songRate    float64
	songBurst   int
	sourceRate  float64
	sourceBurst int
}

func NewStreamIngestLimiter(cfg config.Config, bucket *TokenBucket) (*StreamIngestLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	if bucket == nil {
		return nil, fmt.Errorf("stream ingest limiter requires a redis token bucket")
	}
	if limitCfg.StreamSongRate <= 0 || limitCfg.StreamSongBurst <= 0 {
		return nil, fmt.Errorf("stream song rate limit must be positive")
	}
	if limitCfg.StreamSourceRate <= 0 || limitCfg.StreamSourceBurst <= 0 {
		return nil, fmt.Errorf("stream source rate limit must be positive")
	}

	return &StreamIngestLimiter{
		enabled:     true,
		bucket:      bucket,
		songRate:    limitCfg.StreamSongRate,
		songBurst:   limitCfg.StreamSongBurst,
		sourceRate:  limitCfg.StreamSourceRate,
		sourceBurst: limitCfg.StreamSourceBurst,
	}, nil
}

func (l *StreamIngestLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *StreamIngestLimiter) AllowSong(ctx context.Context, songID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyStreamIngestSong, strings.TrimSpace(songID)), l.songRate, l.songBurst)
}

func (l *StreamIngestLimiter) AllowSource(ctx context.Context, source string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyStreamIngestSource, strings.TrimSpace(source)), l.sourceRate, l.sourceBurst)
}
