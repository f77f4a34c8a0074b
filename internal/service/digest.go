package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"helpdesk_digest/internal/digest"
	"helpdesk_digest/internal/domain"
)

const (
	ActionNew       = "new"
	ActionCommented = "commented"
)

// DigestService runs one digest: sync every kind, deliver the message and
// advance the watermark.
type DigestService struct {
	syncer    Syncer
	store     WatermarkStore
	notifier  Notifier
	publisher Publisher
	kinds     []domain.Kind
	now       func() time.Time
	logger    *slog.Logger
}

// NewDigestService wires a digest run. publisher may be nil.
func NewDigestService(
	syncer Syncer,
	store WatermarkStore,
	notifier Notifier,
	publisher Publisher,
	logger *slog.Logger,
) *DigestService {
	return &DigestService{
		syncer:    syncer,
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		kinds:     domain.Kinds,
		now:       time.Now,
		logger:    logger,
	}
}

// Run executes one digest. The watermark advances once the message, if
// any, was delivered. A failed collection only empties its blocks.
func (s *DigestService) Run(ctx context.Context) (*domain.RunStats, error) {
	startTime := s.now()
	stats := &domain.RunStats{NextWatermark: startTime.UTC()}

	watermark, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load watermark: %w", err)
	}
	stats.Watermark = watermark

	s.logger.Info("starting digest run", "watermark", watermark, "kinds", len(s.kinds))

	var blocks []string
	for _, kind := range s.kinds {
		result, err := s.syncer.Sync(ctx, kind, watermark)
		if err != nil {
			stats.FailedKinds = append(stats.FailedKinds, kind)
			s.logSyncError(ctx, kind, err)
		}
		stats.Results = append(stats.Results, result)
		blocks = append(blocks, digest.Blocks(result)...)
	}

	if message, ok := digest.ComposeMessage(blocks...); ok {
		parts, err := s.notifier.Send(ctx, message)
		stats.Parts = parts
		if err != nil {
			stats.Duration = s.now().Sub(startTime)
			s.logger.Error("digest delivery failed, watermark not advanced", "error", err)
			return stats, fmt.Errorf("send digest: %w", err)
		}
		stats.Delivered = true
	} else {
		s.logger.Info("nothing to send")
	}

	s.publish(ctx, stats)

	if len(stats.FailedKinds) > 0 {
		s.logger.Warn("advancing watermark past failed collections",
			"failed_kinds", stats.FailedKinds,
			"watermark", watermark,
			"next_watermark", stats.NextWatermark,
		)
	}

	if err := s.store.Commit(ctx, stats); err != nil {
		stats.Duration = s.now().Sub(startTime)
		return stats, fmt.Errorf("commit watermark: %w", err)
	}
	stats.Committed = true

	stats.Duration = s.now().Sub(startTime)

	s.logger.Info("digest run completed",
		"delivered", stats.Delivered,
		"parts", stats.Parts,
		"published", stats.Published,
		"publish_errors", stats.PublishErrors,
		"committed", stats.Committed,
		"next_watermark", stats.NextWatermark,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *DigestService) publish(ctx context.Context, stats *domain.RunStats) {
	if s.publisher == nil {
		return
	}

	send := func(item domain.Item, action string) {
		if err := s.publisher.Publish(ctx, &item, action); err != nil {
			stats.PublishErrors++
			s.logger.Warn("failed to publish item",
				"kind", item.Kind,
				"item_id", item.ID,
				"action", action,
				"error", err,
			)
			return
		}
		stats.Published++
	}

	for _, result := range stats.Results {
		for _, item := range result.New {
			send(item, ActionNew)
		}
		for _, item := range result.Commented {
			send(item, ActionCommented)
		}
	}
}

func (s *DigestService) logSyncError(ctx context.Context, kind domain.Kind, err error) {
	attrs := []any{"kind", kind, "error", err}

	var fetchErr *domain.FetchError
	var malformed *domain.MalformedResponseError
	switch {
	case errors.As(err, &fetchErr):
		attrs = append(attrs, "url", fetchErr.URL, "status", fetchErr.StatusCode)
		s.logger.ErrorContext(ctx, "collection fetch failed", attrs...)
	case errors.As(err, &malformed):
		attrs = append(attrs, "url", malformed.URL, "reason", malformed.Reason)
		s.logger.ErrorContext(ctx, "malformed collection response", attrs...)
	default:
		s.logger.ErrorContext(ctx, "sync failed", attrs...)
	}
}
