package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"helpdesk_digest/internal/domain"
)

// SyncService finds the items of one kind that are new or gained comments
// since a watermark.
type SyncService struct {
	source Source
	logger *slog.Logger
}

func NewSyncService(source Source, logger *slog.Logger) *SyncService {
	return &SyncService{
		source: source,
		logger: logger.With("source", source.ID()),
	}
}

// Sync fetches the collection of kind changed since watermark and
// partitions it. On a collection failure the result is empty and the
// error is returned; comment failures only count as "no new comments".
func (s *SyncService) Sync(ctx context.Context, kind domain.Kind, watermark time.Time) (domain.SyncResult, error) {
	result := domain.SyncResult{Kind: kind}
	logger := s.logger.With("kind", kind)

	logger.Info("starting sync",
		"source_name", s.source.Name(),
		"watermark", watermark,
		"timestamp", watermark.Unix(),
	)

	collection, err := s.source.FetchCollection(ctx, kind, watermark)
	if err != nil {
		return result, fmt.Errorf("fetch %s collection: %w", kind, err)
	}
	if collection == nil || len(collection.Items) == 0 {
		logger.Info("nothing changed")
		return result, nil
	}

	result.Fetched = len(collection.Items)

	newItems, updated := partition(collection.Items, watermark)
	result.New = newItems
	result.Updated = len(updated)

	logger.Info("partitioned items",
		"fetched", result.Fetched,
		"new", len(newItems),
		"updated", len(updated),
	)

	for _, item := range updated {
		comments, err := s.source.FetchComments(ctx, item)
		if err != nil {
			result.CommentErrors++
			logger.Error("failed to fetch comments",
				"item_id", item.ID,
				"error", err,
			)
			continue
		}

		if domain.HasCommentSince(comments, watermark) {
			result.Commented = append(result.Commented, item)
		}
	}

	logger.Info("sync completed",
		"new", len(result.New),
		"commented", len(result.Commented),
		"comment_errors", result.CommentErrors,
	)

	return result, nil
}

// partition splits items into created at or after the watermark and the
// rest, keeping upstream order.
func partition(items []domain.Item, watermark time.Time) (newItems, updated []domain.Item) {
	for _, item := range items {
		if item.IsNewSince(watermark) {
			newItems = append(newItems, item)
		} else {
			updated = append(updated, item)
		}
	}
	return newItems, updated
}
