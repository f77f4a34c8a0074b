package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"helpdesk_digest/internal/domain"
)

type Source interface {
	ID() string
	Name() string
	FetchCollection(ctx context.Context, kind domain.Kind, since time.Time) (*domain.Collection, error)
	FetchComments(ctx context.Context, item domain.Item) ([]domain.Comment, error)
}

type WatermarkStore interface {
	Load(ctx context.Context) (time.Time, error)
	Commit(ctx context.Context, stats *domain.RunStats) error
}

type Notifier interface {
	Send(ctx context.Context, body string) (int, error)
}

type Publisher interface {
	Publish(ctx context.Context, item *domain.Item, action string) error
	Close() error
}

type Syncer interface {
	Sync(ctx context.Context, kind domain.Kind, watermark time.Time) (domain.SyncResult, error)
}
