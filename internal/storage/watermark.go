package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"helpdesk_digest/internal/domain"
)

type Config struct {
	Driver string
	// DSN is a file path for sqlite and a connection string for postgres.
	DSN          string
	LookbackDays int
}

// WatermarkStore persists the last synchronized instant. Every call opens
// the database, does its work and closes it again.
type WatermarkStore struct {
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

func NewWatermarkStore(cfg Config, logger *slog.Logger) *WatermarkStore {
	return &WatermarkStore{
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With("driver", cfg.Driver),
	}
}

func (s *WatermarkStore) withDB(ctx context.Context, op string, fn func(db *sqlx.DB) error) error {
	db, err := Open(ctx, s.cfg.Driver, s.cfg.DSN, s.logger)
	if err != nil {
		return &domain.StorageError{Op: op, Err: err}
	}
	defer func() {
		if err := db.Close(); err != nil {
			s.logger.Warn("failed to close db", "op", op, "error", err)
		}
	}()

	if err := fn(db); err != nil {
		return &domain.StorageError{Op: op, Err: err}
	}
	return nil
}

// Load returns the persisted watermark, or now minus the lookback window
// when none has been stored yet.
func (s *WatermarkStore) Load(ctx context.Context) (time.Time, error) {
	var watermark time.Time

	err := s.withDB(ctx, "load", func(db *sqlx.DB) error {
		var state domain.Watermark
		query := db.Rebind(`
			SELECT key, synced_at, updated_at
			FROM watermarks
			WHERE key = ?`)

		err := db.GetContext(ctx, &state, query, domain.WatermarkKey)
		if errors.Is(err, sql.ErrNoRows) {
			watermark = s.now().UTC().AddDate(0, 0, -s.cfg.LookbackDays)
			s.logger.Info("no watermark stored, using lookback window",
				"lookback_days", s.cfg.LookbackDays,
				"watermark", watermark,
			)
			return nil
		}
		if err != nil {
			return err
		}
		if state.SyncedAt.IsZero() {
			return fmt.Errorf("watermark %q is empty", state.Key)
		}

		watermark = state.SyncedAt.UTC()
		return nil
	})

	return watermark, err
}

// Save overwrites the watermark.
func (s *WatermarkStore) Save(ctx context.Context, watermark time.Time) error {
	return s.withDB(ctx, "save", func(db *sqlx.DB) error {
		return s.upsert(ctx, db, watermark)
	})
}

// Commit advances the watermark and records the run in one transaction.
func (s *WatermarkStore) Commit(ctx context.Context, stats *domain.RunStats) error {
	return s.withDB(ctx, "commit", func(db *sqlx.DB) error {
		return NewTransactionManager(db).WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.upsert(txCtx, db, stats.NextWatermark); err != nil {
				return fmt.Errorf("upsert watermark: %w", err)
			}
			if _, err := insertRun(txCtx, db, runRecord(stats, s.now())); err != nil {
				return fmt.Errorf("insert run: %w", err)
			}
			return nil
		})
	})
}

// recentRuns returns the most recent runs, newest first.
func (s *WatermarkStore) recentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	var runs []domain.RunRecord

	err := s.withDB(ctx, "runs", func(db *sqlx.DB) error {
		query := db.Rebind(`
			SELECT id, watermark, next_watermark, new_items, commented_items, delivered, parts, created_at
			FROM digest_runs
			ORDER BY id DESC
			LIMIT ?`)
		return db.SelectContext(ctx, &runs, query, limit)
	})

	return runs, err
}

func (s *WatermarkStore) upsert(ctx context.Context, db *sqlx.DB, watermark time.Time) error {
	exec := GetExecutor(ctx, db)
	query := exec.Rebind(`
		INSERT INTO watermarks (key, synced_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			synced_at = excluded.synced_at,
			updated_at = excluded.updated_at`)

	_, err := exec.ExecContext(ctx, query, domain.WatermarkKey, watermark.UTC(), s.now().UTC())
	return err
}

func insertRun(ctx context.Context, db *sqlx.DB, rec domain.RunRecord) (int64, error) {
	exec := GetExecutor(ctx, db)
	query := exec.Rebind(`
		INSERT INTO digest_runs (
			watermark, next_watermark, new_items, commented_items, delivered, parts, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	var id int64
	err := exec.QueryRowxContext(ctx, query,
		rec.Watermark,
		rec.NextWatermark,
		rec.NewItems,
		rec.Commented,
		rec.Delivered,
		rec.Parts,
		rec.CreatedAt,
	).Scan(&id)
	return id, err
}

func runRecord(stats *domain.RunStats, now time.Time) domain.RunRecord {
	rec := domain.RunRecord{
		Watermark:     stats.Watermark.UTC(),
		NextWatermark: stats.NextWatermark.UTC(),
		Delivered:     stats.Delivered,
		Parts:         stats.Parts,
		CreatedAt:     now.UTC(),
	}
	for _, r := range stats.Results {
		rec.NewItems += len(r.New)
		rec.Commented += len(r.Commented)
	}
	return rec
}
