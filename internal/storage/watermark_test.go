package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"helpdesk_digest/internal/domain"
)

type WatermarkStoreSuite struct {
	suite.Suite
	ctx   context.Context
	path  string
	now   time.Time
	store *WatermarkStore
}

func (s *WatermarkStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.path = filepath.Join(s.T().TempDir(), "state", "digest.sqlite")
	s.now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	s.store = NewWatermarkStore(Config{
		Driver:       DriverSQLite,
		DSN:          s.path,
		LookbackDays: 7,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.store.now = func() time.Time { return s.now }
}

func TestWatermarkStoreSuite(t *testing.T) {
	suite.Run(t, new(WatermarkStoreSuite))
}

func (s *WatermarkStoreSuite) TestLoad_DefaultsToLookback() {
	watermark, err := s.store.Load(s.ctx)

	s.Require().NoError(err)
	s.True(watermark.Equal(s.now.AddDate(0, 0, -7)), "got %s", watermark)

	_, statErr := os.Stat(s.path)
	s.NoError(statErr)
}

func (s *WatermarkStoreSuite) TestSaveThenLoad() {
	saved := time.Date(2024, 3, 9, 8, 30, 15, 0, time.UTC)

	s.Require().NoError(s.store.Save(s.ctx, saved))
	s.Require().NoError(s.store.Save(s.ctx, saved.Add(time.Hour)))

	watermark, err := s.store.Load(s.ctx)
	s.Require().NoError(err)
	s.True(watermark.Equal(saved.Add(time.Hour)), "got %s", watermark)
	s.Equal(time.UTC, watermark.Location())
}

func (s *WatermarkStoreSuite) TestSave_NormalizesToUTC() {
	local := time.Date(2024, 3, 9, 11, 0, 0, 0, time.FixedZone("MSK", 3*60*60))

	s.Require().NoError(s.store.Save(s.ctx, local))

	watermark, err := s.store.Load(s.ctx)
	s.Require().NoError(err)
	s.True(watermark.Equal(local))
	s.Equal(8, watermark.Hour())
}

func (s *WatermarkStoreSuite) TestCommit_AdvancesAndRecordsRun() {
	stats := &domain.RunStats{
		Watermark:     time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC),
		NextWatermark: time.Date(2024, 3, 10, 11, 59, 0, 0, time.UTC),
		Results: []domain.SyncResult{
			{Kind: domain.KindArticle, New: make([]domain.Item, 2), Commented: make([]domain.Item, 1)},
			{Kind: domain.KindPost, New: make([]domain.Item, 1)},
		},
		Delivered: true,
		Parts:     1,
	}

	s.Require().NoError(s.store.Commit(s.ctx, stats))

	watermark, err := s.store.Load(s.ctx)
	s.Require().NoError(err)
	s.True(watermark.Equal(stats.NextWatermark))

	runs, err := s.store.recentRuns(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(runs, 1)
	s.Equal(3, runs[0].NewItems)
	s.Equal(1, runs[0].Commented)
	s.True(runs[0].Delivered)
	s.Equal(1, runs[0].Parts)
	s.True(runs[0].Watermark.Equal(stats.Watermark))
	s.True(runs[0].CreatedAt.Equal(s.now))
}

func (s *WatermarkStoreSuite) TestRuns_NewestFirst() {
	for i := 1; i <= 3; i++ {
		s.Require().NoError(s.store.Commit(s.ctx, &domain.RunStats{
			Watermark:     s.now.Add(-time.Duration(i) * time.Hour),
			NextWatermark: s.now,
			Parts:         i,
		}))
	}

	runs, err := s.store.recentRuns(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(runs, 2)
	s.Equal(3, runs[0].Parts)
	s.Equal(2, runs[1].Parts)
}

func (s *WatermarkStoreSuite) TestLoad_CorruptStorage() {
	s.Require().NoError(os.MkdirAll(filepath.Dir(s.path), 0o755))
	s.Require().NoError(os.WriteFile(s.path, []byte(strings.Repeat("definitely not sqlite ", 64)), 0o600))

	_, err := s.store.Load(s.ctx)

	var storageErr *domain.StorageError
	s.Require().True(errors.As(err, &storageErr))
	s.Equal("load", storageErr.Op)
}

func (s *WatermarkStoreSuite) TestUnsupportedDriver() {
	store := NewWatermarkStore(Config{Driver: "redis"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := store.Save(s.ctx, s.now)

	var storageErr *domain.StorageError
	s.Require().True(errors.As(err, &storageErr))
	s.Contains(err.Error(), "unsupported driver")
}

func (s *WatermarkStoreSuite) TestOpen_ReleasesMigrationConnection() {
	db, err := Open(s.ctx, DriverSQLite, s.path, s.store.logger)
	s.Require().NoError(err)
	defer db.Close()

	s.Zero(db.Stats().InUse)

	var count int
	s.Require().NoError(db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM watermarks"))
}
