package domain

import "time"

// WatermarkKey is the key the last synchronized instant is stored under.
const WatermarkKey = "start_date"

// SyncResult holds the outcome of syncing one resource kind.
type SyncResult struct {
	Kind          Kind
	Fetched       int
	Updated       int
	CommentErrors int
	New           []Item
	Commented     []Item
}

// Empty reports whether the result has nothing to report.
func (r SyncResult) Empty() bool {
	return len(r.New) == 0 && len(r.Commented) == 0
}

// RunStats holds statistics about a digest run.
type RunStats struct {
	Watermark     time.Time
	NextWatermark time.Time
	Results       []SyncResult
	FailedKinds   []Kind
	Delivered     bool
	Parts         int
	Published     int
	PublishErrors int
	Committed     bool
	Duration      time.Duration
}

// Result returns the sync result for kind, or an empty one.
func (s *RunStats) Result(kind Kind) SyncResult {
	for _, r := range s.Results {
		if r.Kind == kind {
			return r
		}
	}
	return SyncResult{Kind: kind}
}

// Watermark is the persisted form of the last synchronized instant.
type Watermark struct {
	Key       string    `db:"key"`
	SyncedAt  time.Time `db:"synced_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// RunRecord is the audit row written alongside each watermark commit.
type RunRecord struct {
	ID            int64     `db:"id"`
	Watermark     time.Time `db:"watermark"`
	NextWatermark time.Time `db:"next_watermark"`
	NewItems      int       `db:"new_items"`
	Commented     int       `db:"commented_items"`
	Delivered     bool      `db:"delivered"`
	Parts         int       `db:"parts"`
	CreatedAt     time.Time `db:"created_at"`
}
