package usagelog

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entry is one ledger row: the token usage and cost of a single chat
// request. Estimated marks rows whose counts came from the heuristic
// estimator because the provider omitted usage.
type Entry struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	TraceID          string    `gorm:"size:64;index" json:"trace_id"`
	Provider         string    `gorm:"size:32;not null;index" json:"provider"`
	Model            string    `gorm:"size:128;not null" json:"model"`
	PromptTokens     int       `gorm:"default:0" json:"prompt_tokens"`
	CompletionTokens int       `gorm:"default:0" json:"completion_tokens"`
	TotalTokens      int       `gorm:"default:0" json:"total_tokens"`
	Cost             float64   `gorm:"type:decimal(12,8);default:0" json:"cost"`
	Estimated        bool      `gorm:"default:false" json:"estimated"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

func (Entry) TableName() string {
	return "usage_entries"
}

// Summary aggregates ledger rows recorded at or after Since.
type Summary struct {
	Since            time.Time `json:"since"`
	Requests         int64     `json:"requests"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TotalTokens      int64     `json:"total_tokens"`
	Cost             float64   `json:"cost"`
}

// Store is the usage ledger, backed by SQLite through GORM.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the ledger at path and migrates the
// schema. Use an in-memory DSN such as "file::memory:?cache=shared"
// for ephemeral stores.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open usage ledger: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate usage ledger: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record inserts one entry. A missing TraceID gets minted and a zero
// TotalTokens is derived from the parts.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.TraceID == "" {
		e.TraceID = uuid.NewString()
	}
	if e.TotalTokens == 0 {
		e.TotalTokens = e.PromptTokens + e.CompletionTokens
	}
	return s.db.WithContext(ctx).Create(e).Error
}

// Recent returns the n most recently recorded entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}
	var entries []Entry
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&entries).Error
	return entries, err
}

// Summary aggregates all entries recorded at or after since.
func (s *Store) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	var row struct {
		Requests         int64
		PromptTokens     int64
		CompletionTokens int64
		TotalTokens      int64
		Cost             float64
	}
	err := s.db.WithContext(ctx).Model(&Entry{}).
		Where("created_at >= ?", since).
		Select("COUNT(*) AS requests" +
			", COALESCE(SUM(prompt_tokens), 0) AS prompt_tokens" +
			", COALESCE(SUM(completion_tokens), 0) AS completion_tokens" +
			", COALESCE(SUM(total_tokens), 0) AS total_tokens" +
			", COALESCE(SUM(cost), 0) AS cost").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &Summary{
		Since:            since,
		Requests:         row.Requests,
		PromptTokens:     row.PromptTokens,
		CompletionTokens: row.CompletionTokens,
		TotalTokens:      row.TotalTokens,
		Cost:             row.Cost,
	}, nil
}
