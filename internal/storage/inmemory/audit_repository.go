package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/storage"
)

// AuditRepository is an in-memory implementation of the audit archive.
// Records are kept in insertion order behind a RWMutex.
type AuditRepository struct {
	mu      sync.RWMutex
	records []storage.AuditRecord
	index   map[string]int // key: record ID, value: position in records
}

// NewAuditRepository creates a new in-memory audit repository
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{
		index: make(map[string]int),
	}
}

// Store persists a record, replacing an earlier one with the same ID
// Thread-safe for concurrent writes
func (r *AuditRepository) Store(ctx context.Context, record storage.AuditRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if pos, exists := r.index[record.ID]; exists {
		r.records[pos] = record
		return nil
	}

	r.index[record.ID] = len(r.records)
	r.records = append(r.records, record)
	return nil
}

// List returns matching records ordered by RecordedAt, newest first
// Thread-safe for concurrent reads
func (r *AuditRepository) List(ctx context.Context, filter storage.AuditFilter) ([]storage.AuditRecord, error) {
	r.mu.RLock()
	filtered := make([]storage.AuditRecord, 0, len(r.records))
	for _, rec := range r.records {
		if filter.Matches(rec) {
			filtered = append(filtered, rec)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].RecordedAt.After(filtered[j].RecordedAt)
	})

	if filter.Limit > 0 && len(filtered) > filter.Limit {
		filtered = filtered[:filter.Limit]
	}
	return filtered, nil
}

// Count returns the total number of records stored
func (r *AuditRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.records)), nil
}

// Clear removes all records
// Useful for testing
func (r *AuditRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = nil
	r.index = make(map[string]int)
}

// Close is a no-op for the in-memory repository
func (r *AuditRepository) Close(ctx context.Context) error {
	return nil
}
