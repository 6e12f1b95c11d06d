package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"presenca_backend/models"
	"presenca_backend/storage"
)

// storageKey is the single fixed key the record sequence lives under.
const storageKey = "attendance_v1"

// StorageError reports a failure of the durable collaborator. Read-side
// corruption never produces one; only an unavailable store does.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("attendance storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Ledger is the append-only attendance store and the single source of truth
// for recorded attendance. All reads and appends go through it; nothing else
// touches the persisted bytes. Appends and clears are serialized by an
// internal mutex so concurrent writers never overwrite one another.
type Ledger struct {
	kv  storage.KV
	log *zap.Logger

	mu sync.Mutex // guards read-modify-write cycles against the KV
}

func New(kv storage.KV, log *zap.Logger) *Ledger {
	return &Ledger{kv: kv, log: log}
}

// load reads the persisted sequence, oldest first. Malformed bytes are
// treated as an empty ledger with a logged warning: this is local cached
// state, not something worth crashing over.
func (l *Ledger) load(ctx context.Context) ([]models.AttendanceRecord, error) {
	raw, ok, err := l.kv.Get(ctx, storageKey)
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}
	if !ok {
		return nil, nil
	}
	var records []models.AttendanceRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		l.log.Warn("discarding malformed attendance data", zap.Error(err))
		return nil, nil
	}
	return records, nil
}

// Append durably persists a record after the currently visible sequence.
// On success the record is visible to every subsequent query.
func (l *Ledger) Append(ctx context.Context, rec models.AttendanceRecord) error {
	if rec.UserID == "" {
		return fmt.Errorf("append: empty user id")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return err
	}
	records = append(records, rec)

	raw, err := json.Marshal(records)
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}
	if err := l.kv.Set(ctx, storageKey, raw); err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	return nil
}

// ByUser returns the user's records, most recent first. An unknown user
// yields an empty slice, not an error.
func (l *Ledger) ByUser(ctx context.Context, userID string) ([]models.AttendanceRecord, error) {
	l.mu.Lock()
	records, err := l.load(ctx)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out []models.AttendanceRecord
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].UserID == userID {
			out = append(out, records[i])
		}
	}
	return out, nil
}

// All returns every record, most recent first.
func (l *Ledger) All(ctx context.Context) ([]models.AttendanceRecord, error) {
	l.mu.Lock()
	records, err := l.load(ctx)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]models.AttendanceRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, records[i])
	}
	return out, nil
}

// LastForUser returns the user's most recent record, or nil.
func (l *Ledger) LastForUser(ctx context.Context, userID string) (*models.AttendanceRecord, error) {
	l.mu.Lock()
	records, err := l.load(ctx)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].UserID == userID {
			rec := records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

// Clear atomically empties the ledger. A clear racing an append leaves
// either the pre- or post-clear state, never a torn mix.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.kv.Remove(ctx, storageKey); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}
