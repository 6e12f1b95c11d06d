package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"presenca_backend/models"
)

// ErrPermissionDenied means the device reported that location permission
// was refused. Terminal for the current call, not retryable.
var ErrPermissionDenied = errors.New("location permission denied")

// ErrUnavailable means no usable position fix exists right now.
// Transient; callers may retry on their next cycle.
var ErrUnavailable = errors.New("location unavailable")

// Sampler is the location capability the attendance core consumes.
type Sampler interface {
	PermissionGranted(userID string) bool
	SampleOnce(ctx context.Context, userID string) (models.Coordinate, error)
}

type report struct {
	coord models.Coordinate
	at    time.Time
}

// Tracker implements Sampler from device-reported positions. Each ping
// refreshes the user's fix; a fix older than maxAge no longer counts as a
// usable sample. Permission is granted implicitly by the first ping or
// explicitly via SetPermission.
type Tracker struct {
	maxAge time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	reports map[string]report
	denied  map[string]bool
	granted map[string]bool
}

func NewTracker(maxAge time.Duration) *Tracker {
	return &Tracker{
		maxAge:  maxAge,
		now:     time.Now,
		reports: make(map[string]report),
		denied:  make(map[string]bool),
		granted: make(map[string]bool),
	}
}

// Report stores the freshest device position for a user. Reporting a
// position implies permission was granted on the device.
func (t *Tracker) Report(userID string, c models.Coordinate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reports[userID] = report{coord: c, at: t.now()}
	t.granted[userID] = true
	delete(t.denied, userID)
}

// SetPermission records the device's permission status for a user.
func (t *Tracker) SetPermission(userID string, granted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if granted {
		t.granted[userID] = true
		delete(t.denied, userID)
		return
	}
	t.denied[userID] = true
	delete(t.granted, userID)
	delete(t.reports, userID)
}

func (t *Tracker) PermissionGranted(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.granted[userID] && !t.denied[userID]
}

// SampleOnce returns the user's latest position. ErrPermissionDenied when
// the device refused permission (or never granted it); ErrUnavailable when
// the last fix is missing or stale.
func (t *Tracker) SampleOnce(ctx context.Context, userID string) (models.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinate{}, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.denied[userID] || !t.granted[userID] {
		return models.Coordinate{}, ErrPermissionDenied
	}
	r, ok := t.reports[userID]
	if !ok || t.now().Sub(r.at) > t.maxAge {
		return models.Coordinate{}, ErrUnavailable
	}
	return r.coord, nil
}
