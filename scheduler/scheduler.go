package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"presenca_backend/geo"
	"presenca_backend/location"
	"presenca_backend/models"
)

// Defaults applied when a start request leaves interval or cooldown unset.
const (
	DefaultInterval = 30 * time.Second
	DefaultCooldown = 30 * time.Minute
)

// Ledger is the slice of the attendance ledger the scheduler needs.
type Ledger interface {
	LastForUser(ctx context.Context, userID string) (*models.AttendanceRecord, error)
	Append(ctx context.Context, rec models.AttendanceRecord) error
}

// Manager owns every running auto-check loop, at most one per user.
// Starting a user who is already running restarts the loop with the new
// parameters instead of stacking a second timer.
type Manager struct {
	sampler location.Sampler
	ledger  Ledger
	log     *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	running map[string]*autoChecker
}

func NewManager(sampler location.Sampler, ledger Ledger, log *zap.Logger) *Manager {
	return &Manager{
		sampler: sampler,
		ledger:  ledger,
		log:     log,
		now:     time.Now,
		running: make(map[string]*autoChecker),
	}
}

// Start begins (or restarts) the periodic auto check-in loop for a user.
// Refused with location.ErrPermissionDenied when the location capability
// reports no permission.
func (m *Manager) Start(userID, displayName string, fence models.FenceConfig, interval, cooldown time.Duration) error {
	if !m.sampler.PermissionGranted(userID) {
		return location.ErrPermissionDenied
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.running[userID]; ok {
		prev.stop()
	}

	a := &autoChecker{
		userID:      userID,
		displayName: displayName,
		fence:       fence,
		interval:    interval,
		cooldown:    cooldown,
		sampler:     m.sampler,
		ledger:      m.ledger,
		log:         m.log.With(zap.String("userID", userID)),
		now:         m.now,
		done:        make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go a.run(ctx)

	m.running[userID] = a
	m.log.Info("auto check-in started",
		zap.String("userID", userID),
		zap.Duration("interval", interval),
		zap.Duration("cooldown", cooldown))
	return nil
}

// Stop cancels the user's loop. Idempotent: stopping a user who is not
// running is a no-op. No record is appended after Stop returns.
func (m *Manager) Stop(userID string) {
	m.mu.Lock()
	a, ok := m.running[userID]
	if ok {
		delete(m.running, userID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	a.stop()
	m.log.Info("auto check-in stopped", zap.String("userID", userID))
}

// StopAll cancels every running loop; used on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	all := make([]*autoChecker, 0, len(m.running))
	for _, a := range m.running {
		all = append(all, a)
	}
	m.running = make(map[string]*autoChecker)
	m.mu.Unlock()
	for _, a := range all {
		a.stop()
	}
}

// Active reports whether the user currently has a running loop.
func (m *Manager) Active(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.running[userID]
	return ok
}

// StorageFailures returns how many ledger appends failed for the user's
// running loop. Failures never halt the loop but are never swallowed
// silently either.
func (m *Manager) StorageFailures(userID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.running[userID]; ok {
		return a.storageFailures.Load()
	}
	return 0
}

// autoChecker is one running loop: Idle until created, Running until its
// context is cancelled. Cancellation is a data transition on the context;
// stop() waits for the loop goroutine, so in-flight work finishes before
// stop returns and nothing fires afterwards.
type autoChecker struct {
	userID      string
	displayName string
	fence       models.FenceConfig
	interval    time.Duration
	cooldown    time.Duration
	sampler     location.Sampler
	ledger      Ledger
	log         *zap.Logger
	now         func() time.Time

	cancel          context.CancelFunc
	done            chan struct{}
	stopOnce        sync.Once
	storageFailures atomic.Int64
}

func (a *autoChecker) run(ctx context.Context) {
	defer close(a.done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *autoChecker) stop() {
	a.stopOnce.Do(func() {
		a.cancel()
		<-a.done
	})
}

// tick performs one cycle: sample, evaluate, append when due. A failed
// sample skips the tick; the next one starts fresh.
func (a *autoChecker) tick(ctx context.Context) {
	coord, err := a.sampler.SampleOnce(ctx, a.userID)
	if err != nil {
		a.log.Debug("tick skipped: no sample", zap.Error(err))
		return
	}

	ev := geo.Evaluate(coord, a.fence)
	if !ev.InsideFence {
		return
	}

	last, err := a.ledger.LastForUser(ctx, a.userID)
	if err != nil {
		a.storageFailures.Add(1)
		a.log.Error("tick: last record lookup failed", zap.Error(err))
		return
	}
	if last != nil && a.now().Sub(last.TimestampUTC) < a.cooldown {
		return
	}
	if ctx.Err() != nil {
		// Cancelled while sampling; discard the result.
		return
	}

	rec := models.AttendanceRecord{
		ID:           uuid.NewString(),
		UserID:       a.userID,
		DisplayName:  a.displayName,
		TimestampUTC: a.now().UTC(),
		Location:     coord,
		Method:       models.MethodAuto,
	}
	if err := a.ledger.Append(ctx, rec); err != nil {
		a.storageFailures.Add(1)
		a.log.Error("tick: auto append failed", zap.Error(err))
		return
	}
	a.log.Info("auto attendance recorded", zap.Float64("distanceMeters", ev.DistanceMeters))
}
