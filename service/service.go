package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"presenca_backend/geo"
	"presenca_backend/location"
	"presenca_backend/models"
	"presenca_backend/scheduler"
)

// Ledger is the attendance store the service records through and reads from.
type Ledger interface {
	Append(ctx context.Context, rec models.AttendanceRecord) error
	ByUser(ctx context.Context, userID string) ([]models.AttendanceRecord, error)
	All(ctx context.Context) ([]models.AttendanceRecord, error)
	Clear(ctx context.Context) error
}

// CheckInStatus is the outcome of an interactive check-in. Out-of-range and
// permission-denied are decisions, not faults.
type CheckInStatus string

const (
	StatusRecorded            CheckInStatus = "recorded"
	StatusOutOfRange          CheckInStatus = "out_of_range"
	StatusPermissionDenied    CheckInStatus = "permission_denied"
	StatusLocationUnavailable CheckInStatus = "location_unavailable"
	StatusStorageFailed       CheckInStatus = "storage_failed"
)

// CheckInResult carries the decision plus whatever detail applies to it:
// the appended record when recorded, the distance when out of range, the
// underlying error when storage failed.
type CheckInResult struct {
	Status         CheckInStatus
	DistanceMeters float64
	Record         *models.AttendanceRecord
	Err            error
}

// Service combines fence evaluation, the ledger and the auto-check
// scheduler into the user-facing attendance operations.
type Service struct {
	fence   models.FenceConfig
	ledger  Ledger
	sampler location.Sampler
	sched   *scheduler.Manager
	access  AccessControl
	log     *zap.Logger
	now     func() time.Time

	autoInterval time.Duration
	autoCooldown time.Duration
}

func New(fence models.FenceConfig, ledger Ledger, sampler location.Sampler, sched *scheduler.Manager, access AccessControl, log *zap.Logger, autoInterval, autoCooldown time.Duration) *Service {
	if autoInterval <= 0 {
		autoInterval = scheduler.DefaultInterval
	}
	if autoCooldown <= 0 {
		autoCooldown = scheduler.DefaultCooldown
	}
	return &Service{
		fence:        fence,
		ledger:       ledger,
		sampler:      sampler,
		sched:        sched,
		access:       access,
		log:          log,
		now:          time.Now,
		autoInterval: autoInterval,
		autoCooldown: autoCooldown,
	}
}

// Fence returns the configured geofence.
func (s *Service) Fence() models.FenceConfig { return s.fence }

// Administer asks the access-control collaborator for an administrative
// capability on behalf of the identity.
func (s *Service) Administer(id models.Identity) (AdminCapability, error) {
	return s.access.Administer(id)
}

// CheckIn samples the caller's location and appends a geofence record when
// inside the fence. Outside the fence nothing is appended; the caller may
// follow up with RecordManualOverride after explicit confirmation.
func (s *Service) CheckIn(ctx context.Context, userID, displayName string) CheckInResult {
	coord, err := s.sampler.SampleOnce(ctx, userID)
	switch {
	case errors.Is(err, location.ErrPermissionDenied):
		return CheckInResult{Status: StatusPermissionDenied, Err: err}
	case errors.Is(err, location.ErrUnavailable):
		return CheckInResult{Status: StatusLocationUnavailable, Err: err}
	case err != nil:
		return CheckInResult{Status: StatusLocationUnavailable, Err: err}
	}

	ev := geo.Evaluate(coord, s.fence)
	if !ev.InsideFence {
		return CheckInResult{Status: StatusOutOfRange, DistanceMeters: ev.DistanceMeters}
	}

	rec := s.newRecord(userID, displayName, coord, models.MethodGeofence)
	if err := s.ledger.Append(ctx, rec); err != nil {
		s.log.Error("check-in append failed", zap.String("userID", userID), zap.Error(err))
		return CheckInResult{Status: StatusStorageFailed, Err: err}
	}
	return CheckInResult{Status: StatusRecorded, DistanceMeters: ev.DistanceMeters, Record: &rec}
}

// RecordManualOverride unconditionally appends a manual record with the
// given coordinate. No distance check is applied; the caller has already
// confirmed the override after an out-of-range outcome.
func (s *Service) RecordManualOverride(ctx context.Context, userID, displayName string, coord models.Coordinate) (models.AttendanceRecord, error) {
	rec := s.newRecord(userID, displayName, coord, models.MethodManual)
	if err := s.ledger.Append(ctx, rec); err != nil {
		s.log.Error("manual append failed", zap.String("userID", userID), zap.Error(err))
		return models.AttendanceRecord{}, err
	}
	return rec, nil
}

// History returns the user's own records, most recent first.
func (s *Service) History(ctx context.Context, userID string) ([]models.AttendanceRecord, error) {
	return s.ledger.ByUser(ctx, userID)
}

// Roster returns every record, most recent first. Requires an
// administrative capability.
func (s *Service) Roster(ctx context.Context, capability AdminCapability) ([]models.AttendanceRecord, error) {
	if !capability.valid() {
		return nil, ErrForbidden
	}
	return s.ledger.All(ctx)
}

// PurgeAll clears the whole ledger. Requires an administrative capability;
// the HTTP layer additionally demands explicit confirmation.
func (s *Service) PurgeAll(ctx context.Context, capability AdminCapability) error {
	if !capability.valid() {
		return ErrForbidden
	}
	s.log.Info("attendance ledger purged", zap.String("by", capability.userID))
	return s.ledger.Clear(ctx)
}

// StartAuto enables the periodic auto check-in loop for the user. Zero
// interval or cooldown fall back to the configured defaults.
func (s *Service) StartAuto(userID, displayName string, interval, cooldown time.Duration) error {
	if interval <= 0 {
		interval = s.autoInterval
	}
	if cooldown <= 0 {
		cooldown = s.autoCooldown
	}
	return s.sched.Start(userID, displayName, s.fence, interval, cooldown)
}

// StopAuto disables the user's auto check-in loop; no-op when not running.
func (s *Service) StopAuto(userID string) { s.sched.Stop(userID) }

// AutoActive reports whether the user's loop is running.
func (s *Service) AutoActive(userID string) bool { return s.sched.Active(userID) }

// AutoStorageFailures reports how many ledger appends the user's running
// loop has failed; scheduler storage errors are counted, never swallowed.
func (s *Service) AutoStorageFailures(userID string) int64 {
	return s.sched.StorageFailures(userID)
}

func (s *Service) newRecord(userID, displayName string, coord models.Coordinate, method models.Method) models.AttendanceRecord {
	return models.AttendanceRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		DisplayName:  displayName,
		TimestampUTC: s.now().UTC(),
		Location:     coord,
		Method:       method,
	}
}
