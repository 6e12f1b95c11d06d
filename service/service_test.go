package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"presenca_backend/ledger"
	"presenca_backend/location"
	"presenca_backend/models"
	"presenca_backend/scheduler"
	"presenca_backend/storage"
)

var testFence = models.FenceConfig{
	Center:       models.Coordinate{Latitude: -1.436270, Longitude: -48.459680},
	RadiusMeters: 200,
}

type fixture struct {
	svc     *Service
	ledger  *ledger.Ledger
	tracker *location.Tracker
}

func newFixture(t *testing.T, kv storage.KV) fixture {
	t.Helper()
	log := zap.NewNop()
	l := ledger.New(kv, log)
	tr := location.NewTracker(time.Hour)
	sched := scheduler.NewManager(tr, l, log)
	t.Cleanup(sched.StopAll)
	svc := New(testFence, l, tr, sched, RoleAccess{}, log, 0, 0)
	return fixture{svc: svc, ledger: l, tracker: tr}
}

func TestCheckInInsideFence(t *testing.T) {
	f := newFixture(t, storage.NewMemory())
	f.tracker.Report("aluno1", testFence.Center)

	res := f.svc.CheckIn(context.Background(), "aluno1", "Aluno Um")
	if res.Status != StatusRecorded {
		t.Fatalf("status = %s, want recorded", res.Status)
	}
	if res.Record == nil || res.Record.Method != models.MethodGeofence {
		t.Fatalf("record = %+v, want a geofence record", res.Record)
	}

	recs, _ := f.ledger.ByUser(context.Background(), "aluno1")
	if len(recs) != 1 {
		t.Fatalf("ledger holds %d records, want 1", len(recs))
	}
}

func TestCheckInWithoutPermission(t *testing.T) {
	f := newFixture(t, storage.NewMemory())
	f.tracker.SetPermission("aluno1", false)

	res := f.svc.CheckIn(context.Background(), "aluno1", "Aluno Um")
	if res.Status != StatusPermissionDenied {
		t.Fatalf("status = %s, want permission_denied", res.Status)
	}

	recs, _ := f.ledger.ByUser(context.Background(), "aluno1")
	if len(recs) != 0 {
		t.Fatal("record appended despite denied permission")
	}
}

func TestCheckInStaleFixUnavailable(t *testing.T) {
	f := newFixture(t, storage.NewMemory())
	f.tracker.SetPermission("aluno1", true) // granted but no fix reported

	res := f.svc.CheckIn(context.Background(), "aluno1", "Aluno Um")
	if res.Status != StatusLocationUnavailable {
		t.Fatalf("status = %s, want location_unavailable", res.Status)
	}
}

func TestCheckInOutOfRangeThenManualOverride(t *testing.T) {
	f := newFixture(t, storage.NewMemory())

	// ~5000m north of the fence center.
	away := models.Coordinate{
		Latitude:  testFence.Center.Latitude + 5000.0/6371000.0*180/math.Pi,
		Longitude: testFence.Center.Longitude,
	}
	f.tracker.Report("aluno1", away)

	res := f.svc.CheckIn(context.Background(), "aluno1", "Aluno Um")
	if res.Status != StatusOutOfRange {
		t.Fatalf("status = %s, want out_of_range", res.Status)
	}
	if math.Abs(res.DistanceMeters-5000) > 1 {
		t.Errorf("distance = %v, want ~5000", res.DistanceMeters)
	}

	recs, _ := f.ledger.ByUser(context.Background(), "aluno1")
	if len(recs) != 0 {
		t.Fatal("out-of-range check-in appended a record")
	}

	rec, err := f.svc.RecordManualOverride(context.Background(), "aluno1", "Aluno Um", away)
	if err != nil {
		t.Fatalf("manual override: %v", err)
	}
	if rec.Method != models.MethodManual {
		t.Errorf("method = %s, want manual", rec.Method)
	}
	if rec.Location != away {
		t.Errorf("location = %v, want the reported coordinate", rec.Location)
	}

	recs, _ = f.ledger.ByUser(context.Background(), "aluno1")
	if len(recs) != 1 {
		t.Fatalf("ledger holds %d records after override, want 1", len(recs))
	}
}

type failingKV struct{ storage.KV }

func (failingKV) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}

func (failingKV) Set(context.Context, string, []byte) error {
	return errors.New("store down")
}

func TestCheckInStorageFailureSurfaces(t *testing.T) {
	f := newFixture(t, failingKV{})
	f.tracker.Report("aluno1", testFence.Center)

	res := f.svc.CheckIn(context.Background(), "aluno1", "Aluno Um")
	if res.Status != StatusStorageFailed {
		t.Fatalf("status = %s, want storage_failed", res.Status)
	}
	if res.Err == nil {
		t.Fatal("storage failure carried no error detail")
	}
}

func TestRosterAndPurgeRequireCapability(t *testing.T) {
	f := newFixture(t, storage.NewMemory())
	ctx := context.Background()

	student := models.Identity{UserID: "aluno1", DisplayName: "Aluno Um", Role: models.RoleStudent}
	admin := models.Identity{UserID: "secretaria", DisplayName: "Secretaria", Role: models.RoleAdmin}

	if _, err := f.svc.Administer(student); !errors.Is(err, ErrForbidden) {
		t.Fatalf("student capability = %v, want ErrForbidden", err)
	}

	// A zero capability is rejected even if handed in directly.
	if _, err := f.svc.Roster(ctx, AdminCapability{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("zero capability roster = %v, want ErrForbidden", err)
	}
	if err := f.svc.PurgeAll(ctx, AdminCapability{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("zero capability purge = %v, want ErrForbidden", err)
	}

	capability, err := f.svc.Administer(admin)
	if err != nil {
		t.Fatalf("admin capability: %v", err)
	}

	f.tracker.Report("aluno1", testFence.Center)
	f.svc.CheckIn(ctx, "aluno1", "Aluno Um")

	records, err := f.svc.Roster(ctx, capability)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("roster holds %d records, want 1", len(records))
	}

	if err := f.svc.PurgeAll(ctx, capability); err != nil {
		t.Fatalf("purge: %v", err)
	}
	records, _ = f.svc.Roster(ctx, capability)
	if len(records) != 0 {
		t.Fatalf("roster holds %d records after purge, want 0", len(records))
	}
}

func TestStartAutoRequiresPermission(t *testing.T) {
	f := newFixture(t, storage.NewMemory())
	f.tracker.SetPermission("aluno1", false)

	err := f.svc.StartAuto("aluno1", "Aluno Um", 0, 0)
	if !errors.Is(err, location.ErrPermissionDenied) {
		t.Fatalf("StartAuto = %v, want ErrPermissionDenied", err)
	}
	if f.svc.AutoActive("aluno1") {
		t.Fatal("auto loop active after refused start")
	}
}

func TestStartStopAuto(t *testing.T) {
	f := newFixture(t, storage.NewMemory())
	f.tracker.Report("aluno1", testFence.Center)

	if err := f.svc.StartAuto("aluno1", "Aluno Um", time.Minute, time.Minute); err != nil {
		t.Fatalf("StartAuto: %v", err)
	}
	if !f.svc.AutoActive("aluno1") {
		t.Fatal("auto loop not active after start")
	}

	f.svc.StopAuto("aluno1")
	if f.svc.AutoActive("aluno1") {
		t.Fatal("auto loop active after stop")
	}
}
