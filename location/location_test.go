package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"presenca_backend/models"
)

var campus = models.Coordinate{Latitude: -1.4558, Longitude: -48.5044}

func TestSampleWithoutAnyReport(t *testing.T) {
	tr := NewTracker(time.Minute)
	_, err := tr.SampleOnce(context.Background(), "aluno1")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied before any grant", err)
	}
}

func TestReportGrantsAndSamples(t *testing.T) {
	tr := NewTracker(time.Minute)
	tr.Report("aluno1", campus)

	if !tr.PermissionGranted("aluno1") {
		t.Fatal("report did not imply permission")
	}
	got, err := tr.SampleOnce(context.Background(), "aluno1")
	if err != nil {
		t.Fatalf("SampleOnce: %v", err)
	}
	if got != campus {
		t.Fatalf("SampleOnce = %v, want %v", got, campus)
	}
}

func TestStaleFixUnavailable(t *testing.T) {
	tr := NewTracker(time.Minute)
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return base }
	tr.Report("aluno1", campus)

	tr.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err := tr.SampleOnce(context.Background(), "aluno1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable for a stale fix", err)
	}
}

func TestDenyClearsFix(t *testing.T) {
	tr := NewTracker(time.Minute)
	tr.Report("aluno1", campus)
	tr.SetPermission("aluno1", false)

	if tr.PermissionGranted("aluno1") {
		t.Fatal("permission still granted after deny")
	}
	_, err := tr.SampleOnce(context.Background(), "aluno1")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}

	// Reporting again re-grants.
	tr.Report("aluno1", campus)
	if _, err := tr.SampleOnce(context.Background(), "aluno1"); err != nil {
		t.Fatalf("SampleOnce after re-report: %v", err)
	}
}

func TestUsersAreIndependent(t *testing.T) {
	tr := NewTracker(time.Minute)
	tr.Report("aluno1", campus)

	if tr.PermissionGranted("aluno2") {
		t.Fatal("permission leaked across users")
	}
	if _, err := tr.SampleOnce(context.Background(), "aluno2"); err == nil {
		t.Fatal("sample for unreported user should fail")
	}
}
