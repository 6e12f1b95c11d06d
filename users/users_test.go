package users

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"presenca_backend/models"
	"presenca_backend/storage"
)

func TestSeedAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), zap.NewNop())

	if err := s.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	// Seeding twice must not overwrite existing accounts.
	if err := s.Seed(ctx); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	u, err := s.Authenticate(ctx, "aluno1", "1234")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if u.Role != models.RoleStudent || u.Name != "Aluno Um" {
		t.Fatalf("unexpected account: %+v", u)
	}

	admin, err := s.Authenticate(ctx, "secretaria", "admin123")
	if err != nil {
		t.Fatalf("Authenticate admin: %v", err)
	}
	if admin.Role != models.RoleAdmin {
		t.Fatalf("admin role = %s", admin.Role)
	}
	if id := admin.Identity(); id.UserID != "secretaria" || id.Role != models.RoleAdmin {
		t.Fatalf("Identity = %+v", id)
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), zap.NewNop())
	if err := s.Seed(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Authenticate(ctx, "aluno1", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := s.Authenticate(ctx, "nobody", "1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestPasswordsStoredHashed(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := NewStore(kv, zap.NewNop())
	if err := s.Seed(ctx); err != nil {
		t.Fatal(err)
	}

	raw, ok, err := kv.Get(ctx, "users_v1")
	if err != nil || !ok {
		t.Fatalf("Get users: ok=%v err=%v", ok, err)
	}
	for _, plain := range []string{"\"1234\"", "\"admin123\""} {
		if bytes.Contains(raw, []byte(plain)) {
			t.Fatalf("plaintext password %s found in stored users", plain)
		}
	}
}
