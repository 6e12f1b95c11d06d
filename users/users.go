package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"presenca_backend/models"
	"presenca_backend/storage"
)

const storageKey = "users_v1"

// ErrInvalidCredentials covers both unknown username and wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// User is an account the auth layer checks credentials against. The
// attendance core never sees passwords, only the resulting Identity.
type User struct {
	Username     string `json:"username"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	PasswordHash string `json:"password_hash"`
}

// Identity converts a stored user into the identity carried by tokens.
func (u User) Identity() models.Identity {
	return models.Identity{UserID: u.Username, DisplayName: u.Name, Role: u.Role}
}

// Store keeps user accounts in the durable KV under a dedicated key.
type Store struct {
	kv  storage.KV
	log *zap.Logger
	mu  sync.Mutex
}

func NewStore(kv storage.KV, log *zap.Logger) *Store {
	return &Store{kv: kv, log: log}
}

type seedUser struct {
	username, password, role, name string
}

// Default accounts matching the prototype deployment. Passwords are hashed
// at seed time; plaintext never touches the store.
var defaultUsers = []seedUser{
	{username: "aluno1", password: "1234", role: models.RoleStudent, name: "Aluno Um"},
	{username: "aluno2", password: "1234", role: models.RoleStudent, name: "Aluno Dois"},
	{username: "secretaria", password: "admin123", role: models.RoleAdmin, name: "Secretaria"},
}

// Seed writes the default accounts when no users exist yet.
func (s *Store) Seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok, err := s.kv.Get(ctx, storageKey)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if ok {
		return nil
	}

	out := make([]User, 0, len(defaultUsers))
	for _, d := range defaultUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(d.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		out = append(out, User{
			Username:     d.username,
			Name:         d.name,
			Role:         d.role,
			PasswordHash: string(hash),
		})
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if err := s.kv.Set(ctx, storageKey, raw); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	s.log.Info("seeded default users", zap.Int("count", len(out)))
	return nil
}

func (s *Store) load(ctx context.Context) ([]User, error) {
	raw, ok, err := s.kv.Get(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var list []User
	if err := json.Unmarshal(raw, &list); err != nil {
		s.log.Warn("discarding malformed user data", zap.Error(err))
		return nil, nil
	}
	return list, nil
}

// Authenticate checks a username/password pair and returns the account.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*User, error) {
	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Username != username {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(list[i].PasswordHash), []byte(password)) != nil {
			return nil, ErrInvalidCredentials
		}
		u := list[i]
		return &u, nil
	}
	return nil, ErrInvalidCredentials
}
