package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"homego/internal/domain"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.LastLoginAt = &at
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) UpdateStatus(_ context.Context, id, status string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Status = status
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.usersByID {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) CountByRole(_ context.Context, role string) (int, error) {
	count := 0
	for _, u := range m.usersByID {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

func newTestUserService(repo *mockUserRepo) *UserService {
	return NewUserService(zap.NewNop(), repo, NewLoginRateLimiter(time.Minute, 100))
}

func TestRegisterDefaultsAndHashing(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "  Ana@Example.com ",
		Password: "secret123",
		FullName: " Ana Pérez ",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Role != domain.RoleCustomer {
		t.Fatalf("default role: got %q", user.Role)
	}
	if user.FullName != "Ana Pérez" {
		t.Fatalf("full name not trimmed: %q", user.FullName)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret123" {
		t.Fatalf("password must be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")); err != nil {
		t.Fatalf("hash does not match password: %v", err)
	}
}

func TestRegisterConflict(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo)

	input := RegisterInput{Email: "ana@example.com", Password: "secret123", FullName: "Ana"}
	if _, err := svc.Register(context.Background(), input); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), input); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := newTestUserService(newMockUserRepo())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "ana@example.com",
		Password: "secret123",
		Role:     "superuser",
	})
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestRegisterRejectsEmptyInput(t *testing.T) {
	svc := newTestUserService(newMockUserRepo())

	if _, err := svc.Register(context.Background(), RegisterInput{Password: "x"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo)

	if _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "ana@example.com",
		Password: "secret123",
		FullName: "Ana",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Authenticate(context.Background(), "ANA@example.com", "secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.LastLoginAt == nil {
		t.Fatalf("last login should be recorded")
	}

	if _, err := svc.Authenticate(context.Background(), "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nadie@example.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user must look like bad credentials, got %v", err)
	}
}

func TestAuthenticateRateLimited(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), repo, NewLoginRateLimiter(time.Minute, 2))

	for i := 0; i < 2; i++ {
		if _, err := svc.Authenticate(context.Background(), "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if _, err := svc.Authenticate(context.Background(), "ana@example.com", "wrong"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	// Otro email no comparte el límite.
	if _, err := svc.Authenticate(context.Background(), "otra@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("other key should not be limited, got %v", err)
	}
}

func TestGetProfile(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestUserService(repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "ana@example.com",
		Password: "secret123",
		Role:     domain.RoleSeller,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.GetProfile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if got.Email != "ana@example.com" || got.Role != domain.RoleSeller {
		t.Fatalf("unexpected profile: %+v", got)
	}

	if _, err := svc.GetProfile(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
