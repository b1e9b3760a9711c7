package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"trainlog/internal/domain"
)

type mockUserRepo struct {
	getByUsername func(ctx context.Context, username string) (*domain.User, error)
	getByID       func(ctx context.Context, id int64) (*domain.User, error)
	create        func(ctx context.Context, username, passwordHash string) (*domain.User, error)
	count         func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.getByUsername(ctx, username)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return m.getByID(ctx, id)
}

func (m *mockUserRepo) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	return m.create(ctx, username, passwordHash)
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	return m.count(ctx)
}

type mockSessionRepo struct {
	create     func(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	getByToken func(ctx context.Context, token string) (*domain.Session, error)
	del        func(ctx context.Context, token string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	return m.create(ctx, userID, token, expiresAt)
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	return m.getByToken(ctx, token)
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	return m.del(ctx, token)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error {
	return nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

func TestLogin(t *testing.T) {
	hash := hashPassword(t, "secret")
	users := &mockUserRepo{
		getByUsername: func(ctx context.Context, username string) (*domain.User, error) {
			if username != "alice" {
				return nil, nil
			}
			return &domain.User{ID: 1, Username: "alice", PasswordHash: hash}, nil
		},
	}
	var createdFor int64
	sessions := &mockSessionRepo{
		create: func(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
			createdFor = userID
			return nil
		},
	}
	svc := NewAuthService(users, sessions)

	token, err := svc.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a session token")
	}
	if createdFor != 1 {
		t.Fatalf("session created for wrong user: %d", createdFor)
	}

	if _, err := svc.Login(context.Background(), "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestValidateSession(t *testing.T) {
	user := &domain.User{ID: 1, Username: "alice"}
	users := &mockUserRepo{
		getByID: func(ctx context.Context, id int64) (*domain.User, error) {
			if id == 1 {
				return user, nil
			}
			return nil, nil
		},
	}

	t.Run("valid", func(t *testing.T) {
		sessions := &mockSessionRepo{
			getByToken: func(ctx context.Context, token string) (*domain.Session, error) {
				return &domain.Session{Token: token, UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}, nil
			},
		}
		got, err := NewAuthService(users, sessions).ValidateSession(context.Background(), "tok")
		if err != nil {
			t.Fatalf("validate: %v", err)
		}
		if got.Username != "alice" {
			t.Fatalf("expected alice, got %q", got.Username)
		}
	})

	t.Run("expired", func(t *testing.T) {
		deleted := false
		sessions := &mockSessionRepo{
			getByToken: func(ctx context.Context, token string) (*domain.Session, error) {
				return &domain.Session{Token: token, UserID: 1, ExpiresAt: time.Now().Add(-time.Minute)}, nil
			},
			del: func(ctx context.Context, token string) error {
				deleted = true
				return nil
			},
		}
		_, err := NewAuthService(users, sessions).ValidateSession(context.Background(), "tok")
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected expired, got %v", err)
		}
		if !deleted {
			t.Fatal("expired session must be deleted")
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		sessions := &mockSessionRepo{
			getByToken: func(ctx context.Context, token string) (*domain.Session, error) {
				return nil, nil
			},
		}
		_, err := NewAuthService(users, sessions).ValidateSession(context.Background(), "tok")
		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestCreateInitialUser(t *testing.T) {
	t.Run("first user", func(t *testing.T) {
		var gotHash string
		users := &mockUserRepo{
			count: func(ctx context.Context) (int, error) { return 0, nil },
			create: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
				gotHash = passwordHash
				return &domain.User{ID: 1, Username: username}, nil
			},
		}
		svc := NewAuthService(users, &mockSessionRepo{})
		if err := svc.CreateInitialUser(context.Background(), "alice", "secret"); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(gotHash), []byte("secret")); err != nil {
			t.Fatal("stored hash must match the password")
		}
	})

	t.Run("refused when users exist", func(t *testing.T) {
		users := &mockUserRepo{
			count: func(ctx context.Context) (int, error) { return 1, nil },
		}
		svc := NewAuthService(users, &mockSessionRepo{})
		if err := svc.CreateInitialUser(context.Background(), "bob", "pw"); err == nil {
			t.Fatal("setup must be refused once a user exists")
		}
	})
}

func TestValidateForwardAuth(t *testing.T) {
	created := false
	users := &mockUserRepo{
		getByUsername: func(ctx context.Context, username string) (*domain.User, error) {
			return nil, nil
		},
		create: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			created = true
			return &domain.User{ID: 7, Username: username}, nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{})

	user, err := svc.ValidateForwardAuth(context.Background(), "proxyuser")
	if err != nil {
		t.Fatalf("forward auth: %v", err)
	}
	if !created || user.Username != "proxyuser" {
		t.Fatal("unknown proxy user must be auto-provisioned")
	}

	if _, err := svc.ValidateForwardAuth(context.Background(), ""); err == nil {
		t.Fatal("empty header must be rejected")
	}
}

func TestLoginWithUser(t *testing.T) {
	users := &mockUserRepo{
		getByUsername: func(ctx context.Context, username string) (*domain.User, error) {
			return nil, nil
		},
		create: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			return &domain.User{ID: 3, Username: username}, nil
		},
	}
	var sessionUser int64
	sessions := &mockSessionRepo{
		create: func(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
			sessionUser = userID
			return nil
		},
	}
	svc := NewAuthService(users, sessions)

	token, err := svc.LoginWithUser(context.Background(), "sso-user")
	if err != nil {
		t.Fatalf("sso login: %v", err)
	}
	if token == "" || sessionUser != 3 {
		t.Fatal("sso login must provision the user and open a session")
	}
}
