package auth

import (
	"context"
	"testing"
	"time"

	"github.com/tortasnery/storefront/internal/repo/repotest"
	"github.com/tortasnery/storefront/internal/users"
	pkgAuth "github.com/tortasnery/storefront/pkg/auth"
	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/enums"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/security"
)

var (
	testJWT = config.JWTConfig{Secret: "secret", Issuer: "tortasnery", ExpirationMinutes: 60}
	// cheap parameters keep argon2 fast in tests
	testPassword = config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
)

type fakeSessions struct {
	registered map[string]int64
	revoked    []string
}

func (f *fakeSessions) Register(_ context.Context, tokenID string, userID int64, _ time.Time) error {
	f.registered[tokenID] = userID
	return nil
}

func (f *fakeSessions) Revoke(_ context.Context, tokenID string) error {
	f.revoked = append(f.revoked, tokenID)
	delete(f.registered, tokenID)
	return nil
}

func buildTestService(t *testing.T) (Service, *users.Repository, *fakeSessions) {
	t.Helper()
	repo := users.NewRepository(repotest.NewDB(t))
	sessions := &fakeSessions{registered: map[string]int64{}}
	svc, err := NewService(ServiceParams{
		Users:     repo,
		Sessions:  sessions,
		JWTConfig: testJWT,
		Password:  testPassword,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, repo, sessions
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, sessions := buildTestService(t)

	user, err := svc.Register(ctx, RegisterInput{FullName: "Ana Quispe", Email: " Ana@Example.com ", Password: "secreto1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != enums.UserRoleCliente {
		t.Fatalf("expected cliente role, got %s", user.Role)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}

	session, err := svc.Login(ctx, "ANA@example.com", "secreto1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, session.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID || claims.Name != "Ana Quispe" || claims.Role != enums.UserRoleCliente {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if sessions.registered[claims.ID] != user.ID {
		t.Fatalf("expected session %s to be registered", claims.ID)
	}
	if session.User.LastLogin == nil {
		t.Fatalf("expected last login to be set")
	}

	me, err := svc.Me(ctx, claims)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.LastLogin == nil {
		t.Fatalf("expected stored last login")
	}

	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != claims.ID {
		t.Fatalf("expected revoke of %s, got %v", claims.ID, sessions.revoked)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := buildTestService(t)

	if _, err := svc.Register(ctx, RegisterInput{FullName: "A", Email: "a@x.com", Password: "p"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{FullName: "B", Email: "A@x.com", Password: "p"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict || typed.Message() != emailTakenMessage {
		t.Fatalf("expected conflict %q, got %v", emailTakenMessage, err)
	}

	_, err = svc.Register(ctx, RegisterInput{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := buildTestService(t)
	if _, err := svc.Register(ctx, RegisterInput{FullName: "A", Email: "a@x.com", Password: "right"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, tc := range []struct{ email, password string }{
		{"a@x.com", "wrong"},
		{"missing@x.com", "right"},
		{"", ""},
	} {
		_, err := svc.Login(ctx, tc.email, tc.password)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized || typed.Message() != invalidCredentialsMessage {
			t.Fatalf("login(%q): expected unauthorized, got %v", tc.email, err)
		}
	}
}

func TestLoginRehashesWeakHash(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := buildTestService(t)

	weak, err := security.HashPassword("pw", config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 16})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user, err := repo.Create(ctx, users.CreateUserDTO{FullName: "Old", Email: "old@x.com", PasswordHash: weak})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Login(ctx, "old@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	stored, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.PasswordHash == weak || security.NeedsRehash(stored.PasswordHash, testPassword) {
		t.Fatalf("expected hash upgrade")
	}
}

func TestBootstrapCreatesAdminOnce(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := buildTestService(t)

	created, err := svc.Bootstrap(ctx, "Admin@TortasNery.com", "admin123")
	if err != nil || !created {
		t.Fatalf("expected admin to be created, created=%v err=%v", created, err)
	}
	created, err = svc.Bootstrap(ctx, "other@tortasnery.com", "x")
	if err != nil || created {
		t.Fatalf("expected no second admin, created=%v err=%v", created, err)
	}

	session, err := svc.Login(ctx, "admin@tortasnery.com", "admin123")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if !session.Claims.IsAdmin() {
		t.Fatalf("expected admin claims")
	}
}

func TestMeWithoutClaims(t *testing.T) {
	svc, _, _ := buildTestService(t)
	if _, err := svc.Me(context.Background(), nil); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
