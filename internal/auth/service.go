package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tortasnery/storefront/internal/users"
	pkgAuth "github.com/tortasnery/storefront/pkg/auth"
	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/db"
	"github.com/tortasnery/storefront/pkg/db/models"
	"github.com/tortasnery/storefront/pkg/enums"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/logger"
	"github.com/tortasnery/storefront/pkg/security"
)

const (
	invalidCredentialsMessage = "Credenciales inválidas"
	emailTakenMessage         = "El email ya está registrado"

	bootstrapAdminName = "Administrador"
)

// Session is the result of a successful login.
type Session struct {
	Token  string
	Claims *pkgAuth.SessionClaims
	User   *models.User
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
}

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Logout(ctx context.Context, claims *pkgAuth.SessionClaims) error
	Me(ctx context.Context, claims *pkgAuth.SessionClaims) (*models.User, error)
	Bootstrap(ctx context.Context, email, password string) (bool, error)
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	ExistsWithRole(ctx context.Context, role enums.UserRole) (bool, error)
}

type sessionRegistry interface {
	Register(ctx context.Context, tokenID string, userID int64, expiresAt time.Time) error
	Revoke(ctx context.Context, tokenID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
// Sessions may be nil, in which case tokens are only bounded by expiry.
type ServiceParams struct {
	Users     userRepository
	Sessions  sessionRegistry
	JWTConfig config.JWTConfig
	Password  config.PasswordConfig
	Logger    *logger.Logger
}

type service struct {
	users    userRepository
	sessions sessionRegistry
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &service{
		users:    params.Users,
		sessions: params.Sessions,
		jwtCfg:   params.JWTConfig,
		pwCfg:    params.Password,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	user.LastLogin = &now

	token, claims, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.SessionPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Name:   user.FullName,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	if s.sessions != nil {
		if err := s.sessions.Register(ctx, claims.ID, user.ID, claims.ExpiresAt.Time); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register session")
		}
	}
	return &Session{Token: token, Claims: claims, User: user}, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	if security.NeedsRehash(user.PasswordHash, s.pwCfg) {
		s.rehash(ctx, user, password)
	}
	return user, nil
}

// rehash upgrades a stored hash after a successful login. Failure only logs.
func (s *service) rehash(ctx context.Context, user *models.User, password string) {
	hash, err := security.HashPassword(password, s.pwCfg)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"user_id": user.ID, "error": err.Error()}), "auth.rehash_failed")
		}
		return
	}
	user.PasswordHash = hash
}

// Register creates a storefront customer account.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = users.NormalizeEmail(input.Email)
	details := map[string]string{}
	if input.FullName == "" {
		details["fullName"] = "is required"
	}
	if input.Email == "" {
		details["email"] = "is required"
	}
	if input.Password == "" {
		details["password"] = "is required"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, emailTakenMessage)
	} else if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing user")
	}

	return s.createUser(ctx, input, enums.UserRoleCliente)
}

func (s *service) createUser(ctx context.Context, input RegisterInput, role enums.UserRole) (*models.User, error) {
	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user, err := s.users.Create(ctx, users.CreateUserDTO{
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "email") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, emailTakenMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return user, nil
}

// Logout revokes the session behind claims.
func (s *service) Logout(ctx context.Context, claims *pkgAuth.SessionClaims) error {
	if claims == nil || s.sessions == nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, claims *pkgAuth.SessionClaims) (*models.User, error) {
	if claims == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

// Bootstrap creates the first admin when none exists. It reports whether a
// user was created.
func (s *service) Bootstrap(ctx context.Context, email, password string) (bool, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return false, nil
	}
	exists, err := s.users.ExistsWithRole(ctx, enums.UserRoleAdmin)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check admin user")
	}
	if exists {
		return false, nil
	}
	if _, err := s.createUser(ctx, RegisterInput{
		FullName: bootstrapAdminName,
		Email:    users.NormalizeEmail(email),
		Password: password,
	}, enums.UserRoleAdmin); err != nil {
		return false, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "email", users.NormalizeEmail(email)), "auth.admin_bootstrapped")
	}
	return true, nil
}
