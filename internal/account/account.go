// Package account handles registration, login and the administration of
// user accounts.
package account

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/kristalball/internal/apperr"
	"github.com/erazemk/kristalball/internal/auth"
	"github.com/erazemk/kristalball/internal/db"
	"github.com/erazemk/kristalball/internal/metrics"
	"github.com/erazemk/kristalball/internal/model"
	"github.com/erazemk/kristalball/internal/policy"
	"github.com/erazemk/kristalball/internal/store"
)

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = apperr.Unauthorized("invalid credentials")

// checkPassword is swapped in tests.
var checkPassword = auth.CheckPassword

// Service runs account operations against a database.
type Service struct {
	DB       *sql.DB
	Metrics  *metrics.Metrics
	Secret   string
	TokenTTL time.Duration
}

// New creates a Service.
func New(database *sql.DB, m *metrics.Metrics, secret string, ttl time.Duration) *Service {
	return &Service{DB: database, Metrics: m, Secret: secret, TokenTTL: ttl}
}

// Session is a signed token together with the user it was issued to.
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// RegisterInput is the payload of self-registration.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"omitempty,email,max=200"`
	Phone    string `json:"phone" validate:"max=50"`
	Company  string `json:"company" validate:"max=200"`
}

// LoginInput is the payload of a login.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// PasswordInput is the payload for changing one's own password.
type PasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// ProfileInput replaces the caller's contact details.
type ProfileInput struct {
	Email   string `json:"email" validate:"omitempty,email,max=200"`
	Phone   string `json:"phone" validate:"max=50"`
	Company string `json:"company" validate:"max=200"`
}

// UserInput is the payload for an admin creating an account.
type UserInput struct {
	Username string     `json:"username" validate:"required,max=50"`
	Password string     `json:"password" validate:"required,min=6"`
	Role     model.Role `json:"role" validate:"required"`
	BaseID   *int64     `json:"base_id" validate:"omitempty,gt=0"`
	Email    string     `json:"email" validate:"omitempty,email,max=200"`
	Phone    string     `json:"phone" validate:"max=50"`
	Company  string     `json:"company" validate:"max=200"`
}

// UserUpdate changes an account's role and base.
type UserUpdate struct {
	Role   model.Role `json:"role" validate:"required"`
	BaseID *int64     `json:"base_id" validate:"omitempty,gt=0"`
}

// ResetPasswordInput is the payload for an admin setting a user's password.
type ResetPasswordInput struct {
	Password string `json:"password" validate:"required,min=6"`
}

// mutate runs fn and its audit entry in one transaction. An actor of zero
// attributes the entry to the account fn returns.
func (s *Service) mutate(ctx context.Context, actor int64, action string, details any, fn func(tx *sql.Tx) (int64, error)) (int64, error) {
	var id int64
	err := db.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		if id, err = fn(tx); err != nil {
			return err
		}
		if actor == 0 {
			actor = id
		}
		return store.InsertAudit(ctx, tx, actor, action, model.EntityUser, id, details)
	})
	if err != nil {
		return 0, err
	}
	s.Metrics.IncAudit(model.EntityUser, action)
	return id, nil
}

func (s *Service) session(u *model.User) (*Session, error) {
	token, err := auth.GenerateToken(s.Secret, s.TokenTTL, u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}

func checkUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", apperr.Validation("username is required")
	}
	return username, nil
}

func validatePassword(password string) error {
	if err := model.ValidatePassword(password); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

func classifyUser(err error) error {
	if db.IsUniqueViolation(err) {
		return apperr.Wrap(apperr.CodeConflict, err, "username already exists")
	}
	if db.IsForeignKeyViolation(err) {
		return apperr.Wrap(apperr.CodeValidation, err, "base does not exist")
	}
	return err
}

// Register creates an account with the plain user role and signs a token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	username, err := checkUsername(in.Username)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	details := map[string]string{"username": username, "role": string(model.RoleUser)}
	id, err := s.mutate(ctx, 0, model.AuditCreate, details, func(tx *sql.Tx) (int64, error) {
		u, err := store.CreateUser(ctx, tx, &model.User{
			Username:     username,
			PasswordHash: hash,
			Role:         model.RoleUser,
			Email:        in.Email,
			Phone:        in.Phone,
			Company:      in.Company,
		})
		if err != nil {
			return 0, classifyUser(err)
		}
		return u.ID, nil
	})
	if err != nil {
		return nil, err
	}

	u, err := store.GetUser(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("username", username).Int64("user_id", id).Msg("user registered")
	return s.session(u)
}

// Login checks credentials and signs a token. Logins are not audited.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if in.Username == "" || in.Password == "" {
		return nil, apperr.Validation("username and password required")
	}

	u, err := store.GetUserByUsername(ctx, s.DB, in.Username)
	if err != nil {
		return nil, err
	}
	if u == nil || u.DeletedAt != nil {
		_, _ = checkPassword(auth.DummyHash(), in.Password)
		zerolog.Ctx(ctx).Warn().Str("username", in.Username).Msg("login failed")
		return nil, ErrInvalidCredentials
	}
	ok, err := checkPassword(u.PasswordHash, in.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		zerolog.Ctx(ctx).Warn().Str("username", in.Username).Msg("login failed")
		return nil, ErrInvalidCredentials
	}

	zerolog.Ctx(ctx).Info().Str("username", u.Username).Str("role", u.Role.String()).Msg("user logged in")
	return s.session(u)
}

// Profile returns the caller's account.
func (s *Service) Profile(ctx context.Context, p model.Principal) (*model.User, error) {
	u, err := store.GetUser(ctx, s.DB, p.ID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.DeletedAt != nil {
		return nil, apperr.NotFound("user")
	}
	return u, nil
}

// UpdateProfile replaces the caller's contact details.
func (s *Service) UpdateProfile(ctx context.Context, p model.Principal, in ProfileInput) (*model.User, error) {
	_, err := s.mutate(ctx, p.ID, model.AuditUpdate, in, func(tx *sql.Tx) (int64, error) {
		if _, err := loadUser(ctx, tx, p.ID); err != nil {
			return 0, err
		}
		return p.ID, store.UpdateUserProfile(ctx, tx, p.ID, in.Email, in.Phone, in.Company)
	})
	if err != nil {
		return nil, err
	}
	return store.GetUser(ctx, s.DB, p.ID)
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, p model.Principal, in PasswordInput) error {
	if err := validatePassword(in.NewPassword); err != nil {
		return err
	}
	u, err := s.Profile(ctx, p)
	if err != nil {
		return err
	}
	ok, err := auth.CheckPassword(u.PasswordHash, in.CurrentPassword)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Unauthorized("current password is incorrect")
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}

	_, err = s.mutate(ctx, p.ID, model.AuditUpdate, map[string]string{"field": "password"}, func(tx *sql.Tx) (int64, error) {
		return p.ID, store.UpdateUserPassword(ctx, tx, p.ID, hash)
	})
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("username", p.Username).Msg("user changed own password")
	return nil
}

func loadUser(ctx context.Context, q store.DBTX, id int64) (*model.User, error) {
	u, err := store.GetUser(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if u == nil || u.DeletedAt != nil {
		return nil, apperr.NotFound("user")
	}
	return u, nil
}

func authorizeAdmin(p model.Principal, act policy.Action) error {
	return policy.Authorize(p, policy.User, act, policy.Scope{})
}

// checkRoleBase rejects base-scoped roles without a base.
func checkRoleBase(role model.Role, baseID *int64) error {
	if !role.IsValid() {
		return apperr.Newf(apperr.CodeValidation, "invalid role %q", role)
	}
	if role.BaseScoped() && baseID == nil {
		return apperr.Newf(apperr.CodeValidation, "base_id is required for role %s", role)
	}
	return nil
}

// ListUsers returns every active account.
func (s *Service) ListUsers(ctx context.Context, p model.Principal) ([]model.User, error) {
	if err := authorizeAdmin(p, policy.Read); err != nil {
		return nil, err
	}
	return store.ListUsers(ctx, s.DB)
}

// GetUser returns one account, including deleted ones.
func (s *Service) GetUser(ctx context.Context, p model.Principal, id int64) (*model.User, error) {
	if err := authorizeAdmin(p, policy.Read); err != nil {
		return nil, err
	}
	u, err := store.GetUser(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user")
	}
	return u, nil
}

// CreateUser creates an account with any role.
func (s *Service) CreateUser(ctx context.Context, p model.Principal, in UserInput) (*model.User, error) {
	if err := authorizeAdmin(p, policy.Create); err != nil {
		return nil, err
	}
	username, err := checkUsername(in.Username)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := checkRoleBase(in.Role, in.BaseID); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	details := map[string]any{"username": username, "role": in.Role, "base_id": in.BaseID}
	id, err := s.mutate(ctx, p.ID, model.AuditCreate, details, func(tx *sql.Tx) (int64, error) {
		u, err := store.CreateUser(ctx, tx, &model.User{
			Username:     username,
			PasswordHash: hash,
			Role:         in.Role,
			BaseID:       in.BaseID,
			Email:        in.Email,
			Phone:        in.Phone,
			Company:      in.Company,
		})
		if err != nil {
			return 0, classifyUser(err)
		}
		return u.ID, nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("user", p.Username).Str("new_user", username).Str("role", in.Role.String()).Msg("user created")
	return store.GetUser(ctx, s.DB, id)
}

// UpdateUser changes an account's role and base. The last active admin
// cannot be demoted.
func (s *Service) UpdateUser(ctx context.Context, p model.Principal, id int64, in UserUpdate) (*model.User, error) {
	if err := authorizeAdmin(p, policy.Update); err != nil {
		return nil, err
	}
	if err := checkRoleBase(in.Role, in.BaseID); err != nil {
		return nil, err
	}

	_, err := s.mutate(ctx, p.ID, model.AuditUpdate, in, func(tx *sql.Tx) (int64, error) {
		u, err := loadUser(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if u.Role == model.RoleAdmin && in.Role != model.RoleAdmin {
			if err := keepOneAdmin(ctx, tx); err != nil {
				return 0, err
			}
		}
		if in.BaseID != nil {
			if b, err := store.GetBase(ctx, tx, *in.BaseID); err != nil {
				return 0, err
			} else if b == nil {
				return 0, apperr.NotFound("base")
			}
		}
		return id, store.UpdateUser(ctx, tx, id, in.Role, in.BaseID)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("user", p.Username).Int64("target_user_id", id).Str("new_role", in.Role.String()).Msg("user role updated")
	return store.GetUser(ctx, s.DB, id)
}

// ResetPassword sets another account's password.
func (s *Service) ResetPassword(ctx context.Context, p model.Principal, id int64, in ResetPasswordInput) error {
	if err := authorizeAdmin(p, policy.Update); err != nil {
		return err
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return err
	}

	_, err = s.mutate(ctx, p.ID, model.AuditUpdate, map[string]string{"field": "password"}, func(tx *sql.Tx) (int64, error) {
		if _, err := loadUser(ctx, tx, id); err != nil {
			return 0, err
		}
		return id, store.UpdateUserPassword(ctx, tx, id, hash)
	})
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("user", p.Username).Int64("target_user_id", id).Msg("user password reset")
	return nil
}

// DeleteUser soft-deletes an account. Admins cannot delete themselves or the
// last active admin.
func (s *Service) DeleteUser(ctx context.Context, p model.Principal, id int64) error {
	if err := authorizeAdmin(p, policy.Delete); err != nil {
		return err
	}
	if p.ID == id {
		return apperr.Validation("cannot delete yourself")
	}

	_, err := s.mutate(ctx, p.ID, model.AuditDelete, map[string]int64{"id": id}, func(tx *sql.Tx) (int64, error) {
		u, err := loadUser(ctx, tx, id)
		if err != nil {
			return 0, err
		}
		if u.Role == model.RoleAdmin {
			if err := keepOneAdmin(ctx, tx); err != nil {
				return 0, err
			}
		}
		return id, store.DeleteUser(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("user", p.Username).Int64("deleted_user_id", id).Msg("user deleted")
	return nil
}

func keepOneAdmin(ctx context.Context, q store.DBTX) error {
	n, err := store.CountAdmins(ctx, q)
	if err != nil {
		return err
	}
	if n <= 1 {
		return apperr.Conflict("cannot remove the last admin")
	}
	return nil
}

// Bootstrap creates the initial admin account if no admin exists. It returns
// the created user, or nil when an admin is already present.
func (s *Service) Bootstrap(ctx context.Context, username, password string) (*model.User, error) {
	n, err := store.CountAdmins(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	details := map[string]string{"username": username, "role": string(model.RoleAdmin)}
	id, err := s.mutate(ctx, 0, model.AuditCreate, details, func(tx *sql.Tx) (int64, error) {
		u, err := store.CreateUser(ctx, tx, &model.User{Username: username, PasswordHash: hash, Role: model.RoleAdmin})
		if err != nil {
			return 0, fmt.Errorf("creating admin: %w", classifyUser(err))
		}
		return u.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return store.GetUser(ctx, s.DB, id)
}
