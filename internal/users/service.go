// Package users manages accounts: sign-in, creation, role changes and
// password resets, each gated by the acting user's role and recorded in the
// user audit log.
package users

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/oprema/internal/apperrors"
	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// Service runs account operations against a database.
type Service struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a Service.
func NewService(db *sql.DB, logger *zap.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.Named("users"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Authenticate returns the user whose credentials match, or nil.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := store.GetUserByUsername(ctx, s.db, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if u == nil || !auth.VerifyPassword(u.PasswordHash, password) {
		return nil, nil
	}
	return u, nil
}

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := store.GetUser(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperrors.NotFound("user")
	}
	return u, nil
}

// ListUsers returns every account ordered by username.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return store.ListUsers(ctx, s.db)
}

// CreateUser adds an account. Admins and the owner may create users; only
// the owner may create admins.
func (s *Service) CreateUser(ctx context.Context, actor *model.User, username, password, role string) (*model.User, error) {
	if !model.RoleAtLeast(actor.Role, model.RoleAdmin) {
		return nil, apperrors.Forbidden("user creation requires admin or owner")
	}
	if role == "" {
		role = model.RoleUser
	}
	switch {
	case role == model.RoleOwner:
		return nil, apperrors.Forbidden("owner role cannot be assigned")
	case !model.AssignableRole(role):
		return nil, apperrors.Validation("role must be %s or %s", model.RoleUser, model.RoleAdmin)
	case role == model.RoleAdmin && actor.Role != model.RoleOwner:
		return nil, apperrors.Forbidden("only the owner can assign admin access")
	}

	username = strings.TrimSpace(username)
	if err := model.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := model.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := store.GetUserByUsername(ctx, tx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("username already exists")
	}

	u, err := store.CreateUser(ctx, tx, username, hash, role)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("username already exists")
		}
		return nil, err
	}

	if err := s.audit(ctx, tx, &model.UserAuditLog{
		Actor:      actor.Username,
		TargetUser: u.Username,
		Action:     model.ActionUserCreated,
		Details:    "Created with role: " + role,
		NewValue:   model.StringPtr(role),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing user creation: %w", err)
	}

	s.logger.Info("user created",
		zap.String("actor", actor.Username),
		zap.String("username", u.Username),
		zap.String("role", role),
	)
	return u, nil
}

// ChangeRole sets the role of user id. Only the owner may change roles and
// the owner's own role never changes.
func (s *Service) ChangeRole(ctx context.Context, actor *model.User, id int64, role string) (*model.User, error) {
	if actor.Role != model.RoleOwner {
		return nil, apperrors.Forbidden("only the owner can change user roles")
	}
	if role == model.RoleOwner {
		return nil, apperrors.Forbidden("owner role cannot be assigned")
	}
	if !model.AssignableRole(role) {
		return nil, apperrors.Validation("role must be %s or %s", model.RoleUser, model.RoleAdmin)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	target, err := store.GetUser(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, apperrors.NotFound("user")
	}
	if target.ID == actor.ID || target.Role == model.RoleOwner {
		return nil, apperrors.Forbidden("cannot change the owner's role")
	}
	if target.Role == role {
		return nil, apperrors.Conflict("user already has role %s", role)
	}

	if err := store.UpdateUserRole(ctx, tx, id, role); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, tx, &model.UserAuditLog{
		Actor:      actor.Username,
		TargetUser: target.Username,
		Action:     model.ActionRoleChanged,
		Details:    fmt.Sprintf("Role changed from %s to %s", target.Role, role),
		OldValue:   model.StringPtr(target.Role),
		NewValue:   model.StringPtr(role),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing role change: %w", err)
	}

	s.logger.Info("user role changed",
		zap.String("actor", actor.Username),
		zap.String("username", target.Username),
		zap.String("old_role", target.Role),
		zap.String("new_role", role),
	)
	target.Role = role
	return target, nil
}

// CanResetPassword reports whether actor may set target's password. The
// owner may reset anyone; admins themselves and plain users; users only
// themselves.
func CanResetPassword(actor, target *model.User) bool {
	switch actor.Role {
	case model.RoleOwner:
		return true
	case model.RoleAdmin:
		return target.ID == actor.ID || target.Role == model.RoleUser
	default:
		return target.ID == actor.ID
	}
}

// ResetPassword sets a new password for username.
func (s *Service) ResetPassword(ctx context.Context, actor *model.User, username, password string) error {
	if err := model.ValidatePassword(password); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	target, err := store.GetUserByUsername(ctx, tx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	if target == nil {
		return apperrors.NotFound("user")
	}
	if !CanResetPassword(actor, target) {
		if actor.Role == model.RoleAdmin {
			return apperrors.Forbidden("admins can only reset their own password or a user's password")
		}
		return apperrors.Forbidden("you can only reset your own password")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := store.UpdateUserPassword(ctx, tx, target.ID, hash); err != nil {
		return err
	}
	if err := s.audit(ctx, tx, &model.UserAuditLog{
		Actor:      actor.Username,
		TargetUser: target.Username,
		Action:     model.ActionPasswordReset,
		Details:    "Password reset by " + actor.Username,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing password reset: %w", err)
	}

	s.logger.Info("user password reset",
		zap.String("actor", actor.Username),
		zap.String("username", target.Username),
	)
	return nil
}

// ListAuditLogs returns the newest user audit entries. Admin or owner only.
func (s *Service) ListAuditLogs(ctx context.Context, actor *model.User) ([]model.UserAuditLog, error) {
	if !model.RoleAtLeast(actor.Role, model.RoleAdmin) {
		return nil, apperrors.Forbidden("admin access required")
	}
	return store.ListUserAuditLogs(ctx, s.db, store.DefaultUserAuditLimit)
}

// EnsureOwner creates the owner account when the database has no users. It
// reports whether an account was created.
func (s *Service) EnsureOwner(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if err := model.ValidateUsername(username); err != nil {
		return false, err
	}
	if err := model.ValidatePassword(password); err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	n, err := store.CountUsers(ctx, tx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	if _, err := store.CreateUser(ctx, tx, username, hash, model.RoleOwner); err != nil {
		return false, err
	}
	if err := s.audit(ctx, tx, &model.UserAuditLog{
		Actor:      username,
		TargetUser: username,
		Action:     model.ActionUserCreated,
		Details:    "Created with role: " + model.RoleOwner,
		NewValue:   model.StringPtr(model.RoleOwner),
	}); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing owner creation: %w", err)
	}

	s.logger.Info("owner account created", zap.String("username", username))
	return true, nil
}

func (s *Service) audit(ctx context.Context, q store.Querier, l *model.UserAuditLog) error {
	l.Timestamp = s.now()
	_, err := store.InsertUserAuditLog(ctx, q, l)
	return err
}
