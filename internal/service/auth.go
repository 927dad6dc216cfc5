package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/gatekeeper/gatekeeper/internal/events"
	"github.com/gatekeeper/gatekeeper/internal/hash"
	"github.com/gatekeeper/gatekeeper/internal/logging"
	"github.com/gatekeeper/gatekeeper/internal/models"
	"github.com/gatekeeper/gatekeeper/internal/repo"
	"github.com/gatekeeper/gatekeeper/internal/tokens"
)

// DeleteAccountSlug is the literal a user must type to confirm account
// deletion.
const DeleteAccountSlug = "delete"

// RevocationCache is the denylist consulted for access/refresh jtis.
type RevocationCache interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MailDispatcher hands email jobs to the out-of-process worker. Calls return
// immediately; the caller never observes delivery.
type MailDispatcher interface {
	DispatchActivationEmail(ctx context.Context, userID uint)
	DispatchResetEmail(ctx context.Context, email string)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, key string, event events.Event) error
}

type AuthService struct {
	Repo   repo.GormRepo
	Codec  *tokens.Codec
	Cache  RevocationCache
	Mail   MailDispatcher
	Events EventPublisher

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	AdminEmails []string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// Register creates a pending (inactive) user, assigns a role and dispatches
// the activation email. Duplicate username or email come back as field
// errors on the ValidationError.
func (s *AuthService) Register(ctx context.Context, username, email, password, passwordConfirm string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	ve := &ValidationError{}
	checkUsername(ve, username)
	checkEmail(ve, email)
	checkPassword(ve, password, passwordConfirm)
	if !ve.empty() {
		return nil, ve
	}

	role, err := s.roleFor(ctx, email)
	if err != nil {
		l.Error("register_failed", "reason", "role lookup", "error", err)
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Active:       false,
		RoleID:       role.ID,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repo.ErrUsernameTaken):
			ve.add("username", msgUsernameTaken)
			return nil, ve
		case errors.Is(err, repo.ErrEmailTaken):
			ve.add("email", msgEmailTaken)
			return nil, ve
		}
		l.Error("register_failed", "error", err)
		return nil, err
	}

	user.Role = *role

	s.Mail.DispatchActivationEmail(ctx, user.ID)
	s.publish(ctx, events.Event{Type: events.TypeUserRegistered, UserID: user.ID, Username: user.Username})

	l.Info("user_registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *AuthService) roleFor(ctx context.Context, email string) (*models.Role, error) {
	if slices.Contains(s.AdminEmails, email) {
		return s.Repo.AdminRole(ctx)
	}
	return s.Repo.DefaultRole(ctx)
}

// Confirm activates the account named by a confirmation token. Confirming an
// already active account succeeds without touching the store.
func (s *AuthService) Confirm(ctx context.Context, token string) error {
	l := logging.FromContext(ctx).With("svc", "auth.confirm")

	claims, err := s.Codec.Verify(token, tokens.KindConfirmation)
	if err != nil {
		l.Warn("confirm_failed", "error", err)
		return ErrInvalidOrExpired
	}
	userID, err := claims.UserID()
	if err != nil {
		return ErrInvalidOrExpired
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return ErrInvalidOrExpired
		}
		return err
	}
	if user.Active {
		return nil
	}

	if err := s.Repo.Activate(ctx, user.ID); err != nil {
		return err
	}
	s.publish(ctx, events.Event{Type: events.TypeAccountConfirmed, UserID: user.ID, Username: user.Username})

	l.Info("account_confirmed", "user_id", user.ID)
	return nil
}

// ResendConfirmation dispatches a fresh activation email when the address
// belongs to an inactive account. It never reports whether it did.
func (s *AuthService) ResendConfirmation(ctx context.Context, email string) {
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil || user.Active {
		return
	}
	s.Mail.DispatchActivationEmail(ctx, user.ID)
}

// Login verifies credentials and issues an access+refresh pair. Inactive
// accounts authenticate but get no tokens.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidCredentials) {
			l.Warn("login_failed", "reason", "invalid email or password")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "error", err)
		return nil, err
	}
	if !user.Active {
		l.Warn("login_failed", "reason", "inactive account", "user_id", user.ID)
		return nil, ErrInactiveAccount
	}

	pair, err := s.issuePair(user.ID, user.Role.Name)
	if err != nil {
		l.Error("login_failed", "error", err)
		return nil, err
	}

	l.Info("login_successful", "user_id", user.ID)
	return pair, nil
}

func (s *AuthService) issuePair(userID uint, role string) (*TokenPair, error) {
	now := time.Now().UTC()

	access, err := s.Codec.Issue(userID, s.AccessTTL, tokens.KindAccess, role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.Codec.Issue(userID, s.RefreshTTL, tokens.KindRefresh, "")
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    now.Add(s.AccessTTL),
		RefreshExp:   now.Add(s.RefreshTTL),
	}, nil
}

// Refresh rotates the pair: it issues new tokens and immediately denylists
// the presented refresh token's jti, so a replay of it fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.verifyRevocable(ctx, refreshToken, tokens.KindRefresh)
	if err != nil {
		l.Warn("refresh_failed", "error", err)
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidOrExpired
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrInvalidOrExpired
		}
		return nil, err
	}

	pair, err := s.issuePair(user.ID, user.Role.Name)
	if err != nil {
		l.Error("refresh_failed", "error", err)
		return nil, err
	}

	if err := s.Cache.Revoke(ctx, claims.ID, claims.Remaining()); err != nil {
		l.Error("refresh_failed", "reason", "cannot revoke old token", "error", err)
		return nil, err
	}

	l.Info("refresh_successful", "user_id", user.ID)
	return pair, nil
}

// RevokeAccess denylists the access token's jti for its remaining lifetime.
func (s *AuthService) RevokeAccess(ctx context.Context, token string) error {
	return s.revoke(ctx, token, tokens.KindAccess)
}

// RevokeRefresh denylists the refresh token's jti for its remaining lifetime.
func (s *AuthService) RevokeRefresh(ctx context.Context, token string) error {
	return s.revoke(ctx, token, tokens.KindRefresh)
}

func (s *AuthService) revoke(ctx context.Context, token string, kind tokens.Kind) error {
	claims, err := s.Codec.Verify(token, kind)
	if err != nil {
		return mapTokenErr(err)
	}
	return s.Cache.Revoke(ctx, claims.ID, claims.Remaining())
}

// verifyRevocable runs the codec check plus the denylist lookup.
func (s *AuthService) verifyRevocable(ctx context.Context, token string, kind tokens.Kind) (*tokens.Claims, error) {
	claims, err := s.Codec.Verify(token, kind)
	if err != nil {
		return nil, mapTokenErr(err)
	}
	revoked, err := s.Cache.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func mapTokenErr(err error) error {
	switch {
	case errors.Is(err, tokens.ErrWrongKind):
		return ErrWrongTokenKind
	case errors.Is(err, tokens.ErrExpiredToken):
		return ErrTokenExpired
	default:
		return ErrInvalidOrExpired
	}
}

// RequestPasswordReset always succeeds from the caller's point of view; the
// mail worker decides whether the address maps to an account.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) {
	s.Mail.DispatchResetEmail(ctx, email)
}

// ResetPassword replaces the password hash for the subject of a valid reset
// token. The old password is not required.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, passwordConfirm string) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset_password")

	ve := &ValidationError{}
	checkPassword(ve, password, passwordConfirm)
	if !ve.empty() {
		return ve
	}

	claims, err := s.Codec.Verify(token, tokens.KindReset)
	if err != nil {
		l.Warn("reset_failed", "error", err)
		return ErrInvalidOrExpired
	}
	userID, err := claims.UserID()
	if err != nil {
		return ErrInvalidOrExpired
	}
	if _, err := s.Repo.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return ErrInvalidOrExpired
		}
		return err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePasswordHash(ctx, userID, pwHash); err != nil {
		return err
	}

	l.Info("password_reset", "user_id", userID)
	return nil
}

// ChangePassword replaces the hash after verifying the current password.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, password, passwordConfirm string) error {
	l := logging.FromContext(ctx).With("svc", "auth.change_password", "user_id", userID)

	ve := &ValidationError{}
	checkPassword(ve, password, passwordConfirm)
	if !ve.empty() {
		return ve
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, oldPassword) {
		l.Warn("change_password_failed", "reason", "wrong current password")
		return ErrWrongPassword
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePasswordHash(ctx, userID, pwHash); err != nil {
		return err
	}

	l.Info("password_changed")
	return nil
}

// UpdateAccount changes username and email; uniqueness checks skip the user
// itself so resubmitting unchanged values succeeds.
func (s *AuthService) UpdateAccount(ctx context.Context, userID uint, username, email string) error {
	ve := &ValidationError{}
	checkUsername(ve, username)
	checkEmail(ve, email)
	if !ve.empty() {
		return ve
	}

	taken, err := s.Repo.UsernameExists(ctx, username, userID)
	if err != nil {
		return err
	}
	if taken {
		ve.add("username", msgUsernameTaken)
	}
	taken, err = s.Repo.EmailExists(ctx, email, userID)
	if err != nil {
		return err
	}
	if taken {
		ve.add("email", msgEmailTaken)
	}
	if !ve.empty() {
		return ve
	}

	return s.Repo.UpdateProfile(ctx, userID, username, email)
}

// DeleteAccount hard-deletes the user once the confirmation slug matches.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uint, slug string) error {
	l := logging.FromContext(ctx).With("svc", "auth.delete_account", "user_id", userID)

	if slug != DeleteAccountSlug {
		return ErrInvalidSlug
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.Repo.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.publish(ctx, events.Event{Type: events.TypeAccountDeleted, UserID: user.ID, Username: user.Username})

	l.Info("account_deleted")
	return nil
}

// GetUser loads a user for the protected profile endpoints.
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// IsRevoked exposes the denylist check to the auth guards.
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.Cache.IsRevoked(ctx, jti)
}

// publish logs event failures instead of propagating them. Events are
// best-effort notifications, not part of the request outcome.
func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, fmt.Sprint(event.UserID), event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "type", event.Type, "error", err)
	}
}
