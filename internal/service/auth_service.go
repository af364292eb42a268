// Package service implements the application's use cases on top of the repositories.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"secondmain/internal/auth"
	"secondmain/internal/models"
	"secondmain/internal/observability"
	"secondmain/internal/policy"
	"secondmain/internal/repository"
	"secondmain/internal/validation"
)

// TokenIssuer issues and verifies identity tokens.
type TokenIssuer interface {
	Issue(userID uint) (string, error)
	Verify(token string) (uint, error)
}

// AuthService owns registration, login, request authentication and the
// account operations of the signed-in user.
type AuthService struct {
	users     repository.UserRepository
	tokens    TokenIssuer
	logger    *slog.Logger
	exposeOTP bool
	newOTP    func() (string, error)
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type RegisterInput struct {
	FullName string
	Phone    string
	Password string
	Email    string
	Role     string
	Location string
}

type UpdateProfileInput struct {
	FullName *string
	Email    *string
	Location *string
	Avatar   *string
}

// OTPResult reports a freshly generated verification code. Code is only
// populated when codes may be echoed back to the client.
type OTPResult struct {
	Code string `json:"otp,omitempty"`
}

// NewAuthService creates an AuthService. When exposeOTP is true, ResendOTP
// returns the generated code to the caller, which is only acceptable in
// development.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer, logger *slog.Logger, exposeOTP bool) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		logger:    logger,
		exposeOTP: exposeOTP,
		newOTP:    generateOTP,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Location = strings.TrimSpace(in.Location)

	if in.FullName == "" || in.Phone == "" || in.Password == "" {
		return nil, models.NewValidationError("Full name, phone and password are required")
	}
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePhone(in.Phone); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.Email != "" {
		if err := validation.ValidateEmail(in.Email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	if err := validation.ValidateLocation(in.Location); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	role := models.RoleBuyer
	if in.Role != "" {
		role = models.Role(strings.ToLower(strings.TrimSpace(in.Role)))
		if role != models.RoleBuyer && role != models.RoleSeller {
			return nil, models.NewValidationError("Role must be buyer or seller")
		}
	}

	exists, err := s.users.ExistsByPhoneOrEmail(ctx, in.Phone, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewConflictError("A user with this phone or email already exists")
	}

	user := &models.User{
		FullName: in.FullName,
		Phone:    in.Phone,
		Role:     role,
		Location: in.Location,
		IsActive: true,
	}
	if in.Email != "" {
		user.Email = &in.Email
	}
	if err := s.users.Create(ctx, user, in.Password); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	s.logger.InfoContext(ctx, "user registered", slog.Uint64("user_id", uint64(user.ID)), slog.String("role", string(user.Role)))
	return &AuthResult{User: user, Token: token}, nil
}

// Login accepts an email address or phone number as identifier. Unknown
// identifiers and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, models.NewValidationError("Identifier and password are required")
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// burn comparable time so unknown identifiers are not distinguishable
		auth.CheckPassword(dummyHash(), password)
		return nil, loginFailure(models.ErrBadCredentials)
	}
	if !auth.CheckPassword(user.Password, password) {
		return nil, loginFailure(models.ErrBadCredentials)
	}
	if !user.IsActive {
		return nil, loginFailure(models.ErrAccountDisabled)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func loginFailure(err error) error {
	observability.AuthFailures.WithLabelValues(observability.AuthFailureReason(err)).Inc()
	return err
}

var dummyHash = sync.OnceValue(func() string {
	hash, _ := auth.HashPassword("unknown-identifier-placeholder", 0)
	return hash
})

// Authenticate resolves the user behind an Authorization header value. It
// never mutates the user.
func (s *AuthService) Authenticate(ctx context.Context, authorization string) (*models.User, error) {
	token, ok := bearerToken(authorization)
	if !ok {
		return nil, models.ErrMissingCredential
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.ErrUnknownPrincipal
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, models.ErrAccountDisabled
	}
	return user, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Me returns the current state of the actor's account.
func (s *AuthService) Me(ctx context.Context, actor *models.User) (*models.User, error) {
	if actor == nil {
		return nil, models.ErrMissingCredential
	}
	return s.users.GetByID(ctx, actor.ID)
}

// UpdateProfile overwrites only the fields that are provided and non-empty.
func (s *AuthService) UpdateProfile(ctx context.Context, actor *models.User, in UpdateProfileInput) (*models.User, error) {
	user, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}

	if v := trimmed(in.FullName); v != "" {
		if err := validation.ValidateFullName(v); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.FullName = v
	}
	if v := strings.ToLower(trimmed(in.Email)); v != "" {
		if err := validation.ValidateEmail(v); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Email = &v
	}
	if v := trimmed(in.Location); v != "" {
		if err := validation.ValidateLocation(v); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Location = v
	}
	if v := trimmed(in.Avatar); v != "" {
		user.Avatar = v
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, actor *models.User, current, next string) error {
	user, err := s.Me(ctx, actor)
	if err != nil {
		return err
	}
	if current == "" || next == "" {
		return models.NewValidationError("Current and new password are required")
	}
	if !auth.CheckPassword(user.Password, current) {
		return models.NewValidationError("Current password is incorrect")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return models.NewValidationError(err.Error())
	}
	return s.users.UpdatePassword(ctx, user.ID, next)
}

// VerifyPhone marks the phone as verified when code matches the pending code.
func (s *AuthService) VerifyPhone(ctx context.Context, actor *models.User, code string) (*models.User, error) {
	user, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, models.NewValidationError("Verification code is required")
	}
	if user.VerificationCode == nil || *user.VerificationCode != code {
		return nil, models.NewValidationError("Invalid verification code")
	}

	user.IsVerified = true
	user.VerificationCode = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResendOTP stores a new six digit code on the account. Delivery is not
// implemented; the code is logged.
// TODO: send the code by SMS once a provider is chosen.
func (s *AuthService) ResendOTP(ctx context.Context, actor *models.User) (*OTPResult, error) {
	user, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}

	code, err := s.newOTP()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user.VerificationCode = &code
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "verification code generated", slog.String("phone", user.Phone), slog.String("otp", code))

	result := &OTPResult{}
	if s.exposeOTP {
		result.Code = code
	}
	return result, nil
}

// SetUserActive enables or disables an account. Admin only; admins cannot
// disable themselves.
func (s *AuthService) SetUserActive(ctx context.Context, actor *models.User, userID uint, active bool) (*models.User, error) {
	if err := policy.RequireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if actor.ID == userID && !active {
		return nil, models.NewValidationError("You cannot deactivate your own account")
	}
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user activation changed",
		slog.Uint64("target_user_id", uint64(userID)),
		slog.Bool("active", active),
	)
	return s.users.GetByID(ctx, userID)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
