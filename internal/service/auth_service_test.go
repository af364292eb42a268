package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondmain/internal/auth"
	"secondmain/internal/models"
)

func newTestAuthService(t *testing.T, exposeOTP bool) (*AuthService, *memoryUserRepo) {
	t.Helper()
	repo := newMemoryUserRepo()
	return NewAuthService(repo, newTestTokens(t), discardLogger(), exposeOTP), repo
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	svc, _ := newTestAuthService(t, false)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterInput{
		FullName: "Alice Martin",
		Phone:    "0600000001",
		Password: "secret123",
		Email:    "Alice@Example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, models.RoleBuyer, reg.User.Role)
	assert.Equal(t, "alice@example.com", reg.User.EmailValue())

	byPhone, err := svc.Login(ctx, "0600000001", "secret123")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, byPhone.User.ID)

	byEmail, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, byEmail.User.ID)

	asRegistered, err := svc.Login(ctx, "  Alice@Example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, asRegistered.User.ID)

	user, err := svc.Authenticate(ctx, "Bearer "+byEmail.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, user.ID)

	_, err = svc.Register(ctx, RegisterInput{FullName: "Alice Again", Phone: "0600000001", Password: "secret123"})
	assertAppError(t, err, models.CodeConflict)
	assert.Equal(t, 400, models.StatusOf(err))

	_, err = svc.Login(ctx, "0600000001", "wrong-password")
	assert.True(t, errors.Is(err, models.ErrBadCredentials))
	_, err = svc.Login(ctx, "0699999999", "secret123")
	assert.True(t, errors.Is(err, models.ErrBadCredentials))
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _ := newTestAuthService(t, false)
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"Missing Name", RegisterInput{Phone: "0600000001", Password: "secret123"}},
		{"Missing Phone", RegisterInput{FullName: "Alice", Password: "secret123"}},
		{"Missing Password", RegisterInput{FullName: "Alice", Phone: "0600000001"}},
		{"Short Password", RegisterInput{FullName: "Alice", Phone: "0600000001", Password: "abc"}},
		{"Bad Email", RegisterInput{FullName: "Alice", Phone: "0600000001", Password: "secret123", Email: "alice"}},
		{"Bad Phone", RegisterInput{FullName: "Alice", Phone: "phone", Password: "secret123"}},
		{"Admin Role", RegisterInput{FullName: "Alice", Phone: "0600000001", Password: "secret123", Role: "admin"}},
		{"Unknown Role", RegisterInput{FullName: "Alice", Phone: "0600000001", Password: "secret123", Role: "vendor"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			assertAppError(t, err, models.CodeValidation)
		})
	}

	res, err := svc.Register(ctx, RegisterInput{FullName: "Sam Seller", Phone: "0600000002", Password: "secret123", Role: "Seller"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, res.User.Role)
}

func TestAuthService_LoginDisabledAccount(t *testing.T) {
	svc, repo := newTestAuthService(t, false)
	user := repo.add(t, &models.User{FullName: "Disabled", Phone: "0600000001", IsActive: true}, "secret123")
	require.NoError(t, repo.SetActive(context.Background(), user.ID, false))

	_, err := svc.Login(context.Background(), "0600000001", "secret123")
	assert.True(t, errors.Is(err, models.ErrAccountDisabled))
	assert.Equal(t, "Account disabled", err.Error())

	// wrong password on a disabled account still reports bad credentials
	_, err = svc.Login(context.Background(), "0600000001", "nope-nope")
	assert.True(t, errors.Is(err, models.ErrBadCredentials))
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, repo := newTestAuthService(t, false)
	tokens := newTestTokens(t)
	ctx := context.Background()

	active := repo.add(t, &models.User{FullName: "Active", Phone: "0600000001", IsActive: true}, "secret123")
	disabled := repo.add(t, &models.User{FullName: "Disabled", Phone: "0600000002", IsActive: true}, "secret123")
	require.NoError(t, repo.SetActive(ctx, disabled.ID, false))

	activeToken, err := tokens.Issue(active.ID)
	require.NoError(t, err)
	disabledToken, err := tokens.Issue(disabled.ID)
	require.NoError(t, err)
	ghostToken, err := tokens.Issue(999)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"Missing Header", "", models.ErrMissingCredential},
		{"Wrong Scheme", "Basic " + activeToken, models.ErrMissingCredential},
		{"Bearer Without Token", "Bearer ", models.ErrMissingCredential},
		{"Garbage Token", "Bearer abc.def.ghi", models.ErrInvalidToken},
		{"Unknown User", "Bearer " + ghostToken, models.ErrUnknownPrincipal},
		{"Disabled User", "Bearer " + disabledToken, models.ErrAccountDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Authenticate(ctx, tt.header)
			assert.Nil(t, user)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, 401, models.StatusOf(err))
		})
	}

	user, err := svc.Authenticate(ctx, "bearer "+activeToken)
	require.NoError(t, err)
	assert.Equal(t, active.ID, user.ID)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, repo := newTestAuthService(t, false)
	ctx := context.Background()
	user := repo.add(t, &models.User{FullName: "Alice", Phone: "0600000001", Location: "Paris", IsActive: true}, "secret123")

	name := "Alice Martin"
	empty := ""
	email := "alice@example.com"
	updated, err := svc.UpdateProfile(ctx, user, UpdateProfileInput{FullName: &name, Location: &empty, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Alice Martin", updated.FullName)
	assert.Equal(t, "Paris", updated.Location)
	assert.Equal(t, "alice@example.com", updated.EmailValue())

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Martin", stored.FullName)

	bad := "not-an-email"
	_, err = svc.UpdateProfile(ctx, user, UpdateProfileInput{Email: &bad})
	assertAppError(t, err, models.CodeValidation)
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, repo := newTestAuthService(t, false)
	ctx := context.Background()
	user := repo.add(t, &models.User{FullName: "Alice", Phone: "0600000001", IsActive: true}, "secret123")

	assertAppError(t, svc.ChangePassword(ctx, user, "wrong-one", "newsecret"), models.CodeValidation)
	assertAppError(t, svc.ChangePassword(ctx, user, "secret123", "abc"), models.CodeValidation)
	require.NoError(t, svc.ChangePassword(ctx, user, "secret123", "newsecret"))

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(stored.Password, "newsecret"))

	_, err = svc.Login(ctx, "0600000001", "newsecret")
	assert.NoError(t, err)
}

func TestAuthService_OTPFlow(t *testing.T) {
	svc, repo := newTestAuthService(t, true)
	ctx := context.Background()
	user := repo.add(t, &models.User{FullName: "Alice", Phone: "0600000001", IsActive: true}, "secret123")

	_, err := svc.VerifyPhone(ctx, user, "123456")
	assertAppError(t, err, models.CodeValidation)

	otp, err := svc.ResendOTP(ctx, user)
	require.NoError(t, err)
	require.Len(t, otp.Code, 6)

	_, err = svc.VerifyPhone(ctx, user, "000000")
	if otp.Code != "000000" {
		assertAppError(t, err, models.CodeValidation)
	}

	verified, err := svc.VerifyPhone(ctx, user, otp.Code)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.Nil(t, verified.VerificationCode)

	// the code is single use
	_, err = svc.VerifyPhone(ctx, user, otp.Code)
	assertAppError(t, err, models.CodeValidation)
}

func TestAuthService_ResendOTPHiddenOutsideDevelopment(t *testing.T) {
	svc, repo := newTestAuthService(t, false)
	svc.newOTP = func() (string, error) { return "424242", nil }
	ctx := context.Background()
	user := repo.add(t, &models.User{FullName: "Alice", Phone: "0600000001", IsActive: true}, "secret123")

	otp, err := svc.ResendOTP(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, otp.Code)

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationCode)
	assert.Equal(t, "424242", *stored.VerificationCode)
}

func TestAuthService_SetUserActive(t *testing.T) {
	svc, repo := newTestAuthService(t, false)
	ctx := context.Background()
	admin := repo.add(t, &models.User{FullName: "Admin", Phone: "0600000001", Role: models.RoleAdmin, IsActive: true}, "secret123")
	seller := repo.add(t, &models.User{FullName: "Seller", Phone: "0600000002", Role: models.RoleSeller, IsActive: true}, "secret123")

	_, err := svc.SetUserActive(ctx, seller, admin.ID, false)
	assertAppError(t, err, models.CodeForbidden)

	_, err = svc.SetUserActive(ctx, admin, admin.ID, false)
	assertAppError(t, err, models.CodeValidation)

	updated, err := svc.SetUserActive(ctx, admin, seller.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = svc.SetUserActive(ctx, admin, 999, true)
	assertAppError(t, err, models.CodeNotFound)
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.NotEqual(t, byte('0'), code[0])
	}
}
