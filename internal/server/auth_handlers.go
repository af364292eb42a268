package server

import (
	"github.com/gofiber/fiber/v2"

	"secondmain/internal/service"
)

type registerRequest struct {
	FullName string `json:"fullName" form:"fullName"`
	Phone    string `json:"phone" form:"phone"`
	Password string `json:"password" form:"password"`
	Email    string `json:"email" form:"email"`
	Role     string `json:"role" form:"role"`
	Location string `json:"location" form:"location"`
}

type loginRequest struct {
	Identifier string `json:"identifier" form:"identifier"`
	Password   string `json:"password" form:"password"`
}

type updateProfileRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Location *string `json:"location"`
	Avatar   *string `json:"avatar"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type verifyPhoneRequest struct {
	Code string `json:"code"`
}

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Password: req.Password,
		Email:    req.Email,
		Role:     req.Role,
		Location: req.Location,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusCreated, "Registration successful", result)
}

// Login handles POST /api/auth/login. The identifier is an email or a phone
// number.
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.authService.Login(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusOK, "Login successful", result)
}

// Me handles GET /api/auth/me
func (s *Server) Me(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	user, err := s.authService.Me(c.UserContext(), actor)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusOK, "", user)
}

// UpdateProfile handles PUT /api/auth/profile
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	var req updateProfileRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.authService.UpdateProfile(c.UserContext(), actor, service.UpdateProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
		Location: req.Location,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusOK, "Profile updated", user)
}

// ChangePassword handles PUT /api/auth/password
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	var req changePasswordRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.authService.ChangePassword(c.UserContext(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusOK, "Password updated", nil)
}

// VerifyPhone handles POST /api/auth/verify-phone
func (s *Server) VerifyPhone(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	var req verifyPhoneRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.authService.VerifyPhone(c.UserContext(), actor, req.Code)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusOK, "Phone number verified", user)
}

// ResendOTP handles POST /api/auth/resend-otp
func (s *Server) ResendOTP(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return s.respondError(c, err)
	}

	result, err := s.authService.ResendOTP(c.UserContext(), actor)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOK(c, fiber.StatusOK, "Verification code sent", result)
}
