package server

import (
	"github.com/gofiber/fiber/v2"

	"secondmain/internal/models"
)

type setActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

// SetUserActive handles PUT /api/admin/users/:id/active
func (s *Server) SetUserActive(c *fiber.Ctx) error {
	actor, err := requireUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req setActiveRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	if req.IsActive == nil {
		return s.respondError(c, models.NewValidationError("isActive is required"))
	}

	user, err := s.authService.SetUserActive(c.UserContext(), actor, id, *req.IsActive)
	if err != nil {
		return s.respondError(c, err)
	}

	message := "User deactivated"
	if user.IsActive {
		message = "User activated"
	}
	return respondOK(c, fiber.StatusOK, message, user)
}
