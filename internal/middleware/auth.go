package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"secondmain/internal/models"
	"secondmain/internal/observability"
	"secondmain/internal/policy"
)

// Authenticator resolves the user behind an Authorization header value.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (*models.User, error)
}

const userLocalsKey = "user"

type userContextKey struct{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the authenticated user stored by the gate.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*models.User)
	return user, ok && user != nil
}

// CurrentUser returns the user attached to the request, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	if user, ok := c.Locals(userLocalsKey).(*models.User); ok {
		return user
	}
	return nil
}

// Gate rejects requests that do not carry a valid bearer token for an
// active account. All failures are 401 with the UNAUTHORIZED code.
func Gate(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := a.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			observability.AuthFailures.WithLabelValues(observability.AuthFailureReason(err)).Inc()
			return models.RespondWithAppError(c, err)
		}
		attachUser(c, user)
		return c.Next()
	}
}

// OptionalGate attaches the user when a valid token is present and lets
// every request through.
func OptionalGate(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if header := c.Get(fiber.HeaderAuthorization); header != "" {
			if user, err := a.Authenticate(c.UserContext(), header); err == nil {
				attachUser(c, user)
			}
		}
		return c.Next()
	}
}

// RequireRole must run after Gate. It answers 403 unless the user holds one
// of the allowed roles.
func RequireRole(allowed ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return models.RespondWithAppError(c, models.ErrMissingCredential)
		}
		if err := policy.RequireRole(user, allowed...); err != nil {
			return models.RespondWithAppError(c, err)
		}
		return c.Next()
	}
}

func attachUser(c *fiber.Ctx, user *models.User) {
	c.Locals(userLocalsKey, user)
	c.Locals("userID", user.ID)

	ctx := WithUser(c.UserContext(), user)
	ctx = context.WithValue(ctx, UserIDKey, user.ID)
	c.SetUserContext(ctx)
}
