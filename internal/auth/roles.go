package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Role identifies what a token holder may do. Providers push alerts into the
// system; operators work tickets.
type Role string

const (
	RoleProvider Role = "PROVIDER"
	RoleOperator Role = "OPERATOR"
)

// Valid reports whether the role is recognized.
func (r Role) Valid() bool {
	return r == RoleProvider || r == RoleOperator
}

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...Role) fiber.Handler {
	allowedSet := make(map[Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}
