package bootstrap

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sremani/artifortress/internal/platform/apperrors"
)

// principal is the authenticated caller every handler acts on behalf of.
// Its population is out of scope here: identity federation, PAT issuance
// and RBAC enforcement are external collaborators this module only
// consumes (spec.md §1's Non-goals). A reverse proxy or gateway middleware
// not implemented in this module is expected to set these two headers
// once it has validated the caller.
type principal struct {
	TenantID string
	Actor    string
}

const (
	headerTenantID = "X-Tenant-Id"
	headerActor    = "X-Actor-Id"
)

// requirePrincipal reads the pre-authenticated caller off the request, or
// a 401 if the upstream gateway never set it.
func requirePrincipal(c *fiber.Ctx) (principal, error) {
	tenantID := c.Get(headerTenantID)
	actor := c.Get(headerActor)

	if tenantID == "" || actor == "" {
		return principal{}, apperrors.UnauthorizedError{
			Code:    "0401",
			Title:   "Unauthorized",
			Message: "no authenticated principal present on the request",
		}
	}

	return principal{TenantID: tenantID, Actor: actor}, nil
}
