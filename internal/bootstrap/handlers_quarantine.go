package bootstrap

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/mhttp"
)

// listQuarantine lists repoKey's quarantine items filtered by status
// (quarantined unless the status query parameter names another).
//
//	@Summary	List quarantine items
//	@Tags		Quarantine
//	@Produce	json
//	@Param		repoKey	path	string	true	"Repository key"
//	@Param		status	query	string	false	"Quarantine status filter"
//	@Param		limit	query	int		false	"Page size"
//	@Param		offset	query	int		false	"Page offset"
//	@Router		/repos/{repoKey}/quarantine [get]
func (h *handlers) listQuarantine(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	repo, err := h.catalog.RepoStore.FindByKey(c.UserContext(), principal.TenantID, c.Params("repoKey"))
	if err != nil {
		return mhttp.WithError(c, err)
	}

	status := domain.QuarantineStatus(c.Query("status", string(domain.QuarantineStatusQuarantined)))
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	items, err := h.quarantine.List(c.UserContext(), principal.TenantID, repo.ID, status, offset, limit)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.OK(c, fiber.Map{"items": items})
}

// getQuarantine returns one quarantine item by id.
//
//	@Summary	Get a quarantine item
//	@Tags		Quarantine
//	@Produce	json
//	@Param		repoKey	path	string	true	"Repository key"
//	@Param		id		path	string	true	"Quarantine item id"
//	@Router		/repos/{repoKey}/quarantine/{id} [get]
func (h *handlers) getQuarantine(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	item, err := h.quarantine.Get(c.UserContext(), principal.TenantID, c.Params("id"))
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.OK(c, item)
}

// releaseQuarantine resolves a quarantine item to released.
//
//	@Summary	Release a quarantine hold
//	@Tags		Quarantine
//	@Produce	json
//	@Param		repoKey	path	string	true	"Repository key"
//	@Param		id		path	string	true	"Quarantine item id"
//	@Router		/repos/{repoKey}/quarantine/{id}/release [post]
func (h *handlers) releaseQuarantine(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	if err := h.quarantine.Release(c.UserContext(), principal.TenantID, c.Params("id"), principal.Actor); err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.NoContent(c)
}

// rejectQuarantine resolves a quarantine item to rejected, a terminal hold.
//
//	@Summary	Reject a quarantine hold
//	@Tags		Quarantine
//	@Produce	json
//	@Param		repoKey	path	string	true	"Repository key"
//	@Param		id		path	string	true	"Quarantine item id"
//	@Router		/repos/{repoKey}/quarantine/{id}/reject [post]
func (h *handlers) rejectQuarantine(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	if err := h.quarantine.Reject(c.UserContext(), principal.TenantID, c.Params("id"), principal.Actor); err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.NoContent(c)
}
