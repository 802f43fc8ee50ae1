package bootstrap

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/mhttp"
)

// runGc executes one mark-and-sweep pass for the caller's tenant.
//
//	@Summary	Run garbage collection
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Param		body	body	runGcRequest	true	"GC run request"
//	@Router		/admin/gc/runs [post]
func (h *handlers) runGc(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	var req runGcRequest
	if err := bindBody(c, &req); err != nil {
		return mhttp.WithError(c, err)
	}

	retentionGraceHours := req.RetentionGraceHours
	if retentionGraceHours <= 0 {
		retentionGraceHours = h.cfg.GcRetentionGraceHours
	}

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = h.cfg.GcBatchSize
	}

	summary, err := h.lifecycle.RunGc(c.UserContext(), principal.TenantID, principal.Actor, domain.GcMode(req.Mode), retentionGraceHours, batchSize)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.Created(c, summary)
}

// getGcRun returns one GC run's counters by id.
//
//	@Summary	Get a GC run
//	@Tags		Admin
//	@Produce	json
//	@Param		id	path	string	true	"GC run id"
//	@Router		/admin/gc/runs/{id} [get]
func (h *handlers) getGcRun(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	run, err := h.lifecycle.GetGcRun(c.UserContext(), principal.TenantID, c.Params("id"))
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.OK(c, run)
}

// reconcileBlobs reports metadata/object-store drift for the caller's tenant.
//
//	@Summary	Reconcile blob references
//	@Tags		Admin
//	@Produce	json
//	@Param		limit	query	int	false	"Sample size per drift bucket"
//	@Router		/admin/reconcile/blobs [get]
func (h *handlers) reconcileBlobs(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	limit := c.QueryInt("limit", 100)

	report, err := h.reconciler.Run(c.UserContext(), principal.TenantID, principal.Actor, limit)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.OK(c, report)
}
