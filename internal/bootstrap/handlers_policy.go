package bootstrap

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sremani/artifortress/internal/domain"
	"github.com/sremani/artifortress/internal/platform/mhttp"
)

// evaluatePolicy records a standalone policy decision for a version/action
// pair, independent of a publish attempt.
//
//	@Summary	Evaluate policy for a version
//	@Tags		Policy
//	@Accept		json
//	@Produce	json
//	@Param		repoKey	path	string					true	"Repository key"
//	@Param		body	body	evaluatePolicyRequest	true	"Evaluation request"
//	@Router		/repos/{repoKey}/policy/evaluations [post]
func (h *handlers) evaluatePolicy(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	var req evaluatePolicyRequest
	if err := bindBody(c, &req); err != nil {
		return mhttp.WithError(c, err)
	}

	repo, err := h.catalog.RepoStore.FindByKey(c.UserContext(), principal.TenantID, c.Params("repoKey"))
	if err != nil {
		return mhttp.WithError(c, err)
	}

	eval, err := h.policy.Evaluate(c.UserContext(), principal.TenantID, repo.ID, req.VersionID, domain.PolicyAction(req.Action), principal.Actor)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.Created(c, eval)
}
