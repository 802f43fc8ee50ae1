package bootstrap

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/sremani/artifortress/internal/platform/mlog"
	"github.com/sremani/artifortress/internal/services/catalog"
	"github.com/sremani/artifortress/internal/services/lifecycle"
	"github.com/sremani/artifortress/internal/services/policy"
	"github.com/sremani/artifortress/internal/services/publish"
	"github.com/sremani/artifortress/internal/services/quarantine"
	"github.com/sremani/artifortress/internal/services/reconciler"
	"github.com/sremani/artifortress/internal/services/upload"
)

// handlers wraps every service UseCase the HTTP boundary translates
// requests into calls on.
type handlers struct {
	upload     *upload.UseCase
	publish    *publish.UseCase
	lifecycle  *lifecycle.UseCase
	catalog    *catalog.UseCase
	quarantine *quarantine.UseCase
	policy     *policy.UseCase
	reconciler *reconciler.UseCase

	cfg    *Config
	logger mlog.Logger
}

// newRouter builds the fiber app and registers every route spec.md §6
// names. No auth/RBAC middleware is installed here: a principal is
// expected to already be attached to the request by an upstream gateway
// this module does not implement (spec.md §1's Non-goals).
func newRouter(h *handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			h.logger.Errorf("unhandled request error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"code":    "0004",
				"title":   "Internal Server Error",
				"message": "the server encountered an unexpected error processing this request",
			})
		},
	})

	app.Use(recover.New())

	repos := app.Group("/repos/:repoKey")

	repos.Post("/uploads", h.createUpload)
	repos.Post("/uploads/:uploadId/parts", h.requestUploadPart)
	repos.Post("/uploads/:uploadId/complete", h.completeUpload)
	repos.Post("/uploads/:uploadId/abort", h.abortUpload)
	repos.Post("/uploads/:uploadId/commit", h.commitUpload)

	repos.Get("/blobs/:digest", h.downloadBlob)

	repos.Post("/packages/versions/drafts", h.createDraft)
	repos.Post("/packages/versions/:versionId/entries", h.addEntry)
	repos.Put("/packages/versions/:versionId/manifest", h.putManifest)
	repos.Get("/packages/versions/:versionId/manifest", h.getManifest)
	repos.Post("/packages/versions/:versionId/publish", h.publishVersion)
	repos.Post("/packages/versions/:versionId/tombstone", h.tombstoneVersion)

	repos.Post("/policy/evaluations", h.evaluatePolicy)

	repos.Get("/quarantine", h.listQuarantine)
	repos.Get("/quarantine/:id", h.getQuarantine)
	repos.Post("/quarantine/:id/release", h.releaseQuarantine)
	repos.Post("/quarantine/:id/reject", h.rejectQuarantine)

	admin := app.Group("/admin")
	admin.Post("/gc/runs", h.runGc)
	admin.Get("/gc/runs/:id", h.getGcRun)
	admin.Get("/reconcile/blobs", h.reconcileBlobs)

	return app
}
