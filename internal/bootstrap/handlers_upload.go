package bootstrap

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sremani/artifortress/internal/platform/mhttp"
)

// createUpload starts a new upload session within repoKey.
//
//	@Summary	Create an upload session
//	@Tags		Uploads
//	@Accept		json
//	@Produce	json
//	@Param		repoKey	path	string					true	"Repository key"
//	@Param		body	body	createUploadRequest		true	"Upload session request"
//	@Router		/repos/{repoKey}/uploads [post]
func (h *handlers) createUpload(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	var req createUploadRequest
	if err := bindBody(c, &req); err != nil {
		return mhttp.WithError(c, err)
	}

	repo, err := h.catalog.RepoStore.FindByKey(c.UserContext(), principal.TenantID, c.Params("repoKey"))
	if err != nil {
		return mhttp.WithError(c, err)
	}

	session, err := h.upload.Create(c.UserContext(), principal.TenantID, repo.ID, principal.Actor, req.ExpectedDigest, req.ExpectedLength)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.Created(c, session)
}

// requestUploadPart issues a presigned URL for one part of uploadId.
//
//	@Summary	Request an upload part URL
//	@Tags		Uploads
//	@Produce	json
//	@Param		repoKey		path	string	true	"Repository key"
//	@Param		uploadId	path	string	true	"Upload session id"
//	@Param		partNumber	query	int		true	"Part number"
//	@Router		/repos/{repoKey}/uploads/{uploadId}/parts [post]
func (h *handlers) requestUploadPart(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	partNumber := c.QueryInt("partNumber", 0)

	url, err := h.upload.RequestPart(c.UserContext(), principal.TenantID, c.Params("uploadId"), int32(partNumber))
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.OK(c, fiber.Map{"url": url})
}

// completeUpload finalizes uploadId's multipart upload from its acknowledged parts.
//
//	@Summary	Complete an upload session
//	@Tags		Uploads
//	@Accept		json
//	@Produce	json
//	@Param		repoKey		path	string					true	"Repository key"
//	@Param		uploadId	path	string					true	"Upload session id"
//	@Param		body		body	completeUploadRequest	true	"Completed parts"
//	@Router		/repos/{repoKey}/uploads/{uploadId}/complete [post]
func (h *handlers) completeUpload(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	var req completeUploadRequest
	if err := bindBody(c, &req); err != nil {
		return mhttp.WithError(c, err)
	}

	session, err := h.upload.Complete(c.UserContext(), principal.TenantID, c.Params("uploadId"), req.Parts)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.OK(c, session)
}

// abortUpload aborts uploadId.
//
//	@Summary	Abort an upload session
//	@Tags		Uploads
//	@Accept		json
//	@Produce	json
//	@Param		repoKey		path	string				true	"Repository key"
//	@Param		uploadId	path	string				true	"Upload session id"
//	@Param		body		body	abortUploadRequest	false	"Abort reason"
//	@Router		/repos/{repoKey}/uploads/{uploadId}/abort [post]
func (h *handlers) abortUpload(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	var req abortUploadRequest
	_ = c.BodyParser(&req)

	if req.Reason == "" {
		req.Reason = "aborted by caller"
	}

	session, err := h.upload.Abort(c.UserContext(), principal.TenantID, c.Params("uploadId"), req.Reason)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.OK(c, session)
}

// commitUpload verifies and commits uploadId's staged object.
//
//	@Summary	Commit an upload session
//	@Tags		Uploads
//	@Produce	json
//	@Param		repoKey		path	string	true	"Repository key"
//	@Param		uploadId	path	string	true	"Upload session id"
//	@Router		/repos/{repoKey}/uploads/{uploadId}/commit [post]
func (h *handlers) commitUpload(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	session, err := h.upload.Commit(c.UserContext(), principal.TenantID, c.Params("uploadId"))
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.OK(c, session)
}
