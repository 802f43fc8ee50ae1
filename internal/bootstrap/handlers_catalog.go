package bootstrap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
	"github.com/sremani/artifortress/internal/platform/mhttp"
	"github.com/sremani/artifortress/internal/services/publish"
)

// createDraft opens a new draft PackageVersion within repoKey.
//
//	@Summary	Create a draft package version
//	@Tags		Catalog
//	@Accept		json
//	@Produce	json
//	@Param		repoKey	path	string				true	"Repository key"
//	@Param		body	body	createDraftRequest	true	"Draft request"
//	@Router		/repos/{repoKey}/packages/versions/drafts [post]
func (h *handlers) createDraft(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	var req createDraftRequest
	if err := bindBody(c, &req); err != nil {
		return mhttp.WithError(c, err)
	}

	v, err := h.catalog.CreateDraft(c.UserContext(), principal.TenantID, c.Params("repoKey"), req.PackageType, req.Namespace, req.Name, req.Version, principal.Actor)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.Created(c, v)
}

// addEntry registers one file within versionId.
//
//	@Summary	Add an artifact entry to a draft version
//	@Tags		Catalog
//	@Accept		json
//	@Produce	json
//	@Param		repoKey		path	string			true	"Repository key"
//	@Param		versionId	path	string			true	"Package version id"
//	@Param		body		body	addEntryRequest	true	"Entry request"
//	@Router		/repos/{repoKey}/packages/versions/{versionId}/entries [post]
func (h *handlers) addEntry(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	var req addEntryRequest
	if err := bindBody(c, &req); err != nil {
		return mhttp.WithError(c, err)
	}

	entry, err := h.catalog.AddEntry(c.UserContext(), principal.TenantID, c.Params("versionId"), req.RelativePath, req.BlobDigest, req.ChecksumSHA1, req.ChecksumSHA256, req.SizeBytes)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.Created(c, entry)
}

// putManifest upserts versionId's manifest.
//
//	@Summary	Write a draft version's manifest
//	@Tags		Catalog
//	@Accept		json
//	@Produce	json
//	@Param		repoKey		path	string				true	"Repository key"
//	@Param		versionId	path	string				true	"Package version id"
//	@Param		body		body	putManifestRequest	true	"Manifest request"
//	@Router		/repos/{repoKey}/packages/versions/{versionId}/manifest [put]
func (h *handlers) putManifest(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	var req putManifestRequest
	if err := bindBody(c, &req); err != nil {
		return mhttp.WithError(c, err)
	}

	m, err := h.catalog.PutManifest(c.UserContext(), principal.TenantID, c.Params("versionId"), req.ManifestJSON, req.PackageType, req.ManifestBlobDigest, principal.Actor)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.OK(c, m)
}

// getManifest returns versionId's manifest.
//
//	@Summary	Read a version's manifest
//	@Tags		Catalog
//	@Produce	json
//	@Param		repoKey		path	string	true	"Repository key"
//	@Param		versionId	path	string	true	"Package version id"
//	@Router		/repos/{repoKey}/packages/versions/{versionId}/manifest [get]
func (h *handlers) getManifest(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return mhttp.WithError(c, err)
	}

	m, err := h.catalog.GetManifest(c.UserContext(), c.Params("versionId"))
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.OK(c, m)
}

// publishVersion transitions versionId from draft to published.
//
//	@Summary	Publish a draft version
//	@Tags		Catalog
//	@Produce	json
//	@Param		repoKey		path	string	true	"Repository key"
//	@Param		versionId	path	string	true	"Package version id"
//	@Router		/repos/{repoKey}/packages/versions/{versionId}/publish [post]
func (h *handlers) publishVersion(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	repo, err := h.catalog.RepoStore.FindByKey(c.UserContext(), principal.TenantID, c.Params("repoKey"))
	if err != nil {
		return mhttp.WithError(c, err)
	}

	result, err := h.publish.Publish(c.UserContext(), principal.TenantID, repo.ID, c.Params("versionId"), principal.Actor)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.OK(c, publishResponse(result))
}

func publishResponse(r *publish.Result) fiber.Map {
	return fiber.Map{
		"version":       r.Version,
		"idempotent":    r.Idempotent,
		"event_emitted": r.EventEmitted,
	}
}

// tombstoneVersion deletes versionId, opening its retention window.
//
//	@Summary	Tombstone a package version
//	@Tags		Catalog
//	@Accept		json
//	@Produce	json
//	@Param		repoKey		path	string				true	"Repository key"
//	@Param		versionId	path	string				true	"Package version id"
//	@Param		body		body	tombstoneRequest	true	"Tombstone request"
//	@Router		/repos/{repoKey}/packages/versions/{versionId}/tombstone [post]
func (h *handlers) tombstoneVersion(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	var req tombstoneRequest
	if err := bindBody(c, &req); err != nil {
		return mhttp.WithError(c, err)
	}

	retentionDays := req.RetentionDays
	if retentionDays <= 0 {
		retentionDays = h.cfg.TombstoneRetentionDays
	}

	repo, err := h.catalog.RepoStore.FindByKey(c.UserContext(), principal.TenantID, c.Params("repoKey"))
	if err != nil {
		return mhttp.WithError(c, err)
	}

	tombstone, err := h.lifecycle.Tombstone(c.UserContext(), principal.TenantID, repo.ID, c.Params("versionId"), principal.Actor, req.Reason, retentionDays)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	return mhttp.OK(c, tombstone)
}

// downloadBlob streams digest's bytes within repoKey, honoring a Range
// header with a 206/416 response per spec.md §6. A range request opens a
// true ranged GET against the object backend instead of streaming and
// discarding the leading bytes of the full object.
//
//	@Summary	Download a blob by digest
//	@Tags		Catalog
//	@Produce	application/octet-stream
//	@Param		repoKey	path	string	true	"Repository key"
//	@Param		digest	path	string	true	"Blob digest"
//	@Router		/repos/{repoKey}/blobs/{digest} [get]
func (h *handlers) downloadBlob(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	repoKey, digest := c.Params("repoKey"), c.Params("digest")

	b, err := h.catalog.FindBlob(c.UserContext(), principal.TenantID, repoKey, digest)
	if err != nil {
		return mhttp.WithError(c, err)
	}

	total := b.LengthBytes

	start, end, ranged, err := parseRange(c.Get(fiber.HeaderRange), total)
	if err != nil {
		c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes */%d", total))
		return mhttp.WithError(c, err)
	}

	c.Set(fiber.HeaderAcceptRanges, "bytes")

	if !ranged {
		result, err := h.catalog.ResolveDownload(c.UserContext(), principal.TenantID, repoKey, digest)
		if err != nil {
			return mhttp.WithError(c, err)
		}
		defer result.Reader.Close()

		c.Status(fiber.StatusOK)

		return c.SendStream(result.Reader, int(total))
	}

	result, err := h.catalog.ResolveDownloadRange(c.UserContext(), principal.TenantID, repoKey, digest, start, end)
	if err != nil {
		return mhttp.WithError(c, err)
	}
	defer result.Reader.Close()

	c.Status(fiber.StatusPartialContent)
	c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", start, end, total))

	length := end - start + 1

	return c.SendStream(result.Reader, int(length))
}

// parseRange parses a "bytes=start-end" Range header against total,
// returning ranged=false when header is absent.
func parseRange(header string, total int64) (start, end int64, ranged bool, err error) {
	if header == "" {
		return 0, 0, false, nil
	}

	const prefix = "bytes="

	if !strings.HasPrefix(header, prefix) {
		return 0, 0, false, nil
	}

	spec := strings.SplitN(strings.TrimPrefix(header, prefix), "-", 2)
	if len(spec) != 2 {
		return 0, 0, false, apperrors.ValidateBusinessError(cn.ErrRangeNotSatisfiable, "Blob")
	}

	start, startErr := strconv.ParseInt(spec[0], 10, 64)
	if startErr != nil {
		return 0, 0, false, apperrors.ValidateBusinessError(cn.ErrRangeNotSatisfiable, "Blob")
	}

	if spec[1] == "" {
		end = total - 1
	} else if end, err = strconv.ParseInt(spec[1], 10, 64); err != nil {
		return 0, 0, false, apperrors.ValidateBusinessError(cn.ErrRangeNotSatisfiable, "Blob")
	}

	if start < 0 || end >= total || start > end {
		return 0, 0, false, apperrors.ValidateBusinessError(cn.ErrRangeNotSatisfiable, "Blob")
	}

	return start, end, true, nil
}
