// Package mhttp carries the small set of fiber response/error-mapping
// conventions every handler in internal/bootstrap shares: typed errors
// from internal/platform/apperrors translate to a deterministic wire
// status and {code,title,message} body, success paths answer with a
// uniform JSON envelope.
package mhttp

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/sremani/artifortress/internal/platform/apperrors"
)

// errorBody is the wire shape of every non-2xx response.
type errorBody struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// OK answers with 200 and payload as the JSON body.
func OK(c *fiber.Ctx, payload any) error {
	return c.Status(fiber.StatusOK).JSON(payload)
}

// Created answers with 201 and payload as the JSON body.
func Created(c *fiber.Ctx, payload any) error {
	return c.Status(fiber.StatusCreated).JSON(payload)
}

// NoContent answers with 204 and no body.
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// WithError maps err to its deterministic HTTP status and writes the
// error body, matching spec.md §7's error-kind-to-status table.
func WithError(c *fiber.Ctx, err error) error {
	status, body := classify(err)
	return c.Status(status).JSON(body)
}

//nolint:gocyclo
func classify(err error) (int, errorBody) {
	var notFound apperrors.EntityNotFoundError
	if errors.As(err, &notFound) {
		return fiber.StatusNotFound, errorBody{Code: notFound.Code, Title: notFound.Title, Message: notFound.Error()}
	}

	var validation apperrors.ValidationError
	if errors.As(err, &validation) {
		return fiber.StatusBadRequest, errorBody{Code: validation.Code, Title: validation.Title, Message: validation.Error()}
	}

	var conflict apperrors.EntityConflictError
	if errors.As(err, &conflict) {
		return fiber.StatusConflict, errorBody{Code: conflict.Code, Title: conflict.Title, Message: conflict.Error()}
	}

	var unauthorized apperrors.UnauthorizedError
	if errors.As(err, &unauthorized) {
		return fiber.StatusUnauthorized, errorBody{Code: unauthorized.Code, Title: unauthorized.Title, Message: unauthorized.Error()}
	}

	var forbidden apperrors.ForbiddenError
	if errors.As(err, &forbidden) {
		return fiber.StatusForbidden, errorBody{Code: forbidden.Code, Title: forbidden.Title, Message: forbidden.Error()}
	}

	var precondition apperrors.FailedPreconditionError
	if errors.As(err, &precondition) {
		return fiber.StatusConflict, errorBody{Code: precondition.Code, Title: precondition.Title, Message: precondition.Error()}
	}

	var unprocessable apperrors.UnprocessableOperationError
	if errors.As(err, &unprocessable) {
		status := fiber.StatusUnprocessableEntity
		if unprocessable.Code == "0300" {
			status = fiber.StatusRequestedRangeNotSatisfiable
		}

		return status, errorBody{Code: unprocessable.Code, Title: unprocessable.Title, Message: unprocessable.Error()}
	}

	var gone apperrors.GoneError
	if errors.As(err, &gone) {
		return fiber.StatusLocked, errorBody{Code: gone.Code, Title: gone.Title, Message: gone.Error()}
	}

	var unavailable apperrors.ServiceUnavailableError
	if errors.As(err, &unavailable) {
		return fiber.StatusServiceUnavailable, errorBody{Code: unavailable.Code, Title: unavailable.Title, Message: unavailable.Error()}
	}

	var internal apperrors.InternalServerError
	if errors.As(err, &internal) {
		return fiber.StatusInternalServerError, errorBody{Code: internal.Code, Title: internal.Title, Message: internal.Error()}
	}

	return fiber.StatusInternalServerError, errorBody{
		Code:    "0004",
		Title:   "Internal Server Error",
		Message: "the server encountered an unexpected error processing this request",
	}
}
