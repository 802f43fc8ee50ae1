package bootstrap

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
)

// bindBody parses c's JSON body into req and validates it, collapsing both
// a malformed body and a failed struct tag into the same 400 ValidationError
// shape (spec.md §7).
func bindBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.ValidateBusinessError(cn.ErrValidation, "Request", err.Error())
	}

	if err := validate.Struct(req); err != nil {
		return apperrors.ValidateBusinessError(cn.ErrValidation, "Request", err.Error())
	}

	return nil
}
