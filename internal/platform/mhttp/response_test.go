package mhttp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sremani/artifortress/internal/platform/apperrors"
	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
)

func TestWithErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "not found maps to 404",
			err:            apperrors.ValidateBusinessError(cn.ErrEntityNotFound, "Blob"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   "0001",
		},
		{
			name:           "validation maps to 400",
			err:            apperrors.ValidateBusinessError(cn.ErrValidation, "Request", "expected_length required"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "conflict maps to 409",
			err:            apperrors.ValidateBusinessError(cn.ErrEntityAlreadyExists, "Repository"),
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "failed precondition maps to 409",
			err:            apperrors.ValidateBusinessError(cn.ErrPublishPreconditionsUnmet, "PackageVersion"),
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "range not satisfiable maps to 416",
			err:            apperrors.ValidateBusinessError(cn.ErrRangeNotSatisfiable, "Blob"),
			expectedStatus: http.StatusRequestedRangeNotSatisfiable,
		},
		{
			name:           "quarantined blob maps to 423",
			err:            apperrors.ValidateBusinessError(cn.ErrQuarantinedBlob, "Blob"),
			expectedStatus: http.StatusLocked,
		},
		{
			name:           "service unavailable maps to 503",
			err:            apperrors.ValidateBusinessError(cn.ErrServiceUnavailable, "Policy"),
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "unrecognized error maps to 500 with generic body",
			err:            errors.New("driver: connection reset"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "0004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/test", func(c *fiber.Ctx) error {
				return WithError(c, tt.err)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			var decoded errorBody
			require.NoError(t, json.Unmarshal(body, &decoded))

			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decoded.Code)
			}
			assert.NotEmpty(t, decoded.Title)
			assert.NotEmpty(t, decoded.Message)
		})
	}
}

func TestOKCreatedNoContent(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error { return OK(c, fiber.Map{"value": 1}) })
	app.Get("/created", func(c *fiber.Ctx) error { return Created(c, fiber.Map{"value": 2}) })
	app.Get("/none", func(c *fiber.Ctx) error { return NoContent(c) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/created", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/none", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
