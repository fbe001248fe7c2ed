package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/subnets-api/internal/middleware"
	"github.com/noah-isme/subnets-api/internal/service"
	"github.com/noah-isme/subnets-api/internal/utils"
)

const (
	msgInvalidBody  = "Invalid request body"
	msgUnauthorized = "Unauthorized"
	msgConflict     = "The record was modified concurrently, please retry"
)

// errorMessages overrides the client-facing message per failure class.
// Empty fields fall back to generic messages.
type errorMessages struct {
	unauthorized string
	forbidden    string
	internal     string
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

// writeError maps service errors onto HTTP statuses. Unexpected errors are logged
// and answered with a generic message.
func writeError(c *fiber.Ctx, logger zerolog.Logger, err error, messages errorMessages) error {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return utils.Fail(c, fiber.StatusBadRequest, validationErr.Message, nil)
	}

	var notFoundErr *service.NotFoundError
	switch {
	case errors.As(err, &notFoundErr):
		return utils.Fail(c, fiber.StatusNotFound, notFoundErr.Error(), nil)
	case errors.Is(err, service.ErrUnauthenticated):
		return utils.Fail(c, fiber.StatusUnauthorized, fallback(messages.unauthorized, msgUnauthorized), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.Fail(c, fiber.StatusUnauthorized, "Invalid login credentials", nil)
	case errors.Is(err, service.ErrForbidden):
		return utils.Fail(c, fiber.StatusForbidden, fallback(messages.forbidden, "Forbidden"), nil)
	case errors.Is(err, service.ErrNotFound):
		return utils.Fail(c, fiber.StatusNotFound, "Not found", nil)
	case errors.Is(err, service.ErrUsernameTaken):
		return utils.Fail(c, fiber.StatusBadRequest, "Username is already taken", nil)
	case errors.Is(err, service.ErrEmailTaken):
		return utils.Fail(c, fiber.StatusBadRequest, "A user with this email address has already been registered", nil)
	case errors.Is(err, service.ErrConflict):
		return utils.Fail(c, fiber.StatusConflict, msgConflict, nil)
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.Fail(c, fiber.StatusRequestEntityTooLarge, "File exceeds maximum allowed size", nil)
	case errors.Is(err, service.ErrUploadTypeNotAllowed):
		return utils.Fail(c, fiber.StatusBadRequest, "Only JPEG, PNG, GIF and WebP images are allowed", nil)
	case errors.Is(err, service.ErrUploadMissing):
		return utils.Fail(c, fiber.StatusBadRequest, "File is required", nil)
	case errors.Is(err, service.ErrUploadUnavailable):
		return utils.Fail(c, fiber.StatusServiceUnavailable, "Uploads are not configured", nil)
	case errors.Is(err, service.ErrSeedDisabled):
		return utils.Fail(c, fiber.StatusNotFound, "Seeding is disabled", nil)
	case errors.Is(err, service.ErrSeedUnauthorized):
		return utils.Fail(c, fiber.StatusForbidden, "Invalid seed token", nil)
	}

	reqLogger := middleware.RequestLogger(logger, c)
	reqLogger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return utils.Fail(c, fiber.StatusInternalServerError, fallback(messages.internal, "Internal server error"), nil)
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
