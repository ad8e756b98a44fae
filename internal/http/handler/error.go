package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/PracticalMetal/major-notice/internal/auth"
	"github.com/PracticalMetal/major-notice/internal/http/middleware"
	"github.com/PracticalMetal/major-notice/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// Input and domain errors are safe to echo back.
var errorMappings = []errorMapping{
	{service.ErrReaderNil, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required"},
	{service.ErrFilenameRequired, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required"},
	{service.ErrEmptyFile, fiber.StatusBadRequest, "FILE_REQUIRED", "file is empty"},
	{service.ErrInvalidContentType, fiber.StatusBadRequest, "INVALID_CONTENT_TYPE", "file must be an image"},
	{service.ErrFileTooLarge, fiber.StatusBadRequest, "FILE_TOO_LARGE", "file exceeds the upload limit"},
	{service.ErrIDRequired, fiber.StatusBadRequest, "INVALID_ID", "invalid id format"},
	{service.ErrMissingFields, fiber.StatusBadRequest, "MISSING_FIELDS", "please fill all the fields"},
	{service.ErrWeakPassword, fiber.StatusBadRequest, "WEAK_PASSWORD", "password must be at least 6 characters"},
	{service.ErrPasswordTooLong, fiber.StatusBadRequest, "PASSWORD_TOO_LONG", "password must be at most 72 bytes"},
	{service.ErrInvalidResetToken, fiber.StatusBadRequest, "INVALID_RESET_TOKEN", "invalid or expired reset token"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "document not found"},
	{service.ErrUserNotFound, fiber.StatusNotFound, "USER_NOT_FOUND", "user record not found"},
	{service.ErrOrgNotFound, fiber.StatusNotFound, "ORGANIZATION_NOT_FOUND", "organization not found"},
	{service.ErrEmailTaken, fiber.StatusConflict, "EMAIL_TAKEN", "email already in use"},
	{service.ErrInvalidCredentials, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password"},
	{auth.ErrInvalidToken, fiber.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token"},
	{auth.ErrTokenRevoked, fiber.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token"},
}

// writeServiceError maps a service error to the standardized response.
// Upstream failures are logged with the request id and answered generically.
func writeServiceError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return writeError(c, m.status, m.code, m.message)
		}
	}

	slog.ErrorContext(c.UserContext(), "request_failed",
		"request_id", requestIDFromCtx(c),
		"method", c.Method(),
		"path", c.Path(),
		"error_message", err.Error(),
	)

	if errors.Is(err, context.DeadlineExceeded) {
		return writeError(c, fiber.StatusGatewayTimeout, "TIMEOUT", "upstream timed out")
	}
	if stage, ok := service.FailedStage(err); ok {
		switch stage {
		case service.StateExtracting:
			return writeError(c, fiber.StatusBadGateway, "OCR_FAILED", "text extraction failed")
		case service.StateUploading:
			return writeError(c, fiber.StatusBadGateway, "STORAGE_FAILED", "image upload failed")
		case service.StateCommitting:
			return writeError(c, fiber.StatusInternalServerError, "COMMIT_FAILED", "document could not be saved")
		}
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "authentication required")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
