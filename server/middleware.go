package server

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/sartorproj/weathercast/compare"
	"github.com/sartorproj/weathercast/forecast"
	"github.com/sartorproj/weathercast/logging"
	"github.com/sartorproj/weathercast/pipeline"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// classify maps domain errors to a status and error code.
func classify(err error) (int, string) {
	var fe *fiber.Error
	var dv *forecast.DataValidationError
	switch {
	case errors.As(err, &fe):
		return fe.Code, "ERROR"
	case errors.Is(err, pipeline.ErrUnknownCity):
		return fiber.StatusNotFound, "UNKNOWN_CITY"
	case errors.Is(err, compare.ErrUnavailable):
		return fiber.StatusNotFound, "COMPARISON_UNAVAILABLE"
	case errors.Is(err, pipeline.ErrUnknownFeature):
		return fiber.StatusBadRequest, "UNKNOWN_FEATURE"
	case errors.Is(err, forecast.ErrInvalidHorizon):
		return fiber.StatusBadRequest, "INVALID_HORIZON"
	case errors.As(err, &dv):
		return fiber.StatusUnprocessableEntity, "INVALID_DATA"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "TIMEOUT"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// ErrorHandler renders errors as ErrorResponse.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, name := classify(err)
		message := err.Error()
		if code == fiber.StatusInternalServerError {
			message = "Internal Server Error"
		}

		logger.Error("Request error",
			"path", c.Path(),
			"method", c.Method(),
			"status", code,
			"error", err,
		)

		return c.Status(code).JSON(ErrorResponse{
			Error: ErrorDetail{Code: name, Message: message},
		})
	}
}

// RateLimit rejects requests once the limiter's bucket is empty.
func RateLimit(limiter *rate.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !limiter.Allow() {
			retry := 1.0
			if l := float64(limiter.Limit()); l > 0 {
				retry = 1 / l
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(max(1, int(retry+0.5))))
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Error: ErrorDetail{Code: "RATE_LIMITED", Message: "Too many requests"},
			})
		}
		return c.Next()
	}
}
