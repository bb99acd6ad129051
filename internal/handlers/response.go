package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"shoplab/internal/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Response is the envelope of every API response.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo describes a failed request.
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func success(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Response{Success: true, Data: data})
}

// ErrorHandler renders every error returned by a handler or middleware into
// the response envelope. Unclassified errors become INTERNAL_ERROR and their
// cause is only shown in development.
func ErrorHandler(logger *zap.Logger, development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		info := ErrorInfo{Code: string(apperror.CodeInternal), Message: "An unexpected error occurred"}
		status := fiber.StatusInternalServerError

		var fiberErr *fiber.Error
		if appErr, ok := apperror.As(err); ok {
			status = appErr.Status()
			info.Code = string(appErr.Code)
			info.Message = appErr.Message
			info.Details = appErr.Details
			if appErr.Code == apperror.CodeInternal && development && appErr.Err != nil {
				info.Details = map[string]string{"cause": appErr.Err.Error()}
			}
		} else if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			info.Message = fiberErr.Message
			switch {
			case status == fiber.StatusNotFound:
				info.Code = string(apperror.CodeNotFound)
			case status < fiber.StatusInternalServerError:
				info.Code = string(apperror.CodeValidation)
			}
		} else if development {
			info.Details = map[string]string{"cause": err.Error()}
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		return c.Status(status).JSON(Response{Success: false, Error: &info})
	}
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// bind parses the JSON body into req and validates it.
func bind(c *fiber.Ctx, v *validator.Validate, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperror.Validation("Invalid request body", map[string]string{"body": err.Error()})
	}
	if err := v.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return apperror.Validation("Validation failed", nil)
		}
		details := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			details[e.Field()] = fmt.Sprintf("failed on the '%s' rule", e.Tag())
		}
		return apperror.Validation("Validation failed", details)
	}
	return nil
}

// idParam parses a positive numeric path parameter.
func idParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("Invalid "+name, map[string]string{name: "must be a positive integer"})
	}
	return uint(id), nil
}
