// Package response writes the JSON envelope every endpoint answers with.
package response

import (
	"github.com/gofiber/fiber/v2"
)

const (
	CodeUnauthenticated  = "unauthenticated"
	CodeForbidden        = "forbidden"
	CodeRestricted       = "restricted"
	CodeValidationFailed = "validation_failed"
	CodeNotFound         = "not_found"
	CodeInternal         = "internal_error"

	AccessDenied = "Access Denied"
)

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func OK(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func Fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"code":    code,
		"message": message,
	})
}

// Unauthorized sends the caller back to sign in.
func Unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success":  false,
		"code":     CodeUnauthenticated,
		"message":  "Unauthorized",
		"redirect": "/auth",
	})
}

// Forbidden sends the caller home with a notification.
func Forbidden(c *fiber.Ctx, code string) error {
	if code == "" {
		code = CodeForbidden
	}
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"success":  false,
		"code":     code,
		"message":  AccessDenied,
		"redirect": "/",
	})
}

func ValidationFailed(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"success": false,
		"code":    CodeValidationFailed,
		"message": "Validation error",
		"errors":  errs,
	})
}
