package serverutils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"pharmarag-chat/pkg/chat"
	"pharmarag-chat/pkg/conversation"
	"pharmarag-chat/pkg/ragclient"
	"pharmarag-chat/pkg/reference"
	"pharmarag-chat/pkg/workspace"
)

// AppError carries the HTTP status a handler wants to answer with.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func BadRequest(message string) *AppError {
	return &AppError{Code: fiber.StatusBadRequest, Message: message}
}

// BadGateway reports a failed call to the RAG backend.
func BadGateway(err error) *AppError {
	return &AppError{Code: fiber.StatusBadGateway, Message: "RAG backend request failed", Err: err}
}

var statusBySentinel = []struct {
	err  error
	code int
}{
	{ErrUnauthorized, fiber.StatusUnauthorized},

	{conversation.ErrNotFound, fiber.StatusNotFound},
	{conversation.ErrEmptyTitle, fiber.StatusBadRequest},
	{conversation.ErrDuplicateMessage, fiber.StatusConflict},

	{chat.ErrEmptyInput, fiber.StatusBadRequest},
	{chat.ErrSendInProgress, fiber.StatusConflict},

	{reference.ErrPageOutOfRange, fiber.StatusBadRequest},
	{reference.ErrNoNextPage, fiber.StatusBadRequest},
	{reference.ErrNoPreviousPage, fiber.StatusBadRequest},

	{workspace.ErrInvalidView, fiber.StatusBadRequest},
	{workspace.ErrInvalidTab, fiber.StatusBadRequest},
	{workspace.ErrUnknownMessage, fiber.StatusNotFound},
	{workspace.ErrUnknownSource, fiber.StatusNotFound},
	{workspace.ErrUnknownCitation, fiber.StatusNotFound},

	{ragclient.ErrNotFound, fiber.StatusNotFound},
	{ragclient.ErrTimeout, fiber.StatusGatewayTimeout},
}

// StatusFor maps an error returned by a handler to an HTTP status.
func StatusFor(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	var httpErr *ragclient.HTTPError
	if errors.As(err, &httpErr) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// ErrorHandlerMiddleware turns handler errors into the response envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		message := err.Error()
		var appErr *AppError
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
		if code == fiber.StatusInternalServerError {
			message = "Internal server error"
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
