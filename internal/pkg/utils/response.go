package utils

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"

	"github.com/efa-transit/internal/pkg/errors"
)

// RequestIDKey - ключ Locals с идентификатором запроса
const RequestIDKey = "request_id"

type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Error     *errors.AppError `json:"error"`
	RequestID string           `json:"request_id,omitempty"`
}

type Meta struct {
	Total     int     `json:"total,omitempty"`
	Status    string  `json:"status,omitempty"`
	Provider  string  `json:"provider,omitempty"`
	Cached    bool    `json:"cached,omitempty"`
	TimeMSec  float64 `json:"time_ms,omitempty"`
	RequestID string  `json:"request_id,omitempty"`
}

// RequestID - идентификатор, выставленный middleware
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDKey).(string)
	return id
}

func SendSuccess(c *fiber.Ctx, data interface{}, meta *Meta) error {
	if meta == nil {
		meta = &Meta{}
	}
	meta.RequestID = RequestID(c)
	return c.JSON(SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

func SendError(c *fiber.Ctx, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return c.Status(appErr.StatusCode).JSON(ErrorResponse{
			Error:     appErr,
			RequestID: RequestID(c),
		})
	}

	// Unknown error - return 500
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:     errors.ErrInternalServer,
		RequestID: RequestID(c),
	})
}
