package handler

import (
	"log/slog"
	"net/http"

	"cleancity/internal/delivery/api/response"
	"cleancity/internal/delivery/api/validator"
	deliverycontext "cleancity/internal/delivery/context"
	"cleancity/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// ResidentHandlerParams holds dependencies for ResidentHandler, injected by Fx.
type ResidentHandlerParams struct {
	fx.In

	AllotmentUC usecase.AllotmentUsecase
	Logger      *slog.Logger
}

// ResidentHandler serves the resident side of the collection flow
type ResidentHandler struct {
	allotmentUC usecase.AllotmentUsecase
	logger      *slog.Logger
}

// NewResidentHandler is the constructor for ResidentHandler
func NewResidentHandler(params ResidentHandlerParams) *ResidentHandler {
	return &ResidentHandler{
		allotmentUC: params.AllotmentUC,
		logger:      params.Logger,
	}
}

// AcknowledgeRequest represents a resident acknowledging a pickup
type AcknowledgeRequest struct {
	AllotmentID string `json:"allotmentId" validate:"required,uuid"`
}

// Acknowledge handles POST /residents/:userId/acknowledge
func (h *ResidentHandler) Acknowledge(c echo.Context) error {
	actor, ok := deliverycontext.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Actor missing from token")
	}

	var req AcknowledgeRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid acknowledgment input")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequestWithDetails(c, "VALIDATION_FAILED", "Invalid acknowledgment input", validator.FieldErrors(err))
	}

	status, err := h.allotmentUC.AcknowledgeCollection(c.Request().Context(), actor, uuid.MustParse(req.AllotmentID), c.Param("userId"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"acknowledged": true,
		"status":       status,
	})
}
