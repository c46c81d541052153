package handler

import (
	"bytes"
	"log/slog"
	"net/http"

	"cleancity/internal/delivery/api/response"
	"cleancity/internal/delivery/api/validator"
	deliverycontext "cleancity/internal/delivery/context"
	"cleancity/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InchargerHandlerParams holds dependencies for InchargerHandler, injected by Fx.
type InchargerHandlerParams struct {
	fx.In

	AllotmentUC usecase.AllotmentUsecase
	QueryUC     usecase.AllotmentQueryUsecase
	Logger      *slog.Logger
}

// InchargerHandler serves the supervisor endpoints
type InchargerHandler struct {
	allotmentUC usecase.AllotmentUsecase
	queryUC     usecase.AllotmentQueryUsecase
	logger      *slog.Logger
}

// NewInchargerHandler is the constructor for InchargerHandler
func NewInchargerHandler(params InchargerHandlerParams) *InchargerHandler {
	return &InchargerHandler{
		allotmentUC: params.AllotmentUC,
		queryUC:     params.QueryUC,
		logger:      params.Logger,
	}
}

// RemoveAllotmentsRequest selects the allotments to delete
type RemoveAllotmentsRequest struct {
	InchargerID string `param:"inchargerId"`
	LabourID    string `param:"labourId"`
	Street      string `query:"street" json:"street" validate:"required"`
	Date        string `query:"date" json:"date" validate:"required,datetime=2006-01-02"`
}

// RemoveAllotments handles DELETE /inchargers/:inchargerId/labour/:labourId/allotments.
// Removing nothing is still a success.
func (h *InchargerHandler) RemoveAllotments(c echo.Context) error {
	actor, ok := deliverycontext.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Actor missing from token")
	}

	var req RemoveAllotmentsRequest
	if err := (&echo.DefaultBinder{}).BindPathParams(c, &req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid path")
	}
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid query")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequestWithDetails(c, "VALIDATION_FAILED", "street and date are required", validator.FieldErrors(err))
	}

	deleted, err := h.allotmentUC.RemoveAllotments(c.Request().Context(), actor, &usecase.RemoveAllotmentsInput{
		InchargerID: req.InchargerID,
		LabourID:    req.LabourID,
		Street:      req.Street,
		Date:        req.Date,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	message := "Allotments removed"
	if deleted == 0 {
		message = "No matching allotments"
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"message":      message,
		"deletedCount": deleted,
	})
}

// UnallocatedLabour handles GET /inchargers/:inchargerId/labour/unallocated
func (h *InchargerHandler) UnallocatedLabour(c echo.Context) error {
	actor, ok := deliverycontext.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Actor missing from token")
	}

	labours, err := h.queryUC.UnallocatedLabour(c.Request().Context(), actor, c.Param("inchargerId"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toLabourViews(labours))
}

// DailyReport handles GET /inchargers/:inchargerId/allotments/report
func (h *InchargerHandler) DailyReport(c echo.Context) error {
	actor, ok := deliverycontext.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Actor missing from token")
	}

	date := c.QueryParam("date")

	var buf bytes.Buffer
	if err := h.queryUC.DailyReport(c.Request().Context(), actor, c.Param("inchargerId"), date, &buf); err != nil {
		return response.HandleAppError(c, err)
	}

	if date == "" {
		date = "today"
	}

	return response.Attachment(c, xlsxContentType, "allotments-"+date+".xlsx", buf.Bytes())
}
