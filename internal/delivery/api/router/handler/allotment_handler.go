package handler

import (
	"log/slog"
	"net/http"

	"cleancity/internal/delivery/api/response"
	"cleancity/internal/delivery/api/validator"
	deliverycontext "cleancity/internal/delivery/context"
	"cleancity/internal/domain/entity"
	"cleancity/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// AllotmentHandlerParams holds dependencies for AllotmentHandler, injected by Fx.
type AllotmentHandlerParams struct {
	fx.In

	AllotmentUC usecase.AllotmentUsecase
	QueryUC     usecase.AllotmentQueryUsecase
	Logger      *slog.Logger
}

// AllotmentHandler serves the allotment lifecycle endpoints
type AllotmentHandler struct {
	allotmentUC usecase.AllotmentUsecase
	queryUC     usecase.AllotmentQueryUsecase
	logger      *slog.Logger
}

// NewAllotmentHandler is the constructor for AllotmentHandler
func NewAllotmentHandler(params AllotmentHandlerParams) *AllotmentHandler {
	return &AllotmentHandler{
		allotmentUC: params.AllotmentUC,
		queryUC:     params.QueryUC,
		logger:      params.Logger,
	}
}

// LocationRequest is one resident attached to a new allotment
type LocationRequest struct {
	UserID      string             `json:"userId"`
	UserAddress string             `json:"userAddress"`
	Username    string             `json:"username"`
	Contact     string             `json:"contact"`
	Latitude    usecase.Coordinate `json:"latitude"`
	Longitude   usecase.Coordinate `json:"longitude"`
	TodayStatus string             `json:"todayStatus"`
}

// CreateAllotmentRequest represents the request body for opening an allotment.
// Required fields are checked by the use case so every missing one is reported.
type CreateAllotmentRequest struct {
	InchargerID  string            `json:"inchargerId"`
	LabourID     string            `json:"labourId"`
	Street       string            `json:"street"`
	Date         string            `json:"date"`
	Time         string            `json:"time"`
	Status       string            `json:"status"`
	LocationData []LocationRequest `json:"locationData"`
}

// CollectRequest represents a labour collection report
type CollectRequest struct {
	AllotmentID string `json:"allotmentId" validate:"required,uuid"`
	UserID      string `json:"userId" validate:"required_without=MarkAll"`
	Collected   *bool  `json:"collected"`
	MarkAll     bool   `json:"markAll"`
}

// ConfirmRequest represents a resident or incharger confirmation
type ConfirmRequest struct {
	AllotmentID string `json:"allotmentId" validate:"required,uuid"`
	UserID      string `json:"userId" validate:"required"`
}

// CreateAllotment handles POST /allotments
func (h *AllotmentHandler) CreateAllotment(c echo.Context) error {
	actor, ok := deliverycontext.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Actor missing from token")
	}

	var req CreateAllotmentRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid allotment input")
	}

	input := &usecase.CreateAllotmentInput{
		InchargerID:  req.InchargerID,
		LabourID:     req.LabourID,
		Street:       req.Street,
		Date:         req.Date,
		Time:         req.Time,
		Status:       req.Status,
		LocationData: make([]usecase.LocationInput, 0, len(req.LocationData)),
	}
	for _, loc := range req.LocationData {
		input.LocationData = append(input.LocationData, usecase.LocationInput(loc))
	}

	allotment, err := h.allotmentUC.CreateAllotment(c.Request().Context(), actor, input)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, toAllotmentView(allotment))
}

// GetAllotment handles GET /allotments/:id
func (h *AllotmentHandler) GetAllotment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid allotment ID")
	}

	allotment, err := h.queryUC.GetAllotment(c.Request().Context(), id)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toAllotmentView(allotment))
}

// CollectWaste handles POST /allotments/collect
func (h *AllotmentHandler) CollectWaste(c echo.Context) error {
	actor, ok := deliverycontext.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Actor missing from token")
	}

	var req CollectRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid collection input")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequestWithDetails(c, "VALIDATION_FAILED", "Invalid collection input", validator.FieldErrors(err))
	}

	result, err := h.allotmentUC.CollectWaste(c.Request().Context(), actor, &usecase.CollectInput{
		AllotmentID: uuid.MustParse(req.AllotmentID),
		UserID:      req.UserID,
		Collected:   req.Collected,
		MarkAll:     req.MarkAll,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"status":    result.Status,
		"collected": nonNil(result.Collected),
	})
}

// ConfirmCollection handles POST /allotments/confirm
func (h *AllotmentHandler) ConfirmCollection(c echo.Context) error {
	actor, ok := deliverycontext.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Actor missing from token")
	}

	var req ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid confirmation input")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequestWithDetails(c, "VALIDATION_FAILED", "Invalid confirmation input", validator.FieldErrors(err))
	}

	status, err := h.allotmentUC.ConfirmCollection(c.Request().Context(), actor, uuid.MustParse(req.AllotmentID), req.UserID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]entity.AllotmentStatus{"status": status})
}

// PendingByStreet handles GET /allotments/pending
func (h *AllotmentHandler) PendingByStreet(c echo.Context) error {
	actor, ok := deliverycontext.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Actor missing from token")
	}

	allotments, err := h.queryUC.PendingByStreet(c.Request().Context(), actor, c.QueryParam("inchargerId"), c.QueryParam("street"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toAllotmentViews(allotments))
}

// PendingByLabour handles GET /labour/:labourId/allotments/pending
func (h *AllotmentHandler) PendingByLabour(c echo.Context) error {
	actor, ok := deliverycontext.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Actor missing from token")
	}

	allotments, err := h.queryUC.PendingByLabour(c.Request().Context(), actor, c.Param("labourId"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toAllotmentViews(allotments))
}

// RouteSummary handles GET /allotments/:id/route
func (h *AllotmentHandler) RouteSummary(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid allotment ID")
	}

	summary, err := h.queryUC.RouteSummary(c.Request().Context(), id)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, summary)
}

// AcknowledgeQR handles GET /allotments/:id/qr
func (h *AllotmentHandler) AcknowledgeQR(c echo.Context) error {
	actor, ok := deliverycontext.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Actor missing from token")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid allotment ID")
	}

	png, err := h.queryUC.AcknowledgeQR(c.Request().Context(), actor, id)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}

	return ids
}
