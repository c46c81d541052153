// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"cleancity/internal/delivery/api/middleware"
	"cleancity/internal/delivery/api/router/handler"
	"cleancity/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AllotmentHandler *handler.AllotmentHandler
	ResidentHandler  *handler.ResidentHandler
	InchargerHandler *handler.InchargerHandler
	AuthMiddleware   *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	allotmentHandler *handler.AllotmentHandler
	residentHandler  *handler.ResidentHandler
	inchargerHandler *handler.InchargerHandler
	authMiddleware   *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		allotmentHandler: params.AllotmentHandler,
		residentHandler:  params.ResidentHandler,
		inchargerHandler: params.InchargerHandler,
		authMiddleware:   params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	// API v1 routes
	apiV1 := e.Group("/api/v1")
	apiV1.Use(r.authMiddleware.Authenticate) // All API v1 routes require authentication

	incharger := r.authMiddleware.RequireRole(entity.RoleIncharger)
	labour := r.authMiddleware.RequireRole(entity.RoleLabour)

	allotments := apiV1.Group("/allotments")
	{
		allotments.POST("", r.allotmentHandler.CreateAllotment, incharger)
		allotments.GET("/pending", r.allotmentHandler.PendingByStreet, incharger)
		allotments.POST("/collect", r.allotmentHandler.CollectWaste, labour)
		allotments.POST("/confirm", r.allotmentHandler.ConfirmCollection,
			r.authMiddleware.RequireRole(entity.RoleUser, entity.RoleIncharger))
		allotments.GET("/:id", r.allotmentHandler.GetAllotment)
		allotments.GET("/:id/route", r.allotmentHandler.RouteSummary)
		allotments.GET("/:id/qr", r.allotmentHandler.AcknowledgeQR, labour)
	}

	residents := apiV1.Group("/residents")
	residents.Use(r.authMiddleware.RequireRole(entity.RoleUser))
	{
		residents.POST("/:userId/acknowledge", r.residentHandler.Acknowledge)
	}

	apiV1.GET("/labour/:labourId/allotments/pending", r.allotmentHandler.PendingByLabour,
		r.authMiddleware.RequireRole(entity.RoleLabour, entity.RoleIncharger))

	inchargers := apiV1.Group("/inchargers/:inchargerId")
	inchargers.Use(incharger)
	{
		inchargers.DELETE("/labour/:labourId/allotments", r.inchargerHandler.RemoveAllotments)
		inchargers.GET("/labour/unallocated", r.inchargerHandler.UnallocatedLabour)
		inchargers.GET("/allotments/report", r.inchargerHandler.DailyReport)
	}
}
