package routes

import (
	"github.com/baaten/partner_console/controllers"
	"github.com/baaten/partner_console/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterPartnerRoutes sets up the operator console routes
func RegisterPartnerRoutes(e *echo.Echo, auth echo.MiddlewareFunc, pc *controllers.PartnerController) {
	admin := e.Group("/api/admin")
	admin.Use(auth)
	admin.Use(middleware.RequireAdmin())

	admin.GET("/partners", pc.ListPartners)
	admin.GET("/partners/:id", pc.GetPartner)
	admin.PATCH("/partners/:id", pc.UpdatePartner)
	admin.POST("/partners/:id/approve", pc.ApprovePartner)
	admin.POST("/partners/:id/reject", pc.RejectPartner)
	admin.GET("/partners/:id/transitions", pc.ListTransitions)

	e.PATCH("/api/update-partner-status", pc.UpdatePartnerStatus, auth, middleware.RequireAdmin())
}
