package routes

import (
	"github.com/baaten/partner_console/controllers"
	"github.com/baaten/partner_console/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterProxyRoutes sets up the upstream passthrough routes. The partners
// proxy is unauthenticated and refuses outside development.
func RegisterProxyRoutes(e *echo.Echo, auth echo.MiddlewareFunc, pc *controllers.ProxyController) {
	proxy := e.Group("/api/proxy", auth, middleware.RequireAdmin())
	proxy.GET("/*", pc.MicroGet)
	proxy.POST("/*", pc.MicroPost)

	e.GET("/api/partners-proxy/*", pc.PartnersGet)
}
