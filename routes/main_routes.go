package routes

import (
	"net/http"

	"github.com/baaten/partner_console/controllers"
	"github.com/baaten/partner_console/middleware"
	"github.com/baaten/partner_console/websocket"
	gorilla "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Deps are the pieces SetupRoutes wires together
type Deps struct {
	Auth          echo.MiddlewareFunc
	WebSocketAuth echo.MiddlewareFunc
	Partners      *controllers.PartnerController
	Proxy         *controllers.ProxyController
	Hub           *websocket.Hub
	Upgrader      gorilla.Upgrader
	// Health reports the optional backends, e.g. {"mongo": "connected"}
	Health func() map[string]string
}

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, d Deps) {
	e.Match([]string{http.MethodGet, http.MethodHead}, "/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "OK",
			"message": "Partner console backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{http.MethodGet, http.MethodHead}, "/health", func(c echo.Context) error {
		body := map[string]string{"status": "healthy"}
		if d.Health != nil {
			for k, v := range d.Health() {
				body[k] = v
			}
		}
		return c.JSON(http.StatusOK, body)
	})

	RegisterPartnerRoutes(e, d.Auth, d.Partners)
	RegisterProxyRoutes(e, d.Auth, d.Proxy)

	e.GET("/api/admin/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(c, d.Hub, d.Upgrader, middleware.OperatorFromContext(c).ID)
	}, d.WebSocketAuth, middleware.RequireAdmin())
}
