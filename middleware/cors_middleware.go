package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// defaultOrigins are the console's known front-ends
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"https://battein-onboard-brown.vercel.app",
	"https://micro.baaten.in",
}

// CORSOrigins merges the default origins with extra ones from configuration
func CORSOrigins(extra []string) []string {
	origins := append([]string(nil), defaultOrigins...)
	seen := make(map[string]bool, len(origins))
	for _, o := range origins {
		seen[o] = true
	}
	for _, o := range extra {
		if o != "" && !seen[o] {
			origins = append(origins, o)
			seen[o] = true
		}
	}
	return origins
}

// GlobalCORS creates the CORS middleware. Credentials are allowed so the
// access_token cookie reaches the API.
func GlobalCORS(extraOrigins []string) echo.MiddlewareFunc {
	return echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: CORSOrigins(extraOrigins),
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		MaxAge:           86400, // 24 hours
	})
}
