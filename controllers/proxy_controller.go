package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/baaten/partner_console/security"
	"github.com/baaten/partner_console/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const proxyFailure = "Failed to fetch from target server"

// ProxyController passes requests through to the micro service and, in
// development, to the Partner API
type ProxyController struct {
	Micro       *services.ProxyService
	Partners    *services.ProxyService
	Development bool
	logger      *zap.Logger
}

func NewProxyController(micro, partners *services.ProxyService, development bool, logger *zap.Logger) *ProxyController {
	return &ProxyController{
		Micro:       micro,
		Partners:    partners,
		Development: development,
		logger:      logger.Named("proxy"),
	}
}

// MicroGet forwards GET /api/proxy/* with the caller's headers
func (pc *ProxyController) MicroGet(c echo.Context) error {
	return pc.forward(c, pc.Micro, http.MethodGet, security.ForwardHeaders(c.Request().Header), nil)
}

// MicroPost forwards POST /api/proxy/*. The body must be JSON.
func (pc *ProxyController) MicroPost(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 10<<20))
	if err != nil || !json.Valid(body) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Request body must be JSON"})
	}
	return pc.forward(c, pc.Micro, http.MethodPost, security.ForwardHeaders(c.Request().Header), body)
}

// PartnersGet forwards GET /api/partners-proxy/* without the caller's headers.
// Development only.
func (pc *ProxyController) PartnersGet(c echo.Context) error {
	if !pc.Development {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Proxy is only available in development"})
	}
	headers := http.Header{}
	headers.Set("User-Agent", "Mozilla/5.0")
	headers.Set("Accept", "application/json")
	return pc.forward(c, pc.Partners, http.MethodGet, headers, nil)
}

func (pc *ProxyController) forward(c echo.Context, upstream *services.ProxyService, method string, headers http.Header, body []byte) error {
	path := c.Param("*")
	resp, err := upstream.Forward(c.Request().Context(), method, path, c.QueryString(), headers, body)
	if err != nil {
		pc.logger.Error("proxy request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Any("headers", security.SanitizeHeaders(headers)),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": proxyFailure})
	}

	if !resp.OK() {
		pc.logger.Warn("upstream answered with an error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Any("headers", security.SanitizeHeaders(headers)))
		var detail interface{} = proxyFailure
		if resp.Body != nil {
			detail = resp.Body
		}
		return c.JSON(resp.StatusCode, echo.Map{"error": detail})
	}

	return c.JSONBlob(http.StatusOK, resp.Body)
}
