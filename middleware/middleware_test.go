package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/baaten/partner_console/models"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const testSecret = "test-secret"

func newProtectedServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	g := e.Group("/api/admin", JWTMiddleware(testSecret, zap.NewNop()), RequireAdmin())
	g.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, OperatorFromContext(c))
	})
	return e
}

func TestJWTMiddlewareStoresOperator(t *testing.T) {
	e := newProtectedServer(t)
	token, err := GenerateJWT(testSecret, "op-1", "ops@baaten.in", AdminUserType, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	want := `"ID":"op-1"`
	if body := rec.Body.String(); !strings.Contains(body, want) || !strings.Contains(body, token) {
		t.Errorf("operator not propagated: %s", body)
	}
}

func TestJWTMiddlewareAcceptsCookie(t *testing.T) {
	e := newProtectedServer(t)
	token, _ := GenerateJWT(testSecret, "op-1", "ops@baaten.in", AdminUserType, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestJWTMiddlewareRejects(t *testing.T) {
	e := newProtectedServer(t)
	expired, _ := GenerateJWT(testSecret, "op-1", "", AdminUserType, -time.Minute)
	wrongKey, _ := GenerateJWT("other", "op-1", "", AdminUserType, time.Hour)
	notAdmin, _ := GenerateJWT(testSecret, "u-1", "", "user", time.Hour)

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"expired", expired, http.StatusUnauthorized},
		{"wrong key", wrongKey, http.StatusUnauthorized},
		{"not admin", notAdmin, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
			if tc.token != "" {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}
}

func TestJWTMiddlewareWithoutSecret(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, JWTMiddleware("", zap.NewNop()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRateLimiterBlocksPerRoute(t *testing.T) {
	limiter := NewRateLimiter()
	limiter.SetEndpointLimit("/strict", rate.Every(time.Hour), 2)

	e := echo.New()
	e.Use(limiter.RateLimit())
	ok := func(c echo.Context) error { return c.JSON(http.StatusOK, models.Response{Status: http.StatusOK}) }
	e.GET("/strict", ok)
	e.GET("/loose", ok)

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("/strict"); code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, code)
		}
	}
	if code := do("/strict"); code != http.StatusTooManyRequests {
		t.Errorf("third strict request: status %d, want 429", code)
	}
	if code := do("/loose"); code != http.StatusOK {
		t.Errorf("other route blocked too: status %d", code)
	}
}

func TestRateLimiterEvictsIdleLimiters(t *testing.T) {
	limiter := NewRateLimiter()
	now := time.Now()

	limiter.getLimiter("10.0.0.1|/api/admin/partners", rate.Every(time.Second), 1)
	limiter.getLimiter("10.0.0.2|/api/admin/partners", rate.Every(time.Second), 1)
	limiter.getLimiter("10.0.0.3|/api/admin/partners", rate.Every(time.Second), 1)
	limiter.ips["10.0.0.2|/api/admin/partners"].lastSeen = now.Add(-time.Hour)
	limiter.ips["10.0.0.3|/api/admin/partners"].lastSeen = now.Add(-time.Hour)
	limiter.blockedIPs["10.0.0.3|/api/admin/partners"] = now.Add(time.Minute)

	limiter.cleanup(now)

	if _, ok := limiter.ips["10.0.0.1|/api/admin/partners"]; !ok {
		t.Error("active limiter evicted")
	}
	if _, ok := limiter.ips["10.0.0.2|/api/admin/partners"]; ok {
		t.Error("idle limiter kept")
	}
	if _, ok := limiter.ips["10.0.0.3|/api/admin/partners"]; !ok {
		t.Error("limiter of a blocked client evicted before the block expired")
	}

	limiter.cleanup(now.Add(2 * time.Minute))
	if _, ok := limiter.blockedIPs["10.0.0.3|/api/admin/partners"]; ok {
		t.Error("expired block kept")
	}
	if _, ok := limiter.ips["10.0.0.3|/api/admin/partners"]; ok {
		t.Error("limiter kept after its block expired")
	}
}

func TestCORSOriginsDeduplicates(t *testing.T) {
	origins := CORSOrigins([]string{"http://localhost:3000", "https://admin.baaten.in", ""})
	if len(origins) != len(defaultOrigins)+1 {
		t.Errorf("origins = %v", origins)
	}
	if origins[len(origins)-1] != "https://admin.baaten.in" {
		t.Errorf("extra origin not appended: %v", origins)
	}
}
