// middleware/jwt_middleware.go
package middleware

import (
	"errors"
	"time"

	"github.com/baaten/partner_console/models"
	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// JwtCustomClaims for operator tokens issued by the admin login service
type JwtCustomClaims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
	jwt.StandardClaims
}

// Valid implements the Claims interface for echo's JWT middleware
func (c JwtCustomClaims) Valid() error {
	// ExpiresAt 0 means no expiry
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return errors.New("token is expired")
	}
	if c.NotBefore > 0 && time.Now().Unix() < c.NotBefore {
		return errors.New("token used before valid")
	}
	return nil
}

const (
	contextUserID   = "userId"
	contextUserType = "userType"
	contextEmail    = "email"
	contextToken    = "rawToken"
)

// TokenLookup accepts a bearer header or the access_token cookie
const TokenLookup = "header:Authorization,cookie:access_token"

// JWTMiddleware returns a configured JWT middleware. The raw token is kept so
// it can be forwarded to downstream services on the operator's behalf.
func JWTMiddleware(secret string, logger *zap.Logger) echo.MiddlewareFunc {
	return jwtMiddleware(secret, TokenLookup, logger)
}

// WebSocketJWTMiddleware also accepts ?token= since browsers cannot set
// headers on websocket upgrades
func WebSocketJWTMiddleware(secret string, logger *zap.Logger) echo.MiddlewareFunc {
	return jwtMiddleware(secret, TokenLookup+",query:token", logger)
}

func jwtMiddleware(secret, lookup string, logger *zap.Logger) echo.MiddlewareFunc {
	if secret == "" {
		logger.Warn("JWT_SECRET is not set, authenticated routes will reject every request")
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "JWT configuration error")
			}
		}
	}

	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:  []byte(secret),
		Claims:      &JwtCustomClaims{},
		TokenLookup: lookup,
		SuccessHandler: func(c echo.Context) {
			user := c.Get("user").(*jwt.Token)
			claims := user.Claims.(*JwtCustomClaims)

			c.Set(contextUserID, claims.UserID)
			c.Set(contextUserType, claims.UserType)
			c.Set(contextEmail, claims.Email)
			c.Set(contextToken, user.Raw)
		},
		ErrorHandler: func(err error) error {
			logger.Debug("JWT validation failed", zap.Error(err))
			if err.Error() == "token contains an invalid number of segments" {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Invalid token format")
			}
			return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Please provide valid credentials")
		},
	})
}

// GenerateJWT signs an operator token. Used by tests and local tooling.
func GenerateJWT(secret, userID, email, userType string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret is required")
	}
	claims := &JwtCustomClaims{
		UserID:   userID,
		Email:    email,
		UserType: userType,
		StandardClaims: jwt.StandardClaims{
			IssuedAt: time.Now().Unix(),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = time.Now().Add(ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// GetUserFromToken extracts the claims set by the JWT middleware
func GetUserFromToken(c echo.Context) *JwtCustomClaims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok {
		return nil
	}
	return claims
}

// ExtractUserType safely extracts the user type from the context
func ExtractUserType(c echo.Context) string {
	if userType, ok := c.Get(contextUserType).(string); ok && userType != "" {
		return userType
	}
	if claims := GetUserFromToken(c); claims != nil {
		return claims.UserType
	}
	return ""
}

// OperatorFromContext returns the authenticated operator, including the raw
// token to forward downstream
func OperatorFromContext(c echo.Context) models.Operator {
	op := models.Operator{}
	op.ID, _ = c.Get(contextUserID).(string)
	op.Email, _ = c.Get(contextEmail).(string)
	op.Token, _ = c.Get(contextToken).(string)
	return op
}
