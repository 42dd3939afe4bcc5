package middleware

import (
	"strings"
	"time"

	"seatengine/internal/shared/config"
	"seatengine/internal/shared/utils/response"
	"seatengine/pkg/apperrors"
	"seatengine/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Roles carried in access tokens issued by the external auth service
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// HeaderRequestID is echoed back on every response
const HeaderRequestID = "X-Request-ID"

// Context keys set by JWTAuth and RequestLogger
const (
	ContextRequestID      = "request_id"
	ContextBuyerSessionID = "buyer_session_id"
	ContextUserEmail      = "user_email"
	ContextUserRole       = "user_role"
)

// JWTAuth creates a JWT authentication middleware
func JWTAuth() gin.HandlerFunc {
	return JWTAuthWithConfig(config.Load())
}

// JWTAuthWithConfig creates a JWT authentication middleware with config
func JWTAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.GetDefault().LogAuthFailure(c.Request.Context(), "missing authorization header", c.ClientIP())
			response.RespondError(c, apperrors.Unauthorized("authorization header is required"))
			c.Abort()
			return
		}

		claims, ok := parseAccessToken(authHeader, cfg.JWT.Secret)
		if !ok {
			logger.GetDefault().LogAuthFailure(c.Request.Context(), "invalid access token", c.ClientIP())
			response.RespondError(c, apperrors.Unauthorized("invalid or expired token"))
			c.Abort()
			return
		}

		sessionID := buyerSessionID(claims)
		if sessionID == "" {
			response.RespondError(c, apperrors.Unauthorized("token carries no subject"))
			c.Abort()
			return
		}

		setClaims(c, sessionID, claims)
		c.Next()
	}
}

// parseAccessToken verifies an HMAC-signed "Bearer" access token
func parseAccessToken(authHeader, secret string) (jwt.MapClaims, bool) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	if tokenType, ok := claims["type"]; !ok || tokenType != "access" {
		return nil, false
	}
	return claims, true
}

// buyerSessionID prefers an explicit session claim, then the user id, then sub
func buyerSessionID(claims jwt.MapClaims) string {
	for _, key := range []string{"session_id", "user_id", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func setClaims(c *gin.Context, sessionID string, claims jwt.MapClaims) {
	c.Set(ContextBuyerSessionID, sessionID)
	if email, ok := claims["email"].(string); ok {
		c.Set(ContextUserEmail, email)
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = RoleUser
	}
	c.Set(ContextUserRole, role)
}

// BuyerSessionID returns the authenticated buyer session id
func BuyerSessionID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextBuyerSessionID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// Actor names the caller for audit fields, e.g. "ADMIN:42"
func Actor(c *gin.Context) string {
	id, _ := BuyerSessionID(c)
	role := c.GetString(ContextUserRole)
	if role == "" {
		return id
	}
	return role + ":" + id
}

// RequireAdmin middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(RoleAdmin)
}

// RequireRoles middleware checks if user has any of the required roles
func RequireRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextUserRole)
		if !exists {
			response.RespondError(c, apperrors.Unauthorized("user role not found in context"))
			c.Abort()
			return
		}

		role, _ := userRole.(string)
		for _, required := range requiredRoles {
			if role == required {
				c.Next()
				return
			}
		}

		response.RespondError(c, apperrors.Forbidden("insufficient permissions"))
		c.Abort()
	}
}

// RequestLogger logs every request with its latency, tagged with the
// request id and, once authenticated, the buyer session id
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestID, requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()

		l := logger.GetDefault().WithRequestID(requestID)
		if buyer, ok := BuyerSessionID(c); ok {
			l = l.WithUserID(buyer)
		}
		l.LogHTTPRequest(c, time.Since(start))
	}
}
