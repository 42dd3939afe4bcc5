package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seatengine/internal/shared/config"
	"seatengine/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + token
}

func accessClaims(extra jwt.MapClaims) jwt.MapClaims {
	claims := jwt.MapClaims{
		"type": "access",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}
	return claims
}

func newAuthRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}

	r := gin.New()
	chain := append([]gin.HandlerFunc{JWTAuthWithConfig(cfg)}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		buyer, _ := BuyerSessionID(c)
		c.JSON(http.StatusOK, gin.H{"buyer": buyer, "actor": Actor(c)})
	})
	r.GET("/whoami", chain...)
	return r
}

func TestJWTAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     func(t *testing.T) string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing header",
			header:     func(t *testing.T) string { return "" },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong secret",
			header: func(t *testing.T) string {
				return signToken(t, "other", accessClaims(jwt.MapClaims{"sub": "u-1"}))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "refresh token",
			header: func(t *testing.T) string {
				return signToken(t, testSecret, jwt.MapClaims{"type": "refresh", "sub": "u-1"})
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "session claim wins",
			header: func(t *testing.T) string {
				return signToken(t, testSecret, accessClaims(jwt.MapClaims{"session_id": "s-9", "user_id": "u-1"}))
			},
			wantStatus: http.StatusOK,
			wantBody:   `"buyer":"s-9"`,
		},
		{
			name: "role defaults to user",
			header: func(t *testing.T) string {
				return signToken(t, testSecret, accessClaims(jwt.MapClaims{"sub": "u-1"}))
			},
			wantStatus: http.StatusOK,
			wantBody:   `"actor":"USER:u-1"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if h := tt.header(t); h != "" {
				req.Header.Set("Authorization", h)
			}
			w := httptest.NewRecorder()
			newAuthRouter().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	r := newAuthRouter(RequireAdmin())

	userReq := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	userReq.Header.Set("Authorization", signToken(t, testSecret, accessClaims(jwt.MapClaims{"sub": "u-1"})))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, userReq)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminReq := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	adminReq.Header.Set("Authorization", signToken(t, testSecret, accessClaims(jwt.MapClaims{"sub": "a-1", "role": RoleAdmin})))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, adminReq)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"actor":"ADMIN:a-1"`)
}

func TestRequireAdmin_ForbiddenBody(t *testing.T) {
	r := newAuthRouter(RequireAdmin())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", signToken(t, testSecret, accessClaims(jwt.MapClaims{"sub": "u-1"})))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"FORBIDDEN"`)
	assert.Contains(t, w.Body.String(), "insufficient permissions")
}

func TestRequestLogger_TagsRequestAndBuyer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	prev := logger.GetDefault()
	var buf bytes.Buffer
	logger.SetDefault(logger.NewWithWriter(&buf, "info"))
	t.Cleanup(func() { logger.SetDefault(prev) })

	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/whoami", JWTAuthWithConfig(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": c.GetString(ContextRequestID)})
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	req.Header.Set("Authorization", signToken(t, testSecret, accessClaims(jwt.MapClaims{"session_id": "s-9"})))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
	assert.JSONEq(t, `{"request_id":"req-42"}`, w.Body.String())
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	assert.Contains(t, buf.String(), `"user_id":"s-9"`)
}

func TestRequestLogger_GeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(w.Header().Get(HeaderRequestID))
	assert.NoError(t, err)
}
