package bookings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"seatengine/internal/shared/middleware"
	"seatengine/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc Service, buyer, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewController(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextBuyerSessionID, buyer)
		c.Set(middleware.ContextUserRole, role)
		c.Next()
	})
	r.POST("/holds/:holdId/finalize", controller.Finalize)
	r.GET("/bookings/:id", controller.GetBooking)
	r.GET("/bookings", controller.ListBookings)
	return r
}

func decodeErrorCode(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var envelope struct {
		Errors response.ErrorBody `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body.Bytes(), &envelope))
	return envelope.Errors.Code
}

func TestController_FinalizeThenRetry(t *testing.T) {
	env := newTestEnv(t, 1)
	hold := env.hold(t, "buyer-1", env.seatIDs[0])
	r := newTestRouter(env.service, "buyer-1", middleware.RoleUser)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/holds/"+hold.ID.String()+"/finalize", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data Booking `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, int64(1239), envelope.Data.Total)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/holds/"+hold.ID.String()+"/finalize", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings/"+envelope.Data.ID.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestController_FinalizeErrors(t *testing.T) {
	env := newTestEnv(t, 1)
	hold := env.hold(t, "buyer-1", env.seatIDs[0])
	r := newTestRouter(env.service, "buyer-1", middleware.RoleUser)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/holds/not-a-uuid/finalize", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_ID", decodeErrorCode(t, w.Body))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/holds/"+hold.ID.String()+"/finalize", strings.NewReader(`{"promo_code":"MISSING"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "PROMO_INVALID", decodeErrorCode(t, w.Body))

	env.clock.Advance(3 * time.Minute)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/holds/"+hold.ID.String()+"/finalize", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "HOLD_EXPIRED", decodeErrorCode(t, w.Body))
}

func TestController_ListBookingsValidatesPaging(t *testing.T) {
	env := newTestEnv(t, 1)
	r := newTestRouter(env.service, "buyer-1", middleware.RoleUser)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings?limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
