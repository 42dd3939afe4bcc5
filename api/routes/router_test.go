package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"seatengine/internal/seatevents"
	"seatengine/internal/shared/config"
	"seatengine/internal/shared/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryEngine(t *testing.T) *gin.Engine {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "memory")
	gin.SetMode(gin.TestMode)

	cfg := config.Load()
	router := NewRouter(cfg, &database.DB{}, seatevents.NoopPublisher{})
	require.NotNil(t, router.Engine().Holds)

	engine := gin.New()
	router.SetupRoutes(engine)
	return engine
}

func TestSetupRoutes(t *testing.T) {
	engine := newMemoryEngine(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"health without backends", http.MethodGet, "/health", http.StatusOK},
		{"ping", http.MethodGet, "/ping", http.StatusOK},
		{"swagger doc", http.MethodGet, "/swagger/doc.json", http.StatusOK},
		{"holds need auth", http.MethodPost, "/api/v1/holds", http.StatusUnauthorized},
		{"finalize needs auth", http.MethodPost, "/api/v1/holds/7c1e6b8e-0000-4000-8000-000000000001/finalize", http.StatusUnauthorized},
		{"admin block needs auth", http.MethodPost, "/api/v1/admin/seats/block", http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/api/v1/events", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestModels(t *testing.T) {
	assert.Len(t, Models(), 6)
}
