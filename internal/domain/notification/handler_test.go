package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"equiprent/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Endpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t, PollingDelivery{})
	userID := uuid.New()

	n, err := svc.Create(context.Background(), userID, TypeNewReview, "New review", "5 stars", nil)
	require.NoError(t, err)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(api)

	do := func(method, path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
		return rr
	}

	rr := do(http.MethodGet, "/api/v1/notifications?after=not-a-time")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(http.MethodGet, "/api/v1/notifications")
	require.Equal(t, http.StatusOK, rr.Code)
	var env struct {
		Data ListResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Len(t, env.Data.Items, 1)
	assert.Equal(t, int64(1), env.Data.UnreadCount)

	rr = do(http.MethodPost, "/api/v1/notifications/"+uuid.NewString()+"/read")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(http.MethodPost, "/api/v1/notifications/"+n.ID.String()+"/read")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(http.MethodGet, "/api/v1/notifications/unread-count")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"unread_count":0`)

	rr = do(http.MethodPost, "/api/v1/notifications/read-all")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"marked":0`)
}
