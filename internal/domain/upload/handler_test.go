package upload

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

func setupUploadRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, _ := newTestService(t, 1024)
	r := gin.New()
	protected := r.Group("/api/v1")
	protected.Use(func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader("X-Test-User-ID"))
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(middleware.ContextUserID, id)
		c.Next()
	})
	RegisterRoutes(protected, NewHandler(svc))
	return r, svc
}

func send(r http.Handler, method, path string, userID uuid.UUID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Test-User-ID", userID.String())
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHandler_ListAndDelete(t *testing.T) {
	r, svc := setupUploadRouter(t)
	owner, stranger := uuid.New(), uuid.New()

	id, err := svc.UploadIdentityDocument(context.Background(), owner, multipartRequest(t, "file", "id.png", pngBytes))
	require.NoError(t, err)

	rr := send(r, http.MethodGet, "/api/v1/uploads", owner)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Items []map[string]any `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 1)
	assert.NotContains(t, resp.Data.Items[0], "url", "identity documents have no public url")

	rr = send(r, http.MethodGet, "/api/v1/uploads/"+id.String(), owner)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = send(r, http.MethodGet, "/api/v1/uploads/"+id.String(), stranger)
	assert.Equal(t, http.StatusNotFound, rr.Code, "foreign uploads are hidden")

	rr = send(r, http.MethodDelete, "/api/v1/uploads/"+id.String(), stranger)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = send(r, http.MethodDelete, "/api/v1/uploads/not-a-uuid", owner)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = send(r, http.MethodDelete, "/api/v1/uploads/"+id.String(), owner)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = send(r, http.MethodDelete, "/api/v1/uploads/"+id.String(), owner)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
