package review

import (
	"bytes"
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

func setupReviewRouter(t *testing.T) (*gin.Engine, *reviewFixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newReviewFixture(t)
	h := NewHandler(f.svc)

	r := gin.New()
	public := r.Group("/api/v1")
	protected := r.Group("/api/v1")
	protected.Use(func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader("X-Test-User-ID"))
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(middleware.ContextUserID, id)
		c.Set(middleware.ContextRole, c.GetHeader("X-Test-Role"))
		c.Next()
	})
	h.RegisterRoutes(public, protected)
	return r, f
}

func do(r http.Handler, method, path string, body any, userID uuid.UUID, role string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set("X-Test-User-ID", userID.String())
		req.Header.Set("X-Test-Role", role)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHandler_CreateAndList(t *testing.T) {
	r, f := setupReviewRouter(t)
	path := "/api/v1/bookings/" + f.completed.ID.String() + "/reviews"

	rr := do(r, http.MethodPost, path, gin.H{"rating": 0}, f.renter.ID, "user")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(r, http.MethodPost, path, gin.H{"rating": 4, "comment": "ok"}, f.outsider.ID, "user")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(r, http.MethodPost, path, gin.H{"rating": 4, "comment": "ok"}, f.renter.ID, "user")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(r, http.MethodPost, path, gin.H{"rating": 4}, f.renter.ID, "user")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(r, http.MethodGet, "/api/v1/equipment/"+f.completed.EquipmentID.String()+"/reviews", nil, uuid.Nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			Items   []Review `json:"items"`
			Summary Summary  `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.Len(t, env.Data.Items, 1)
	assert.Equal(t, int64(1), env.Data.Summary.Count)
	assert.InDelta(t, 4.0, env.Data.Summary.Average, 0.001)
}

func TestHandler_HideRequiresAdmin(t *testing.T) {
	r, f := setupReviewRouter(t)
	path := "/api/v1/bookings/" + f.completed.ID.String() + "/reviews"

	rr := do(r, http.MethodPost, path, gin.H{"rating": 1}, f.renter.ID, "user")
	require.Equal(t, http.StatusCreated, rr.Code)
	var env struct {
		Data Review `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))

	rr = do(r, http.MethodDelete, "/api/v1/admin/reviews/"+env.Data.ID.String(), nil, f.owner.ID, "user")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(r, http.MethodDelete, "/api/v1/admin/reviews/"+env.Data.ID.String(), nil, f.outsider.ID, "admin")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(r, http.MethodGet, "/api/v1/users/"+f.owner.ID.String()+"/reviews", nil, uuid.Nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"count":0`)
}
