package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"equiprent/internal/domain/equipment"
	"equiprent/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fakeAuth(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	}
}

func newRouter(svc *Service, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	protected := r.Group("/api/v1")
	protected.Use(fakeAuth(userID))
	NewHandler(svc, zerolog.Nop()).RegisterRoutes(protected)
	return r
}

func post(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeValidation(t *testing.T, w *httptest.ResponseRecorder) ValidationResponse {
	t.Helper()
	var out ValidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHandler_ValidateShapes(t *testing.T) {
	f := newFixture(t, Policy{})
	existing := f.seed(t, f.other, "2024-07-01", "2024-07-05", StatusConfirmed)
	r := newRouter(f.svc, f.renter.ID)

	w := post(r, "/api/v1/bookings/validate", gin.H{
		"equipment_id": f.eq.ID, "start_date": "2024-07-06", "end_date": "2024-07-10",
	})
	require.Equal(t, http.StatusOK, w.Code)
	res := decodeValidation(t, w)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Error)

	w = post(r, "/api/v1/bookings/validate", gin.H{
		"equipment_id": f.eq.ID, "start_date": "2024-07-04T00:00:00Z", "end_date": "2024-07-08",
	})
	require.Equal(t, http.StatusOK, w.Code)
	res = decodeValidation(t, w)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Error)
	require.Len(t, res.ConflictingBookings, 1)
	assert.Equal(t, existing.ID, res.ConflictingBookings[0].ID)
	assert.Empty(t, res.ConflictingBookings[0].RenterName, "renters never see who else booked")

	ownerView := newRouter(f.svc, f.owner.ID)
	w = post(ownerView, "/api/v1/bookings/validate", gin.H{
		"equipment_id": f.eq.ID, "start_date": "2024-07-04", "end_date": "2024-07-08",
	})
	require.Equal(t, http.StatusOK, w.Code)
	res = decodeValidation(t, w)
	require.Len(t, res.ConflictingBookings, 1)
	assert.Equal(t, "Oscar Other", res.ConflictingBookings[0].RenterName)

	w = post(r, "/api/v1/bookings/validate", gin.H{
		"equipment_id": f.eq.ID, "start_date": "2024-07-10", "end_date": "2024-07-01",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	res = decodeValidation(t, w)
	assert.False(t, res.Valid)
	assert.Equal(t, "end_date must be after start_date", res.Error)
}

func TestHandler_ValidateApprovalShapes(t *testing.T) {
	f := newFixture(t, Policy{})
	pending := f.seed(t, f.renter, "2024-07-01", "2024-07-05", StatusPending)
	confirmed := f.seed(t, f.other, "2024-08-01", "2024-08-05", StatusConfirmed)
	r := newRouter(f.svc, f.owner.ID)

	w := post(r, "/api/v1/bookings/validate-approval", gin.H{"booking_id": pending.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeValidation(t, w).Valid)

	w = post(r, "/api/v1/bookings/validate-approval", gin.H{"booking_id": confirmed.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, decodeValidation(t, w).Valid)

	w = post(r, "/api/v1/bookings/validate-approval", gin.H{"booking_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = post(r, "/api/v1/bookings/validate-approval", gin.H{"booking_id": "zzz"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stranger := newRouter(f.svc, f.other.ID)
	w = post(stranger, "/api/v1/bookings/validate-approval", gin.H{"booking_id": pending.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, decodeValidation(t, w).Valid)

	asRenter := newRouter(f.svc, f.renter.ID)
	w = post(asRenter, "/api/v1/bookings/validate-approval", gin.H{"booking_id": pending.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_ValidateTransientIs503(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindBlocking", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("db down"))
	v := NewValidator(repo, Policy{}, time.Second, zerolog.Nop())
	svc := NewService(repo, v, nil, nil, nil, zerolog.Nop())
	r := newRouter(svc, uuid.New())

	w := post(r, "/api/v1/bookings/validate", gin.H{
		"equipment_id": uuid.New(), "start_date": "2024-07-01", "end_date": "2024-07-02",
	})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	res := decodeValidation(t, w)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Error)
}

type stubEquipment struct{ eq *equipment.Equipment }

func (s stubEquipment) GetByID(ctx context.Context, id uuid.UUID) (*equipment.Equipment, error) {
	return s.eq, nil
}

func TestHandler_CreateRecheckFailureIs503(t *testing.T) {
	eq := &equipment.Equipment{ID: uuid.New(), OwnerID: uuid.New(), DailyRate: 1000, Currency: "usd", IsActive: true}
	repo := new(MockRepository)
	repo.On("FindBlocking", mock.Anything, eq.ID, mock.Anything, mock.Anything).Return([]Conflict{}, nil)
	repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(transient(errors.New("connection reset")))
	v := NewValidator(repo, Policy{}, time.Second, zerolog.Nop())
	svc := NewService(repo, v, stubEquipment{eq: eq}, nil, nil, zerolog.Nop())
	r := newRouter(svc, uuid.New())

	w := post(r, "/api/v1/bookings", gin.H{
		"equipment_id": eq.ID, "start_date": "2024-07-01", "end_date": "2024-07-02",
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())
	repo.AssertExpectations(t)
}

func TestHandler_CreateConflictEnvelope(t *testing.T) {
	f := newFixture(t, Policy{})
	f.seed(t, f.other, "2024-07-01", "2024-07-05", StatusConfirmed)
	r := newRouter(f.svc, f.renter.ID)

	w := post(r, "/api/v1/bookings", gin.H{
		"equipment_id": f.eq.ID, "start_date": "2024-07-03", "end_date": "2024-07-06",
	})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Details struct {
				ConflictingBookings []Conflict `json:"conflicting_bookings"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "BOOKING_CONFLICT", body.Error.Code)
	require.Len(t, body.Error.Details.ConflictingBookings, 1)
	assert.Empty(t, body.Error.Details.ConflictingBookings[0].RenterName)

	w = post(r, "/api/v1/bookings", gin.H{
		"equipment_id": f.eq.ID, "start_date": "2024-07-06", "end_date": "2024-07-08",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestHandler_LifecycleErrors(t *testing.T) {
	f := newFixture(t, Policy{})
	b := f.seed(t, f.renter, "2024-07-01", "2024-07-05", StatusPending)

	asRenter := newRouter(f.svc, f.renter.ID)
	w := post(asRenter, "/api/v1/bookings/"+b.ID.String()+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	asOwner := newRouter(f.svc, f.owner.ID)
	w = post(asOwner, "/api/v1/bookings/"+b.ID.String()+"/complete", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = post(asOwner, "/api/v1/bookings/"+b.ID.String()+"/reject", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(asOwner, "/api/v1/bookings/"+b.ID.String()+"/approve", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = post(asOwner, "/api/v1/bookings/not-an-id/approve", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/equipment/"+f.eq.ID.String()+"/availability?from=2024-07-01&to=2024-07-31", nil)
	rec := httptest.NewRecorder()
	asRenter.ServeHTTP(rec, req.WithContext(context.Background()))
	assert.Equal(t, http.StatusOK, rec.Code)
}
