package equipment

import (
	"context"
	"testing"
	"time"

	"equiprent/internal/database/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupEquipmentDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := dbtest.Open(t, Model())
	require.NoError(t, db.Exec(`CREATE TABLE bookings (
		id TEXT PRIMARY KEY,
		equipment_id TEXT NOT NULL,
		status TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL
	)`).Error)
	return db
}

func seedEquipment(t *testing.T, repo Repository, owner uuid.UUID, title string, rate int64) *Equipment {
	t.Helper()
	e := &Equipment{
		OwnerID:   owner,
		Title:     title,
		Category:  "camera",
		City:      "Almaty",
		DailyRate: rate,
		Currency:  "usd",
		IsActive:  true,
	}
	require.NoError(t, repo.Create(context.Background(), e))
	return e
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t.UTC()
}

func TestRepository_CreateGetUpdate(t *testing.T) {
	db := setupEquipmentDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	e := seedEquipment(t, repo, uuid.New(), "Sony A7", 5000)
	assert.NotEqual(t, uuid.Nil, e.ID)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sony A7", got.Title)
	assert.Empty(t, got.ImageURLs)

	require.NoError(t, repo.Update(ctx, e.ID, map[string]any{"daily_rate": int64(7000)}))
	require.NoError(t, repo.AppendImage(ctx, e.ID, "/static/uploads/a.jpg"))
	require.NoError(t, repo.AppendImage(ctx, e.ID, "/static/uploads/b.jpg"))

	got, err = repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), got.DailyRate)
	assert.Equal(t, []string{"/static/uploads/a.jpg", "/static/uploads/b.jpg"}, got.ImageURLs)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, uuid.New(), map[string]any{"title": "x"}), ErrNotFound)
}

func TestRepository_SearchFilters(t *testing.T) {
	db := setupEquipmentDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	seedEquipment(t, repo, owner, "Canon tripod", 1000)
	seedEquipment(t, repo, owner, "Sony lens", 3000)
	hidden := seedEquipment(t, repo, owner, "Old drone", 2000)
	require.NoError(t, repo.Update(ctx, hidden.ID, map[string]any{"is_active": false}))

	items, total, err := repo.Search(ctx, Filter{Sort: "price_asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "Canon tripod", items[0].Title)

	items, _, err = repo.Search(ctx, Filter{Query: "SONY"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Sony lens", items[0].Title)

	items, _, err = repo.Search(ctx, Filter{MinRate: 1500, MaxRate: 5000})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, total, err = repo.Search(ctx, Filter{OwnerID: &owner, IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 3)
}

func TestRepository_SearchOnlyFree(t *testing.T) {
	db := setupEquipmentDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	busy := seedEquipment(t, repo, owner, "Busy camera", 1000)
	free := seedEquipment(t, repo, owner, "Free camera", 1000)

	require.NoError(t, db.Exec(
		"INSERT INTO bookings (id, equipment_id, status, start_date, end_date) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), busy.ID, "confirmed", day("2025-06-01"), day("2025-06-10"),
	).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO bookings (id, equipment_id, status, start_date, end_date) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), free.ID, "cancelled", day("2025-06-01"), day("2025-06-10"),
	).Error)

	blocking := []string{"pending", "confirmed", "in_progress"}

	items, _, err := repo.Search(ctx, Filter{OnlyFree: &FreeWindow{
		From: day("2025-06-05"), To: day("2025-06-07"), BlockingStatuses: blocking,
	}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, free.ID, items[0].ID)

	// Touching the end date counts as overlap unless strict.
	items, _, err = repo.Search(ctx, Filter{OnlyFree: &FreeWindow{
		From: day("2025-06-10"), To: day("2025-06-12"), BlockingStatuses: blocking,
	}})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, _, err = repo.Search(ctx, Filter{OnlyFree: &FreeWindow{
		From: day("2025-06-10"), To: day("2025-06-12"), BlockingStatuses: blocking, Strict: true,
	}})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRepository_SearchOnlyFreeComparesWholeDays(t *testing.T) {
	db := setupEquipmentDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	busy := seedEquipment(t, repo, uuid.New(), "Busy camera", 1000)
	require.NoError(t, db.Exec(
		"INSERT INTO bookings (id, equipment_id, status, start_date, end_date) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), busy.ID, "confirmed", day("2025-06-01"), day("2025-06-10"),
	).Error)
	blocking := []string{"pending", "confirmed", "in_progress"}

	// noon on the last day is still that day
	items, _, err := repo.Search(ctx, Filter{OnlyFree: &FreeWindow{
		From: day("2025-06-10").Add(12 * time.Hour), To: day("2025-06-12"), BlockingStatuses: blocking,
	}})
	require.NoError(t, err)
	assert.Empty(t, items)

	// a window ending late on the day before the booking starts
	items, _, err = repo.Search(ctx, Filter{OnlyFree: &FreeWindow{
		From: day("2025-05-28"), To: day("2025-05-31").Add(23 * time.Hour), BlockingStatuses: blocking,
	}})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, _, err = repo.Search(ctx, Filter{OnlyFree: &FreeWindow{
		From: day("2025-05-28"), To: day("2025-06-01").Add(time.Hour), BlockingStatuses: blocking,
	}})
	require.NoError(t, err)
	assert.Empty(t, items)

	items, _, err = repo.Search(ctx, Filter{OnlyFree: &FreeWindow{
		From: day("2025-06-10").Add(12 * time.Hour), To: day("2025-06-12"), BlockingStatuses: blocking, Strict: true,
	}})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
