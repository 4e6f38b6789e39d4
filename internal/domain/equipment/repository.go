package equipment

import (
	"context"
	"errors"
	"strings"
	"time"

	"equiprent/internal/pkg/dateutil"
	"equiprent/internal/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Filter describes a catalog search.
type Filter struct {
	Query           string
	Category        string
	City            string
	OwnerID         *uuid.UUID
	MinRate         int64
	MaxRate         int64
	Sort            string
	Limit           int
	Offset          int
	OnlyFree        *FreeWindow
	IncludeInactive bool
}

// FreeWindow restricts results to equipment with no blocking booking
// overlapping [From, To]. Without Strict, any shared UTC day overlaps.
type FreeWindow struct {
	From             time.Time
	To               time.Time
	BlockingStatuses []string
	// Strict treats touching boundaries as free.
	Strict bool
}

type Repository interface {
	Create(ctx context.Context, e *Equipment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Equipment, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	AppendImage(ctx context.Context, id uuid.UUID, url string) error
	Search(ctx context.Context, f Filter) ([]Equipment, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, e *Equipment) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m := toModel(e)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*e = *toDomain(m)
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Equipment, error) {
	var m equipmentModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomain(m), nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&equipmentModel{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) AppendImage(ctx context.Context, id uuid.UUID, url string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m equipmentModel
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		urls := append(toDomain(m).ImageURLs, url)
		return tx.Model(&equipmentModel{}).Where("id = ?", id).Updates(map[string]any{
			"image_urls": utils.URLsToString(urls),
			"updated_at": time.Now().UTC(),
		}).Error
	})
}

func (r *repository) Search(ctx context.Context, f Filter) ([]Equipment, int64, error) {
	q := r.db.WithContext(ctx).Model(&equipmentModel{})

	if !f.IncludeInactive {
		q = q.Where("equipment.is_active = ?", true)
	}
	if f.OwnerID != nil {
		q = q.Where("equipment.owner_id = ?", *f.OwnerID)
	}
	if f.Category != "" {
		q = q.Where("LOWER(equipment.category) = ?", strings.ToLower(f.Category))
	}
	if f.City != "" {
		q = q.Where("LOWER(equipment.city) = ?", strings.ToLower(f.City))
	}
	if f.MinRate > 0 {
		q = q.Where("equipment.daily_rate >= ?", f.MinRate)
	}
	if f.MaxRate > 0 {
		q = q.Where("equipment.daily_rate <= ?", f.MaxRate)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Query)); s != "" {
		like := "%" + s + "%"
		q = q.Where("(LOWER(equipment.title) LIKE ? OR LOWER(equipment.description) LIKE ?)", like, like)
	}
	if w := f.OnlyFree; w != nil && len(w.BlockingStatuses) > 0 {
		// day(b.start) <= day(To) and day(b.end) >= day(From)
		overlap := "b.start_date < ? AND b.end_date >= ?"
		hi, lo := dateutil.NextDay(w.To), dateutil.StartOfDay(w.From)
		if w.Strict {
			overlap = "b.start_date < ? AND b.end_date > ?"
			hi, lo = w.To, w.From
		}
		q = q.Where(
			"NOT EXISTS (SELECT 1 FROM bookings b WHERE b.equipment_id = equipment.id AND b.status IN ? AND "+overlap+")",
			w.BlockingStatuses, hi, lo,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch f.Sort {
	case "price_asc":
		q = q.Order("equipment.daily_rate ASC")
	case "price_desc":
		q = q.Order("equipment.daily_rate DESC")
	default:
		q = q.Order("equipment.created_at DESC")
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var rows []equipmentModel
	if err := q.Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]Equipment, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomain(m))
	}
	return out, total, nil
}
