package favorite

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add saves a favorite. Duplicate adds return ErrAlreadyFavorite.
func (r *Repository) Add(ctx context.Context, userID, equipmentID uuid.UUID) (*Favorite, error) {
	exists, err := r.Exists(ctx, userID, equipmentID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyFavorite
	}

	f := &Favorite{UserID: userID, EquipmentID: equipmentID}
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyFavorite
		}
		return nil, err
	}
	return f, nil
}

func (r *Repository) Remove(ctx context.Context, userID, equipmentID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND equipment_id = ?", userID, equipmentID).
		Delete(&Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the user's favorites newest first, with the total count.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Entry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Favorite{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []Entry
	q := r.db.WithContext(ctx).
		Table("favorites AS f").
		Select("f.equipment_id, e.title, e.city, e.daily_rate, e.currency, e.is_active, f.created_at").
		Joins("JOIN equipment e ON e.id = f.equipment_id").
		Where("f.user_id = ?", userID).
		Order("f.created_at DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Scan(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *Repository) Exists(ctx context.Context, userID, equipmentID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Favorite{}).
		Where("user_id = ? AND equipment_id = ?", userID, equipmentID).
		Count(&count).Error
	return count > 0, err
}
