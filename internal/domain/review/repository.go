package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

type reviewRow struct {
	reviewModel
	AuthorName *string `gorm:"column:author_name"`
}

func (r *ReviewRepository) Create(ctx context.Context, rv *Review) error {
	if rv.ID == uuid.Nil {
		rv.ID = uuid.New()
	}
	m := toReviewModel(rv)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	name := rv.AuthorName
	*rv = toDomainReview(m)
	rv.AuthorName = name
	return nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	var m reviewModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d := toDomainReview(m)
	return &d, nil
}

// List returns visible reviews filtered by one column ("equipment_id" or "subject_id").
func (r *ReviewRepository) List(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var rows []reviewRow
	tx := r.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.*, users.name AS author_name").
		Joins("LEFT JOIN users ON users.id = reviews.author_id").
		Where("reviews."+column+" = ? AND reviews.is_hidden = ?", id, false).
		Order("reviews.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]Review, 0, len(rows))
	for _, row := range rows {
		rv := toDomainReview(row.reviewModel)
		if row.AuthorName != nil {
			rv.AuthorName = *row.AuthorName
		}
		out = append(out, rv)
	}
	return out, nil
}

func (r *ReviewRepository) Summary(ctx context.Context, column string, id uuid.UUID) (Summary, error) {
	var row struct {
		Average *float64 `gorm:"column:average"`
		Count   int64    `gorm:"column:count"`
	}
	err := r.db.WithContext(ctx).
		Model(&reviewModel{}).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Where(column+" = ? AND is_hidden = ?", id, false).
		Scan(&row).Error
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Count: row.Count}
	if row.Average != nil {
		s.Average = *row.Average
	}
	return s, nil
}

func (r *ReviewRepository) Hide(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx).
		Model(&reviewModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_hidden":  true,
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
