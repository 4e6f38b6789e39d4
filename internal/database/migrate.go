package database

import (
	"fmt"

	"equiprent/internal/domain/auth"
	"equiprent/internal/domain/booking"
	"equiprent/internal/domain/chat"
	"equiprent/internal/domain/equipment"
	"equiprent/internal/domain/favorite"
	"equiprent/internal/domain/notification"
	"equiprent/internal/domain/payment"
	"equiprent/internal/domain/review"
	"equiprent/internal/domain/upload"
	"equiprent/internal/domain/wallet"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&auth.User{},
		equipment.Model(),
		booking.Model(),
		review.Model(),
		&wallet.Wallet{},
		&wallet.Transaction{},
		&payment.Payment{},
		&chat.Conversation{},
		&chat.Message{},
		notification.Model(),
		&upload.Upload{},
		&favorite.Favorite{},
	}
}

// Migrate creates or updates the schema. On PostgreSQL it also installs the
// bookings_no_overlap exclusion constraint so the store itself rejects
// overlapping approved bookings for the same equipment.
func Migrate(db *gorm.DB, sameDayHandover bool, log zerolog.Logger) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		log.Info().Msg("schema migrated (no exclusion constraint on this driver)")
		return nil
	}

	for _, stmt := range exclusionStatements(sameDayHandover) {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("install overlap constraint: %w", err)
		}
	}
	log.Info().Bool("same_day_handover", sameDayHandover).Msg("schema migrated")
	return nil
}

// exclusionStatements builds the constraint DDL. Without same-day handover
// ranges are compared by UTC calendar day, inclusive on both ends.
func exclusionStatements(sameDayHandover bool) []string {
	rangeExpr := `tsrange(date_trunc('day', start_date AT TIME ZONE 'UTC'), date_trunc('day', end_date AT TIME ZONE 'UTC'), '[]')`
	if sameDayHandover {
		rangeExpr = `tstzrange(start_date, end_date, '[)')`
	}
	return []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_no_overlap`,
		fmt.Sprintf(`ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap EXCLUDE USING gist (
	equipment_id WITH =,
	%s WITH &&
) WHERE (status IN ('confirmed', 'in_progress', 'ongoing'))`, rangeExpr),
	}
}
