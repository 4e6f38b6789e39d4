package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"equiprent/internal/cache"
	"equiprent/internal/database"
	"equiprent/internal/domain/auth"
	"equiprent/internal/domain/booking"
	"equiprent/internal/domain/equipment"
	"equiprent/internal/events"
	"equiprent/internal/logging"
	"equiprent/internal/pkg/dateutil"

	"github.com/joho/godotenv"
)

type seedUser struct {
	email, name, city, role string
}

var users = []seedUser{
	{"admin@equiprent.local", "Admin", "Almaty", auth.RoleAdmin},
	{"owner1@equiprent.local", "Aidar Camera Rental", "Almaty", auth.RoleUser},
	{"owner2@equiprent.local", "Gulnaz Light Pro", "Astana", auth.RoleUser},
	{"renter1@equiprent.local", "Asel", "Almaty", auth.RoleUser},
	{"renter2@equiprent.local", "Bekzat", "Astana", auth.RoleUser},
}

var items = []equipment.CreateRequest{
	{Title: "Sony FX3 Cinema Camera", Category: "camera", City: "Almaty", DailyRate: 45000, Deposit: 300000},
	{Title: "Aputure 600d Pro", Category: "light", City: "Almaty", DailyRate: 20000, Deposit: 150000},
	{Title: "DJI RS 3 Pro Gimbal", Category: "stabilizer", City: "Astana", DailyRate: 15000, Deposit: 100000},
	{Title: "Sennheiser MKE 600 Kit", Category: "audio", City: "Astana", DailyRate: 6000, Deposit: 40000},
}

func main() {
	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "equiprent.db"
	}
	logger := logging.New("info", "console", "dev")
	ctx := context.Background()

	db, err := database.Connect(dsn, logger)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := database.Migrate(db, false, logger); err != nil {
		log.Fatal("migrate failed:", err)
	}

	log.Println("Cleaning old data...")
	for _, table := range []string{"notifications", "favorites", "messages", "conversations", "payments", "wallet_transactions", "wallets", "reviews", "bookings", "uploads", "equipment", "users"} {
		db.Exec("DELETE FROM " + table)
	}

	log.Println("Creating users...")
	userRepo := auth.NewRepository(db)
	created := make([]*auth.User, 0, len(users))
	for _, u := range users {
		hash, err := auth.HashPassword("password123")
		if err != nil {
			log.Fatal(err)
		}
		user := &auth.User{Email: u.email, Name: u.name, City: u.city, Role: u.role, PasswordHash: hash, IdentityVerified: true}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("create user %s: %v", u.email, err)
		}
		created = append(created, user)
	}
	owners, renters := created[1:3], created[3:]

	log.Println("Creating equipment...")
	equipmentSvc := equipment.NewService(equipment.NewRepository(db), cache.NewMemory(16), time.Minute, equipment.AvailabilityPolicy{}, "kzt", logger)
	listed := make([]*equipment.Equipment, 0, len(items))
	for i, req := range items {
		req.Description = fmt.Sprintf("%s, well maintained, pickup in %s.", req.Title, req.City)
		e, err := equipmentSvc.Create(ctx, owners[i%len(owners)].ID, req)
		if err != nil {
			log.Fatalf("create equipment %q: %v", req.Title, err)
		}
		listed = append(listed, e)
	}

	log.Println("Creating bookings...")
	bookingRepo := booking.NewRepository(db)
	validator := booking.NewValidator(bookingRepo, booking.Policy{}, 5*time.Second, logger)
	bookingSvc := booking.NewService(bookingRepo, validator, equipmentSvc, userRepo, events.Nop{}, logger)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i, e := range listed {
		renter := renters[i%len(renters)]
		start := today.AddDate(0, 0, 3+i*2)
		b, err := bookingSvc.Create(ctx, renter.ID, booking.CreateRequest{
			EquipmentID: e.ID.String(),
			StartDate:   start.Format(dateutil.DateLayout),
			EndDate:     start.AddDate(0, 0, 2).Format(dateutil.DateLayout),
			Note:        "Seeded booking",
		})
		if err != nil {
			log.Fatalf("create booking for %q: %v", e.Title, err)
		}
		if i%2 == 0 {
			if _, err := bookingSvc.Approve(ctx, e.OwnerID, b.ID); err != nil {
				log.Fatalf("approve booking %s: %v", b.ID, err)
			}
		}
	}

	log.Println("Seed completed. All users use password123:")
	for _, u := range users {
		log.Printf("  %s (%s)", u.email, u.role)
	}
}
