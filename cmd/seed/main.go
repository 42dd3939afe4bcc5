package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"seatengine/api/routes"
	"seatengine/internal/pricing"
	"seatengine/internal/promos"
	"seatengine/internal/seats"
	"seatengine/internal/shared/config"
	"seatengine/internal/shared/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

type Seeder struct {
	db     *database.DB
	seats  seats.Repository
	promos promos.Service
	rates  pricing.RateRepository
}

// sectionPlan lays out one section of a floor plan
type sectionPlan struct {
	name        string
	tier        seats.Tier
	seatType    seats.SeatType
	rows        []string
	seatsPerRow int
	basePrice   int64
}

var floorPlans = []struct {
	name     string
	fee, tax int64
	sections []sectionPlan
}{
	{
		name: "Riverside Theater",
		fee:  500,
		tax:  1800,
		sections: []sectionPlan{
			{"Orchestra", seats.TierVIP, seats.SeatTypeChair, []string{"A", "B"}, 12, 3500},
			{"Mezzanine", seats.TierPremium, seats.SeatTypeChair, []string{"C", "D", "E"}, 14, 2000},
			{"Balcony", seats.TierGeneral, seats.SeatTypeChair, []string{"F", "G", "H", "J"}, 16, 1000},
		},
	},
	{
		name: "Harbor Banquet Hall",
		fee:  300,
		tax:  1200,
		sections: []sectionPlan{
			{"Head Tables", seats.TierVIP, seats.SeatTypeTableSeat, []string{"T1", "T2"}, 8, 6000},
			{"Floor Tables", seats.TierGeneral, seats.SeatTypeTableSeat, []string{"T3", "T4", "T5", "T6"}, 8, 2500},
		},
	},
}

func main() {
	fmt.Println("🌱 Starting seat engine database seeder...")

	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.UsesMemoryStorage() {
		log.Fatalf("STORAGE_DRIVER=memory has nothing to seed")
	}

	db, err := database.InitDB(cfg, routes.Models()...)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	pg := db.GetPostgreSQL()
	seeder := &Seeder{
		db:     db,
		seats:  seats.NewRepository(pg),
		promos: promos.NewService(promos.NewRepository(pg)),
		rates:  pricing.NewRateRepository(pg),
	}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")
}

// CleanDatabase truncates every engine table
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"promo_redemptions",
		"promo_codes",
		"bookings",
		"holds",
		"seats",
		"event_rates",
	}

	return s.db.PostgreSQL.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			fmt.Printf("  Truncating table: %s\n", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedAll seeds floor plans, per-event rates and promo codes
func (s *Seeder) SeedAll(ctx context.Context) error {
	for _, plan := range floorPlans {
		floorPlanID, eventID := uuid.New(), uuid.New()

		count, err := s.seedFloorPlan(ctx, floorPlanID, eventID, plan.sections)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", plan.name, err)
		}

		if err := s.rates.UpsertEventRates(ctx, &pricing.EventRates{
			EventID:    eventID,
			FeeRateBps: plan.fee,
			TaxRateBps: plan.tax,
			Currency:   "INR",
			UpdatedBy:  "ADMIN:seed",
		}); err != nil {
			return fmt.Errorf("failed to seed rates for %s: %w", plan.name, err)
		}

		fmt.Printf("    ✅ %s: %d seats (floor plan %s, event %s)\n", plan.name, count, floorPlanID, eventID)
	}

	if err := s.seedPromos(ctx); err != nil {
		return fmt.Errorf("failed to seed promos: %w", err)
	}

	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}
	return nil
}

func (s *Seeder) seedFloorPlan(ctx context.Context, floorPlanID, eventID uuid.UUID, sections []sectionPlan) (int, error) {
	var all []seats.Seat
	for _, section := range sections {
		for r, row := range section.rows {
			for n := 1; n <= section.seatsPerRow; n++ {
				all = append(all, seats.Seat{
					ID:          uuid.New(),
					FloorPlanID: floorPlanID,
					EventID:     eventID,
					Section:     section.name,
					RowNumber:   row,
					SeatNumber:  n,
					SeatType:    section.seatType,
					X:           float64(n) * 1.2,
					Y:           float64(r) * 1.5,
					Tier:        section.tier,
					BasePrice:   section.basePrice,
					Status:      seats.StatusAvailable,
				})
			}
		}
	}
	return len(all), s.seats.CreateSeats(ctx, all)
}

func (s *Seeder) seedPromos(ctx context.Context) error {
	fmt.Println("  🎟️ Seeding promo codes...")

	expires := time.Now().AddDate(0, 3, 0)
	requests := []promos.CreatePromoRequest{
		{Code: "TENOFF", Kind: pricing.DiscountPercentage, Value: 1000, Description: "10% off the subtotal"},
		{Code: "FLAT200", Kind: pricing.DiscountFixed, Value: 200, UsageCap: int64Ptr(100), ExpiresAt: &expires},
		{Code: "BIGGROUP", Kind: pricing.DiscountPercentage, Value: 1500, MinOrderAmount: 10000},
	}

	for _, req := range requests {
		promo, err := s.promos.CreatePromo(ctx, req, "ADMIN:seed")
		if err != nil {
			return fmt.Errorf("failed to create promo %s: %w", req.Code, err)
		}
		fmt.Printf("    ✅ Created promo: %s (%s %d)\n", promo.Code, promo.Kind, promo.Value)
	}
	return nil
}

func int64Ptr(v int64) *int64 {
	return &v
}
