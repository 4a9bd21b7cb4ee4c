package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedBaseID keeps demo users clear of real platform ids.
const SeedBaseID int64 = 9_000_000_000

var (
	seedLocations = []string{"Tashkent", "Berlin", "Lisbon", "Seoul", "Toronto"}
	seedInterests = []string{"music", "hiking", "chess", "movies", "coding", "travel"}
)

// SeedDemoProfiles resets demo rows and populates complete profiles.
//
// Behavior:
//  1. Clears every row with user id >= SeedBaseID.
//  2. Creates n complete profiles, alternating Male/Female.
//  3. Every 5th demo user gets a 24h premium window so filtered search can
//     be exercised.
func SeedDemoProfiles(db *gorm.DB, n int) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	if err := db.Where("user_id >= ?", SeedBaseID).Delete(&Profile{}).Error; err != nil {
		return fmt.Errorf("failed to clear profiles: %w", err)
	}
	if err := db.Where("user_id >= ?", SeedBaseID).Delete(&Premium{}).Error; err != nil {
		return fmt.Errorf("failed to clear premium: %w", err)
	}
	log.Println("Cleared existing demo data")

	for i := 0; i < n; i++ {
		id := SeedBaseID + int64(i)
		gender := "Male"
		if i%2 == 1 {
			gender = "Female"
		}
		p := Profile{
			UserID:   id,
			Gender:   gender,
			Age:      18 + r.Intn(30),
			Location: seedLocations[r.Intn(len(seedLocations))],
			Interest: seedInterests[r.Intn(len(seedInterests))],
		}
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&p).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}

		if i%5 == 0 {
			pr := Premium{UserID: id, PremiumUntil: time.Now().Add(24 * time.Hour)}
			if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&pr).Error; err != nil {
				return fmt.Errorf("failed to seed premium: %w", err)
			}
		}
	}
	log.Printf("Seeded %d demo profiles.", n)
	return nil
}
