// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"exon/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	ShouldClean bool
}

var openers = []string{
	"gm", "gm ser", "hey, nice profile", "what chain are you on?",
	"your bio made me laugh", "wagmi?", "coffee sometime?",
	"finally someone who gets it", "love the vibe", "hey you",
}

// Seeder populates the database with development data.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Seeder{db: db, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// ClearAll removes all seeded rows. Safe to run against an empty schema.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	for _, table := range []string{"messages", "user_likes", "user_dislikes", "email_subscriptions", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Seed populates the database with test data
func (s *Seeder) Seed(opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users...", opts.NumUsers)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	users, err := s.createUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d test users created", len(users))

	matches, err := s.createSwipes(users)
	if err != nil {
		return fmt.Errorf("failed to create swipes: %w", err)
	}
	log.Printf("✓ %d mutual matches created", len(matches))

	msgCount, err := s.createConversations(matches)
	if err != nil {
		return fmt.Errorf("failed to create conversations: %w", err)
	}
	log.Printf("✓ %d messages created", msgCount)

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

// createUsers inserts n users with complete profiles, a random token balance
// and occasional unclaimed social missions. Roughly one in five is left
// mid-onboarding with an empty bio.
func (s *Seeder) createUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		gender, lookingFor := models.GenderFemale, models.GenderMale
		if s.rng.Intn(2) == 0 {
			gender, lookingFor = models.GenderMale, models.GenderFemale
		}

		user := &models.User{
			Wallet:     gofakeit.LetterN(44),
			Name:       gofakeit.Name(),
			Bio:        gofakeit.Quote(),
			Image:      fmt.Sprintf("https://picsum.photos/seed/%s/600/800", gofakeit.UUID()),
			Gender:     gender,
			LookingFor: lookingFor,
			Tokens:     int64(s.rng.Intn(10)) * 50,
			VisitedX:   s.rng.Intn(2) == 0,
		}
		if s.rng.Intn(5) == 0 {
			user.Bio = ""
		}
		user.Onboarded = user.ProfileComplete()

		if err := s.db.Create(user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

type pair struct {
	a, b *models.User
}

// createSwipes wires random like and dislike edges between compatible users
// and returns the mutual pairs.
func (s *Seeder) createSwipes(users []*models.User) ([]pair, error) {
	var matches []pair
	for _, from := range users {
		for _, to := range users {
			if from.ID == to.ID || to.Gender != from.LookingFor {
				continue
			}
			switch s.rng.Intn(10) {
			case 0, 1, 2: // like
				edge := &models.LikeEdge{FromID: from.ID, ToID: to.ID}
				if err := s.db.Create(edge).Error; err != nil {
					return nil, err
				}
				var reverse int64
				if err := s.db.Model(&models.LikeEdge{}).
					Where("from_id = ? AND to_id = ?", to.ID, from.ID).
					Count(&reverse).Error; err != nil {
					return nil, err
				}
				if reverse > 0 {
					matches = append(matches, pair{a: from, b: to})
				}
			case 3: // dislike
				if err := s.db.Create(&models.DislikeEdge{FromID: from.ID, ToID: to.ID}).Error; err != nil {
					return nil, err
				}
			}
		}
	}
	return matches, nil
}

// createConversations writes a short back-and-forth for each matched pair.
func (s *Seeder) createConversations(matches []pair) (int, error) {
	count := 0
	for _, m := range matches {
		turns := 1 + s.rng.Intn(4)
		for i := 0; i < turns; i++ {
			from, to := m.a, m.b
			if i%2 == 1 {
				from, to = to, from
			}
			msg := &models.Message{
				FromUserID: from.ID,
				ToUserID:   to.ID,
				Content:    openers[s.rng.Intn(len(openers))],
			}
			if err := s.db.Create(msg).Error; err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}
