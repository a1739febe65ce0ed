// internal/seed/seed.go
package seed

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/types"
	"golang.org/x/crypto/bcrypt"
)

func SeedData(repos *repository.Repositories) {
	ctx := context.Background()

	// Skip if a known seed user already exists
	if existing, _ := repos.UserRepo.FindByEmail(ctx, "admin@skillbridge.work"); existing != nil {
		log.Println("[Seed] Data already exists, skipping...")
		return
	}

	log.Println("[Seed] 🌱 Creating initial data with real scenarios...")

	// ============================================
	// CREATE USERS
	// ============================================
	password, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	admin := &repository.User{
		Email:    "admin@skillbridge.work",
		Password: string(password),
		Name:     "Platform Admin",
		Role:     types.RoleAdmin,
	}
	repos.UserRepo.Create(ctx, admin)

	sunita := &repository.User{
		Email:    "sunita.shrestha@example.com",
		Password: string(password),
		Name:     "Sunita Shrestha",
		Role:     types.RoleClient,
	}
	repos.UserRepo.Create(ctx, sunita)

	raj := &repository.User{
		Email:    "raj.thapa@example.com",
		Password: string(password),
		Name:     "Raj Thapa",
		Role:     types.RoleContributor,
	}
	repos.UserRepo.Create(ctx, raj)

	mina := &repository.User{
		Email:    "mina.gurung@example.com",
		Password: string(password),
		Name:     "Mina Gurung",
		Role:     types.RoleContributor,
	}
	repos.UserRepo.Create(ctx, mina)

	log.Printf("✅ Created 4 users: admin, Sunita (client), Raj and Mina (contributors)")

	// ============================================
	// SCENARIO 1: OPEN FUNDED PROJECT WITH APPLICATIONS
	// ============================================
	apiProject := &repository.Project{
		ClientID:    sunita.ID,
		Title:       "Restaurant ordering API",
		Description: "Build a REST API for a multi-location restaurant ordering system. Postgres, payment gateway integration, ~30 endpoints.",
		Category:    "backend",
		Tags:        []string{"go", "postgres", "rest"},
		Budget:      decimal.NewFromInt(2500),
		Duration:    "6 weeks",
		Status:      types.ProjectOpen,
	}
	repos.ProjectRepo.CreateFunded(ctx, apiProject, &repository.EscrowReservation{
		PaymentIntentID: "pi_seed_restaurant_api",
		Amount:          apiProject.Budget,
		Status:          types.EscrowReserved,
	})

	rajApp := &repository.Application{
		ProjectID:        apiProject.ID,
		ApplicantID:      raj.ID,
		CoverLetter:      "I have shipped three Go backends with Postgres and Stripe, including an ordering system for a food-delivery startup.",
		ProposedBudget:   decimal.NewFromInt(2300),
		ProposedDuration: "5 weeks",
		Status:           types.ApplicationShortlisted,
	}
	repos.ApplicationRepo.Create(ctx, rajApp)
	repos.ProjectRepo.IncrementApplicationsCount(ctx, apiProject.ID)

	minaApp := &repository.Application{
		ProjectID:        apiProject.ID,
		ApplicantID:      mina.ID,
		CoverLetter:      "Backend developer with strong REST experience, happy to include load testing in the quote.",
		ProposedBudget:   decimal.NewFromInt(2500),
		ProposedDuration: "6 weeks",
		Status:           types.ApplicationPending,
	}
	repos.ApplicationRepo.Create(ctx, minaApp)
	repos.ProjectRepo.IncrementApplicationsCount(ctx, apiProject.ID)

	// Interview for the shortlisted applicant, tomorrow at 10:00
	tomorrow := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	meetingLink := "https://meet.skillbridge.work/seed-interview"
	repos.InterviewRepo.Create(ctx, &repository.Interview{
		ApplicationID:   rajApp.ID,
		ScheduledAt:     tomorrow,
		DurationMinutes: 45,
		Status:          types.InterviewScheduled,
		MeetingLink:     &meetingLink,
	})

	log.Printf("✅ Seeded open project %q with 2 applications and 1 interview", apiProject.Title)

	// ============================================
	// SCENARIO 2: IN-PROGRESS PROJECT (big budget, admin-gated on release)
	// ============================================
	platformProject := &repository.Project{
		ClientID:    sunita.ID,
		Title:       "Logistics tracking platform",
		Description: "Real-time shipment tracking with websocket updates, driver mobile endpoints and an admin dashboard API.",
		Category:    "backend",
		Tags:        []string{"go", "websocket", "postgres"},
		Budget:      decimal.NewFromInt(60000),
		Duration:    "4 months",
		Status:      types.ProjectOpen,
	}
	repos.ProjectRepo.CreateFunded(ctx, platformProject, &repository.EscrowReservation{
		PaymentIntentID: "pi_seed_logistics",
		Amount:          platformProject.Budget,
		Status:          types.EscrowReserved,
	})

	minaPlatformApp := &repository.Application{
		ProjectID:        platformProject.ID,
		ApplicantID:      mina.ID,
		CoverLetter:      "I built the realtime layer for a fleet-management product, including the websocket fanout and driver APIs.",
		ProposedBudget:   decimal.NewFromInt(58000),
		ProposedDuration: "4 months",
		Status:           types.ApplicationAccepted,
	}
	repos.ApplicationRepo.Create(ctx, minaPlatformApp)
	repos.ProjectRepo.IncrementApplicationsCount(ctx, platformProject.ID)

	platformProject.Status = types.ProjectInProgress
	platformProject.AcceptedContributorID = &mina.ID
	repos.ProjectRepo.UpdateStatus(ctx, platformProject, platformProject.Version)

	log.Printf("✅ Seeded in-progress project %q (contributor: Mina)", platformProject.Title)
	log.Println("[Seed] 🌱 Done")
}
