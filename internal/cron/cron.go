package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/skillbridge/skillbridge-backend/internal/config"
	"github.com/skillbridge/skillbridge-backend/internal/email"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/service"
)

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron             *cron.Cron
	cfg              *config.Config
	services         *service.Services
	emailSvc         *email.Service
	disputeRepo      repository.DisputeRepository
	projectRepo      repository.ProjectRepository
	notificationRepo repository.NotificationRepository
}

// NewScheduler creates a new scheduler
func NewScheduler(
	cfg *config.Config,
	services *service.Services,
	emailSvc *email.Service,
	disputeRepo repository.DisputeRepository,
	projectRepo repository.ProjectRepository,
	notificationRepo repository.NotificationRepository,
) *Scheduler {
	return &Scheduler{
		cron:             cron.New(),
		cfg:              cfg,
		services:         services,
		emailSvc:         emailSvc,
		disputeRepo:      disputeRepo,
		projectRepo:      projectRepo,
		notificationRepo: notificationRepo,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Run every minute - prompt parties whose interview window is opening
	s.cron.AddFunc("* * * * *", func() {
		s.notifyInterviewWindows()
	})

	// Run every 10 minutes - infer completion for interviews whose join
	// window has closed
	s.cron.AddFunc("*/10 * * * *", func() {
		log.Println("[Cron] Running interview window sweep...")
		s.sweepInterviewWindows()
	})

	// Run every day at 9 AM - remind admins of unresolved disputes
	s.cron.AddFunc("0 9 * * *", func() {
		log.Println("[Cron] Running dispute reminder check...")
		s.remindOpenDisputes()
	})

	// Clean up old notifications - Run every Sunday at midnight
	s.cron.AddFunc("0 0 * * 0", func() {
		log.Println("[Cron] Running notification cleanup...")
		s.cleanupOldNotifications()
	})

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Cron] Scheduler stopped")
}

func (s *Scheduler) notifyInterviewWindows() {
	ctx := context.Background()

	notified, err := s.services.Interview.NotifyOpeningWindows(ctx)
	if err != nil {
		log.Printf("[Cron] Error notifying interview windows: %v", err)
		return
	}
	if notified > 0 {
		log.Printf("[Cron] Prompted %d interviews entering their window", notified)
	}
}

func (s *Scheduler) sweepInterviewWindows() {
	ctx := context.Background()

	swept, err := s.services.Interview.SweepPastWindows(ctx)
	if err != nil {
		log.Printf("[Cron] Error sweeping interview windows: %v", err)
		return
	}
	if swept > 0 {
		log.Printf("[Cron] Marked %d interviews completed", swept)
	}
}

// remindOpenDisputes mails admins a digest of disputes open longer than a day.
func (s *Scheduler) remindOpenDisputes() {
	ctx := context.Background()

	if s.emailSvc == nil || s.cfg.AdminEmail == "" {
		return
	}

	disputes, err := s.services.Dispute.ListOpen(ctx)
	if err != nil {
		log.Printf("[Cron] Error listing open disputes: %v", err)
		return
	}

	now := time.Now()
	var items []email.DisputeReminderItem
	for _, dispute := range disputes {
		age := now.Sub(dispute.CreatedAt)
		if age < 24*time.Hour {
			continue
		}
		title := dispute.ProjectID
		if project, err := s.projectRepo.FindByID(ctx, dispute.ProjectID); err == nil && project != nil {
			title = project.Title
		}
		items = append(items, email.DisputeReminderItem{
			ProjectTitle: title,
			DaysOpen:     int(age.Hours() / 24),
		})
	}
	if len(items) == 0 {
		return
	}

	if err := s.emailSvc.SendDisputeReminder(s.cfg.AdminEmail, email.DisputeReminderData{Disputes: items}); err != nil {
		log.Printf("[Cron] Error sending dispute reminder: %v", err)
		return
	}
	log.Printf("[Cron] Sent dispute reminder for %d disputes", len(items))
}

func (s *Scheduler) cleanupOldNotifications() {
	ctx := context.Background()

	deleted, err := s.notificationRepo.DeleteOlderThan(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil {
		log.Printf("[Cron] Error cleaning up notifications: %v", err)
		return
	}
	log.Printf("[Cron] Cleaned up %d old notifications", deleted)
}
