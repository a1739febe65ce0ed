package notification

import (
	"context"
	"fmt"

	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/socket"
)

// Notification types
const (
	TypeApplicationReceived  = "APPLICATION_RECEIVED"
	TypeApplicationAccepted  = "APPLICATION_ACCEPTED"
	TypeApplicationRejected  = "APPLICATION_REJECTED"
	TypeInterviewScheduled   = "INTERVIEW_SCHEDULED"
	TypeCompletionRequested  = "COMPLETION_REQUESTED"
	TypeChangesRequested     = "CHANGES_REQUESTED"
	TypeCompletionRejected   = "COMPLETION_REJECTED"
	TypePaymentReleased      = "PAYMENT_RELEASED"
	TypeProjectRefunded      = "PROJECT_REFUNDED"
	TypeProjectCancelled     = "PROJECT_CANCELLED"
	TypeProjectSuspended     = "PROJECT_SUSPENDED"
	TypeDisputeOpened        = "DISPUTE_OPENED"
	TypeDisputeCounterFiled  = "DISPUTE_COUNTER_FILED"
)

// Service persists notifications and pushes them over the websocket hub.
// Notification failures are logged by callers and never roll back the
// workflow transition that produced them.
type Service struct {
	notificationRepo repository.NotificationRepository
	broadcaster      *socket.Broadcaster
}

// NewService creates a new notification service
func NewService(notificationRepo repository.NotificationRepository) *Service {
	return &Service{notificationRepo: notificationRepo}
}

func (s *Service) SetBroadcaster(b *socket.Broadcaster) {
	s.broadcaster = b
}

func (s *Service) send(ctx context.Context, userID, notifType, title, message string, data map[string]interface{}) error {
	if userID == "" {
		return nil // Skip if no user to notify
	}

	notification := &repository.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Read:    false,
		Data:    data,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}

	if s.broadcaster != nil {
		s.broadcaster.SendNotification(userID, map[string]interface{}{
			"id":        notification.ID,
			"type":      notification.Type,
			"title":     notification.Title,
			"message":   notification.Message,
			"data":      notification.Data,
			"read":      notification.Read,
			"createdAt": notification.CreatedAt,
		})
		s.PushUnreadCount(ctx, userID)
	}
	return nil
}

// ============================================
// Application Notifications
// ============================================

func (s *Service) SendApplicationReceived(ctx context.Context, clientID, projectTitle, projectID, applicationID string) error {
	return s.send(ctx, clientID, TypeApplicationReceived,
		"New Application",
		fmt.Sprintf("A contributor applied to your project: %s", projectTitle),
		map[string]interface{}{
			"projectId":     projectID,
			"applicationId": applicationID,
		})
}

func (s *Service) SendApplicationAccepted(ctx context.Context, applicantID, projectTitle, projectID string) error {
	return s.send(ctx, applicantID, TypeApplicationAccepted,
		"Application Accepted",
		fmt.Sprintf("You were accepted for project: %s", projectTitle),
		map[string]interface{}{"projectId": projectID})
}

func (s *Service) SendApplicationRejected(ctx context.Context, applicantID, projectTitle, projectID, reason string) error {
	return s.send(ctx, applicantID, TypeApplicationRejected,
		"Application Rejected",
		fmt.Sprintf("Your application for %s was rejected: %s", projectTitle, reason),
		map[string]interface{}{"projectId": projectID})
}

func (s *Service) SendInterviewScheduled(ctx context.Context, applicantID, projectTitle, interviewID string) error {
	return s.send(ctx, applicantID, TypeInterviewScheduled,
		"Interview Scheduled",
		fmt.Sprintf("An interview was scheduled for your application to %s", projectTitle),
		map[string]interface{}{"interviewId": interviewID})
}

// ============================================
// Project Workflow Notifications
// ============================================

func (s *Service) SendCompletionRequested(ctx context.Context, clientID, projectTitle, projectID string) error {
	return s.send(ctx, clientID, TypeCompletionRequested,
		"Completion Requested",
		fmt.Sprintf("The contributor marked %s as complete and awaits your review", projectTitle),
		map[string]interface{}{"projectId": projectID})
}

func (s *Service) SendChangesRequested(ctx context.Context, contributorID, projectTitle, projectID string) error {
	return s.send(ctx, contributorID, TypeChangesRequested,
		"Changes Requested",
		fmt.Sprintf("The client requested modifications on %s", projectTitle),
		map[string]interface{}{"projectId": projectID})
}

func (s *Service) SendCompletionRejected(ctx context.Context, contributorID, projectTitle, projectID, reason string) error {
	return s.send(ctx, contributorID, TypeCompletionRejected,
		"Completion Rejected",
		fmt.Sprintf("The client rejected completion of %s: %s", projectTitle, reason),
		map[string]interface{}{"projectId": projectID})
}

func (s *Service) SendPaymentReleased(ctx context.Context, contributorID, projectTitle, projectID string) error {
	return s.send(ctx, contributorID, TypePaymentReleased,
		"Payment Released",
		fmt.Sprintf("Escrow for %s was released to you", projectTitle),
		map[string]interface{}{"projectId": projectID})
}

func (s *Service) SendProjectRefunded(ctx context.Context, clientID, projectTitle, projectID string) error {
	return s.send(ctx, clientID, TypeProjectRefunded,
		"Project Refunded",
		fmt.Sprintf("Escrow for %s was refunded to you", projectTitle),
		map[string]interface{}{"projectId": projectID})
}

func (s *Service) SendProjectCancelled(ctx context.Context, userID, projectTitle, projectID string) error {
	return s.send(ctx, userID, TypeProjectCancelled,
		"Project Cancelled",
		fmt.Sprintf("Project %s was cancelled", projectTitle),
		map[string]interface{}{"projectId": projectID})
}

func (s *Service) SendProjectSuspended(ctx context.Context, userID, projectTitle, projectID, reason string) error {
	return s.send(ctx, userID, TypeProjectSuspended,
		"Project Suspended",
		fmt.Sprintf("Project %s was suspended: %s", projectTitle, reason),
		map[string]interface{}{"projectId": projectID})
}

// ============================================
// Dispute Notifications
// ============================================

func (s *Service) SendDisputeOpened(ctx context.Context, adminID, projectTitle, disputeID string) error {
	return s.send(ctx, adminID, TypeDisputeOpened,
		"Dispute Opened",
		fmt.Sprintf("A completion dispute was opened on %s", projectTitle),
		map[string]interface{}{"disputeId": disputeID})
}

func (s *Service) SendDisputeCounterFiled(ctx context.Context, adminID, projectTitle, disputeID string) error {
	return s.send(ctx, adminID, TypeDisputeCounterFiled,
		"Counter-Statement Filed",
		fmt.Sprintf("The contributor filed a counter-statement on the %s dispute", projectTitle),
		map[string]interface{}{"disputeId": disputeID})
}

// ============================================
// Count push
// ============================================

func (s *Service) PushUnreadCount(ctx context.Context, userID string) {
	if s.broadcaster == nil {
		return
	}
	total, unread, err := s.notificationRepo.CountByUserID(ctx, userID)
	if err != nil {
		return
	}
	s.broadcaster.SendNotificationCount(userID, total, unread)
}
