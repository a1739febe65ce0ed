package socket

import (
	"fmt"
	"time"
)

// Broadcaster provides high-level methods for broadcasting workflow events
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// ============================================
// Notification Broadcasting
// ============================================

// SendNotification sends a notification to a specific user
func (b *Broadcaster) SendNotification(userID string, notification map[string]interface{}) {
	b.hub.SendToUser(userID, MessageNotification, notification)
}

// SendNotificationCount updates notification count for a user
func (b *Broadcaster) SendNotificationCount(userID string, total, unread int) {
	b.hub.SendToUser(userID, MessageNotificationCount, map[string]interface{}{
		"total":  total,
		"unread": unread,
	})
}

// ============================================
// Workflow Event Broadcasting
// ============================================

// BroadcastProjectStatusChanged pushes a status transition to everyone
// watching the project room.
func (b *Broadcaster) BroadcastProjectStatusChanged(projectID, from, to string, at time.Time) {
	room := fmt.Sprintf("project:%s", projectID)
	b.hub.SendToRoom(room, MessageProjectStatusChanged, map[string]interface{}{
		"projectId": projectID,
		"from":      from,
		"to":        to,
		"at":        at,
	}, "")
}

// BroadcastDisputeOpened notifies the project room that a dispute exists.
func (b *Broadcaster) BroadcastDisputeOpened(projectID, reason string) {
	room := fmt.Sprintf("project:%s", projectID)
	b.hub.SendToRoom(room, MessageDisputeOpened, map[string]interface{}{
		"projectId": projectID,
		"reason":    reason,
	}, "")
}

// SendChatUnlocked tells both parties their project chat is open. Fired when
// an application is accepted.
func (b *Broadcaster) SendChatUnlocked(projectID string, userIDs ...string) {
	payload := map[string]interface{}{
		"projectId": projectID,
	}
	for _, userID := range userIDs {
		b.hub.SendToUser(userID, MessageChatUnlocked, payload)
	}
}

// SendInterviewWindowEntered tells a participant their interview is joinable.
func (b *Broadcaster) SendInterviewWindowEntered(userID, interviewID string) {
	b.hub.SendToUser(userID, MessageInterviewWindowEntered, map[string]interface{}{
		"interviewId": interviewID,
	})
}
