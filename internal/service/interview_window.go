package service

import (
	"time"

	"github.com/skillbridge/skillbridge-backend/internal/types"
)

// joinTailMinutes pads the window past the scheduled end so a running call is
// not cut off at the exact duration mark.
const joinTailMinutes = 15

// WindowState projects an interview's joinability from wall-clock time. It is
// a pure read-time computation: "active" is never stored, callers recompute it
// on every poll. joinLead is how far before scheduledAt the caller may
// connect; client and applicant views use different leads.
func WindowState(now, scheduledAt time.Time, durationMinutes int, explicitStatus string, joinLead time.Duration) string {
	switch explicitStatus {
	case types.InterviewCompleted:
		return types.WindowCompleted
	case types.InterviewCancelled:
		return types.WindowCancelled
	}

	joinStart := scheduledAt.Add(-joinLead)
	joinEnd := scheduledAt.Add(time.Duration(durationMinutes+joinTailMinutes) * time.Minute)

	switch {
	case now.Before(joinStart):
		return types.WindowUpcoming
	case now.After(joinEnd):
		return types.WindowCompleted
	default:
		return types.WindowActive
	}
}
