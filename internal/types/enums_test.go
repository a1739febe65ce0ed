package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValidation(t *testing.T) {
	assert.True(t, IsValidProjectStatus(ProjectPendingCompletion))
	assert.False(t, IsValidProjectStatus("archived"))

	assert.True(t, IsValidApplicationStatus(ApplicationWithdrawn))
	assert.False(t, IsValidApplicationStatus(""))

	assert.True(t, IsValidRole(RoleContributor))
	assert.False(t, IsValidRole("superuser"))
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, IsTerminalProjectStatus(ProjectCompleted))
	assert.True(t, IsTerminalProjectStatus(ProjectCancelled))
	// Pending admin review states are held, not terminal.
	assert.False(t, IsTerminalProjectStatus(ProjectPaymentPending))
	assert.False(t, IsTerminalProjectStatus(ProjectRefundPending))

	assert.True(t, IsTerminalApplicationStatus(ApplicationAccepted))
	assert.True(t, IsTerminalApplicationStatus(ApplicationRejected))
	assert.False(t, IsTerminalApplicationStatus(ApplicationShortlisted))

	assert.True(t, IsTerminalEscrowStatus(EscrowReleased))
	assert.True(t, IsTerminalEscrowStatus(EscrowRefunded))
	assert.False(t, IsTerminalEscrowStatus(EscrowReserved))
}
