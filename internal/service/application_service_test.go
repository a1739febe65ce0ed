package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/types"
)

func applyInput() ApplyInput {
	return ApplyInput{
		CoverLetter:      "I have shipped several Go and Postgres backends for marketplace products",
		ProposedBudget:   decimal.NewFromInt(900),
		ProposedDuration: "3 weeks",
	}
}

func (e *testEnv) apply(t *testing.T, projectID, applicantID string) *repository.Application {
	t.Helper()
	app, err := e.services.Application.Apply(context.Background(), projectID, applicantID, applyInput())
	require.NoError(t, err)
	return app
}

func TestApplyToOpenProject(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	contributor := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)
	app := env.apply(t, project.ID, contributor.ID)

	assert.Equal(t, types.ApplicationPending, app.Status)
	assert.Equal(t, contributor.ID, app.ApplicantID)

	got, err := env.services.Project.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ApplicationsCount)
}

func TestApplyTwiceIsConflict(t *testing.T) {
	env := newTestEnv()
	client := env.addUser(types.RoleClient)
	contributor := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)
	env.apply(t, project.ID, contributor.ID)

	_, err := env.services.Application.Apply(context.Background(), project.ID, contributor.ID, applyInput())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestApplyToOwnProjectForbidden(t *testing.T) {
	env := newTestEnv()
	client := env.addUser(types.RoleClient)

	project := env.fundProject(client.ID, 1500)

	_, err := env.services.Application.Apply(context.Background(), project.ID, client.ID, applyInput())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestApplyToNonOpenProjectIsConflict(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	winner := env.addUser(types.RoleContributor)
	late := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)
	env.moveToInProgress(t, project.ID, winner.ID)

	_, err := env.services.Application.Apply(ctx, project.ID, late.ID, applyInput())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestWithdrawFreesSlotForReapply(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	contributor := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)
	app := env.apply(t, project.ID, contributor.ID)

	withdrawn, err := env.services.Application.Withdraw(ctx, app.ID, contributor.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationWithdrawn, withdrawn.Status)

	// Withdraw again is a no-op.
	again, err := env.services.Application.Withdraw(ctx, app.ID, contributor.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationWithdrawn, again.Status)

	// The slot is free for a fresh submission.
	fresh := env.apply(t, project.ID, contributor.ID)
	assert.NotEqual(t, app.ID, fresh.ID)
	assert.Equal(t, types.ApplicationPending, fresh.Status)
}

func TestWithdrawOnlyByApplicant(t *testing.T) {
	env := newTestEnv()
	client := env.addUser(types.RoleClient)
	contributor := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)
	app := env.apply(t, project.ID, contributor.ID)

	_, err := env.services.Application.Withdraw(context.Background(), app.ID, client.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPipelineOrdering(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	contributor := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)
	app := env.apply(t, project.ID, contributor.ID)

	// Shortlist straight from pending is allowed.
	short, err := env.services.Application.Shortlist(ctx, app.ID, client.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationShortlisted, short.Status)

	// Reviewing a shortlisted application walks the pipeline backward.
	_, err = env.services.Application.MarkReviewed(ctx, app.ID, client.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMarkReviewedThenShortlist(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	contributor := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)
	app := env.apply(t, project.ID, contributor.ID)

	reviewed, err := env.services.Application.MarkReviewed(ctx, app.ID, client.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationReviewed, reviewed.Status)

	short, err := env.services.Application.Shortlist(ctx, app.ID, client.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationShortlisted, short.Status)
}

func TestClientActionsForbiddenForStranger(t *testing.T) {
	env := newTestEnv()
	client := env.addUser(types.RoleClient)
	contributor := env.addUser(types.RoleContributor)
	stranger := env.addUser(types.RoleClient)

	project := env.fundProject(client.ID, 1500)
	app := env.apply(t, project.ID, contributor.ID)

	_, err := env.services.Application.Shortlist(context.Background(), app.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAcceptRejectsSiblingsAndStartsProject(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	winner := env.addUser(types.RoleContributor)
	loserA := env.addUser(types.RoleContributor)
	loserB := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)
	winnerApp := env.apply(t, project.ID, winner.ID)
	loserAppA := env.apply(t, project.ID, loserA.ID)
	loserAppB := env.apply(t, project.ID, loserB.ID)

	accepted, err := env.services.Application.Accept(ctx, winnerApp.ID, client.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationAccepted, accepted.Status)

	got, err := env.services.Project.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ProjectInProgress, got.Status)
	require.NotNil(t, got.AcceptedContributorID)
	assert.Equal(t, winner.ID, *got.AcceptedContributorID)

	for _, id := range []string{loserAppA.ID, loserAppB.ID} {
		sibling, err := env.services.Application.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, types.ApplicationRejected, sibling.Status)
		require.NotNil(t, sibling.RejectionReason)
		assert.Equal(t, "position filled", *sibling.RejectionReason)
	}
}

func TestAcceptIsIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	winner := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)
	app := env.apply(t, project.ID, winner.ID)

	first, err := env.services.Application.Accept(ctx, app.ID, client.ID)
	require.NoError(t, err)
	second, err := env.services.Application.Accept(ctx, app.ID, client.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, types.ApplicationAccepted, second.Status)

	got, err := env.services.Project.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
}

func TestSecondAcceptLosesAtProjectGate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	winner := env.addUser(types.RoleContributor)
	runnerUp := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)
	winnerApp := env.apply(t, project.ID, winner.ID)
	runnerUpApp := env.apply(t, project.ID, runnerUp.ID)

	_, err := env.services.Application.Accept(ctx, winnerApp.ID, client.ID)
	require.NoError(t, err)

	// The sibling was bulk-rejected, so a later accept of it is a conflict.
	_, err = env.services.Application.Accept(ctx, runnerUpApp.ID, client.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRejectWithReason(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	contributor := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)
	app := env.apply(t, project.ID, contributor.ID)

	rejected, err := env.services.Application.Reject(ctx, app.ID, client.ID, "budget mismatch")
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "budget mismatch", *rejected.RejectionReason)

	// Rejecting again is a no-op.
	again, err := env.services.Application.Reject(ctx, app.ID, client.ID, "")
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationRejected, again.Status)
}

func TestWithdrawAcceptedApplicationIsConflict(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	winner := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)
	app := env.apply(t, project.ID, winner.ID)
	_, err := env.services.Application.Accept(ctx, app.ID, client.ID)
	require.NoError(t, err)

	_, err = env.services.Application.Withdraw(ctx, app.ID, winner.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestWithdrawRejectedApplicationIsConflict(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	contributor := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)
	app := env.apply(t, project.ID, contributor.ID)

	_, err := env.services.Application.Reject(ctx, app.ID, client.ID, "budget mismatch")
	require.NoError(t, err)

	// A rejection is final. Withdrawing it would reopen the application
	// slot, so the rejected row stays put.
	_, err = env.services.Application.Withdraw(ctx, app.ID, contributor.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.services.Application.Apply(ctx, project.ID, contributor.ID, applyInput())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestApplyShortCoverLetter(t *testing.T) {
	env := newTestEnv()
	client := env.addUser(types.RoleClient)
	contributor := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)

	input := applyInput()
	input.CoverLetter = "Pick me, I can start today"
	_, err := env.services.Application.Apply(context.Background(), project.ID, contributor.ID, input)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListByProjectIsClientOnly(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	client := env.addUser(types.RoleClient)
	contributor := env.addUser(types.RoleContributor)

	project := env.fundProject(client.ID, 1500)
	env.apply(t, project.ID, contributor.ID)

	apps, err := env.services.Application.ListByProject(ctx, project.ID, client.ID, types.RoleClient)
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	_, err = env.services.Application.ListByProject(ctx, project.ID, contributor.ID, types.RoleContributor)
	assert.ErrorIs(t, err, ErrForbidden)
}
