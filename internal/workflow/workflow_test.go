package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlend/loan-engine/internal/domain"
)

func newDraft() *domain.Application {
	return &domain.Application{
		Status:    domain.ApplicationStatusDraft,
		CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestApply_StampsOnFirstArrival(t *testing.T) {
	app := newDraft()
	t1 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	submitted, err := Apply(app, domain.ApplicationStatusSubmitted, t1)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)
	assert.Equal(t, t1, *submitted.SubmittedAt)
	assert.Nil(t, submitted.ReviewedAt)

	// Re-applying the same status is a no-op on the stamp.
	t2 := t1.Add(time.Hour)
	again, err := Apply(submitted, domain.ApplicationStatusSubmitted, t2)
	require.NoError(t, err)
	assert.Equal(t, t1, *again.SubmittedAt)

	// Moving on stamps the next field and leaves the previous one alone.
	t3 := t1.Add(2 * time.Hour)
	reviewed, err := Apply(again, domain.ApplicationStatusUnderReview, t3)
	require.NoError(t, err)
	require.NotNil(t, reviewed.ReviewedAt)
	assert.Equal(t, t3, *reviewed.ReviewedAt)
	assert.Equal(t, t1, *reviewed.SubmittedAt)
}

func TestApply_ReenteringStatusKeepsOriginalStamp(t *testing.T) {
	app := newDraft()
	t1 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	submitted, err := Apply(app, domain.ApplicationStatusSubmitted, t1)
	require.NoError(t, err)
	reviewed, err := Apply(submitted, domain.ApplicationStatusUnderReview, t1.Add(time.Hour))
	require.NoError(t, err)

	// Bounce back to submitted and forward again: both stamps survive.
	back, err := Apply(reviewed, domain.ApplicationStatusSubmitted, t1.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, t1, *back.SubmittedAt)

	forward, err := Apply(back, domain.ApplicationStatusUnderReview, t1.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, t1.Add(time.Hour), *forward.ReviewedAt)
}

func TestApply_SkippingReviewLeavesReviewedAtNull(t *testing.T) {
	app := newDraft()
	t1 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	submitted, err := Apply(app, domain.ApplicationStatusSubmitted, t1)
	require.NoError(t, err)

	// Approving straight from submitted is allowed and stamps only
	// approved_at.
	approved, err := Apply(submitted, domain.ApplicationStatusApproved, t1.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.Nil(t, approved.ReviewedAt)
	assert.Equal(t, t1, *approved.SubmittedAt)
}

func TestApply_ClosedAndCancelledShareStamp(t *testing.T) {
	app := newDraft()
	now := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	cancelled, err := Apply(app, domain.ApplicationStatusCancelled, now)
	require.NoError(t, err)
	require.NotNil(t, cancelled.ClosedAt)
	assert.Equal(t, now, *cancelled.ClosedAt)

	// A later close keeps the original closed_at.
	closed, err := Apply(cancelled, domain.ApplicationStatusClosed, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, now, *closed.ClosedAt)
}

func TestApply_UnknownStatus(t *testing.T) {
	_, err := Apply(newDraft(), "archived", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	app := newDraft()
	_, err := Apply(app, domain.ApplicationStatusSubmitted, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusDraft, app.Status)
	assert.Nil(t, app.SubmittedAt)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(domain.ApplicationStatusDraft, domain.ApplicationStatusSubmitted))
	assert.True(t, CanTransition(domain.ApplicationStatusSubmitted, domain.ApplicationStatusApproved))
	assert.True(t, CanTransition(domain.ApplicationStatusUnderReview, domain.ApplicationStatusRejected))
	assert.False(t, CanTransition(domain.ApplicationStatusFunded, domain.ApplicationStatusRejected))
	assert.False(t, CanTransition(domain.ApplicationStatusDraft, domain.ApplicationStatusFunded))
}
