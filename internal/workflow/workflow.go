package workflow

import (
	"time"

	"github.com/openlend/loan-engine/internal/domain"
	engineErrors "github.com/openlend/loan-engine/pkg/errors"
)

// Apply computes the application snapshot after a status change. The first
// arrival at a status stamps its timestamp; re-entering a status never
// overwrites an existing stamp, which keeps the timeline monotonic.
//
// Any status may be set from any other. The portal has always allowed staff
// to jump statuses (approve straight from submitted, reopen a rejection),
// so the graph stays unvalidated on purpose; CanTransition is advisory only.
func Apply(app *domain.Application, newStatus string, now time.Time) (*domain.Application, error) {
	if !domain.ValidApplicationStatus(newStatus) {
		return nil, engineErrors.WrapValidation("status", "unknown application status")
	}

	updated := *app
	if newStatus == app.Status {
		return &updated, nil
	}

	updated.Status = newStatus
	updated.UpdatedAt = now

	switch newStatus {
	case domain.ApplicationStatusSubmitted:
		stamp(&updated.SubmittedAt, now)
	case domain.ApplicationStatusUnderReview:
		stamp(&updated.ReviewedAt, now)
	case domain.ApplicationStatusApproved:
		stamp(&updated.ApprovedAt, now)
	case domain.ApplicationStatusRejected:
		stamp(&updated.RejectedAt, now)
	case domain.ApplicationStatusFunded:
		stamp(&updated.FundedAt, now)
	case domain.ApplicationStatusClosed, domain.ApplicationStatusCancelled:
		stamp(&updated.ClosedAt, now)
	}

	return &updated, nil
}

func stamp(field **time.Time, now time.Time) {
	if *field == nil {
		t := now
		*field = &t
	}
}

// forwardPath is the natural progression; side branches to rejected and
// cancelled are reachable from every pre-terminal status.
var forwardPath = map[string][]string{
	domain.ApplicationStatusDraft:              {domain.ApplicationStatusSubmitted},
	domain.ApplicationStatusSubmitted:          {domain.ApplicationStatusUnderReview, domain.ApplicationStatusApproved},
	domain.ApplicationStatusUnderReview:        {domain.ApplicationStatusDocumentCollection, domain.ApplicationStatusApproved},
	domain.ApplicationStatusDocumentCollection: {domain.ApplicationStatusApproved},
	domain.ApplicationStatusApproved:           {domain.ApplicationStatusFunded},
	domain.ApplicationStatusFunded:             {domain.ApplicationStatusClosed},
}

// CanTransition reports whether moving from one status to another follows
// the natural workflow. Apply does not enforce this; callers that want a
// confirmation prompt for unusual jumps can consult it.
func CanTransition(from, to string) bool {
	if to == domain.ApplicationStatusRejected || to == domain.ApplicationStatusCancelled {
		switch from {
		case domain.ApplicationStatusRejected, domain.ApplicationStatusCancelled,
			domain.ApplicationStatusFunded, domain.ApplicationStatusClosed:
			return false
		}
		return true
	}
	for _, next := range forwardPath[from] {
		if next == to {
			return true
		}
	}
	return false
}
