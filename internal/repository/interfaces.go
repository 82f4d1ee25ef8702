package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openlend/loan-engine/internal/domain"
)

// ApplicationRepository defines the interface for application data operations
type ApplicationRepository interface {
	// Create inserts a new application
	Create(ctx context.Context, app *domain.Application) error

	// GetByID retrieves an application by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error)

	// Update replaces the mutable fields of an application
	Update(ctx context.Context, app *domain.Application) error

	// List retrieves applications, optionally filtered by applicant and status
	List(ctx context.Context, filter ApplicationFilter) ([]*domain.Application, error)
}

// ApplicationFilter narrows List results; zero values mean no filtering.
type ApplicationFilter struct {
	ApplicantID *uuid.UUID
	Status      string
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create inserts a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// GetByApplicationID retrieves the loan originated from an application
	GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.Loan, error)

	// Update replaces the mutable fields of a loan
	Update(ctx context.Context, loan *domain.Loan) error

	// List retrieves all loans
	List(ctx context.Context) ([]*domain.Loan, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// CreateBatch inserts the materialized schedule rows for a loan
	CreateBatch(ctx context.Context, payments []*domain.Payment) error

	// GetByID retrieves a payment by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)

	// GetByLoanID retrieves a loan's payments ordered by payment number
	GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error)

	// Update replaces the mutable fields of a payment
	Update(ctx context.Context, payment *domain.Payment) error

	// List retrieves all payments
	List(ctx context.Context) ([]*domain.Payment, error)

	// CountByLoanID returns the number of payment rows for a loan
	CountByLoanID(ctx context.Context, loanID uuid.UUID) (int, error)

	// GetDueBetween retrieves unpaid payments with due dates in [from, to)
	GetDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Payment, error)
}

// Repos bundles transaction-scoped repositories for unit-of-work callbacks.
type Repos struct {
	Applications ApplicationRepository
	Loans        LoanRepository
	Payments     PaymentRepository
}

// UnitOfWork runs a function against repositories bound to one database
// transaction. The loan insert and its payment materialization go through
// this so a failure rolls both back.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}
