package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openlend/loan-engine/internal/domain"
)

type loanRepository struct {
	db DBTX
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `
	id, loan_number, application_id, applicant_id,
	principal_amount, annual_rate, term_months, payment_frequency, start_date, maturity_date,
	status, current_balance, total_paid, total_interest_paid, total_principal_paid,
	next_payment_date, next_payment_amount, last_payment_date, last_payment_amount,
	assigned_departments, assigned_staff, notes, schedule,
	created_at, updated_at
`

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (
			id, loan_number, application_id, applicant_id,
			principal_amount, annual_rate, term_months, payment_frequency, start_date, maturity_date,
			status, current_balance, total_paid, total_interest_paid, total_principal_paid,
			next_payment_date, next_payment_amount, last_payment_date, last_payment_amount,
			assigned_departments, assigned_staff, notes, schedule,
			created_at, updated_at
		)
		VALUES (
			:id, :loan_number, :application_id, :applicant_id,
			:principal_amount, :annual_rate, :term_months, :payment_frequency, :start_date, :maturity_date,
			:status, :current_balance, :total_paid, :total_interest_paid, :total_principal_paid,
			:next_payment_date, :next_payment_amount, :last_payment_date, :last_payment_amount,
			:assigned_departments, :assigned_staff, :notes, :schedule,
			:created_at, :updated_at
		)
	`

	_, err := sqlx.NamedExecContext(ctx, r.db, query, loan)
	return err
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, id); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE application_id = $1`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, applicationID); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	loan.UpdatedAt = time.Now()

	query := `
		UPDATE loans
		SET status = :status,
			current_balance = :current_balance,
			total_paid = :total_paid,
			total_interest_paid = :total_interest_paid,
			total_principal_paid = :total_principal_paid,
			next_payment_date = :next_payment_date,
			next_payment_amount = :next_payment_amount,
			last_payment_date = :last_payment_date,
			last_payment_amount = :last_payment_amount,
			assigned_departments = :assigned_departments,
			assigned_staff = :assigned_staff,
			notes = :notes,
			schedule = :schedule,
			updated_at = :updated_at
		WHERE id = :id
	`

	_, err := sqlx.NamedExecContext(ctx, r.db, query, loan)
	return err
}

func (r *loanRepository) List(ctx context.Context) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY created_at DESC`

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, query); err != nil {
		return nil, err
	}

	return loans, nil
}
