package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openlend/loan-engine/internal/domain"
)

type paymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `
	id, loan_id, payment_number,
	scheduled_date, due_date, paid_date,
	amount_due, principal_amount, interest_amount, amount_paid, late_fee, penalty_amount,
	status, method, reference,
	created_at, updated_at
`

const paymentInsert = `
	INSERT INTO payments (
		id, loan_id, payment_number,
		scheduled_date, due_date, paid_date,
		amount_due, principal_amount, interest_amount, amount_paid, late_fee, penalty_amount,
		status, method, reference,
		created_at, updated_at
	)
	VALUES (
		:id, :loan_id, :payment_number,
		:scheduled_date, :due_date, :paid_date,
		:amount_due, :principal_amount, :interest_amount, :amount_paid, :late_fee, :penalty_amount,
		:status, :method, :reference,
		:created_at, :updated_at
	)
`

func (r *paymentRepository) CreateBatch(ctx context.Context, payments []*domain.Payment) error {
	for _, payment := range payments {
		if _, err := sqlx.NamedExecContext(ctx, r.db, paymentInsert, payment); err != nil {
			return err
		}
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var payment domain.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE loan_id = $1 ORDER BY payment_number`

	var payments []*domain.Payment
	if err := r.db.SelectContext(ctx, &payments, query, loanID); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	payment.UpdatedAt = time.Now()

	query := `
		UPDATE payments
		SET paid_date = :paid_date,
			amount_paid = :amount_paid,
			late_fee = :late_fee,
			penalty_amount = :penalty_amount,
			status = :status,
			method = :method,
			reference = :reference,
			updated_at = :updated_at
		WHERE id = :id
	`

	_, err := sqlx.NamedExecContext(ctx, r.db, query, payment)
	return err
}

func (r *paymentRepository) List(ctx context.Context) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY loan_id, payment_number`

	var payments []*domain.Payment
	if err := r.db.SelectContext(ctx, &payments, query); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) CountByLoanID(ctx context.Context, loanID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM payments WHERE loan_id = $1`, loanID); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *paymentRepository) GetDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status IN ('pending', 'scheduled') AND due_date >= $1 AND due_date < $2
		ORDER BY due_date, payment_number
	`

	var payments []*domain.Payment
	if err := r.db.SelectContext(ctx, &payments, query, from, to); err != nil {
		return nil, err
	}

	return payments, nil
}
