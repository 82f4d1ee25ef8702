package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openlend/loan-engine/internal/domain"
)

type applicationRepository struct {
	db DBTX
}

func NewApplicationRepository(db *sqlx.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	query := `
		INSERT INTO applications (
			id, application_number, applicant_id, status,
			requested_amount, annual_income, net_worth, tax_bracket, risk_tolerance,
			submitted_at, reviewed_at, approved_at, rejected_at, funded_at, closed_at,
			created_at, updated_at
		)
		VALUES (
			:id, :application_number, :applicant_id, :status,
			:requested_amount, :annual_income, :net_worth, :tax_bracket, :risk_tolerance,
			:submitted_at, :reviewed_at, :approved_at, :rejected_at, :funded_at, :closed_at,
			:created_at, :updated_at
		)
	`

	_, err := sqlx.NamedExecContext(ctx, r.db, query, app)
	return err
}

const applicationColumns = `
	id, application_number, applicant_id, status,
	requested_amount, annual_income, net_worth, tax_bracket, risk_tolerance,
	submitted_at, reviewed_at, approved_at, rejected_at, funded_at, closed_at,
	created_at, updated_at
`

func (r *applicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	var app domain.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}

	return &app, nil
}

func (r *applicationRepository) Update(ctx context.Context, app *domain.Application) error {
	app.UpdatedAt = time.Now()

	query := `
		UPDATE applications
		SET status = :status,
			requested_amount = :requested_amount,
			annual_income = :annual_income,
			net_worth = :net_worth,
			tax_bracket = :tax_bracket,
			risk_tolerance = :risk_tolerance,
			submitted_at = :submitted_at,
			reviewed_at = :reviewed_at,
			approved_at = :approved_at,
			rejected_at = :rejected_at,
			funded_at = :funded_at,
			closed_at = :closed_at,
			updated_at = :updated_at
		WHERE id = :id
	`

	_, err := sqlx.NamedExecContext(ctx, r.db, query, app)
	return err
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE 1=1`
	args := []interface{}{}

	if filter.ApplicantID != nil {
		args = append(args, *filter.ApplicantID)
		query += ` AND applicant_id = $1`
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		if len(args) == 1 {
			query += ` AND status = $1`
		} else {
			query += ` AND status = $2`
		}
	}
	query += ` ORDER BY created_at DESC`

	var apps []*domain.Application
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, err
	}

	return apps, nil
}
