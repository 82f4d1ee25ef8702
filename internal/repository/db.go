package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DBTX is the subset of sqlx satisfied by both *sqlx.DB and *sqlx.Tx, so the
// same repository code serves direct calls and unit-of-work transactions.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type sqlxUnitOfWork struct {
	db *sqlx.DB
}

func NewUnitOfWork(db *sqlx.DB) UnitOfWork {
	return &sqlxUnitOfWork{db: db}
}

func (u *sqlxUnitOfWork) WithinTx(ctx context.Context, fn func(r Repos) error) error {
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	r := Repos{
		Applications: &applicationRepository{db: tx},
		Loans:        &loanRepository{db: tx},
		Payments:     &paymentRepository{db: tx},
	}
	if err := fn(r); err != nil {
		return err
	}

	return tx.Commit()
}
