package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/prog-nayeem/appointment-scheduler/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes the scheduler reacts to.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

type txKey struct{}

// Conn returns the transaction stored in ctx, or db bound to ctx when no
// transaction is running.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

type gormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) repository.Transactor {
	return &gormTransactor{db: db}
}

// WithinTransaction runs fn in a SERIALIZABLE transaction. Serialization
// failures and deadlocks come back wrapped in repository.ErrTransientConflict.
func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	if IsTransient(err) && !errors.Is(err, repository.ErrTransientConflict) {
		return fmt.Errorf("%w: %v", repository.ErrTransientConflict, err)
	}
	return err
}

// IsUniqueViolation reports a unique_violation, optionally limited to
// constraints whose name contains constraintName.
func IsUniqueViolation(err error, constraintName string) bool {
	return hasCode(err, codeUniqueViolation, constraintName)
}

// IsTransient reports a serialization failure or a detected deadlock.
func IsTransient(err error) bool {
	return hasCode(err, codeSerializationFailure, "") || hasCode(err, codeDeadlockDetected, "")
}

func hasCode(err error, code, constraintName string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraintName == "" || strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName))
}
