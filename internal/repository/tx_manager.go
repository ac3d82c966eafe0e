package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by lookups that matched no row.
var ErrNotFound = errors.New("record not found")

type contextKey string

const txKey contextKey = "gorm_tx"

// TransactionManager runs a function inside one database transaction. Every
// repository call made with the callback's context joins that transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &transactionManager{db: db}
}

func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

// GetDB returns the transaction bound to ctx, or rootDB when there is none.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}

// translate maps gorm's missing-row error onto ErrNotFound.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
