package usecase

import (
	"context"

	"github.com/ordermgmt/ordersvc/internal/domain"
)

// found turns a repository NotFound into an absent result.
func found[T any](v *T, err error) (*T, error) {
	if domain.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func inTx(ctx context.Context, tx domain.Transactor, fn func(ctx context.Context) error) error {
	if tx == nil {
		return fn(ctx)
	}
	return tx.WithinTransaction(ctx, fn)
}
