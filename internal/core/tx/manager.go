// Package tx declares the transaction boundary used by domain services.
// The pgx implementation lives in infrastructure/storage/postgres;
// tests use the in-memory one from auth/authtest.
package tx

import (
	"context"
)

// Manager runs fn inside a transaction carried by ctx.
// fn returning an error rolls back; nested calls join the outer transaction.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions for lookups such as profile reads.
type ReadOnlyManager interface {
	Manager

	// ReadOnly runs fn in a READ ONLY transaction; writes fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
