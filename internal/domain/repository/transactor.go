package repository

import "context"

// Transactor runs fn inside one serializable transaction. Repositories called
// with the context passed to fn take part in that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
