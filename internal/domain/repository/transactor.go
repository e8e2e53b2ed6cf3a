package repository

import "context"

// Transactor runs fn atomically. Repositories called with the ctx passed to fn
// join the same transaction; an error from fn rolls everything back.
type Transactor interface {
	Transact(ctx context.Context, fn func(ctx context.Context) error) error
}
