package mocks

import (
	"context"

	"github.com/skillquest/skillquest/internal/repository"
)

// CountingUnitOfWork wraps a real unit of work and counts commits
type CountingUnitOfWork struct {
	Inner     repository.UnitOfWork
	Completes int
	LastSize  int
	Err       error
}

// NewCountingUnitOfWork wraps inner
func NewCountingUnitOfWork(inner repository.UnitOfWork) *CountingUnitOfWork {
	return &CountingUnitOfWork{Inner: inner}
}

// Complete counts the call, then returns Err if set or delegates to Inner
func (u *CountingUnitOfWork) Complete(ctx context.Context, batch *repository.Batch) error {
	u.Completes++
	u.LastSize = batch.Len()
	if u.Err != nil {
		return u.Err
	}
	return u.Inner.Complete(ctx, batch)
}
