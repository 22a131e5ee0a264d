package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type opKind int

const (
	opCreate opKind = iota
	opSave
	opDelete
)

type op struct {
	kind  opKind
	value interface{}
}

// Batch collects the writes of one engine operation. Nothing touches the
// database until the batch is handed to UnitOfWork.Complete.
type Batch struct {
	ops []op
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Create stages an insert. Associations set on value are inserted with it.
func (b *Batch) Create(value interface{}) {
	b.ops = append(b.ops, op{kind: opCreate, value: value})
}

// Save stages an upsert of value's own columns; associations are left alone.
func (b *Batch) Save(value interface{}) {
	b.ops = append(b.ops, op{kind: opSave, value: value})
}

// Delete stages a delete by primary key.
func (b *Batch) Delete(value interface{}) {
	b.ops = append(b.ops, op{kind: opDelete, value: value})
}

// Len returns the number of staged writes.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Empty reports whether nothing is staged.
func (b *Batch) Empty() bool {
	return len(b.ops) == 0
}

// UnitOfWork commits a batch atomically.
type UnitOfWork interface {
	Complete(ctx context.Context, batch *Batch) error
}

// GormUnitOfWork applies batches inside a single GORM transaction.
type GormUnitOfWork struct {
	db *DB
}

// NewUnitOfWork creates a unit of work over db.
func NewUnitOfWork(db *DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Complete applies every staged write in order; all of them commit or none do.
func (u *GormUnitOfWork) Complete(ctx context.Context, batch *Batch) error {
	if batch.Empty() {
		return nil
	}

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, o := range batch.ops {
			var result *gorm.DB
			switch o.kind {
			case opCreate:
				result = tx.Create(o.value)
			case opSave:
				result = tx.Omit(clause.Associations).Save(o.value)
			case opDelete:
				result = tx.Delete(o.value)
			}
			if result.Error != nil {
				return fmt.Errorf("write %d of %d: %w", i+1, len(batch.ops), result.Error)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to complete unit of work: %w", err)
	}
	return nil
}
