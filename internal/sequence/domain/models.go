// Package domain contains the named counter model used to mint document
// numbers.
package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Counter identifiers known to the ledger. The allocator creates a counter on
// first use, so collaborators may introduce their own scopes.
const (
	CounterVoucher = "VOUCHER"
	CounterReceipt = "RECEIPT"
	CounterSalary  = "SALARY"
)

// Sequence is a named monotonic counter. Values are allocated with the
// counter row locked, so a committed allocation is never observed twice.
type Sequence struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Value     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Sequence) TableName() string { return "sequences" }

// Repository allocates values inside the caller's transaction so a document
// insert and its number allocation commit or roll back together.
type Repository interface {
	Next(ctx context.Context, tx *gorm.DB, counterID string) (int64, error)
}

// Service allocates values in a standalone transaction.
type Service interface {
	Next(ctx context.Context, counterID string) (int64, error)
}

var (
	ErrInvalidCounter = errors.New("invalid_counter")
	ErrAllocation     = errors.New("sequence_allocation_failed")
)
