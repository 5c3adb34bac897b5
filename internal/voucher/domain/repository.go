package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository methods take the caller's handle so voucher reads and writes can
// join the transaction that needs them. After creation the financial fields
// are mutated only through ApplyPayment; the sweep and cancel paths touch
// status alone.
type Repository interface {
	Get(ctx context.Context, db *gorm.DB, id snowflake.ID) (*FeeVoucher, error)
	// GetForUpdate locks the voucher row for the duration of the caller's
	// transaction.
	GetForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*FeeVoucher, error)
	FindByPeriod(ctx context.Context, db *gorm.DB, studentID snowflake.ID, month, year int) (*FeeVoucher, error)
	// ListOutstanding returns the student's UNPAID/PARTIAL/OVERDUE vouchers,
	// most recent billing period first.
	ListOutstanding(ctx context.Context, db *gorm.DB, studentID snowflake.ID) ([]FeeVoucher, error)
	ListByStudent(ctx context.Context, db *gorm.DB, studentID snowflake.ID) ([]FeeVoucher, error)
	ListItems(ctx context.Context, db *gorm.DB, voucherID snowflake.ID) ([]FeeVoucherItem, error)
	// Insert persists a voucher; returns false without error when a voucher
	// for the same (student, month, year) already exists.
	Insert(ctx context.Context, db *gorm.DB, voucher *FeeVoucher) (bool, error)
	InsertItem(ctx context.Context, db *gorm.DB, item *FeeVoucherItem) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status VoucherStatus, now time.Time) error
	// ApplyPayment writes the recomputed running totals. The guard on the
	// current balance makes a lost update impossible even without the row
	// lock; zero affected rows means the precondition no longer holds.
	ApplyPayment(ctx context.Context, db *gorm.DB, id snowflake.ID, paidAmount, balanceDue int64, status VoucherStatus, expectedBalance int64, now time.Time) (int64, error)
	SweepOverdue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}
