// Package domain contains the payment record and its contracts.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// PaymentMethod is how the money was received.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	MethodCheque       PaymentMethod = "CHEQUE"
	MethodCard         PaymentMethod = "CARD"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodMobileMoney, MethodCheque, MethodCard:
		return true
	}
	return false
}

// Payment is an immutable record of money received against one voucher. It
// commits in the same transaction as the voucher's balance update.
type Payment struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	VoucherID     snowflake.ID  `gorm:"not null;index" json:"voucher_id"`
	ReceiptNumber string        `gorm:"type:text;not null;uniqueIndex" json:"receipt_number"`
	Amount        int64         `gorm:"not null" json:"amount"`
	Method        PaymentMethod `gorm:"type:text;not null" json:"method"`
	RecordedBy    string        `gorm:"type:text;not null" json:"recorded_by"`
	PaidAt        time.Time     `gorm:"not null" json:"paid_at"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

type RecordRequest struct {
	VoucherID snowflake.ID
	Amount    int64
	Method    PaymentMethod
	Actor     string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	ListByVoucher(ctx context.Context, db *gorm.DB, voucherID snowflake.ID) ([]Payment, error)
	SumByVoucher(ctx context.Context, db *gorm.DB, voucherID snowflake.ID) (int64, error)
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (Payment, error)
	ListByVoucher(ctx context.Context, voucherID snowflake.ID) ([]Payment, error)
}

var (
	ErrVoucherNotFound  = errors.New("voucher_not_found")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrInvalidMethod    = errors.New("invalid_payment_method")
	ErrAlreadySettled   = errors.New("voucher_already_settled")
	ErrVoucherCancelled = errors.New("voucher_cancelled")
	ErrConcurrentUpdate = errors.New("concurrent_voucher_update")
)
