// Package domain contains persistence models and contracts for fee vouchers.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// VoucherStatus represents voucher lifecycle states.
type VoucherStatus string

const (
	VoucherStatusUnpaid    VoucherStatus = "UNPAID"
	VoucherStatusPartial   VoucherStatus = "PARTIAL"
	VoucherStatusPaid      VoucherStatus = "PAID"
	VoucherStatusOverdue   VoucherStatus = "OVERDUE"
	VoucherStatusCancelled VoucherStatus = "CANCELLED"
	VoucherStatusWaived    VoucherStatus = "WAIVED"
)

// Payable reports whether a payment may be applied. OVERDUE behaves like
// UNPAID/PARTIAL for payment eligibility.
func (s VoucherStatus) Payable() bool {
	switch s {
	case VoucherStatusUnpaid, VoucherStatusPartial, VoucherStatusOverdue:
		return true
	}
	return false
}

// Outstanding reports whether a voucher still carries collectible debt, used
// when computing the informational carried balance.
func (s VoucherStatus) Outstanding() bool {
	return s.Payable()
}

// FeeType tags a voucher line item.
type FeeType string

const (
	FeeTypeMonthly   FeeType = "MONTHLY_FEE"
	FeeTypeAdmission FeeType = "ADMISSION_FEE"
	FeeTypeExam      FeeType = "EXAM_FEE"
	FeeTypeTransport FeeType = "TRANSPORT_FEE"
	FeeTypeOther     FeeType = "OTHER"
)

func (t FeeType) Valid() bool {
	switch t {
	case FeeTypeMonthly, FeeTypeAdmission, FeeTypeExam, FeeTypeTransport, FeeTypeOther:
		return true
	}
	return false
}

// FeeVoucher is the billing document for one student for one billing period.
//
// PreviousBalance is a reference figure carried from the student's
// outstanding vouchers at issuance time. It is shown on the printed voucher
// but is never part of TotalAmount: each period is billed on its own, and
// old debt stays collectible on the voucher that created it.
type FeeVoucher struct {
	ID                snowflake.ID  `gorm:"primaryKey" json:"id"`
	VoucherNumber     string        `gorm:"type:text;not null;uniqueIndex" json:"voucher_number"`
	StudentID         snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_voucher_student_period" json:"student_id"`
	Month             int           `gorm:"not null;uniqueIndex:ux_voucher_student_period" json:"month"`
	Year              int           `gorm:"not null;uniqueIndex:ux_voucher_student_period" json:"year"`
	Subtotal          int64         `gorm:"not null;default:0" json:"subtotal"`
	PreviousBalance   int64         `gorm:"not null;default:0" json:"previous_balance"`
	TotalAmount       int64         `gorm:"not null;default:0" json:"total_amount"`
	PaidAmount        int64         `gorm:"not null;default:0" json:"paid_amount"`
	BalanceDue        int64         `gorm:"not null;default:0" json:"balance_due"`
	Status            VoucherStatus `gorm:"type:text;not null;default:'UNPAID';index" json:"status"`
	PreviousVoucherID *snowflake.ID `gorm:"index" json:"previous_voucher_id,omitempty"`
	DueDate           time.Time     `gorm:"not null;index" json:"due_date"`
	CreatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (FeeVoucher) TableName() string { return "fee_vouchers" }

// FeeVoucherItem is one priced line on a voucher; immutable once created.
// The sum of a voucher's item amounts equals its subtotal.
type FeeVoucherItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	VoucherID   snowflake.ID `gorm:"not null;index" json:"voucher_id"`
	FeeType     FeeType      `gorm:"type:text;not null" json:"fee_type"`
	Description string       `gorm:"type:text;not null;default:''" json:"description"`
	Amount      int64        `gorm:"not null" json:"amount"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (FeeVoucherItem) TableName() string { return "fee_voucher_items" }
