package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Outcome is the per-student result of a generation request. Duplicate and
// no-fee outcomes are normal results for a batch caller, not errors.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeExists  Outcome = "exists"
	OutcomeNoFees  Outcome = "no_fees"
	OutcomeError   Outcome = "error"
)

// LineItem is an explicit fee line supplied by the caller, e.g. admission
// with selected one-off fees.
type LineItem struct {
	FeeType     FeeType `json:"fee_type"`
	Description string  `json:"description"`
	Amount      int64   `json:"amount"`
}

type IssueRequest struct {
	StudentID snowflake.ID
	Month     int
	Year      int
	// Items overrides the standing monthly fee when non-empty.
	Items []LineItem
	// DueDate defaults to the configured due day of the billing month.
	DueDate *time.Time
	Actor   string
}

type IssueResult struct {
	Voucher *FeeVoucher
	Items   []FeeVoucherItem
	Outcome Outcome
}

type BatchRequest struct {
	// StudentIDs limits the run to specific students; when empty the run
	// covers active students, optionally scoped to Class.
	StudentIDs []snowflake.ID
	Class      string
	Month      int
	Year       int
	Actor      string
}

type StudentOutcome struct {
	StudentID snowflake.ID `json:"student_id"`
	Outcome   Outcome      `json:"outcome"`
	VoucherID snowflake.ID `json:"voucher_id,omitempty"`
	Error     string       `json:"error,omitempty"`
}

type BatchSummary struct {
	Created int `json:"created"`
	Exists  int `json:"exists"`
	NoFees  int `json:"no_fees"`
	Errored int `json:"errored"`
}

type BatchResult struct {
	Summary  BatchSummary     `json:"summary"`
	Outcomes []StudentOutcome `json:"outcomes"`
}

type Service interface {
	// Issue creates the voucher for (student, month, year), or returns the
	// existing one with OutcomeExists.
	Issue(ctx context.Context, req IssueRequest) (IssueResult, error)
	// IssueBatch processes each student independently; one student's
	// failure never aborts the run.
	IssueBatch(ctx context.Context, req BatchRequest) (BatchResult, error)
	GetByID(ctx context.Context, id snowflake.ID) (FeeVoucher, []FeeVoucherItem, error)
	ListByStudent(ctx context.Context, studentID snowflake.ID) ([]FeeVoucher, error)
	Cancel(ctx context.Context, id snowflake.ID, actor, reason string) error
	Waive(ctx context.Context, id snowflake.ID, actor, reason string) error
	// SweepOverdue marks past-due UNPAID/PARTIAL vouchers OVERDUE. Status
	// only: amounts are untouched and the voucher stays payable.
	SweepOverdue(ctx context.Context, now time.Time) (int64, error)
}

var (
	ErrVoucherNotFound = errors.New("voucher_not_found")
	ErrNoFeeSchedule   = errors.New("no_fee_schedule")
	ErrInvalidPeriod   = errors.New("invalid_billing_period")
	ErrInvalidItem     = errors.New("invalid_line_item")
	ErrNotCancellable  = errors.New("voucher_not_cancellable")
)
