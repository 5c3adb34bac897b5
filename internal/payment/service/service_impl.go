package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/feeledger/internal/audit/domain"
	obsmetrics "github.com/smallbiznis/feeledger/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/feeledger/internal/payment/domain"
	seqdomain "github.com/smallbiznis/feeledger/internal/sequence/domain"
	seqformat "github.com/smallbiznis/feeledger/internal/sequence/format"
	voucherdomain "github.com/smallbiznis/feeledger/internal/voucher/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	SeqRepo     seqdomain.Repository
	VoucherRepo voucherdomain.Repository
	AuditSvc    auditdomain.Service
	Repo        paymentdomain.Repository
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	seqRepo     seqdomain.Repository
	voucherRepo voucherdomain.Repository
	auditSvc    auditdomain.Service
	repo        paymentdomain.Repository
	obsMetrics  *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		seqRepo:     p.SeqRepo,
		voucherRepo: p.VoucherRepo,
		auditSvc:    p.AuditSvc,
		repo:        p.Repo,
		obsMetrics:  p.ObsMetrics,
	}
}

// Record applies a payment against a voucher. The payment insert and the
// voucher's running totals commit in one transaction: a payment row must
// never exist without its balance update, and vice versa.
func (s *Service) Record(ctx context.Context, req paymentdomain.RecordRequest) (paymentdomain.Payment, error) {
	if !req.Method.Valid() {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidMethod
	}
	if req.Amount <= 0 {
		return paymentdomain.Payment{}, fmt.Errorf("%w: amount must be positive", paymentdomain.ErrInvalidAmount)
	}

	now := time.Now().UTC()

	var payment paymentdomain.Payment
	var resultStatus voucherdomain.VoucherStatus
	var remaining int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		voucher, err := s.voucherRepo.GetForUpdate(ctx, tx, req.VoucherID)
		if err != nil {
			return err
		}
		if voucher == nil {
			return paymentdomain.ErrVoucherNotFound
		}

		switch voucher.Status {
		case voucherdomain.VoucherStatusPaid:
			return paymentdomain.ErrAlreadySettled
		case voucherdomain.VoucherStatusCancelled, voucherdomain.VoucherStatusWaived:
			return paymentdomain.ErrVoucherCancelled
		}

		if req.Amount > voucher.BalanceDue {
			// Overpayment is rejected outright, not clipped; the caller
			// splits or corrects the amount.
			return fmt.Errorf("%w: amount exceeds remaining balance of %d", paymentdomain.ErrInvalidAmount, voucher.BalanceDue)
		}

		seq, err := s.seqRepo.Next(ctx, tx, seqdomain.CounterReceipt)
		if err != nil {
			return err
		}
		receiptNumber, err := seqformat.Number(seqdomain.CounterReceipt, now, seq)
		if err != nil {
			return err
		}

		payment = paymentdomain.Payment{
			ID:            s.genID.Generate(),
			VoucherID:     voucher.ID,
			ReceiptNumber: receiptNumber,
			Amount:        req.Amount,
			Method:        req.Method,
			RecordedBy:    req.Actor,
			PaidAt:        now,
			CreatedAt:     now,
		}
		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			return err
		}

		paidAmount := voucher.PaidAmount + req.Amount
		balanceDue := voucher.TotalAmount - paidAmount
		if balanceDue < 0 {
			balanceDue = 0
		}
		status := voucherdomain.VoucherStatusPartial
		if balanceDue == 0 {
			status = voucherdomain.VoucherStatusPaid
		}

		rows, err := s.voucherRepo.ApplyPayment(ctx, tx, voucher.ID, paidAmount, balanceDue, status, voucher.BalanceDue, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return paymentdomain.ErrConcurrentUpdate
		}

		resultStatus = status
		remaining = balanceDue
		return nil
	})
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	targetID := payment.VoucherID.String()
	_ = s.auditSvc.Log(ctx, "voucher", &targetID, "payment.recorded", req.Actor, map[string]any{
		"receipt_number":    payment.ReceiptNumber,
		"amount":            payment.Amount,
		"method":            string(payment.Method),
		"resulting_status":  string(resultStatus),
		"remaining_balance": remaining,
	})
	if s.obsMetrics != nil {
		s.obsMetrics.IncPaymentRecorded(string(payment.Method))
	}

	return payment, nil
}

func (s *Service) ListByVoucher(ctx context.Context, voucherID snowflake.ID) ([]paymentdomain.Payment, error) {
	voucher, err := s.voucherRepo.Get(ctx, s.db, voucherID)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, paymentdomain.ErrVoucherNotFound
	}
	return s.repo.ListByVoucher(ctx, s.db, voucherID)
}
