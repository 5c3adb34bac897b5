package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/feeledger/internal/audit/domain"
	"github.com/smallbiznis/feeledger/internal/config"
	obsmetrics "github.com/smallbiznis/feeledger/internal/observability/metrics"
	seqdomain "github.com/smallbiznis/feeledger/internal/sequence/domain"
	seqformat "github.com/smallbiznis/feeledger/internal/sequence/format"
	studentdomain "github.com/smallbiznis/feeledger/internal/student/domain"
	voucherdomain "github.com/smallbiznis/feeledger/internal/voucher/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Cfg        config.Config
	GenID      *snowflake.Node
	SeqRepo    seqdomain.Repository
	Students   studentdomain.Repository
	AuditSvc   auditdomain.Service
	Repo       voucherdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        config.Config
	genID      *snowflake.Node
	seqRepo    seqdomain.Repository
	students   studentdomain.Repository
	auditSvc   auditdomain.Service
	repo       voucherdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) voucherdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("voucher.service"),
		cfg:        p.Cfg,
		genID:      p.GenID,
		seqRepo:    p.SeqRepo,
		students:   p.Students,
		auditSvc:   p.AuditSvc,
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Issue(ctx context.Context, req voucherdomain.IssueRequest) (voucherdomain.IssueResult, error) {
	if req.Month < 1 || req.Month > 12 || req.Year < 2000 || req.Year > 2200 {
		return voucherdomain.IssueResult{}, voucherdomain.ErrInvalidPeriod
	}

	student, err := s.students.Get(ctx, req.StudentID)
	if err != nil {
		return voucherdomain.IssueResult{}, err
	}

	items, subtotal, err := resolveItems(req.Items, student)
	if err != nil {
		return voucherdomain.IssueResult{}, err
	}
	if subtotal <= 0 {
		// Billing a zero amount is not meaningful; no voucher is created.
		return voucherdomain.IssueResult{Outcome: voucherdomain.OutcomeNoFees}, voucherdomain.ErrNoFeeSchedule
	}

	now := time.Now().UTC()
	dueDate := s.dueDate(req)

	var result voucherdomain.IssueResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByPeriod(ctx, tx, req.StudentID, req.Month, req.Year)
		if err != nil {
			return err
		}
		if existing != nil {
			result = voucherdomain.IssueResult{Voucher: existing, Outcome: voucherdomain.OutcomeExists}
			return nil
		}

		// Carried balance across outstanding vouchers is computed for the
		// printed voucher only. It never feeds total_amount: summing unpaid
		// history into each new voucher compounds the debt every month.
		outstanding, err := s.repo.ListOutstanding(ctx, tx, req.StudentID)
		if err != nil {
			return err
		}
		var previousBalance int64
		var previousVoucherID *snowflake.ID
		for i := range outstanding {
			previousBalance += outstanding[i].BalanceDue
		}
		if len(outstanding) > 0 {
			previousVoucherID = &outstanding[0].ID
		}

		seq, err := s.seqRepo.Next(ctx, tx, seqdomain.CounterVoucher)
		if err != nil {
			return err
		}
		number, err := seqformat.Number(seqdomain.CounterVoucher, now, seq)
		if err != nil {
			return err
		}

		voucher := voucherdomain.FeeVoucher{
			ID:                s.genID.Generate(),
			VoucherNumber:     number,
			StudentID:         req.StudentID,
			Month:             req.Month,
			Year:              req.Year,
			Subtotal:          subtotal,
			PreviousBalance:   previousBalance,
			TotalAmount:       subtotal,
			PaidAmount:        0,
			BalanceDue:        subtotal,
			Status:            voucherdomain.VoucherStatusUnpaid,
			PreviousVoucherID: previousVoucherID,
			DueDate:           dueDate,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		inserted, err := s.repo.Insert(ctx, tx, &voucher)
		if err != nil {
			return err
		}
		if !inserted {
			// A concurrent issuer won the period; the sequence value stays
			// consumed, which is an acceptable gap.
			existing, err := s.repo.FindByPeriod(ctx, tx, req.StudentID, req.Month, req.Year)
			if err != nil {
				return err
			}
			if existing == nil {
				return voucherdomain.ErrVoucherNotFound
			}
			result = voucherdomain.IssueResult{Voucher: existing, Outcome: voucherdomain.OutcomeExists}
			return nil
		}

		persisted := make([]voucherdomain.FeeVoucherItem, 0, len(items))
		for _, line := range items {
			item := voucherdomain.FeeVoucherItem{
				ID:          s.genID.Generate(),
				VoucherID:   voucher.ID,
				FeeType:     line.FeeType,
				Description: line.Description,
				Amount:      line.Amount,
				CreatedAt:   now,
			}
			if err := s.repo.InsertItem(ctx, tx, &item); err != nil {
				return err
			}
			persisted = append(persisted, item)
		}

		result = voucherdomain.IssueResult{Voucher: &voucher, Items: persisted, Outcome: voucherdomain.OutcomeCreated}
		return nil
	})
	if err != nil {
		return voucherdomain.IssueResult{}, err
	}

	if result.Outcome == voucherdomain.OutcomeCreated {
		s.emitAudit(ctx, "voucher.issued", result.Voucher, req.Actor, map[string]any{
			"subtotal":         result.Voucher.Subtotal,
			"previous_balance": result.Voucher.PreviousBalance,
			"due_date":         result.Voucher.DueDate.Format(time.RFC3339),
		})
	}
	if s.obsMetrics != nil {
		s.obsMetrics.IncVoucherIssued(string(result.Outcome))
	}
	return result, nil
}

func (s *Service) IssueBatch(ctx context.Context, req voucherdomain.BatchRequest) (voucherdomain.BatchResult, error) {
	if req.Month < 1 || req.Month > 12 || req.Year < 2000 || req.Year > 2200 {
		return voucherdomain.BatchResult{}, voucherdomain.ErrInvalidPeriod
	}

	studentIDs := req.StudentIDs
	if len(studentIDs) == 0 {
		students, err := s.students.ListActive(ctx, req.Class, 0)
		if err != nil {
			return voucherdomain.BatchResult{}, err
		}
		studentIDs = make([]snowflake.ID, 0, len(students))
		for _, st := range students {
			studentIDs = append(studentIDs, st.ID)
		}
	}

	result := voucherdomain.BatchResult{
		Outcomes: make([]voucherdomain.StudentOutcome, 0, len(studentIDs)),
	}

	for _, studentID := range studentIDs {
		outcome := voucherdomain.StudentOutcome{StudentID: studentID}

		issued, err := s.Issue(ctx, voucherdomain.IssueRequest{
			StudentID: studentID,
			Month:     req.Month,
			Year:      req.Year,
			Actor:     req.Actor,
		})
		switch {
		case err == nil:
			outcome.Outcome = issued.Outcome
			if issued.Voucher != nil {
				outcome.VoucherID = issued.Voucher.ID
			}
		case issued.Outcome == voucherdomain.OutcomeNoFees:
			outcome.Outcome = voucherdomain.OutcomeNoFees
		default:
			outcome.Outcome = voucherdomain.OutcomeError
			outcome.Error = err.Error()
			s.log.Warn("batch voucher generation failed for student",
				zap.String("student_id", studentID.String()),
				zap.Int("month", req.Month),
				zap.Int("year", req.Year),
				zap.Error(err),
			)
		}

		switch outcome.Outcome {
		case voucherdomain.OutcomeCreated:
			result.Summary.Created++
		case voucherdomain.OutcomeExists:
			result.Summary.Exists++
		case voucherdomain.OutcomeNoFees:
			result.Summary.NoFees++
		default:
			result.Summary.Errored++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	s.log.Info("voucher generation run finished",
		zap.Int("month", req.Month),
		zap.Int("year", req.Year),
		zap.Int("created", result.Summary.Created),
		zap.Int("exists", result.Summary.Exists),
		zap.Int("no_fees", result.Summary.NoFees),
		zap.Int("errored", result.Summary.Errored),
	)
	return result, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (voucherdomain.FeeVoucher, []voucherdomain.FeeVoucherItem, error) {
	voucher, err := s.repo.Get(ctx, s.db, id)
	if err != nil {
		return voucherdomain.FeeVoucher{}, nil, err
	}
	if voucher == nil {
		return voucherdomain.FeeVoucher{}, nil, voucherdomain.ErrVoucherNotFound
	}
	items, err := s.repo.ListItems(ctx, s.db, id)
	if err != nil {
		return voucherdomain.FeeVoucher{}, nil, err
	}
	return *voucher, items, nil
}

func (s *Service) ListByStudent(ctx context.Context, studentID snowflake.ID) ([]voucherdomain.FeeVoucher, error) {
	return s.repo.ListByStudent(ctx, s.db, studentID)
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID, actor, reason string) error {
	return s.transition(ctx, id, voucherdomain.VoucherStatusCancelled, "voucher.cancelled", actor, reason)
}

func (s *Service) Waive(ctx context.Context, id snowflake.ID, actor, reason string) error {
	return s.transition(ctx, id, voucherdomain.VoucherStatusWaived, "voucher.waived", actor, reason)
}

func (s *Service) transition(ctx context.Context, id snowflake.ID, target voucherdomain.VoucherStatus, action, actor, reason string) error {
	var updated *voucherdomain.FeeVoucher
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		voucher, err := s.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if voucher == nil {
			return voucherdomain.ErrVoucherNotFound
		}
		if !voucher.Status.Payable() {
			return voucherdomain.ErrNotCancellable
		}
		if target == voucherdomain.VoucherStatusCancelled && voucher.PaidAmount > 0 {
			// A voucher with money already applied can only be waived.
			return voucherdomain.ErrNotCancellable
		}
		if err := s.repo.UpdateStatus(ctx, tx, id, target, time.Now().UTC()); err != nil {
			return err
		}
		voucher.Status = target
		updated = voucher
		return nil
	})
	if err != nil {
		return err
	}

	s.emitAudit(ctx, action, updated, actor, map[string]any{
		"reason":      strings.TrimSpace(reason),
		"balance_due": updated.BalanceDue,
	})
	return nil
}

func (s *Service) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	var swept int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.repo.SweepOverdue(ctx, tx, now.UTC())
		if err != nil {
			return err
		}
		swept = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	if swept > 0 {
		_ = s.auditSvc.Log(ctx, "voucher", nil, "voucher.overdue_sweep", "system", map[string]any{
			"swept": swept,
			"as_of": now.UTC().Format(time.RFC3339),
		})
		if s.obsMetrics != nil {
			s.obsMetrics.AddOverdueSwept(float64(swept))
		}
	}
	return swept, nil
}

func (s *Service) dueDate(req voucherdomain.IssueRequest) time.Time {
	if req.DueDate != nil {
		return req.DueDate.UTC()
	}
	day := s.cfg.DueDay
	if day < 1 || day > 28 {
		day = 10
	}
	return time.Date(req.Year, time.Month(req.Month), day, 0, 0, 0, 0, time.UTC)
}

func resolveItems(items []voucherdomain.LineItem, student *studentdomain.Student) ([]voucherdomain.LineItem, int64, error) {
	if len(items) == 0 {
		if student.MonthlyFee <= 0 {
			return nil, 0, nil
		}
		monthly := voucherdomain.LineItem{
			FeeType:     voucherdomain.FeeTypeMonthly,
			Description: "Monthly tuition fee",
			Amount:      student.MonthlyFee,
		}
		return []voucherdomain.LineItem{monthly}, monthly.Amount, nil
	}

	var subtotal int64
	resolved := make([]voucherdomain.LineItem, 0, len(items))
	for _, item := range items {
		if !item.FeeType.Valid() {
			return nil, 0, fmt.Errorf("%w: unknown fee type %q", voucherdomain.ErrInvalidItem, item.FeeType)
		}
		if item.Amount <= 0 {
			return nil, 0, fmt.Errorf("%w: amount must be positive", voucherdomain.ErrInvalidItem)
		}
		item.Description = strings.TrimSpace(item.Description)
		resolved = append(resolved, item)
		subtotal += item.Amount
	}
	return resolved, subtotal, nil
}

func (s *Service) emitAudit(ctx context.Context, action string, voucher *voucherdomain.FeeVoucher, actor string, extra map[string]any) {
	if s.auditSvc == nil || voucher == nil {
		return
	}
	metadata := map[string]any{
		"voucher_number": voucher.VoucherNumber,
		"student_id":     voucher.StudentID.String(),
		"month":          voucher.Month,
		"year":           voucher.Year,
		"total_amount":   voucher.TotalAmount,
		"status":         string(voucher.Status),
	}
	for key, value := range extra {
		if key == "" {
			continue
		}
		metadata[key] = value
	}

	targetID := voucher.ID.String()
	_ = s.auditSvc.Log(ctx, "voucher", &targetID, action, actor, metadata)
}
