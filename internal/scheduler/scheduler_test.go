package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/feeledger/internal/clock"
	voucherdomain "github.com/smallbiznis/feeledger/internal/voucher/domain"
	"go.uber.org/zap"
)

type mockVoucherSvc struct {
	batchCalls []voucherdomain.BatchRequest
	sweepCalls []time.Time
	batchErr   error
}

func (m *mockVoucherSvc) Issue(context.Context, voucherdomain.IssueRequest) (voucherdomain.IssueResult, error) {
	return voucherdomain.IssueResult{}, nil
}

func (m *mockVoucherSvc) IssueBatch(ctx context.Context, req voucherdomain.BatchRequest) (voucherdomain.BatchResult, error) {
	m.batchCalls = append(m.batchCalls, req)
	if m.batchErr != nil {
		return voucherdomain.BatchResult{}, m.batchErr
	}
	return voucherdomain.BatchResult{}, nil
}

func (m *mockVoucherSvc) GetByID(context.Context, snowflake.ID) (voucherdomain.FeeVoucher, []voucherdomain.FeeVoucherItem, error) {
	return voucherdomain.FeeVoucher{}, nil, voucherdomain.ErrVoucherNotFound
}

func (m *mockVoucherSvc) ListByStudent(context.Context, snowflake.ID) ([]voucherdomain.FeeVoucher, error) {
	return nil, nil
}

func (m *mockVoucherSvc) Cancel(context.Context, snowflake.ID, string, string) error { return nil }
func (m *mockVoucherSvc) Waive(context.Context, snowflake.ID, string, string) error  { return nil }

func (m *mockVoucherSvc) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	m.sweepCalls = append(m.sweepCalls, now)
	return 1, nil
}

func newTestScheduler(t *testing.T, svc voucherdomain.Service, clk clock.Clock, cfg Config) *Scheduler {
	t.Helper()
	sched, err := New(Params{
		Log:        zap.NewNop(),
		VoucherSvc: svc,
		Clock:      clk,
		Config:     cfg,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sched
}

func TestRunOnceGeneratesAfterBillingDay(t *testing.T) {
	ctx := context.Background()
	svc := &mockVoucherSvc{}
	clk := clock.NewFakeClock(time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC))
	sched := newTestScheduler(t, svc, clk, Config{BillingDay: 1})

	sched.RunOnce(ctx)

	if len(svc.batchCalls) != 1 {
		t.Fatalf("batch calls = %d, want 1", len(svc.batchCalls))
	}
	req := svc.batchCalls[0]
	if req.Month != 3 || req.Year != 2026 {
		t.Fatalf("batch period = %d/%d, want 3/2026", req.Month, req.Year)
	}
	if req.Actor != "scheduler" {
		t.Fatalf("actor = %q, want scheduler", req.Actor)
	}
}

func TestRunOnceSkipsBeforeBillingDay(t *testing.T) {
	ctx := context.Background()
	svc := &mockVoucherSvc{}
	clk := clock.NewFakeClock(time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC))
	sched := newTestScheduler(t, svc, clk, Config{BillingDay: 5})

	sched.RunOnce(ctx)

	if len(svc.batchCalls) != 0 {
		t.Fatalf("batch calls = %d before billing day, want 0", len(svc.batchCalls))
	}
	if len(svc.sweepCalls) != 1 {
		t.Fatalf("sweep calls = %d, want 1: the sweep runs daily regardless", len(svc.sweepCalls))
	}
}

func TestRunOnceGeneratesOncePerMonth(t *testing.T) {
	ctx := context.Background()
	svc := &mockVoucherSvc{}
	clk := clock.NewFakeClock(time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC))
	sched := newTestScheduler(t, svc, clk, Config{BillingDay: 1})

	sched.RunOnce(ctx)
	clk.Advance(time.Hour)
	sched.RunOnce(ctx)
	clk.Advance(24 * time.Hour)
	sched.RunOnce(ctx)

	if len(svc.batchCalls) != 1 {
		t.Fatalf("batch calls = %d within one month, want 1", len(svc.batchCalls))
	}

	// Crossing into April triggers the next run.
	clk.Advance(31 * 24 * time.Hour)
	sched.RunOnce(ctx)

	if len(svc.batchCalls) != 2 {
		t.Fatalf("batch calls = %d after month rollover, want 2", len(svc.batchCalls))
	}
	if svc.batchCalls[1].Month != 4 {
		t.Fatalf("second run month = %d, want 4", svc.batchCalls[1].Month)
	}
}

func TestRunOnceRetriesGenerationAfterFailure(t *testing.T) {
	ctx := context.Background()
	svc := &mockVoucherSvc{batchErr: context.DeadlineExceeded}
	clk := clock.NewFakeClock(time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC))
	sched := newTestScheduler(t, svc, clk, Config{BillingDay: 1})

	sched.RunOnce(ctx)
	if len(svc.batchCalls) != 1 {
		t.Fatalf("batch calls = %d, want 1", len(svc.batchCalls))
	}

	// Failed runs leave the period unmarked, so the next tick retries.
	svc.batchErr = nil
	clk.Advance(time.Hour)
	sched.RunOnce(ctx)

	if len(svc.batchCalls) != 2 {
		t.Fatalf("batch calls = %d after retry, want 2", len(svc.batchCalls))
	}
}

func TestRunOnceSweepsOncePerDay(t *testing.T) {
	ctx := context.Background()
	svc := &mockVoucherSvc{}
	clk := clock.NewFakeClock(time.Date(2026, time.March, 15, 8, 0, 0, 0, time.UTC))
	sched := newTestScheduler(t, svc, clk, Config{BillingDay: 1})

	sched.RunOnce(ctx)
	clk.Advance(time.Hour)
	sched.RunOnce(ctx)

	if len(svc.sweepCalls) != 1 {
		t.Fatalf("sweep calls = %d within one day, want 1", len(svc.sweepCalls))
	}

	clk.Advance(24 * time.Hour)
	sched.RunOnce(ctx)

	if len(svc.sweepCalls) != 2 {
		t.Fatalf("sweep calls = %d after day rollover, want 2", len(svc.sweepCalls))
	}
}
