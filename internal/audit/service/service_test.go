package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/feeledger/internal/audit/domain"
	auditrepo "github.com/smallbiznis/feeledger/internal/audit/repository"
	auditservice "github.com/smallbiznis/feeledger/internal/audit/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(`CREATE TABLE audit_logs (
		id INTEGER PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id TEXT,
		action TEXT NOT NULL,
		actor TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`).Error; err != nil {
		t.Fatalf("create audit_logs table: %v", err)
	}
	return db
}

func newService(t *testing.T, db *gorm.DB) auditdomain.Service {
	t.Helper()
	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("new snowflake node: %v", err)
	}
	return auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})
}

func TestLogAndList(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db)

	voucherID := "123456789"
	if err := svc.Log(ctx, "voucher", &voucherID, "voucher.issued", "admin", map[string]any{"total_amount": 1000}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := svc.Log(ctx, "voucher", &voucherID, "payment.recorded", "clerk", nil); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := svc.Log(ctx, "voucher", nil, "voucher.overdue_sweep", "system", map[string]any{"swept": 3}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := svc.List(ctx, auditdomain.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	byAction, err := svc.List(ctx, auditdomain.ListFilter{Action: "payment.recorded"})
	if err != nil {
		t.Fatalf("List by action: %v", err)
	}
	if len(byAction) != 1 || byAction[0].Actor != "clerk" {
		t.Fatalf("filter by action = %+v, want single clerk entry", byAction)
	}

	byEntity, err := svc.List(ctx, auditdomain.ListFilter{EntityType: "voucher", EntityID: voucherID})
	if err != nil {
		t.Fatalf("List by entity: %v", err)
	}
	if len(byEntity) != 2 {
		t.Fatalf("filter by entity = %d entries, want 2", len(byEntity))
	}
}

func TestLogRejectsEmptyAction(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, setupTestDB(t))

	if err := svc.Log(ctx, "voucher", nil, "  ", "admin", nil); !errors.Is(err, auditdomain.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestLogDefaultsActorAndEntityType(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db)

	if err := svc.Log(ctx, "", nil, "voucher.issued", "", nil); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := svc.List(ctx, auditdomain.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Actor != "system" || entries[0].EntityType != "unknown" {
		t.Fatalf("entry = %+v, want actor system and entity_type unknown", entries[0])
	}
}

func TestListRejectsInvertedTimeRange(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, setupTestDB(t))

	end := time.Now().UTC()
	start := end.Add(time.Hour)
	_, err := svc.List(ctx, auditdomain.ListFilter{StartAt: &start, EndAt: &end})
	if !errors.Is(err, auditdomain.ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}

func TestLogReportsInsertFailure(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db)

	if err := db.Exec(`DROP TABLE audit_logs`).Error; err != nil {
		t.Fatalf("drop table: %v", err)
	}

	if err := svc.Log(ctx, "voucher", nil, "voucher.issued", "admin", nil); err == nil {
		t.Fatal("expected error when the insert fails")
	}
}
