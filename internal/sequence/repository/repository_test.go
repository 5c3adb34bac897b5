package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/smallbiznis/feeledger/internal/sequence/domain"
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

	if err := db.Exec(`CREATE TABLE sequences (
		id TEXT PRIMARY KEY,
		value INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL
	)`).Error; err != nil {
		t.Fatalf("create sequences table: %v", err)
	}

	return db
}

func TestNextStartsAtOneAndIncrements(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := Provide()

	for want := int64(1); want <= 5; want++ {
		got, err := repo.Next(ctx, db, domain.CounterVoucher)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got != want {
			t.Fatalf("Next = %d, want %d", got, want)
		}
	}
}

func TestNextCountersAreIndependent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := Provide()

	for i := 0; i < 3; i++ {
		if _, err := repo.Next(ctx, db, domain.CounterVoucher); err != nil {
			t.Fatalf("Next voucher: %v", err)
		}
	}

	got, err := repo.Next(ctx, db, domain.CounterReceipt)
	if err != nil {
		t.Fatalf("Next receipt: %v", err)
	}
	if got != 1 {
		t.Fatalf("receipt counter = %d, want 1", got)
	}

	got, err = repo.Next(ctx, db, domain.CounterVoucher)
	if err != nil {
		t.Fatalf("Next voucher: %v", err)
	}
	if got != 4 {
		t.Fatalf("voucher counter = %d, want 4", got)
	}
}

func TestNextNormalizesCounterID(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := Provide()

	if _, err := repo.Next(ctx, db, "voucher"); err != nil {
		t.Fatalf("Next lowercase: %v", err)
	}
	got, err := repo.Next(ctx, db, "  VOUCHER  ")
	if err != nil {
		t.Fatalf("Next padded: %v", err)
	}
	if got != 2 {
		t.Fatalf("counter = %d, want 2 after normalized allocations", got)
	}
}

func TestNextRejectsEmptyCounter(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := Provide()

	if _, err := repo.Next(ctx, db, "   "); !errors.Is(err, domain.ErrInvalidCounter) {
		t.Fatalf("expected ErrInvalidCounter, got %v", err)
	}
}

func TestNextRollbackDoesNotConsumeValue(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := Provide()

	if _, err := repo.Next(ctx, db, domain.CounterVoucher); err != nil {
		t.Fatalf("Next: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := repo.Next(ctx, tx, domain.CounterVoucher); err != nil {
			return err
		}
		return errors.New("force rollback")
	})
	if err == nil {
		t.Fatal("expected rollback error")
	}

	got, err := repo.Next(ctx, db, domain.CounterVoucher)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != 2 {
		t.Fatalf("counter = %d after rollback, want 2", got)
	}
}
