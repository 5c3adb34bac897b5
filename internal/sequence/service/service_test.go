package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	seqdomain "github.com/smallbiznis/feeledger/internal/sequence/domain"
	seqrepo "github.com/smallbiznis/feeledger/internal/sequence/repository"
	seqservice "github.com/smallbiznis/feeledger/internal/sequence/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNextAllocatesInOwnTransaction(t *testing.T) {
	ctx := context.Background()

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

	svc := seqservice.NewService(seqservice.Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: seqrepo.Provide(),
	})

	for want := int64(1); want <= 3; want++ {
		got, err := svc.Next(ctx, seqdomain.CounterSalary)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got != want {
			t.Fatalf("Next = %d, want %d", got, want)
		}
	}
}
