package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/feeledger/internal/sequence/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Next increments and reads the counter inside tx. The UPDATE takes a row
// lock, so concurrent allocators serialize on the counter row and each
// committed transaction observes a distinct value. Counters are created on
// first use starting at 1.
func (r *repo) Next(ctx context.Context, tx *gorm.DB, counterID string) (int64, error) {
	counterID = strings.ToUpper(strings.TrimSpace(counterID))
	if counterID == "" {
		return 0, domain.ErrInvalidCounter
	}

	now := time.Now().UTC()

	res := tx.WithContext(ctx).Exec(
		`UPDATE sequences SET value = value + 1, updated_at = ? WHERE id = ?`,
		now, counterID,
	)
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrAllocation, res.Error)
	}

	if res.RowsAffected == 0 {
		ins := tx.WithContext(ctx).Exec(
			`INSERT INTO sequences (id, value, updated_at) VALUES (?, 1, ?)
			 ON CONFLICT (id) DO NOTHING`,
			counterID, now,
		)
		if ins.Error != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrAllocation, ins.Error)
		}
		if ins.RowsAffected > 0 {
			return 1, nil
		}
		// Lost the insert race; the winner's row is committed or about to
		// be, so the UPDATE blocks until it can increment it.
		upd := tx.WithContext(ctx).Exec(
			`UPDATE sequences SET value = value + 1, updated_at = ? WHERE id = ?`,
			now, counterID,
		)
		if upd.Error != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrAllocation, upd.Error)
		}
	}

	var value int64
	if err := tx.WithContext(ctx).Raw(
		`SELECT value FROM sequences WHERE id = ?`,
		counterID,
	).Scan(&value).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrAllocation, err)
	}
	if value <= 0 {
		return 0, domain.ErrAllocation
	}
	return value, nil
}
