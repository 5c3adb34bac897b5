package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/feeledger/internal/voucher/domain"
	pkgdb "github.com/smallbiznis/feeledger/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const voucherColumns = `id, voucher_number, student_id, month, year, subtotal, previous_balance,
	total_amount, paid_amount, balance_due, status, previous_voucher_id, due_date,
	created_at, updated_at`

func (r *repo) Get(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FeeVoucher, error) {
	var voucher domain.FeeVoucher
	err := db.WithContext(ctx).Raw(
		`SELECT `+voucherColumns+` FROM fee_vouchers WHERE id = ?`,
		id,
	).Scan(&voucher).Error
	if err != nil {
		return nil, err
	}
	if voucher.ID == 0 {
		return nil, nil
	}
	return &voucher, nil
}

func (r *repo) GetForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FeeVoucher, error) {
	var voucher domain.FeeVoucher
	err := db.WithContext(ctx).Raw(
		`SELECT `+voucherColumns+` FROM fee_vouchers WHERE id = ? `+pkgdb.ForUpdate(db),
		id,
	).Scan(&voucher).Error
	if err != nil {
		return nil, err
	}
	if voucher.ID == 0 {
		return nil, nil
	}
	return &voucher, nil
}

func (r *repo) FindByPeriod(ctx context.Context, db *gorm.DB, studentID snowflake.ID, month, year int) (*domain.FeeVoucher, error) {
	var voucher domain.FeeVoucher
	err := db.WithContext(ctx).Raw(
		`SELECT `+voucherColumns+` FROM fee_vouchers
		 WHERE student_id = ? AND month = ? AND year = ?
		 LIMIT 1`,
		studentID, month, year,
	).Scan(&voucher).Error
	if err != nil {
		return nil, err
	}
	if voucher.ID == 0 {
		return nil, nil
	}
	return &voucher, nil
}

func (r *repo) ListOutstanding(ctx context.Context, db *gorm.DB, studentID snowflake.ID) ([]domain.FeeVoucher, error) {
	var vouchers []domain.FeeVoucher
	err := db.WithContext(ctx).Raw(
		`SELECT `+voucherColumns+` FROM fee_vouchers
		 WHERE student_id = ? AND status IN (?, ?, ?)
		 ORDER BY year DESC, month DESC`,
		studentID,
		domain.VoucherStatusUnpaid,
		domain.VoucherStatusPartial,
		domain.VoucherStatusOverdue,
	).Scan(&vouchers).Error
	if err != nil {
		return nil, err
	}
	return vouchers, nil
}

func (r *repo) ListByStudent(ctx context.Context, db *gorm.DB, studentID snowflake.ID) ([]domain.FeeVoucher, error) {
	var vouchers []domain.FeeVoucher
	err := db.WithContext(ctx).Raw(
		`SELECT `+voucherColumns+` FROM fee_vouchers
		 WHERE student_id = ?
		 ORDER BY year DESC, month DESC`,
		studentID,
	).Scan(&vouchers).Error
	if err != nil {
		return nil, err
	}
	return vouchers, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, voucherID snowflake.ID) ([]domain.FeeVoucherItem, error) {
	var items []domain.FeeVoucherItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, voucher_id, fee_type, description, amount, created_at
		 FROM fee_voucher_items
		 WHERE voucher_id = ?
		 ORDER BY id`,
		voucherID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, voucher *domain.FeeVoucher) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO fee_vouchers (
			id, voucher_number, student_id, month, year, subtotal, previous_balance,
			total_amount, paid_amount, balance_due, status, previous_voucher_id,
			due_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (student_id, month, year) DO NOTHING`,
		voucher.ID,
		voucher.VoucherNumber,
		voucher.StudentID,
		voucher.Month,
		voucher.Year,
		voucher.Subtotal,
		voucher.PreviousBalance,
		voucher.TotalAmount,
		voucher.PaidAmount,
		voucher.BalanceDue,
		voucher.Status,
		voucher.PreviousVoucherID,
		voucher.DueDate,
		voucher.CreatedAt,
		voucher.UpdatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

func (r *repo) InsertItem(ctx context.Context, db *gorm.DB, item *domain.FeeVoucherItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO fee_voucher_items (
			id, voucher_id, fee_type, description, amount, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.VoucherID,
		item.FeeType,
		item.Description,
		item.Amount,
		item.CreatedAt,
	).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.VoucherStatus, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE fee_vouchers SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id,
	).Error
}

func (r *repo) ApplyPayment(ctx context.Context, db *gorm.DB, id snowflake.ID, paidAmount, balanceDue int64, status domain.VoucherStatus, expectedBalance int64, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE fee_vouchers
		 SET paid_amount = ?, balance_due = ?, status = ?, updated_at = ?
		 WHERE id = ? AND balance_due = ?`,
		paidAmount, balanceDue, status, now, id, expectedBalance,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repo) SweepOverdue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE fee_vouchers
		 SET status = ?, updated_at = ?
		 WHERE status IN (?, ?) AND due_date < ?`,
		domain.VoucherStatusOverdue,
		now,
		domain.VoucherStatusUnpaid,
		domain.VoucherStatusPartial,
		now,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
