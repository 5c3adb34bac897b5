package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/feeledger/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, voucher_id, receipt_number, amount, method, recorded_by, paid_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.VoucherID,
		payment.ReceiptNumber,
		payment.Amount,
		payment.Method,
		payment.RecordedBy,
		payment.PaidAt,
		payment.CreatedAt,
	).Error
}

func (r *repo) ListByVoucher(ctx context.Context, db *gorm.DB, voucherID snowflake.ID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, voucher_id, receipt_number, amount, method, recorded_by, paid_at, created_at
		 FROM payments
		 WHERE voucher_id = ?
		 ORDER BY paid_at, id`,
		voucherID,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) SumByVoucher(ctx context.Context, db *gorm.DB, voucherID snowflake.ID) (int64, error) {
	var sum int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE voucher_id = ?`,
		voucherID,
	).Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return sum, nil
}
