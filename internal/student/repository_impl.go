package student

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/feeledger/internal/student/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id snowflake.ID) (*domain.Student, error) {
	var student domain.Student
	err := r.db.WithContext(ctx).
		Raw(`SELECT id, first_name, last_name, class, monthly_fee, status, created_at, updated_at
		     FROM students WHERE id = ?`, id).
		Scan(&student).Error
	if err != nil {
		return nil, err
	}
	if student.ID == 0 {
		return nil, domain.ErrStudentNotFound
	}
	return &student, nil
}

func (r *repository) ListActive(ctx context.Context, class string, limit int) ([]domain.Student, error) {
	var students []domain.Student

	query := `SELECT id, first_name, last_name, class, monthly_fee, status, created_at, updated_at
	          FROM students WHERE status = ?`
	args := []any{domain.StudentStatusActive}

	if class = strings.TrimSpace(class); class != "" {
		query += ` AND class = ?`
		args = append(args, class)
	}
	query += ` ORDER BY id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}
