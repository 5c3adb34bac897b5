// Package domain describes the student roster the ledger bills against. The
// roster is owned by the school administration side; the ledger only reads
// identity, standing fee, and active status.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "ACTIVE"
	StudentStatusInactive StudentStatus = "INACTIVE"
)

type Student struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	FirstName  string        `gorm:"type:text;not null" json:"first_name"`
	LastName   string        `gorm:"type:text;not null" json:"last_name"`
	Class      string        `gorm:"type:text;not null;default:'';index" json:"class"`
	MonthlyFee int64         `gorm:"not null;default:0" json:"monthly_fee"`
	Status     StudentStatus `gorm:"type:text;not null;default:'ACTIVE';index" json:"status"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Student) TableName() string { return "students" }

type Repository interface {
	Get(ctx context.Context, id snowflake.ID) (*Student, error)
	// ListActive returns ACTIVE students, optionally restricted to a class.
	ListActive(ctx context.Context, class string, limit int) ([]Student, error)
}

var ErrStudentNotFound = errors.New("student_not_found")
