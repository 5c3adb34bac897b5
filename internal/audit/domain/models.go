package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of a state-changing ledger operation.
// Entries are never updated or deleted.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	EntityType string            `gorm:"type:text;not null;index:ix_audit_logs_entity" json:"entity_type"`
	EntityID   *string           `gorm:"type:text;index:ix_audit_logs_entity" json:"entity_id,omitempty"`
	Action     string            `gorm:"type:text;not null" json:"action"`
	Actor      string            `gorm:"type:text;not null" json:"actor"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

type ListFilter struct {
	EntityType string
	EntityID   string
	Action     string
	Actor      string
	StartAt    *time.Time
	EndAt      *time.Time
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]AuditLog, error)
}

type Service interface {
	// Log appends an entry. A failed append is reported on the operational
	// log channel and returned, but ledger callers discard the error: a
	// committed financial mutation must never be failed by its audit write.
	Log(ctx context.Context, entityType string, entityID *string, action string, actor string, metadata map[string]any) error
	List(ctx context.Context, filter ListFilter) ([]AuditLog, error)
}

var (
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
