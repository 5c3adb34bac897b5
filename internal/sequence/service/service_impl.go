package service

import (
	"context"

	"github.com/smallbiznis/feeledger/internal/sequence/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("sequence.service"),
		repo: p.Repo,
	}
}

// Next allocates a value in its own transaction. Callers that persist a
// document alongside the number should use the repository inside their own
// transaction instead, so a failed insert does not consume a value.
func (s *Service) Next(ctx context.Context, counterID string) (int64, error) {
	var value int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := s.repo.Next(ctx, tx, counterID)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}
