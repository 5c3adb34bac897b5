package voucher

import (
	"github.com/smallbiznis/feeledger/internal/voucher/repository"
	"github.com/smallbiznis/feeledger/internal/voucher/service"
	"go.uber.org/fx"
)

var Module = fx.Module("voucher.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
