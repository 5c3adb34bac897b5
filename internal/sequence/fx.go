package sequence

import (
	"github.com/smallbiznis/feeledger/internal/sequence/repository"
	"github.com/smallbiznis/feeledger/internal/sequence/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sequence.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
