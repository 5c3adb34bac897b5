package student

import "go.uber.org/fx"

var Module = fx.Module("student.repository",
	fx.Provide(NewRepository),
)
