package authz

import "go.uber.org/fx"

var Module = fx.Module("authz.module",
	fx.Provide(
		NewService,
	),
)
