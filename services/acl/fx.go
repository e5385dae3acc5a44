package acl

import "go.uber.org/fx"

var Module = fx.Module("acl.module",
	fx.Provide(
		NewService,
	),
)
