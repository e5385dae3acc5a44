package relay

import "go.uber.org/fx"

var Module = fx.Module("relay.module",
	fx.Provide(
		NewService,
	),
)
