package admin

import (
	"relay-policyd/pkg/nip98"

	"go.uber.org/fx"
)

func provideVerifier() *nip98.Verifier {
	return nip98.NewVerifier()
}

var Module = fx.Module("admin.module",
	fx.Provide(
		provideVerifier,
		NewService,
	),
)
