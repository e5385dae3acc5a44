package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"relay-policyd/internal/httpapi"
	"relay-policyd/pkg/config"
	"relay-policyd/pkg/db"
	"relay-policyd/pkg/logger"
	"relay-policyd/pkg/redis"
	"relay-policyd/pkg/server"
	"relay-policyd/pkg/task"
	"relay-policyd/services/acl"
	"relay-policyd/services/admin"
	"relay-policyd/services/authz"
	"relay-policyd/services/relay"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		fx.Provide(
			provideSnowflakeNode,
		),
		relay.Module,
		authz.Module,
		acl.Module,
		admin.Module,
		httpapi.Module,
		server.Module,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
