package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/musichub/musichub/internal/clock"
	"github.com/musichub/musichub/internal/config"
	"github.com/musichub/musichub/internal/migration"
	"github.com/musichub/musichub/internal/observability"
	"github.com/musichub/musichub/internal/server"
	"github.com/musichub/musichub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
