package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/samuel161415/BryteSpring/internal/config"
	"github.com/samuel161415/BryteSpring/internal/migration"
	"github.com/samuel161415/BryteSpring/internal/observability"
	"github.com/samuel161415/BryteSpring/internal/server"
	"github.com/samuel161415/BryteSpring/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
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
