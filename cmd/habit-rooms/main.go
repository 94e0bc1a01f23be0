package main

import (
	"os"

	"github.com/alecthomas/kong"

	"habit-rooms-go/pkg/logger"
)

var CLI struct {
	Version kong.VersionFlag

	Serve   ServeCmd   `cmd:"" help:"Run the HTTP API." default:"1"`
	Migrate MigrateCmd `cmd:"" help:"Apply pending SQL migrations and exit."`
}

func main() {
	log := logger.NewFromEnv()

	ctx := kong.Parse(&CLI,
		kong.Name("habit-rooms"),
		kong.Description("Shared habit rooms API"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
		kong.BindTo(log, (*logger.Logger)(nil)),
	)

	if err := ctx.Run(); err != nil {
		log.Critical("app: command failed", "command", ctx.Command(), "err", err)
		os.Exit(1)
	}
}
