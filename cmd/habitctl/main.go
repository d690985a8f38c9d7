package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/habitmate/habitmate/internal/logger"
)

var CLI struct {
	Globals

	Migrate struct {
		Up   MigrateUpCmd   `cmd:"" help:"Apply pending migrations."`
		Down MigrateDownCmd `cmd:"" help:"Roll back the last migration."`
	} `cmd:"" help:"Manage the SQL schema."`
	Backfill BackfillCmd `cmd:"" help:"Assign habits stored under an email to a user id."`
	Stats    StatsCmd    `cmd:"" help:"Print the progress report for an owner."`
}

func main() {
	// .env is optional; kong reads the env vars below
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name("habitctl"),
		kong.Description("Operator tools for the habit tracker"),
		kong.UsageOnError(),
	)

	logger.Init(logger.Options{Development: CLI.Verbose, Output: os.Stderr})

	err := ctx.Run(&CLI.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
