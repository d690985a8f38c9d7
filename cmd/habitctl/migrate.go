package main

import (
	"fmt"

	"github.com/habitmate/habitmate/internal/db"
)

type MigrateUpCmd struct{}

func (c *MigrateUpCmd) Run(g *Globals) error {
	database, err := g.openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(database) }()

	err = db.RunMigrations(database.DB, g.DBDriver)
	if err != nil {
		return err
	}

	version, err := db.MigrationVersion(database.DB, g.DBDriver)
	if err != nil {
		return err
	}
	fmt.Printf("Schema at version %d\n", version)
	return nil
}

type MigrateDownCmd struct{}

func (c *MigrateDownCmd) Run(g *Globals) error {
	database, err := g.openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(database) }()

	err = db.MigrateDown(database.DB, g.DBDriver)
	if err != nil {
		return err
	}

	version, err := db.MigrationVersion(database.DB, g.DBDriver)
	if err != nil {
		return err
	}
	fmt.Printf("Rolled back to version %d\n", version)
	return nil
}
