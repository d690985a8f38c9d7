package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/habitmate/habitmate/internal/config"
	"github.com/habitmate/habitmate/internal/db"
	"github.com/habitmate/habitmate/internal/realtime"
	"github.com/habitmate/habitmate/internal/repository"
)

// Globals are the connection settings shared by every command.
type Globals struct {
	DBDriver           string `name:"db-driver" env:"DB_DRIVER" default:"sqlite" enum:"sqlite,pgx" help:"SQL driver."`
	DBConnection       string `name:"db-connection" env:"DB_CONNECTION" default:"./data/habitmate.db?_pragma=foreign_keys(1)" help:"SQL connection string."`
	HabitStore         string `name:"habit-store" env:"HABIT_STORE" default:"sql" enum:"sql,firestore" help:"Habit store backend."`
	FirestoreProjectID string `name:"firestore-project" env:"FIRESTORE_PROJECT_ID" help:"Firestore project id."`
	Timezone           string `env:"TIMEZONE" default:"Local" help:"Zone calendar days are counted in."`
	Verbose            bool   `short:"v" help:"Debug logging."`
}

func (g *Globals) openDB() (*sqlx.DB, error) {
	return db.Init(g.DBDriver, g.DBConnection)
}

func (g *Globals) location() *time.Location {
	cfg := &config.Config{Timezone: g.Timezone}
	return cfg.Location()
}

// stores opens the configured habit and completion stores. close releases them.
func (g *Globals) stores(ctx context.Context) (repository.HabitRepository, repository.CompletionRepository, func(), error) {
	if g.HabitStore == config.HabitStoreFirestore {
		if g.FirestoreProjectID == "" {
			return nil, nil, nil, fmt.Errorf("--firestore-project is required for the firestore store")
		}
		client, err := repository.NewFirestoreClient(ctx, g.FirestoreProjectID)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() { _ = client.Close() }
		return repository.NewFirestoreHabitRepository(client), repository.NewFirestoreCompletionRepository(client), closeFn, nil
	}

	database, err := g.openDB()
	if err != nil {
		return nil, nil, nil, err
	}
	hub := realtime.NewHub()
	closeFn := func() { _ = db.Close(database) }
	return repository.NewHabitRepository(database, hub), repository.NewCompletionRepository(database, hub), closeFn, nil
}
