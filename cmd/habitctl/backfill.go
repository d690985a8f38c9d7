package main

import (
	"context"
	"fmt"
)

type BackfillCmd struct {
	Email   string `required:"" help:"Legacy owner email the habits were stored under."`
	OwnerID string `name:"owner-id" required:"" help:"User id to assign them to."`
}

func (c *BackfillCmd) Run(g *Globals) error {
	ctx := context.Background()

	habits, _, closeStores, err := g.stores(ctx)
	if err != nil {
		return err
	}
	defer closeStores()

	claimed, err := habits.ClaimLegacy(ctx, c.OwnerID, c.Email)
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	fmt.Printf("Claimed %d habit(s) for %s\n", claimed, c.OwnerID)
	return nil
}
