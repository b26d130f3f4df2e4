package cmd

import (
	"context"
	"log"
)

func Import(dbPath string) error {

	catalogue, store, err := bootstrap(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("failed to close cache store: %v", err)
		}
	}()

	count, err := catalogue.Refresh(context.Background())
	if err != nil {
		return err
	}
	log.Printf("imported %d stations", count)

	return nil
}
