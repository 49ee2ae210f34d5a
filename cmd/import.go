package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/Its-me-GK/FaceMark/internal/config"
	"github.com/Its-me-GK/FaceMark/internal/database/mariadb"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import-roster",
	Short: "Import the student roster from the school information system",
	Long: `Copy active students from the MariaDB-backed school information system
into the local roster. Students imported this way have no face gallery yet
and must still be enrolled with photos before they can be recognized.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if cfg.Roster.MISDatabaseURL == "" {
		return errors.New("MIS_DATABASE_URL environment variable is required")
	}

	pool, stores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	misPool, err := mariadb.NewPool(cfg.Roster.MISDatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to information system: %w", err)
	}
	defer misPool.Close()

	imported, err := mariadb.ImportRoster(context.Background(), misPool, stores.Students)
	if err != nil {
		return fmt.Errorf("importing roster: %w", err)
	}

	fmt.Printf("Imported %d students (existing students skipped)\n", imported)
	return nil
}
