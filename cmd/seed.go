package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var seedTables int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the dining tables",
	Long: `Migrate the database and make sure tables 1..N exist together with the
takeout pseudo table. Existing tables are left untouched.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedTables, "tables", 0, "number of dining tables (default is restaurant.table_count)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	count := seedTables
	if count == 0 {
		count = cfg.Restaurant.TableCount
	}
	if count <= 0 {
		return errors.Errorf("table count must be positive, got %d", count)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if err := a.migrate(); err != nil {
		return err
	}

	created, err := a.services.Tables.Seed(cmd.Context(), count)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "tables: %d\ncreated: %d\n", count, created)
	return nil
}
