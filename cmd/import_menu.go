package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/catalog"
)

var importMenuCmd = &cobra.Command{
	Use:   "import-menu FILE",
	Short: "Import the menu from an Excel workbook",
	Long: `Read every sheet of the workbook as a menu category and create or update
its dishes. Rows without a name or price are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportMenu,
}

func init() {
	rootCmd.AddCommand(importMenuCmd)
}

func runImportMenu(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return errors.Wrap(err, "failed to open workbook")
	}
	defer f.Close()

	wb, err := catalog.ReadWorkbook(f)
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if err := a.migrate(); err != nil {
		return err
	}

	result, err := a.services.Menu.Import(cmd.Context(), wb)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "created: %d\nupdated: %d\nskipped: %d\n", result.Created, result.Updated, result.Skipped)
	if len(result.IgnoredSheets) > 0 {
		fmt.Fprintf(out, "ignored sheets: %s\n", strings.Join(result.IgnoredSheets, ", "))
	}
	return nil
}
