package commands

import (
	"context"
	"elabftw-tools/cmd/elabctl/utils"
	"elabftw-tools/lib/csvrows"
	"elabftw-tools/lib/importer"
	"elabftw-tools/lib/metadata"
	"elabftw-tools/lib/serviceutil"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	dryRun      *bool
	journalPath *string
	categoryId  *int64
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Creates or updates eLabFTW entries from the rows of a csv file.",
}

var importExperimentsCmd = &cobra.Command{
	Use:   "experiments <file.csv> [--dry-run] [--journal <path/to/journal.db>]",
	Short: "Imports every row as an experiment, the ID column becomes its custom id.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config(cmd)
		var target importer.Experiments
		if !*dryRun {
			target.API = client(cfg)
		}
		err := runImport(cmd.Context(), cfg, target, args[0], os.Stdout)
		if err != nil {
			serviceutil.Fatal("failed to import", err)
		}
	},
}

var importResourcesCmd = &cobra.Command{
	Use:   "resources <file.csv> [--category <id>] [--dry-run] [--journal <path/to/journal.db>]",
	Short: "Imports every row as a resource, new ones are created in the configured category.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config(cmd)
		target := importer.Resources{CategoryID: cfg.CategoryID}
		if cmd.Flags().Changed("category") {
			target.CategoryID = *categoryId
		}
		if !*dryRun {
			target.API = client(cfg)
		}
		err := runImport(cmd.Context(), cfg, target, args[0], os.Stdout)
		if err != nil {
			serviceutil.Fatal("failed to import", err)
		}
	},
}

func init() {
	dryRun = importCmd.PersistentFlags().Bool("dry-run", false, "Map every row and log what would happen without calling the api.")
	journalPath = importCmd.PersistentFlags().String("journal", "", "Record the outcome of every row into this sqlite database.")
	categoryId = importResourcesCmd.Flags().Int64("category", 1, "The resource category new items are created in, overrides category_id.")

	importCmd.AddCommand(importExperimentsCmd)
	importCmd.AddCommand(importResourcesCmd)
	rootCmd.AddCommand(importCmd)
}

func warnSuggestions(header []string) {
	for _, s := range metadata.SuggestColumns(header) {
		slog.Warn(
			"column looks like a known field but will be imported as text",
			"column", s.Column,
			"did_you_mean", s.Rule,
			"correlation", fmt.Sprintf("%.2f", s.Correlation),
		)
	}
}

func importFile(ctx context.Context, target importer.Target, path string, opts importer.Options) (importer.Summary, error) {
	file, err := csvrows.Open(path)
	if err != nil {
		return importer.Summary{}, err
	}
	defer file.Close()

	warnSuggestions(file.Header())

	if opts.Source == "" {
		opts.Source = filepath.Base(path)
	}
	return importer.New(target, opts).Run(ctx, file)
}

// runImport returns instead of exiting so the journal and csv are closed
// before the process ends.
func runImport(ctx context.Context, cfg Config, target importer.Target, path string, out io.Writer) error {
	opts := importer.Options{DryRun: *dryRun}
	journalConfig := cfg.Journal
	if *journalPath != "" {
		journalConfig.File = *journalPath
	}
	if journalConfig.File != "" {
		j, err := journalConfig.Open()
		if err != nil {
			return err
		}
		defer j.Close()
		opts.Journal = &j
	}

	summary, err := importFile(ctx, target, path, opts)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	t := utils.NewTable()
	t.SetOutputMirror(out)
	t.SetTitle(fmt.Sprintf("%s (%ss)", filepath.Base(path), target.Kind()))
	t.AppendHeader(table.Row{"Created", "Updated", "Failed", "Planned", "Total"})
	t.AppendRow(table.Row{summary.Created, summary.Updated, summary.Failed, summary.Planned, summary.Total()})
	t.Render()
	return nil
}
