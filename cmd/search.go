package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"proptag/internal/catalog"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog for importable properties",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, query string) error {
	if err := requireCatalogURL(); err != nil {
		return err
	}

	client := catalog.NewClient(cfg.CatalogURL)
	items, err := client.Search(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search catalog: %w", err)
	}

	if len(items) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No properties found for %q.\n", query)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderItems(items))
	return nil
}

func renderItems(items []catalog.Item) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Name", "Kind", "ID"})
	for i, it := range items {
		tw.AppendRow(table.Row{i + 1, it.Name, it.Kind, it.ID})
	}
	return tw.Render()
}
