package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"proptag/internal/library"
	"proptag/internal/platform"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Inspect and seed the local library store",
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List library records",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLibraryList(cmd)
	},
}

var libraryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record and property counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLibraryStats(cmd)
	},
}

var libraryTagsCmd = &cobra.Command{
	Use:   "properties <kind>",
	Short: "List grouping properties of one kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLibraryProperties(cmd, args[0])
	},
}

var librarySeedCmd = &cobra.Command{
	Use:   "seed <file.json>",
	Short: "Load records from a JSON export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLibrarySeed(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryStatsCmd)
	libraryCmd.AddCommand(libraryTagsCmd)
	libraryCmd.AddCommand(librarySeedCmd)
}

func runLibraryList(cmd *cobra.Command) error {
	store, err := library.Open(cfg.LibraryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Records(cmd.Context())
	if err != nil {
		return err
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Name", "Released", "Platforms", "Links"})
	for _, rec := range records {
		released := ""
		if rec.ReleaseDate != nil {
			released = rec.ReleaseDate.Format("2006-01-02")
		}
		tw.AppendRow(table.Row{rec.DisplayName(), released, len(rec.Platforms), len(rec.Links)})
	}
	fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
	fmt.Fprintf(cmd.OutOrStdout(), "%d records.\n", len(records))
	return nil
}

func runLibraryStats(cmd *cobra.Command) error {
	store, err := library.Open(cfg.LibraryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.CollectStats(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Records: %d\n", stats.Records)
	for _, kind := range library.Kinds() {
		fmt.Fprintf(out, "%-10s %d\n", string(kind)+":", stats.Properties[kind])
	}
	return nil
}

func runLibraryProperties(cmd *cobra.Command, kindName string) error {
	store, err := library.Open(cfg.LibraryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	props, err := store.Properties(cmd.Context(), library.ParseKind(kindName))
	if err != nil {
		return err
	}
	for _, p := range props {
		fmt.Fprintln(cmd.OutOrStdout(), p.Name)
	}
	return nil
}

// seedRecord is the JSON shape accepted by 'library seed'.
type seedRecord struct {
	Name        string         `json:"name"`
	SortingName string         `json:"sortingName"`
	ReleaseDate string         `json:"releaseDate"`
	Platforms   []string       `json:"platforms"`
	Links       []library.Link `json:"links"`
}

func runLibrarySeed(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seeds []seedRecord
	if err := json.Unmarshal(data, &seeds); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	records := make([]*library.Record, 0, len(seeds))
	for _, s := range seeds {
		rec := &library.Record{
			Name:        s.Name,
			SortingName: s.SortingName,
			Platforms:   platform.NormalizeAll(s.Platforms),
			Links:       s.Links,
		}
		if s.ReleaseDate != "" {
			t, err := time.Parse("2006-01-02", s.ReleaseDate)
			if err != nil {
				return fmt.Errorf("record %q: parse release date: %w", s.Name, err)
			}
			rec.ReleaseDate = &t
		}
		records = append(records, rec)
	}

	store, err := library.Open(cfg.LibraryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InsertRecords(cmd.Context(), records); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d records into %s.\n", len(records), store.Path())
	return nil
}
