package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"proptag/internal/apply"
	"proptag/internal/catalog"
	"proptag/internal/ident"
	"proptag/internal/library"
	"proptag/internal/match"
	"proptag/internal/review"
)

var (
	importKind    string
	importNoLink  bool
	importYes     bool
	importWorkers int
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <query>",
	Short: "Match a catalog property's entries against the library and bulk-apply it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(
		&importKind,
		"kind",
		"",
		"override the property kind (tag, genre, category, feature, series)",
	)
	importCmd.Flags().BoolVar(
		&importNoLink,
		"no-link",
		false,
		"do not add a provider back-link to matched records",
	)
	importCmd.Flags().BoolVarP(
		&importYes,
		"yes",
		"y",
		false,
		"apply to all matches without prompting",
	)
	importCmd.Flags().IntVar(
		&importWorkers,
		"workers",
		0,
		"match worker count (default from config)",
	)
}

func runImport(cmd *cobra.Command, query string) error {
	if err := requireCatalogURL(); err != nil {
		return err
	}

	// Ctrl-C cancels the match phase; nothing is applied on cancellation.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()

	client := catalog.NewClient(cfg.CatalogURL)

	fmt.Fprintln(out, "--- Searching catalog ---")
	items, err := client.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search catalog: %w", err)
	}
	if len(items) == 0 {
		fmt.Fprintf(out, "No properties found for %q.\n", query)
		return nil
	}

	item, err := pickItem(cmd, items)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "--- Downloading entries for %q ---\n", item.Name)
	candidates, err := client.Candidates(ctx, item, func(fetched, total int) {
		fmt.Fprintf(out, "\rFetched %d/%d entries", fetched, total)
	})
	if err != nil {
		return fmt.Errorf("fetch entries: %w", err)
	}
	fmt.Fprintln(out)
	if len(candidates) == 0 {
		fmt.Fprintln(out, "The catalog returned no entries for this property.")
		return nil
	}

	store, err := library.Open(cfg.LibraryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Records(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "The library is empty; seed it with 'proptag library seed'.")
		return nil
	}

	extractor, err := ident.ForProvider(cfg.Provider)
	if err != nil {
		return err
	}

	workers := cfg.MatchWorkers
	if importWorkers > 0 {
		workers = importWorkers
	}

	fmt.Fprintf(out, "--- Matching %d entries against %d records ---\n", len(candidates), len(records))
	engine := match.NewEngine(ident.NewResolver(extractor), workers, logger)
	claims, completed := engine.Match(ctx, candidates, records, func(done, total int) {
		fmt.Fprintf(out, "\rScanned %d/%d entries", done, total)
	})
	fmt.Fprintln(out)

	if !completed {
		fmt.Fprintln(out, "Matching cancelled; nothing was applied.")
		return nil
	}
	if len(claims) == 0 {
		fmt.Fprintln(out, "No matching records found in your library.")
		return nil
	}

	ranked := match.Rank(claims)

	prompt := review.New(cmd.InOrStdin(), out)
	if importYes {
		prompt.AcceptAll()
	}
	approved, err := prompt.Approve(ranked)
	if err != nil {
		return err
	}
	if len(approved) == 0 {
		fmt.Fprintln(out, "Nothing selected; nothing was applied.")
		return nil
	}

	kindName := item.Kind
	if importKind != "" {
		kindName = importKind
	}
	kind := library.ParseKind(kindName)

	applier := apply.New(store, logger)
	mutated, err := applier.Apply(ctx, approved, apply.Options{
		Kind:          kind,
		Name:          item.Name,
		AddLink:       !importNoLink,
		ProviderLabel: cfg.Label(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Applied %s %q to %d of %d approved records.\n", kind, item.Name, mutated, len(approved))
	return nil
}

// pickItem lets the user choose among multiple search hits. With --yes or a
// single hit the top-ranked item is taken.
func pickItem(cmd *cobra.Command, items []catalog.Item) (catalog.Item, error) {
	if importYes || len(items) == 1 {
		return items[0], nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderItems(items))
	fmt.Fprintf(out, "Select a property [1-%d] (1): ", len(items))

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return catalog.Item{}, fmt.Errorf("read selection: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return items[0], nil
	}

	i, err := strconv.Atoi(line)
	if err != nil || i < 1 || i > len(items) {
		return catalog.Item{}, fmt.Errorf("invalid selection %q", line)
	}
	return items[i-1], nil
}
