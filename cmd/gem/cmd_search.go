package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search Yahoo Finance for instrument symbols",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}
	cmd.Flags().Int("limit", 10, "Maximum number of results")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	quotes, err := a.yahoo.Search(cmd.Context(), query, limit)
	if err != nil {
		return fmt.Errorf("search %q: %w", query, err)
	}
	if len(quotes) == 0 {
		fmt.Printf("No results for %q\n", query)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tNAME\tTYPE\tEXCHANGE")
	for _, q := range quotes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", q.Symbol, q.Name, q.Type, q.Exchange)
	}
	return w.Flush()
}
