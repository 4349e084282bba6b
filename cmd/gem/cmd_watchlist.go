package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newWatchlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watchlist",
		Aliases: []string{"wl"},
		Short:   "Manage the risky-instrument watchlist",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show the watchlist",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := newApp(cmd)
				if err != nil {
					return err
				}
				printWatchlist(a.watchlist.List(), a.watchlist.Ready())
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <symbol>...",
			Short: "Add symbols to the watchlist",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return editWatchlist(cmd, args, true)
			},
		},
		&cobra.Command{
			Use:   "remove <symbol>...",
			Short: "Remove symbols from the watchlist",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return editWatchlist(cmd, args, false)
			},
		},
	)
	return cmd
}

func editWatchlist(cmd *cobra.Command, symbols []string, add bool) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	for _, s := range symbols {
		var changed bool
		if add {
			changed, err = a.watchlist.Add(s)
		} else {
			changed, err = a.watchlist.Remove(s)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
		if !changed {
			fmt.Printf("%s: unchanged\n", strings.ToUpper(strings.TrimSpace(s)))
		}
	}
	printWatchlist(a.watchlist.List(), a.watchlist.Ready())
	return nil
}

func printWatchlist(symbols []string, ready bool) {
	fmt.Printf("Watchlist (%d):\n", len(symbols))
	for i, s := range symbols {
		fmt.Printf("  %d. %s\n", i+1, s)
	}
	if !ready {
		fmt.Println("Add at least two symbols to compare momentum.")
	}
}
