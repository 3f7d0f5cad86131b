package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"credit-risk-console/internal/applications"

	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show portfolio counts and average default probability",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := buildDeps(cmd.Context(), app.cfg, app.log, depsOptions{})
			if err != nil {
				return err
			}
			defer d.Close()

			return runStats(cmd.Context(), cmd.OutOrStdout(), d.store, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func runStats(ctx context.Context, w io.Writer, store *applications.Store, asJSON bool) error {
	stats := store.Stats(ctx)

	if asJSON {
		return json.NewEncoder(w).Encode(stats)
	}

	fmt.Fprintln(w, headerStyle.Render("Portfolio"))
	fmt.Fprintf(w, "  Total applications:  %d\n", stats.Total)
	fmt.Fprintf(w, "  %s  %d\n", renderTier("LOW"), stats.Low)
	fmt.Fprintf(w, "  %s  %d\n", renderTier("MEDIUM"), stats.Medium)
	fmt.Fprintf(w, "  %s  %d\n", renderTier("HIGH"), stats.High)
	fmt.Fprintf(w, "  Avg default probability: %s\n", formatPercent(stats.AvgDefaultProbability))
	return nil
}
