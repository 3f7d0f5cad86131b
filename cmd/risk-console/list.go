package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"credit-risk-console/internal/applications"

	"github.com/spf13/cobra"
)

type listOptions struct {
	filter applications.Filter
	recent bool
	asJSON bool
}

func listCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assessed applications",
		Long: `List the merged application set (seed records plus stored ones).
Search matches name or id case-insensitively; --risk and --status filter
exactly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := buildDeps(cmd.Context(), app.cfg, app.log, depsOptions{})
			if err != nil {
				return err
			}
			defer d.Close()

			return runList(cmd.Context(), cmd.OutOrStdout(), d.store, opts)
		},
	}

	cmd.Flags().StringVar(&opts.filter.Search, "search", "", "substring of name or id")
	cmd.Flags().StringVar(&opts.filter.RiskTier, "risk", "", "risk tier: LOW, MEDIUM, HIGH or ALL")
	cmd.Flags().StringVar(&opts.filter.Status, "status", "", "status: Auto-Approved, Review, Manual Hold or ALL")
	cmd.Flags().BoolVar(&opts.recent, "recent", false, "newest first")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print as JSON")

	return cmd
}

func runList(ctx context.Context, out io.Writer, store *applications.Store, opts listOptions) error {
	opts.filter.RiskTier = strings.ToUpper(opts.filter.RiskTier)
	records := store.Query(ctx, opts.filter)
	if opts.recent {
		applications.SortByRecency(records)
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No applications match.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("Name"),
		headerStyle.Render("Default %"),
		headerStyle.Render("Tier"),
		headerStyle.Render("Status"),
		headerStyle.Render("Submitted"),
	)
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Name,
			formatPercent(r.DefaultProbability),
			renderTier(r.RiskTier),
			renderStatus(r.Status),
			r.Timestamp,
		)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}

	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d application(s)", len(records))))
	return nil
}
