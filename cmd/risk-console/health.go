package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"credit-risk-console/internal/scoring"

	"github.com/spf13/cobra"
)

func healthCmd() *cobra.Command {
	var withSchema bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the scoring service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := buildDeps(cmd.Context(), app.cfg, app.log, depsOptions{})
			if err != nil {
				return err
			}
			defer d.Close()

			return runHealth(cmd.Context(), cmd.OutOrStdout(), d.client, withSchema)
		},
	}

	cmd.Flags().BoolVar(&withSchema, "schema", false, "also print the model schema")
	return cmd
}

func runHealth(ctx context.Context, w io.Writer, client *scoring.Client, withSchema bool) error {
	status, err := client.Health(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Scoring service"), client.BaseURL())
	fmt.Fprintf(w, "  Status:       %s\n", status.Status)
	fmt.Fprintf(w, "  Model loaded: %t\n", status.ModelLoaded)
	if status.Version != "" {
		fmt.Fprintf(w, "  Version:      %s\n", status.Version)
	}

	if !withSchema {
		return nil
	}

	schema, err := client.Schema(ctx)
	if err != nil {
		return err
	}

	if len(schema.RiskThresholds) > 0 {
		fmt.Fprintln(w, headerStyle.Render("Risk thresholds"))
		for _, k := range sortedKeys(schema.RiskThresholds) {
			fmt.Fprintf(w, "  %-10s %g\n", k, schema.RiskThresholds[k])
		}
	}
	if len(schema.Features) > 0 {
		fmt.Fprintln(w, headerStyle.Render("Features"))
		for _, k := range sortedKeys(schema.Features) {
			desc, _ := schema.Features[k]["description"].(string)
			fmt.Fprintf(w, "  %-24s %s\n", k, mutedStyle.Render(desc))
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
