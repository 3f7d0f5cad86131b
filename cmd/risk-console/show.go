package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"credit-risk-console/internal/assessment"

	"github.com/spf13/cobra"
)

func showCmd() *cobra.Command {
	var (
		live   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "show <application-id>",
		Short: "Show an application with decision guidance",
		Long: `Show one application with its recommended action, pricing band,
affordability estimate, improvement tips and what-if scenarios.
With --live the stored applicant data is re-scored first; if that fails
the stored values are used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(cmd.Context(), app.cfg, app.log, depsOptions{})
			if err != nil {
				return err
			}
			defer d.Close()

			return runShow(cmd.Context(), cmd.OutOrStdout(), d.service, args[0], live, asJSON)
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "re-score the stored applicant data")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func runShow(ctx context.Context, w io.Writer, svc *assessment.Service, id string, live, asJSON bool) error {
	view, err := svc.Insights(ctx, id, live)
	if err != nil {
		return assessment.Classify(err, id)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	printInsight(w, view)
	return nil
}

func printInsight(w io.Writer, view *assessment.InsightView) {
	rec, in := view.Record, view.Insight

	fmt.Fprintf(w, "%s %s  %s\n", headerStyle.Render(rec.ID), rec.Name, mutedStyle.Render(rec.Timestamp))
	if view.LiveError != "" {
		fmt.Fprintln(w, warnStyle.Render("Live score unavailable, showing stored values: "+view.LiveError))
	} else if in.Live {
		fmt.Fprintln(w, mutedStyle.Render("Live score"))
	}
	fmt.Fprintf(w, "  Default probability: %s\n", formatPercent(in.DefaultProbability))
	fmt.Fprintf(w, "  Risk tier:           %s\n", renderTier(in.RiskLabel))
	status := renderStatus(view.Status)
	if view.Status != rec.Status {
		status += "  " + mutedStyle.Render("stored: "+rec.Status)
	}
	fmt.Fprintf(w, "  Status:              %s\n", status)

	fmt.Fprintln(w, headerStyle.Render("Decision"))
	fmt.Fprintf(w, "  Recommended action:  %s\n", in.RecommendedAction)
	fmt.Fprintf(w, "  Rate band:           %s\n", in.RateBand)
	fmt.Fprintf(w, "  Term:                %s\n", in.Term)

	a := in.Affordability
	fmt.Fprintln(w, headerStyle.Render("Affordability"))
	fmt.Fprintf(w, "  Monthly payment:     %s (%.1f%% APR, %d months)\n", formatMoney(a.MonthlyPayment), a.AnnualRate*100, a.TermMonths)
	fmt.Fprintf(w, "  Payment-to-income:   %s (%s)\n", formatPercent(a.PaymentToIncome), a.Band)
	fmt.Fprintf(w, "  Debt-to-income:      %s\n", formatPercent(a.DebtToIncome))
	fmt.Fprintf(w, "  Loan-to-income:      %.2f  %s\n", in.LoanToIncome, mutedStyle.Render(in.CapacityNote))

	if len(in.Factors) > 0 {
		fmt.Fprintln(w, headerStyle.Render("Factors"))
		for _, f := range in.Factors {
			fmt.Fprintf(w, "  %-28s %+.3f  %s\n", f.Feature, f.Impact, mutedStyle.Render(f.Reason))
		}
	}
	if len(in.Tips) > 0 {
		fmt.Fprintln(w, headerStyle.Render("How to improve"))
		for _, t := range in.Tips {
			fmt.Fprintf(w, "  %s: %s\n", t.Feature, t.Tip)
		}
	}
	if len(in.WhatIf) > 0 {
		fmt.Fprintln(w, headerStyle.Render("What if"))
		for _, s := range in.WhatIf {
			fmt.Fprintf(w, "  %s (%+.1f pts): %s\n", s.Title, s.DisplayDelta*100, s.Description)
		}
	}
	for _, r := range rec.Insights.Recommendations {
		fmt.Fprintf(w, "  > %s\n", r)
	}
}
