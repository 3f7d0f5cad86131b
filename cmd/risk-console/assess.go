package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"credit-risk-console/internal/assessment"
	"credit-risk-console/internal/scoring"

	"github.com/spf13/cobra"
)

func assessCmd() *cobra.Command {
	var (
		input      scoring.ApplicantInput
		loan       float64
		employment float64
		inputFile  string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score an applicant and store the result",
		Long: `Score an applicant with the remote model and add the assessed record to
the application store. Fields come from flags or from a JSON file in the
scoring service's request format (--input, "-" reads stdin).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if inputFile != "" {
				in, err := readApplicant(cmd.InOrStdin(), inputFile)
				if err != nil {
					return err
				}
				input = in
			} else {
				if cmd.Flags().Changed("loan") {
					input.LoanAmount = &loan
				}
				if cmd.Flags().Changed("employment") {
					input.EmploymentLength = &employment
				}
			}

			d, err := buildDeps(cmd.Context(), app.cfg, app.log, depsOptions{})
			if err != nil {
				return err
			}
			defer d.Close()

			return runAssess(cmd.Context(), cmd.OutOrStdout(), d.service, input, asJSON)
		},
	}

	f := cmd.Flags()
	f.StringVar(&input.Name, "name", "", "applicant name (defaults to \"New Applicant\")")
	f.IntVar(&input.Age, "age", 35, "age in years")
	f.Float64Var(&input.AnnualIncome, "income", 75000, "annual income")
	f.Float64Var(&input.DebtToIncomeRatio, "dti", 0.3, "debt-to-income ratio (0-1)")
	f.Float64Var(&input.RevolvingUtilization, "utilization", 0.25, "revolving utilization (0-1)")
	f.IntVar(&input.OpenCreditLines, "open-lines", 5, "open credit lines")
	f.IntVar(&input.Delinquencies2Yrs, "delinquencies", 0, "delinquencies in the last 2 years")
	f.IntVar(&input.Dependents, "dependents", 1, "number of dependents")
	f.IntVar(&input.FicoScore, "fico", 720, "FICO score (300-850)")
	f.Float64Var(&loan, "loan", 0, "requested loan amount")
	f.Float64Var(&employment, "employment", 0, "employment length in years")
	f.StringVar(&inputFile, "input", "", "read the applicant from a JSON file")
	f.BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}

func readApplicant(stdin io.Reader, path string) (scoring.ApplicantInput, error) {
	var in scoring.ApplicantInput

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return in, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return in, fmt.Errorf("failed to decode applicant: %w", err)
	}
	return in, nil
}

func runAssess(ctx context.Context, w io.Writer, svc *assessment.Service, input scoring.ApplicantInput, asJSON bool) error {
	res, err := svc.Submit(ctx, input)
	if err != nil {
		return err
	}

	if asJSON {
		out := struct {
			*assessment.Result
			PersistError string `json:"persistError,omitempty"`
		}{Result: res}
		if res.PersistError != nil {
			out.PersistError = res.PersistError.Error()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printResult(w, res)
	return nil
}

func printResult(w io.Writer, res *assessment.Result) {
	rec := res.Record

	for _, h := range res.Hints {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("! %s: %s", h.Field, h.Message)))
	}

	fmt.Fprintf(w, "%s %s\n", headerStyle.Render(rec.ID), rec.Name)
	fmt.Fprintf(w, "  Default probability: %s\n", formatPercent(rec.DefaultProbability))
	fmt.Fprintf(w, "  Risk tier:           %s\n", renderTier(rec.RiskTier))
	fmt.Fprintf(w, "  Status:              %s\n", renderStatus(rec.Status))
	if res.Prediction != nil && res.Prediction.ModelVersion != "" {
		fmt.Fprintf(w, "  Model version:       %s\n", res.Prediction.ModelVersion)
	}

	if len(rec.Insights.TopFactors) > 0 {
		fmt.Fprintln(w, headerStyle.Render("Top factors"))
		for _, f := range rec.Insights.TopFactors {
			fmt.Fprintf(w, "  %-28s %+.3f  %s\n", f.Feature, f.Impact, mutedStyle.Render(f.Reason))
		}
	}
	for _, r := range rec.Insights.Recommendations {
		fmt.Fprintf(w, "  > %s\n", r)
	}

	if res.PersistError != nil {
		fmt.Fprintln(w, warnStyle.Render("Saved for this session only: "+res.PersistError.Error()))
	}
}
