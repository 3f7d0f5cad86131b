package main

import (
	"errors"
	"fmt"
	"io"

	"credit-risk-console/internal/applications"
	"credit-risk-console/internal/assessment"
	apperrors "credit-risk-console/internal/common/errors"
	"credit-risk-console/internal/scoring"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	tierStyles = map[string]lipgloss.Style{
		scoring.RiskLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		scoring.RiskMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		scoring.RiskHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}

	statusStyles = map[string]lipgloss.Style{
		applications.StatusAutoApproved: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		applications.StatusReview:       lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		applications.StatusManualHold:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

func renderTier(tier string) string {
	if s, ok := tierStyles[tier]; ok {
		return s.Render(tier)
	}
	return tier
}

func renderStatus(status string) string {
	if s, ok := statusStyles[status]; ok {
		return s.Render(status)
	}
	return status
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// printError renders domain failures by their code and anything else as is.
func printError(w io.Writer, err error) {
	var std *apperrors.StandardError
	if !errors.As(err, &std) {
		std = assessment.Classify(err, "")
	}
	if std.Code == apperrors.ErrCodeInternal {
		fmt.Fprintln(w, errorStyle.Render("Error: ")+err.Error())
		return
	}
	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("Error [%s]: ", std.Code))+std.Message)
	if std.Details != "" {
		fmt.Fprintln(w, mutedStyle.Render("  "+std.Details))
	}
}
