package decision

import (
	"math"
	"regexp"
	"strings"

	"credit-risk-console/internal/scoring"
)

const maxGuidanceItems = 3

// Tip texts.
const (
	TipDebt        = "Lower debt-to-income ratio below 40% by reducing obligations or increasing income."
	TipUtilization = "Reduce revolving utilization under 30% by paying down card balances."
	TipDelinquency = "Avoid late payments for 6-12 months to improve credit behavior."
	TipCredit      = "Improve credit score by lowering balances and maintaining on-time payments."
	TipGeneric     = "Lower this risk driver to improve approval odds."
)

// Feature families are matched against free-text feature names, so every
// classification needs a generic fallback.
var (
	debtPattern        = regexp.MustCompile(`(?i)debt|dti|income`)
	utilizationPattern = regexp.MustCompile(`(?i)utilization|revolving`)
	delinquencyPattern = regexp.MustCompile(`(?i)delinquenc`)
	creditPattern      = regexp.MustCompile(`(?i)fico|credit`)
)

// whatIfFloor bounds the displayed improvement of one scenario.
const whatIfFloor = -0.15

type Tip struct {
	Feature string  `json:"feature"`
	Impact  float64 `json:"impact"`
	Tip     string  `json:"tip"`
}

// Scenario is a heuristic what-if estimate. The model is never re-run;
// Delta is a fixed fraction of the factor's impact.
type Scenario struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Delta        float64 `json:"delta"`
	DisplayDelta float64 `json:"displayDelta"`
}

// FormatFeature turns "revolving_utilization" into "Revolving Utilization".
func FormatFeature(feature string) string {
	src := []byte(strings.ReplaceAll(feature, "_", " "))
	prevWord := false
	for i, c := range src {
		word := isWordByte(c)
		if word && !prevWord && c >= 'a' && c <= 'z' {
			src[i] = c - 'a' + 'A'
		}
		prevWord = word
	}
	return string(src)
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ImprovementTips covers the first three risk-increasing factors in the
// order the service returned them.
func ImprovementTips(factors []scoring.RiskFactor) []Tip {
	tips := []Tip{}
	for _, f := range factors {
		if !f.IncreasesRisk() {
			continue
		}
		tips = append(tips, Tip{
			Feature: FormatFeature(f.Feature),
			Impact:  f.Impact,
			Tip:     tipFor(f.Feature),
		})
		if len(tips) == maxGuidanceItems {
			break
		}
	}
	return tips
}

func tipFor(feature string) string {
	switch {
	case debtPattern.MatchString(feature):
		return TipDebt
	case utilizationPattern.MatchString(feature):
		return TipUtilization
	case delinquencyPattern.MatchString(feature):
		return TipDelinquency
	case creditPattern.MatchString(feature):
		return TipCredit
	default:
		return TipGeneric
	}
}

// WhatIfScenarios builds at most one card each for utilization, debt and
// delinquency, using the first factor of each family regardless of its
// direction.
func WhatIfScenarios(factors []scoring.RiskFactor) []Scenario {
	templates := []struct {
		pattern     *regexp.Regexp
		title       string
		description string
		fraction    float64
	}{
		{utilizationPattern, "Reduce Utilization by 20%", "Pay down revolving balances to lower utilization.", 0.20},
		{debtPattern, "Reduce DTI by 10%", "Increase income or reduce obligations.", 0.15},
		{delinquencyPattern, "6 Months On-time Payments", "Improve recent payment behavior.", 0.10},
	}

	scenarios := []Scenario{}
	for _, tpl := range templates {
		f, ok := firstMatch(factors, tpl.pattern)
		if !ok {
			continue
		}
		delta := -(f.Impact * tpl.fraction)
		scenarios = append(scenarios, Scenario{
			Title:        tpl.title,
			Description:  tpl.description,
			Delta:        delta,
			DisplayDelta: math.Max(whatIfFloor, delta),
		})
	}
	return scenarios
}

func firstMatch(factors []scoring.RiskFactor, pattern *regexp.Regexp) (scoring.RiskFactor, bool) {
	for _, f := range factors {
		if pattern.MatchString(f.Feature) {
			return f, true
		}
	}
	return scoring.RiskFactor{}, false
}
