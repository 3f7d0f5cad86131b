package decision

import (
	"math"

	"credit-risk-console/internal/scoring"
)

// Affordability bands for payment-to-income.
const (
	BandGood       = "good"
	BandModerate   = "moderate"
	BandConcerning = "concerning"
)

// Capacity notes keyed on loan-to-income.
const (
	CapacityHigh     = "High loan-to-income ratio; consider reducing amount or extending term."
	CapacityModerate = "Moderate loan-to-income; ensure terms remain affordable."
	CapacityHealthy  = "Healthy loan-to-income profile."
)

type Affordability struct {
	MonthlyPayment  float64 `json:"monthlyPayment"`
	PaymentToIncome float64 `json:"paymentToIncome"`
	Band            string  `json:"band"`
	AnnualRate      float64 `json:"annualRate"`
	TermMonths      int     `json:"termMonths"`
	DebtToIncome    float64 `json:"debtToIncome"`
}

// MonthlyPayment is the standard annuity payment. It is 0 whenever the
// amount, rate or term is not positive.
func MonthlyPayment(amount, annualRate float64, months int) float64 {
	if amount <= 0 || annualRate <= 0 || months <= 0 {
		return 0
	}
	r := annualRate / 12
	growth := math.Pow(1+r, float64(months))
	return amount * r * growth / (growth - 1)
}

// EstimateAffordability prices the applicant's requested amount at the
// label's representative rate and longest suggested term.
func EstimateAffordability(label string, applicant scoring.ApplicantInput) Affordability {
	rate := AnnualRate(label)
	months := TermMonths(Term(label))
	payment := MonthlyPayment(applicant.Loan(), rate, months)

	var ratio float64
	if monthlyIncome := applicant.AnnualIncome / 12; monthlyIncome > 0 {
		ratio = payment / monthlyIncome
	}

	return Affordability{
		MonthlyPayment:  payment,
		PaymentToIncome: ratio,
		Band:            paymentBand(ratio),
		AnnualRate:      rate,
		TermMonths:      months,
		DebtToIncome:    applicant.DebtToIncomeRatio,
	}
}

func paymentBand(ratio float64) string {
	switch {
	case ratio < 0.25:
		return BandGood
	case ratio < 0.40:
		return BandModerate
	default:
		return BandConcerning
	}
}

// LoanToIncome is loan amount over annual income, 0 without income.
func LoanToIncome(applicant scoring.ApplicantInput) float64 {
	if applicant.AnnualIncome <= 0 {
		return 0
	}
	return applicant.Loan() / applicant.AnnualIncome
}

func CapacityNote(loanToIncome float64) string {
	switch {
	case loanToIncome > 0.6:
		return CapacityHigh
	case loanToIncome > 0.4:
		return CapacityModerate
	default:
		return CapacityHealthy
	}
}
