package assessment

import (
	"sort"

	"credit-risk-console/internal/common/validation"
	"credit-risk-console/internal/scoring"
)

// rangeHints mirrors the bounds shown on the assessment form. They are
// advisory: the scoring service owns real validation.
var rangeHints = validation.JSONSchema{
	Type:                 "object",
	AdditionalProperties: false,
	Properties: map[string]validation.Property{
		"name":                  {Type: "string", MaxLength: validation.Int(200)},
		"age":                   {Type: "integer", Minimum: validation.Float(18), Maximum: validation.Float(100)},
		"annual_income":         {Type: "number", Minimum: validation.Float(1000), Maximum: validation.Float(10000000)},
		"debt_to_income_ratio":  {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(1)},
		"revolving_utilization": {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(1)},
		"open_credit_lines":     {Type: "integer", Minimum: validation.Float(0)},
		"delinquencies_2yrs":    {Type: "integer", Minimum: validation.Float(0)},
		"dependents":            {Type: "integer", Minimum: validation.Float(0), Maximum: validation.Float(10)},
		"fico_score":            {Type: "integer", Minimum: validation.Float(300), Maximum: validation.Float(850)},
		"loan_amount":           {Type: "number", Minimum: validation.Float(100)},
		"employment_length":     {Type: "number", Minimum: validation.Float(0), Maximum: validation.Float(50)},
	},
}

// CheckRanges reports form-bound violations without rejecting anything.
func CheckRanges(input scoring.ApplicantInput) []validation.ValidationError {
	result, err := validation.ValidateStruct(input, rangeHints)
	if err != nil || result.Valid {
		return nil
	}
	hints := result.Errors
	sort.SliceStable(hints, func(i, j int) bool { return hints[i].Field < hints[j].Field })
	return hints
}
