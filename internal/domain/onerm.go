package domain

import "math"

// OneRMFormula estimates a one-rep max from a weight lifted for reps.
type OneRMFormula string

const (
	FormulaEpley    OneRMFormula = "epley"
	FormulaBrzycki  OneRMFormula = "brzycki"
	FormulaLombardi OneRMFormula = "lombardi"
)

// Brzycki is undefined from 37 reps on.
const brzyckiMaxReps = 36

// EstimateOneRM returns the estimated one-rep max for a single set.
// Non-positive weight or reps yield 0. A single rep is its own max for every formula.
func EstimateOneRM(formula OneRMFormula, weight float64, reps int) float64 {
	if weight <= 0 || reps <= 0 {
		return 0
	}
	if reps == 1 {
		return weight
	}
	r := float64(reps)
	switch formula {
	case FormulaBrzycki:
		if reps > brzyckiMaxReps {
			r = brzyckiMaxReps
		}
		return weight * 36 / (37 - r)
	case FormulaLombardi:
		return weight * math.Pow(r, 0.10)
	default:
		return weight * (1 + r/30)
	}
}

// PersonalRecord is the best estimated one-rep max and the set it came from.
type PersonalRecord struct {
	Formula      OneRMFormula `json:"formula"`
	EstimatedMax float64      `json:"estimatedMax"`
	Set          SetEntry     `json:"set"`
	HeaviestSet  SetEntry     `json:"heaviestSet"`
	TotalSets    int          `json:"totalSets"`
}

// BestEstimate scans sets for the highest estimated one-rep max.
// ok is false when no set carries a positive weight and rep count.
func BestEstimate(formula OneRMFormula, sets []SetEntry) (pr PersonalRecord, ok bool) {
	pr.Formula = formula
	for _, s := range sets {
		e := EstimateOneRM(formula, s.Weight, s.Reps)
		if e <= 0 {
			continue
		}
		pr.TotalSets++
		if e > pr.EstimatedMax {
			pr.EstimatedMax = e
			pr.Set = s
		}
		if s.Weight > pr.HeaviestSet.Weight || (s.Weight == pr.HeaviestSet.Weight && s.Reps > pr.HeaviestSet.Reps) {
			pr.HeaviestSet = s
		}
		ok = true
	}
	pr.EstimatedMax = math.Round(pr.EstimatedMax*10) / 10
	return pr, ok
}
