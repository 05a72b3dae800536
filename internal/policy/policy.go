// Package policy evaluates a governance policy against a batch of
// computed prompt costs (spec.md §4.7): an allow-list of models and a
// total budget ceiling.
package policy

import (
	"sort"

	"github.com/llm-cost/llm-cost/internal/errs"
)

// Policy is the subset of a parsed governance manifest the evaluator
// needs. Manifest parsing itself (TOML decode into this shape) lives
// with the CLI wrapper, outside this package's scope.
type Policy struct {
	// AllowedModels, if non-nil, is the exhaustive set of models every
	// prompt in the batch must use.
	AllowedModels []string
	// MaxCostUSD, if Present, is the ceiling for the batch's total cost.
	MaxCostUSD Rate
}

// Rate distinguishes an absent budget ceiling from an explicit zero
// ceiling, mirroring catalog.Rate's Option-typed treatment of rates.
type Rate struct {
	Value   float64
	Present bool
}

// SomeMaxCost returns a Rate with the ceiling v set.
func SomeMaxCost(v float64) Rate { return Rate{Value: v, Present: true} }

// PromptCost is one evaluated prompt: the model it used, its total
// cost in USD, and any tags attached to it (for cardinality warnings).
type PromptCost struct {
	Model   string
	CostUSD float64
	Tags    map[string]string
}

// Verdict is the evaluator's outcome.
type Verdict int

const (
	Ok Verdict = iota
	BudgetExceeded
	PolicyViolation
)

func (v Verdict) String() string {
	switch v {
	case Ok:
		return "Ok"
	case BudgetExceeded:
		return "BudgetExceeded"
	case PolicyViolation:
		return "PolicyViolation"
	default:
		return "Unknown"
	}
}

// Result is the full evaluation outcome, including non-fatal warnings.
type Result struct {
	Verdict      Verdict
	TotalCostUSD float64
	// OffendingModel is set only when Verdict == PolicyViolation.
	OffendingModel string
	// Warnings holds tag-cardinality notices; these never change Verdict.
	Warnings []string
}

const tagCardinalityLimit = 100

// Evaluate checks prompts against pol per spec.md §4.7's ordered
// checks: the allow-list first (a disallowed model is a harder
// failure than mere overspend), then the total budget. Tag cardinality
// is checked last and only ever produces a warning.
func Evaluate(pol Policy, prompts []PromptCost) (Result, error) {
	if pol.AllowedModels != nil {
		allowed := make(map[string]struct{}, len(pol.AllowedModels))
		for _, m := range pol.AllowedModels {
			allowed[m] = struct{}{}
		}
		for _, p := range prompts {
			if _, ok := allowed[p.Model]; !ok {
				return Result{
					Verdict:        PolicyViolation,
					OffendingModel: p.Model,
				}, errs.Policy("model not in allow-list").
					WithField("model", p.Model).
					WithField("allowed_models", pol.AllowedModels)
			}
		}
	}

	var total float64
	for _, p := range prompts {
		total += p.CostUSD
	}

	if pol.MaxCostUSD.Present && total > pol.MaxCostUSD.Value {
		return Result{
			Verdict:      BudgetExceeded,
			TotalCostUSD: total,
		}, errs.Budget("total cost exceeds budget").
			WithField("total_cost_usd", total).
			WithField("max_cost_usd", pol.MaxCostUSD.Value)
	}

	return Result{
		Verdict:      Ok,
		TotalCostUSD: total,
		Warnings:     tagCardinalityWarnings(prompts),
	}, nil
}

func tagCardinalityWarnings(prompts []PromptCost) []string {
	values := make(map[string]map[string]struct{})
	for _, p := range prompts {
		for k, v := range p.Tags {
			if values[k] == nil {
				values[k] = make(map[string]struct{})
			}
			values[k][v] = struct{}{}
		}
	}

	var keys []string
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var warnings []string
	for _, k := range keys {
		if len(values[k]) > tagCardinalityLimit {
			warnings = append(warnings, "tag key "+k+" has more than 100 distinct values")
		}
	}
	return warnings
}
