package config

import "tokenwatch/internal/model"

// Named quota plans and their token limits per window.
const (
	PlanPro       = "pro"
	PlanMax5      = "max5"
	PlanMax20     = "max20"
	PlanCustomMax = "custom_max"
)

const proLimit = 7_000

var planLimits = map[string]int64{
	PlanPro:   proLimit,
	PlanMax5:  35_000,
	PlanMax20: 140_000,
}

// PlanNames lists the selectable plans in display order.
func PlanNames() []string {
	return []string{PlanPro, PlanMax5, PlanMax20, PlanCustomMax}
}

// KnownPlan reports whether name is a recognized plan.
func KnownPlan(name string) bool {
	if name == PlanCustomMax {
		return true
	}
	_, ok := planLimits[name]
	return ok
}

// TokenLimit returns the per-window token limit for the given plan.
// custom_max derives the limit from the largest completed non-gap record,
// falling back to the pro limit when history offers nothing.
func TokenLimit(plan string, records []model.UsageRecord) int64 {
	if plan == PlanCustomMax {
		var max int64
		for _, r := range records {
			if r.IsGap || r.IsActive {
				continue
			}
			if r.TotalTokens > max {
				max = r.TotalTokens
			}
		}
		if max > 0 {
			return max
		}
		return proLimit
	}

	if limit, ok := planLimits[plan]; ok {
		return limit
	}
	return proLimit
}
