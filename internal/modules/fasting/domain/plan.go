package domain

const (
	Plan16x8   = "16/8"
	Plan18x6   = "18/6"
	Plan20x4   = "20/4"
	PlanOMAD   = "OMAD"
	PlanCustom = "Custom"
)

var planHours = map[string]float64{
	Plan16x8: 16,
	Plan18x6: 18,
	Plan20x4: 20,
	PlanOMAD: 23,
}

// KnownPlans lists the named plans in menu order.
func KnownPlans() []string {
	return []string{Plan16x8, Plan18x6, Plan20x4, PlanOMAD, PlanCustom}
}

// PlanHours resolves the fasting hours of a plan. Custom and free-form
// labels resolve to fallback.
func PlanHours(plan string, fallback float64) float64 {
	if hours, ok := planHours[plan]; ok {
		return hours
	}
	return fallback
}
