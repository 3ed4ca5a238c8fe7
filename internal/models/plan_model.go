package models

// Plan is the closed set of subscription tiers. Anything outside this set
// is rejected at the edges; stored documents with an unknown plan value are
// read back as PlanFree for display purposes.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanStarter Plan = "starter"
	PlanPro     Plan = "pro"
)

// PlanDetails describes what a tier grants. The table below is the single
// source of truth for credit allotments and pricing; handlers and the
// billing service look tiers up here instead of branching on plan names.
type PlanDetails struct {
	Label   string
	Credits int64
	Amount  int64 // price in cents
}

var planTable = map[Plan]PlanDetails{
	PlanFree:    {Label: "Free", Credits: 5, Amount: 0},
	PlanStarter: {Label: "Starter", Credits: 25, Amount: 2000},
	PlanPro:     {Label: "Pro", Credits: 150, Amount: 10000},
}

// FreeTierCredits is the balance granted at first sign-in.
const FreeTierCredits = 5

// ParsePlan validates a raw plan string against the closed enumeration.
func ParsePlan(raw string) (Plan, bool) {
	p := Plan(raw)
	_, ok := planTable[p]
	return p, ok
}

// Details returns the grant table entry for the plan. Unknown values fall
// back to the free tier.
func (p Plan) Details() PlanDetails {
	if d, ok := planTable[p]; ok {
		return d
	}
	return planTable[PlanFree]
}

// Valid reports whether the plan is a member of the closed enumeration.
func (p Plan) Valid() bool {
	_, ok := planTable[p]
	return ok
}
