package enums

import "fmt"

// SubscriptionPlan is the commercial tier a business is on.
type SubscriptionPlan string

const (
	SubscriptionPlanTrial    SubscriptionPlan = "trial"
	SubscriptionPlanStarter  SubscriptionPlan = "starter"
	SubscriptionPlanBusiness SubscriptionPlan = "business"
)

var validSubscriptionPlans = []SubscriptionPlan{
	SubscriptionPlanTrial,
	SubscriptionPlanStarter,
	SubscriptionPlanBusiness,
}

// String implements fmt.Stringer.
func (p SubscriptionPlan) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p SubscriptionPlan) IsValid() bool {
	for _, candidate := range validSubscriptionPlans {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseSubscriptionPlan converts raw input into a SubscriptionPlan.
func ParseSubscriptionPlan(value string) (SubscriptionPlan, error) {
	for _, candidate := range validSubscriptionPlans {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription plan %q", value)
}
