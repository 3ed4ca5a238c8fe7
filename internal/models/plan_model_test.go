package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlan(t *testing.T) {
	for _, raw := range []string{"free", "starter", "pro"} {
		plan, ok := ParsePlan(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, Plan(raw), plan)
	}

	for _, raw := range []string{"", "enterprise", "Free", "PRO"} {
		_, ok := ParsePlan(raw)
		assert.False(t, ok, raw)
	}
}

func TestPlanDetails(t *testing.T) {
	assert.Equal(t, PlanDetails{Label: "Free", Credits: 5, Amount: 0}, PlanFree.Details())
	assert.Equal(t, PlanDetails{Label: "Starter", Credits: 25, Amount: 2000}, PlanStarter.Details())
	assert.Equal(t, PlanDetails{Label: "Pro", Credits: 150, Amount: 10000}, PlanPro.Details())
}

func TestPlanDetails_UnknownFallsBackToFree(t *testing.T) {
	assert.Equal(t, PlanFree.Details(), Plan("legacy-tier").Details())
}

func TestPlanValid(t *testing.T) {
	assert.True(t, PlanStarter.Valid())
	assert.False(t, Plan("enterprise").Valid())
}

func TestUserView_RedactsInternalFields(t *testing.T) {
	u := User{
		ID:            "u1",
		Email:         "a@b.com",
		DisplayName:   "Ada",
		PhotoURL:      "https://example.com/ada.png",
		Credits:       7,
		Plan:          PlanPro,
		BetaAccess:    true,
		BetaRequested: true,
		Purchases:     []Purchase{{ID: "p1"}},
	}

	view := u.View()
	assert.Equal(t, &ProfileView{
		UID:         "u1",
		Email:       "a@b.com",
		DisplayName: "Ada",
		Credits:     7,
		Plan:        PlanPro,
		PhotoURL:    "https://example.com/ada.png",
	}, view)
}
