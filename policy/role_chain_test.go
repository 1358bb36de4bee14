package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"relief-claims-api/models"
)

func TestChainOrder(t *testing.T) {
	assert.Equal(t, []models.Role{
		models.RoleTehsildar,
		models.RoleSDM,
		models.RoleRahatOperator,
		models.RoleOIC,
		models.RoleADG,
		models.RoleCollector,
	}, Chain())
	assert.Equal(t, models.RoleTehsildar, Origin())
	assert.Equal(t, models.RoleSDM, FirstReviewer())
	assert.Equal(t, models.RoleCollector, FinalAuthority())
}

func TestChainReturnsCopy(t *testing.T) {
	c := Chain()
	c[0] = "mutated"
	assert.Equal(t, models.RoleTehsildar, Chain()[0])
}

func TestNextRole(t *testing.T) {
	tests := []struct {
		current models.Role
		want    models.Role
		ok      bool
	}{
		{models.RoleTehsildar, models.RoleSDM, true},
		{models.RoleSDM, models.RoleRahatOperator, true},
		{models.RoleRahatOperator, models.RoleOIC, true},
		{models.RoleOIC, models.RoleADG, true},
		{models.RoleADG, models.RoleCollector, true},
		{models.RoleCollector, "", false},
		{"clerk", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.current), func(t *testing.T) {
			got, ok := NextRole(tt.current)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestCanAct(t *testing.T) {
	tests := []struct {
		name    string
		actor   models.Role
		current models.Role
		status  models.ClaimStatus
		want    bool
	}{
		{"holder", models.RoleOIC, models.RoleOIC, models.StatusPending, true},
		{"other reviewer", models.RoleSDM, models.RoleOIC, models.StatusPending, false},
		{"origin reads anything", models.RoleTehsildar, models.RoleADG, models.StatusUnderReview, true},
		{"final authority payment lane", models.RoleCollector, models.RoleTehsildar, models.StatusPaymentReady, true},
		{"final authority after payment", models.RoleCollector, models.RoleTehsildar, models.StatusPaymentApproved, false},
		{"unknown actor", "clerk", models.RoleOIC, models.StatusPending, false},
		{"unknown holder", models.RoleOIC, "clerk", models.StatusPending, false},
		{"unknown status", models.RoleOIC, models.RoleOIC, "archived", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAct(tt.actor, tt.current, tt.status))
		})
	}
}

func TestCanActOnClaimChecksOwnership(t *testing.T) {
	owner := models.Identity{ID: "off-t1", Role: models.RoleTehsildar}
	other := models.Identity{ID: "off-t2", Role: models.RoleTehsildar}
	rahat := models.Identity{ID: "off-r", Role: models.RoleRahatOperator}

	held := models.Claim{CreatedBy: owner.ID, CurrentRole: models.RoleRahatOperator, Status: models.StatusPending}
	assert.True(t, CanActOnClaim(owner, held))
	assert.False(t, CanActOnClaim(other, held))
	assert.True(t, CanActOnClaim(rahat, held))

	draft := models.Claim{CreatedBy: owner.ID, CurrentRole: models.RoleTehsildar, Status: models.StatusDraft}
	assert.True(t, CanActOnClaim(owner, draft))
	assert.False(t, CanActOnClaim(other, draft))
}

func TestMayDecideIsStrict(t *testing.T) {
	for _, actor := range Chain() {
		for _, holder := range Chain() {
			assert.Equal(t, actor == holder, MayDecide(actor, holder), "%s on %s", actor, holder)
		}
	}
	assert.False(t, MayDecide("", ""))
}

func TestTerminalAndActionable(t *testing.T) {
	for _, s := range models.AllStatuses {
		terminal := s == models.StatusRejected || s == models.StatusPaymentApproved
		assert.Equal(t, terminal, IsTerminal(s), string(s))
		if terminal {
			assert.False(t, IsActionable(s), string(s))
		}
	}
	assert.False(t, IsActionable(models.StatusDraft))
	assert.True(t, IsActionable(models.StatusUnderReview))
}
