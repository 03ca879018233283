package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nightPlayers() []Player {
	return []Player{
		{ID: "mod", Name: "Mona", Role: RoleModerator, Alive: true},
		{ID: "v1", Name: "Ada", Role: RoleVillager, Alive: true},
		{ID: "v2", Name: "Bert", Role: RoleVillager, Alive: true},
		{ID: "v3", Name: "Cora", Role: RoleVillager, Alive: true},
		{ID: "wolf", Name: "Wolfgang", Role: RoleWolf, Alive: true},
		{ID: "king", Name: "Kaiser", Role: RoleWolfKing, Alive: true},
		{ID: "seer", Name: "Selene", Role: RoleSeer, Alive: true},
		{ID: "witch", Name: "Wanda", Role: RoleWitch, Alive: true},
		{ID: "hunter", Name: "Hugo", Role: RoleHunter, Alive: true},
		{ID: "guard", Name: "Greta", Role: RoleGuard, Alive: true},
	}
}

func deadIDs(out Outcome) []string {
	var ids []string
	for _, d := range out.Deaths {
		ids = append(ids, d.PlayerID)
	}
	return ids
}

func TestResolveNightGuardOutranksWitch(t *testing.T) {
	// Guard and witch both cover the victim: only the guard's
	// protection narrates, and nobody dies.
	out := ResolveNight(nightPlayers(), NightActions{
		WolfKill:    "v1",
		GuardTarget: "v1",
		WitchSave:   "v1",
	})

	assert.Empty(t, out.Deaths)
	require.Len(t, out.Events, 1)
	assert.Contains(t, out.Events[0], "guard")
	assert.NotContains(t, out.Events[0], "antidote")
}

func TestResolveNightWitchSaveNegatesKill(t *testing.T) {
	out := ResolveNight(nightPlayers(), NightActions{
		WolfKill:    "v1",
		GuardTarget: "v2",
		WitchSave:   "v1",
	})

	assert.Empty(t, out.Deaths)
	require.Len(t, out.Events, 1)
	assert.Contains(t, out.Events[0], "antidote")
}

func TestResolveNightWolfKillLands(t *testing.T) {
	out := ResolveNight(nightPlayers(), NightActions{WolfKill: "v1"})

	require.Len(t, out.Deaths, 1)
	assert.Equal(t, Death{PlayerID: "v1", Cause: CauseWolves}, out.Deaths[0])
}

func TestResolveNightPoisonIsUnconditional(t *testing.T) {
	// Neither the guard nor the witch's own save can block the poison.
	out := ResolveNight(nightPlayers(), NightActions{
		WitchKill:   "v2",
		GuardTarget: "v2",
		WitchSave:   "v2",
	})

	require.Len(t, out.Deaths, 1)
	assert.Equal(t, Death{PlayerID: "v2", Cause: CausePoison}, out.Deaths[0])
}

func TestResolveNightHunterChain(t *testing.T) {
	// The poisoned hunter still takes their pre-chosen shot.
	out := ResolveNight(nightPlayers(), NightActions{
		WitchKill:    "hunter",
		HunterTarget: "wolf",
	})

	assert.Equal(t, []string{"hunter", "wolf"}, deadIDs(out))
	assert.Equal(t, CauseHunter, out.Deaths[1].Cause)
}

func TestResolveEliminationChainsThroughBothAbilities(t *testing.T) {
	// Lynched wolf king claws the hunter; the hunter's own shot still
	// fires at a wolf. Three bodies, one pass.
	out := ResolveElimination(nightPlayers(), NightActions{
		WolfKingTarget: "hunter",
		HunterTarget:   "wolf",
	}, "king")

	assert.Equal(t, []string{"king", "hunter", "wolf"}, deadIDs(out))
}

func TestResolveEliminationCycleTerminates(t *testing.T) {
	// Hunter and wolf king point their death shots at each other. The
	// worklist refuses to kill anyone twice, so the chain ends.
	out := ResolveElimination(nightPlayers(), NightActions{
		WolfKingTarget: "hunter",
		HunterTarget:   "king",
	}, "king")

	assert.Equal(t, []string{"king", "hunter"}, deadIDs(out))
}

func TestResolveNightSeerFinding(t *testing.T) {
	tests := []struct {
		target string
		isWolf bool
	}{
		{"wolf", true},
		{"king", true},
		{"v1", false},
		{"seer", false},
	}
	for _, tt := range tests {
		out := ResolveNight(nightPlayers(), NightActions{SeerReveal: tt.target})
		require.NotNil(t, out.Finding, "target %s", tt.target)
		assert.Equal(t, tt.target, out.Finding.TargetID)
		assert.Equal(t, tt.isWolf, out.Finding.IsWolf)
		assert.Empty(t, out.Deaths, "a finding is advisory only")
	}
}

func TestResolveNightSkipsDeadTargets(t *testing.T) {
	players := nightPlayers()
	players[1].Alive = false // v1 already dead

	out := ResolveNight(players, NightActions{WolfKill: "v1", WitchKill: "v1"})
	assert.Empty(t, out.Deaths)
	assert.Empty(t, out.Events)
}

func TestResolveNightDoesNotMutateInput(t *testing.T) {
	players := nightPlayers()
	_ = ResolveNight(players, NightActions{WolfKill: "v1", WitchKill: "v2"})

	for _, p := range players {
		assert.True(t, p.Alive)
	}
}

func TestResolveNightQuiet(t *testing.T) {
	out := ResolveNight(nightPlayers(), NightActions{})
	assert.Empty(t, out.Deaths)
	assert.Empty(t, out.Events)
	assert.Nil(t, out.Finding)
}
