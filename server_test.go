package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wolfden/internal/engine"
)

func liveGameState() engine.GameState {
	at := time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC)
	return engine.GameState{
		GameID:   "g-1",
		Phase:    engine.PhaseNight,
		DayCount: 1,
		Players: []engine.Player{
			{ID: "mod", Name: "Mona", Role: engine.RoleModerator, Alive: true},
			{ID: "v1", Name: "Ada", Role: engine.RoleVillager, Alive: true},
			{ID: "v2", Name: "Bert", Role: engine.RoleVillager, Alive: false},
			{ID: "w1", Name: "Wolfgang", Role: engine.RoleWolf, Alive: true},
			{ID: "w2", Name: "Kaiser", Role: engine.RoleWolfKing, Alive: true},
			{ID: "seer", Name: "Selene", Role: engine.RoleSeer, Alive: true},
		},
		Messages: engine.MessageLog{
			Village: []engine.ChatMessage{
				{ID: "m1", SenderName: "Mona", Content: "Night falls.", Channel: engine.ChannelVillage, Timestamp: at},
			},
			Wolf: []engine.ChatMessage{
				{ID: "m2", SenderName: "Wolfgang", Content: "Take the baker.", Channel: engine.ChannelWolf, Timestamp: at.Add(time.Minute)},
			},
		},
		SeerFindings: []engine.SeerFinding{
			{Night: 1, SeerID: "seer", TargetID: "w1", IsWolf: true},
		},
		Witch: engine.WitchPowers{HasPotion: true, HasPoison: true},
	}
}

func viewRoles(v *GameView) map[string]engine.Role {
	out := make(map[string]engine.Role, len(v.Players))
	for _, p := range v.Players {
		out[p.ID] = p.Role
	}
	return out
}

func TestVillagerViewHidesSecrets(t *testing.T) {
	v := buildView(liveGameState(), "v1")

	require.Len(t, v.Messages, 1)
	assert.Equal(t, "Night falls.", v.Messages[0].Content)

	roles := viewRoles(v)
	assert.Equal(t, engine.RoleVillager, roles["v1"], "own role is visible")
	assert.Empty(t, roles["w1"])
	assert.Empty(t, roles["seer"])
	assert.Empty(t, v.Findings)
	assert.Nil(t, v.Witch)
}

func TestWolfViewSeesDenAndTeammates(t *testing.T) {
	v := buildView(liveGameState(), "w1")

	require.Len(t, v.Messages, 2)
	assert.Equal(t, "Take the baker.", v.Messages[1].Content)

	roles := viewRoles(v)
	assert.Equal(t, engine.RoleWolfKing, roles["w2"], "wolves know each other")
	assert.Empty(t, roles["seer"])
	assert.Empty(t, v.Findings)
}

func TestModeratorViewSeesEverything(t *testing.T) {
	v := buildView(liveGameState(), "mod")

	assert.Len(t, v.Messages, 2)
	roles := viewRoles(v)
	assert.Equal(t, engine.RoleWolf, roles["w1"])
	assert.Equal(t, engine.RoleSeer, roles["seer"])
	assert.Len(t, v.Findings, 1)
	require.NotNil(t, v.Witch)
	assert.True(t, v.Witch.HasPotion)
}

func TestDeadPlayerSpectatesWolfChannel(t *testing.T) {
	v := buildView(liveGameState(), "v2")

	assert.Len(t, v.Messages, 2)
	roles := viewRoles(v)
	assert.Empty(t, roles["w1"], "death reveals channels, not roles")
}

func TestSeerViewCarriesOwnFindings(t *testing.T) {
	v := buildView(liveGameState(), "seer")

	require.Len(t, v.Findings, 1)
	assert.True(t, v.Findings[0].IsWolf)
	assert.Len(t, v.Messages, 1, "the seer is not in the wolf den")
}

func TestUnseatedSpectatorGetsVillageOnly(t *testing.T) {
	v := buildView(liveGameState(), "")

	assert.Len(t, v.Messages, 1)
	assert.Empty(t, v.ViewerID)
	for _, p := range v.Players {
		assert.Empty(t, p.Role)
		assert.False(t, p.You)
	}
}

func TestGameOverRevealsAll(t *testing.T) {
	st := liveGameState()
	st.Phase = engine.PhaseGameOver
	st.Winner = engine.RoleVillager

	v := buildView(st, "v1")

	assert.Equal(t, engine.RoleVillager, v.Winner)
	assert.Len(t, v.Messages, 2)
	roles := viewRoles(v)
	assert.Equal(t, engine.RoleWolf, roles["w1"])
	assert.Len(t, v.Findings, 1)
}

func TestMessagesSortedByTimestamp(t *testing.T) {
	st := liveGameState()
	// Wolf chatter lands between two village lines.
	st.Messages.Village = append(st.Messages.Village, engine.ChatMessage{
		ID: "m3", SenderName: "Mona", Content: "Dawn breaks.",
		Channel: engine.ChannelVillage, Timestamp: st.Messages.Wolf[0].Timestamp.Add(time.Minute),
	})

	v := buildView(st, "mod")
	require.Len(t, v.Messages, 3)
	assert.Equal(t, "Night falls.", v.Messages[0].Content)
	assert.Equal(t, "Take the baker.", v.Messages[1].Content)
	assert.Equal(t, "Dawn breaks.", v.Messages[2].Content)
}
