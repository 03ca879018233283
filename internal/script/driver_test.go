package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wolfden/internal/engine"
)

func replayDemo(t *testing.T) engine.GameState {
	t.Helper()
	eng := engine.New()
	d := New(eng)
	require.NoError(t, d.Run(context.Background(), DemoRoster(), DemoSteps()))
	return eng.Snapshot()
}

func TestDemoScriptVillageWins(t *testing.T) {
	st := replayDemo(t)

	assert.Equal(t, engine.PhaseGameOver, st.Phase)
	assert.Equal(t, engine.RoleVillager, st.Winner)
}

func TestDemoScriptCasualties(t *testing.T) {
	st := replayDemo(t)

	alive := map[string]bool{}
	for _, p := range st.Players {
		alive[p.Name] = p.Alive
	}
	assert.False(t, alive["Ada"], "wolf kill on night one")
	assert.False(t, alive["Wolfgang"], "lynched on day one")
	assert.False(t, alive["Kaiser"], "lynched on day two")
	assert.True(t, alive["Selene"], "saved by the witch on night two")
	assert.True(t, alive["Bert"])
	assert.True(t, alive["Greta"])
}

func TestDemoScriptIsDeterministic(t *testing.T) {
	first := replayDemo(t)
	second := replayDemo(t)

	require.Equal(t, len(first.Messages.Village), len(second.Messages.Village))
	for i := range first.Messages.Village {
		assert.Equal(t, first.Messages.Village[i].Content, second.Messages.Village[i].Content)
	}
	assert.Equal(t, first.Winner, second.Winner)
	assert.Equal(t, first.DayCount, second.DayCount)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := engine.New()
	d := New(eng, WithDelay(1))
	err := d.Run(ctx, DemoRoster(), DemoSteps())
	require.ErrorIs(t, err, context.Canceled)
}

func TestStepHookFiresPerStep(t *testing.T) {
	eng := engine.New()
	var fired int
	d := New(eng, WithStepHook(func() { fired++ }))
	require.NoError(t, d.Run(context.Background(), DemoRoster(), DemoSteps()))

	// Once after Start plus once per step.
	assert.Equal(t, 1+len(DemoSteps()), fired)
}

func TestRunRejectsBadRoster(t *testing.T) {
	eng := engine.New()
	d := New(eng)
	err := d.Run(context.Background(), []engine.RosterEntry{
		{Name: "Solo", Role: engine.RoleModerator},
	}, nil)
	require.Error(t, err)
	assert.Equal(t, engine.PhaseLobby, eng.Phase())
}
