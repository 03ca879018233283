package engine

import "fmt"

// DeathCause says what killed a player during resolution.
type DeathCause string

const (
	CauseWolves   DeathCause = "wolves"
	CausePoison   DeathCause = "poison"
	CauseHunter   DeathCause = "hunter"
	CauseWolfKing DeathCause = "wolfKing"
	CauseLynch    DeathCause = "lynch"
)

// Death is one casualty produced by a resolution pass, in the order it
// happened. Callers apply deaths in order and check win conditions after
// each one; the first winner observed is the one that sticks.
type Death struct {
	PlayerID string
	Cause    DeathCause
}

// Outcome is the result of resolving a night or a lynch: the ordered
// casualties, the narration lines describing them, and (at night) the
// seer's private finding.
type Outcome struct {
	Deaths  []Death
	Events  []string
	Finding *SeerFinding
}

// ResolveNight applies one night's secret actions to the given players and
// returns the outcome. Pure: the input slice is never mutated.
//
// Resolution order matters. The guard's protection outranks the witch's
// save; the witch's poison is unconditional and cannot be blocked by
// either. Death-triggered abilities (hunter, wolf king) fire from a
// worklist so that chains terminate even when two such roles target each
// other.
func ResolveNight(players []Player, acts NightActions) Outcome {
	r := newDeathResolver(players, acts)

	if acts.WolfKill != "" {
		if victim, ok := r.living(acts.WolfKill); ok {
			switch {
			case acts.GuardTarget == acts.WolfKill:
				r.event("The wolves struck at %s, but the guard stood watch. No blood was spilled.", victim.Name)
			case acts.WitchSave == acts.WolfKill:
				r.event("The wolves struck at %s, but the witch's antidote pulled them back from the brink.", victim.Name)
			default:
				r.kill(victim.ID, CauseWolves,
					fmt.Sprintf("%s was torn apart by the wolves in the night.", victim.Name))
			}
		}
	}

	if acts.WitchKill != "" {
		if victim, ok := r.living(acts.WitchKill); ok {
			r.kill(victim.ID, CausePoison,
				fmt.Sprintf("%s drank from a poisoned cup and did not wake.", victim.Name))
		}
	}

	r.drain()

	if acts.SeerReveal != "" {
		if target, ok := r.byID[acts.SeerReveal]; ok {
			r.out.Finding = &SeerFinding{
				TargetID: target.ID,
				IsWolf:   target.Role.WolfAligned(),
			}
		}
	}

	return r.out
}

// ResolveElimination applies a daytime lynch of victimID plus any
// death-triggered abilities it sets off. The ability targets come from the
// night-action slots chosen during the preceding night. Pure.
func ResolveElimination(players []Player, acts NightActions, victimID string) Outcome {
	r := newDeathResolver(players, acts)
	if victim, ok := r.living(victimID); ok {
		r.kill(victim.ID, CauseLynch,
			fmt.Sprintf("The village has spoken: %s is dragged to the gallows.", victim.Name))
	}
	r.drain()
	return r.out
}

// deathResolver tracks who died during one resolution pass and drains the
// worklist of death-triggered abilities. kill refuses to fell the same
// player twice, so the worklist cannot loop even when the hunter and the
// wolf king point their final shots at each other.
type deathResolver struct {
	byID  map[string]Player
	acts  NightActions
	dead  map[string]bool
	queue []string
	out   Outcome
}

func newDeathResolver(players []Player, acts NightActions) *deathResolver {
	r := &deathResolver{
		byID: make(map[string]Player, len(players)),
		acts: acts,
		dead: make(map[string]bool),
	}
	for _, p := range players {
		r.byID[p.ID] = p
	}
	return r
}

// living returns the player for id if they exist and are still standing.
func (r *deathResolver) living(id string) (Player, bool) {
	p, ok := r.byID[id]
	if !ok || !p.Alive || r.dead[p.ID] {
		return Player{}, false
	}
	return p, true
}

func (r *deathResolver) event(format string, args ...any) {
	r.out.Events = append(r.out.Events, fmt.Sprintf(format, args...))
}

func (r *deathResolver) kill(id string, cause DeathCause, event string) {
	if _, ok := r.living(id); !ok {
		return
	}
	r.dead[id] = true
	r.out.Deaths = append(r.out.Deaths, Death{PlayerID: id, Cause: cause})
	r.out.Events = append(r.out.Events, event)
	r.queue = append(r.queue, id)
}

func (r *deathResolver) drain() {
	for len(r.queue) > 0 {
		id := r.queue[0]
		r.queue = r.queue[1:]
		p := r.byID[id]

		switch p.Role {
		case RoleHunter:
			if target, ok := r.living(r.acts.HunterTarget); ok {
				r.kill(target.ID, CauseHunter,
					fmt.Sprintf("With a dying breath, hunter %s raised their rifle: %s falls.", p.Name, target.Name))
			}
		case RoleWolfKing:
			if target, ok := r.living(r.acts.WolfKingTarget); ok {
				r.kill(target.ID, CauseWolfKing,
					fmt.Sprintf("The wolf king %s lashed out in death and took %s along.", p.Name, target.Name))
			}
		}
	}
}
