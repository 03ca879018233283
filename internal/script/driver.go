// Package script drives a complete showcase game through the engine's
// public surface, exactly the way an external controller would: seat the
// roster, start, then replay a fixed list of steps with a delay between
// them. The engine is never called reentrantly and never bypassed.
package script

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wolfden/internal/engine"
)

// StepKind says what a step does.
type StepKind string

const (
	StepSay     StepKind = "say"
	StepVote    StepKind = "vote"
	StepAdvance StepKind = "advance"
	StepSpeaker StepKind = "speaker"
)

// Step is one scripted action, with players referenced by roster name.
type Step struct {
	Kind    StepKind
	Actor   string
	Target  string
	Action  engine.ActionType
	Text    string
	Channel engine.Channel
}

// Driver replays a script against an engine.
type Driver struct {
	eng    *engine.Engine
	log    *zap.SugaredLogger
	delay  time.Duration
	onStep func()
}

// Option configures a Driver.
type Option func(*Driver)

// WithDelay sets the pause between steps. Zero replays instantly.
func WithDelay(d time.Duration) Option {
	return func(dr *Driver) { dr.delay = d }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(dr *Driver) { dr.log = log }
}

// WithStepHook runs fn after every applied step, typically to broadcast
// the new state to viewers.
func WithStepHook(fn func()) Option {
	return func(dr *Driver) { dr.onStep = fn }
}

// New returns a driver for the given engine.
func New(eng *engine.Engine, opts ...Option) *Driver {
	d := &Driver{eng: eng, log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run seats the roster, starts the game and replays the steps in order.
// It stops early if the context is cancelled or the game ends before the
// script does. Step rejections are engine verdicts, not driver bugs; they
// are logged and the replay moves on.
func (d *Driver) Run(ctx context.Context, roster []engine.RosterEntry, steps []Step) error {
	d.eng.Reset()
	if err := d.eng.SetRoster(roster); err != nil {
		return fmt.Errorf("seat roster: %w", err)
	}
	if err := d.eng.Start(); err != nil {
		return fmt.Errorf("start scripted game: %w", err)
	}
	d.fireHook()

	for i, step := range steps {
		if err := d.pause(ctx); err != nil {
			return err
		}
		if d.eng.Phase() == engine.PhaseGameOver && step.Kind != StepAdvance {
			d.log.Infow("script ended early", "step", i)
			return nil
		}
		if err := d.apply(step); err != nil {
			d.log.Warnw("script step rejected", "step", i, "kind", step.Kind, "err", err)
		}
		d.fireHook()
	}
	return nil
}

func (d *Driver) apply(step Step) error {
	switch step.Kind {
	case StepSay:
		return d.eng.SendMessage(d.playerID(step.Actor), step.Text, step.Channel)
	case StepVote:
		return d.eng.CastVote(d.playerID(step.Actor), d.playerID(step.Target), step.Action)
	case StepAdvance:
		return d.eng.Advance()
	case StepSpeaker:
		return d.eng.NextSpeaker()
	}
	return fmt.Errorf("unknown step kind %q", step.Kind)
}

// playerID resolves a roster name through the public snapshot. Unknown
// names return "", which the engine treats as a missing actor.
func (d *Driver) playerID(name string) string {
	for _, p := range d.eng.Snapshot().Players {
		if p.Name == name {
			return p.ID
		}
	}
	return ""
}

func (d *Driver) pause(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(d.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Driver) fireHook() {
	if d.onStep != nil {
		d.onStep()
	}
}

// DemoRoster is the cast used by the canned showcase game.
func DemoRoster() []engine.RosterEntry {
	return []engine.RosterEntry{
		{Name: "Mona", Role: engine.RoleModerator},
		{Name: "Ada", Role: engine.RoleVillager},
		{Name: "Bert", Role: engine.RoleVillager},
		{Name: "Cora", Role: engine.RoleVillager},
		{Name: "Wolfgang", Role: engine.RoleWolf},
		{Name: "Kaiser", Role: engine.RoleWolfKing},
		{Name: "Selene", Role: engine.RoleSeer},
		{Name: "Wanda", Role: engine.RoleWitch},
		{Name: "Hugo", Role: engine.RoleHunter},
		{Name: "Greta", Role: engine.RoleGuard},
	}
}

// DemoSteps is a two-day showcase game the village wins. Deterministic:
// replaying it always produces the same transcript and winner.
func DemoSteps() []Step {
	say := func(actor, text string) Step {
		return Step{Kind: StepSay, Actor: actor, Text: text, Channel: engine.ChannelVillage}
	}
	wolfSay := func(actor, text string) Step {
		return Step{Kind: StepSay, Actor: actor, Text: text, Channel: engine.ChannelWolf}
	}
	vote := func(actor, target string, action engine.ActionType) Step {
		return Step{Kind: StepVote, Actor: actor, Target: target, Action: action}
	}

	return []Step{
		// Night 1.
		wolfSay("Wolfgang", "The farm girl. Nobody watches the stables."),
		wolfSay("Kaiser", "Agreed. Ada it is."),
		vote("Wolfgang", "Ada", engine.ActionWolfKill),
		vote("Selene", "Wolfgang", engine.ActionSeerReveal),
		vote("Greta", "Bert", engine.ActionGuardProtect),
		vote("Hugo", "Wolfgang", engine.ActionHunterShoot),
		{Kind: StepAdvance},

		// Day 1: survivors speak in seat order, the seer tips the village off.
		say("Bert", "Ada never hurt a soul. There is a wolf among us."),
		{Kind: StepSpeaker},
		say("Cora", "I heard howling near the mill last night."),
		{Kind: StepSpeaker},
		say("Wolfgang", "I was asleep like everyone else."),
		{Kind: StepSpeaker},
		say("Kaiser", "Accusations without proof tear a village apart."),
		{Kind: StepSpeaker},
		say("Selene", "Trust me on this: watch Wolfgang very closely."),
		{Kind: StepSpeaker},
		say("Wanda", "The miller keeps odd hours for an honest man."),
		{Kind: StepAdvance},

		// Vote 1: Wolfgang hangs.
		vote("Bert", "Wolfgang", engine.ActionVote),
		vote("Cora", "Wolfgang", engine.ActionVote),
		vote("Selene", "Wolfgang", engine.ActionVote),
		vote("Wanda", "Wolfgang", engine.ActionVote),
		vote("Hugo", "Wolfgang", engine.ActionVote),
		vote("Wolfgang", "Selene", engine.ActionVote),
		vote("Kaiser", "Selene", engine.ActionVote),
		{Kind: StepAdvance},

		// Night 2: the wolf king retaliates; the witch spends her potion.
		wolfSay("Kaiser", "The seer dies tonight."),
		vote("Kaiser", "Selene", engine.ActionWolfKill),
		vote("Wanda", "Selene", engine.ActionWitchSave),
		vote("Greta", "Cora", engine.ActionGuardProtect),
		{Kind: StepAdvance},

		// Day 2: the saved seer names the wolf king.
		say("Bert", "Nobody died? The witch was busy, then."),
		{Kind: StepSpeaker},
		say("Cora", "Then someone was attacked and lived to tell."),
		{Kind: StepSpeaker},
		say("Kaiser", "A quiet night proves nothing."),
		{Kind: StepSpeaker},
		say("Selene", "It was Kaiser. I owe the witch my life."),
		{Kind: StepAdvance},

		// Vote 2: the village finishes it.
		vote("Bert", "Kaiser", engine.ActionVote),
		vote("Cora", "Kaiser", engine.ActionVote),
		vote("Selene", "Kaiser", engine.ActionVote),
		vote("Wanda", "Kaiser", engine.ActionVote),
		vote("Hugo", "Kaiser", engine.ActionVote),
		vote("Kaiser", "Bert", engine.ActionVote),
		{Kind: StepAdvance},
	}
}
