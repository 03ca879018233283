// Package engine implements the moderation engine for a village-vs-wolves
// social deduction game: the phase state machine, ordered night resolution,
// vote tallying, win evaluation, speaking-order rotation, and chat-channel
// routing. The engine is a library: it performs no I/O and exposes no
// transport; presentation collaborators drive it through the public
// methods and read back Snapshot.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine owns the single live GameState. Every public method runs as one
// atomic transition: all reads come from the same consistent state and the
// complete result is written back before any other mutation is observed.
type Engine struct {
	mu    sync.Mutex
	state GameState

	log   *zap.SugaredLogger
	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger. Without it the engine stays silent.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) { e.log = log }
}

// WithClock overrides the message-timestamp source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDSource overrides the id generator, for deterministic tests.
func WithIDSource(next func() string) Option {
	return func(e *Engine) { e.newID = next }
}

// New creates an engine holding a fresh lobby game.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:   zap.NewNop().Sugar(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state = newGameState(e.newID())
	return e
}

// Snapshot returns an independent copy of the current game state.
func (e *Engine) Snapshot() GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Phase
}

// Reset abandons the current game and replaces it wholesale: new game id,
// empty roster, lobby phase.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = newGameState(e.newID())
	e.log.Infow("game reset", "gameId", e.state.GameID)
}

// AddPlayer adds a player to the roster. Only allowed before the game
// starts. An empty role defaults to villager.
func (e *Engine) AddPlayer(name string, isHuman bool, role Role) (Player, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase != PhaseLobby {
		return Player{}, &InvalidActionError{Reason: "players can only join before the game starts"}
	}
	if role == "" {
		role = RoleVillager
	}
	if !role.valid() {
		return Player{}, &InvalidActionError{Reason: fmt.Sprintf("unknown role %q", role)}
	}

	p := Player{ID: e.newID(), Name: name, Role: role, Alive: true, IsHuman: isHuman}
	e.state.Players = append(e.state.Players, p)
	e.log.Debugw("player added", "name", name, "role", role, "human", isHuman)
	return p, nil
}

// RemovePlayer removes a player from the roster. Only allowed before the
// game starts; once live, players die, they don't leave.
func (e *Engine) RemovePlayer(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase != PhaseLobby {
		return &InvalidActionError{Reason: "players cannot be removed after the game starts"}
	}
	for i, p := range e.state.Players {
		if p.ID == id {
			e.state.Players = append(e.state.Players[:i], e.state.Players[i+1:]...)
			e.log.Debugw("player removed", "name", p.Name)
			return nil
		}
	}
	return &NotFoundError{PlayerID: id}
}

// SetRoster replaces the whole roster. Only allowed before the game starts.
func (e *Engine) SetRoster(entries []RosterEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Phase != PhaseLobby {
		return &InvalidActionError{Reason: "the roster is locked once the game starts"}
	}
	players := make([]Player, 0, len(entries))
	for _, entry := range entries {
		role := entry.Role
		if role == "" {
			role = RoleVillager
		}
		if !role.valid() {
			return &InvalidActionError{Reason: fmt.Sprintf("unknown role %q", entry.Role)}
		}
		players = append(players, Player{
			ID:      e.newID(),
			Name:    entry.Name,
			Role:    role,
			Alive:   true,
			IsHuman: entry.IsHuman,
		})
	}
	e.state.Players = players
	return nil
}

// Start validates the roster and begins the first night. On failure the
// game stays in the lobby untouched.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := &e.state

	if st.Phase != PhaseLobby {
		return &InvalidActionError{Reason: "the game has already started"}
	}
	if err := validateRoster(st.Players); err != nil {
		return err
	}

	st.Phase = PhaseNight
	st.DayCount = 1
	st.Witch = WitchPowers{HasPotion: true, HasPoison: true}
	st.Night = NightActions{}
	st.Votes = nil

	e.say(st, ChannelVillage, KindModerator, narrationNightFalls(st.DayCount))
	e.say(st, ChannelWolf, KindModerator, narrationWolvesAct)

	e.log.Infow("game started", "gameId", st.GameID, "players", len(st.Players))
	return nil
}

func validateRoster(players []Player) error {
	counts := make(map[Role]int)
	for _, p := range players {
		counts[p.Role]++
	}
	if counts[RoleModerator] != 1 {
		return &SetupError{Reason: "exactly one moderator is required"}
	}
	if len(players) < 4 {
		return &SetupError{Reason: "at least 4 players are required"}
	}
	switch {
	case counts[RoleVillager] < 3:
		return &SetupError{Reason: "at least 3 villagers are required"}
	case counts[RoleWolf]+counts[RoleWolfKing] < 1:
		return &SetupError{Reason: "at least 1 wolf is required"}
	case counts[RoleSeer] != 1:
		return &SetupError{Reason: "exactly one seer is required"}
	case counts[RoleWitch] != 1:
		return &SetupError{Reason: "exactly one witch is required"}
	case counts[RoleHunter] != 1:
		return &SetupError{Reason: "exactly one hunter is required"}
	case counts[RoleGuard] > 1:
		return &SetupError{Reason: "at most one guard is allowed"}
	}
	return nil
}

// Advance is the only phase-transition entry point. What it does depends on
// the current phase: night resolves into day (or straight to game over),
// day opens the vote, the vote resolves into the next night or game over,
// and game over rolls into a brand-new lobby.
func (e *Engine) Advance() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := &e.state

	switch st.Phase {
	case PhaseNight:
		e.advanceNight(st)
	case PhaseDay:
		st.SpeakingPlayerID = ""
		st.Votes = nil
		st.Phase = PhaseVoting
		e.say(st, ChannelVillage, KindModerator, narrationBeginVote)
	case PhaseVoting:
		e.advanceVoting(st)
	case PhaseGameOver:
		e.state = newGameState(e.newID())
		e.log.Infow("new lobby opened", "gameId", e.state.GameID)
	default:
		return &InvalidActionError{Reason: "the game has not started"}
	}
	return nil
}

func (e *Engine) advanceNight(st *GameState) {
	out := ResolveNight(st.Players, st.Night)
	winner := e.applyOutcome(st, out)
	e.recordFinding(st, out.Finding)

	if winner != "" {
		e.finish(st, winner)
		return
	}

	st.Phase = PhaseDay
	st.Votes = nil
	if len(out.Deaths) == 0 {
		e.say(st, ChannelVillage, KindModerator, narrationQuietDawn(st.DayCount))
	} else {
		e.say(st, ChannelVillage, KindModerator, narrationDawn(st.DayCount))
	}

	// Seed the speaking rotation with the first living non-moderator in
	// roster order.
	st.SpeakingPlayerID = ""
	if speakers := st.livingSpeakers(); len(speakers) > 0 {
		st.SpeakingPlayerID = speakers[0].ID
		e.say(st, ChannelVillage, KindModerator, narrationSpeakerTurn(speakers[0].Name))
	}

	e.log.Infow("night resolved", "day", st.DayCount, "deaths", len(out.Deaths))
}

func (e *Engine) advanceVoting(st *GameState) {
	res := TallyVotes(st.Votes)

	switch {
	case res.Eliminated != "":
		out := ResolveElimination(st.Players, st.Night, res.Eliminated)
		winner := e.applyOutcome(st, out)
		if winner != "" {
			e.finish(st, winner)
			return
		}
	case len(res.Tied) > 1:
		e.say(st, ChannelVillage, KindModerator, narrationTiedVote)
	default:
		e.say(st, ChannelVillage, KindModerator, narrationNoVotes)
	}

	st.DayCount++
	st.Night = NightActions{LastGuardTarget: st.Night.GuardTarget}
	st.Votes = nil
	st.Phase = PhaseNight
	e.say(st, ChannelVillage, KindModerator, narrationNightAgain)
	e.say(st, ChannelWolf, KindModerator, narrationWolvesAct)
	e.log.Infow("vote resolved", "day", st.DayCount-1, "eliminated", res.Eliminated, "tied", len(res.Tied) > 1)
}

// applyOutcome marks the outcome's casualties dead in order, evaluating the
// win condition after each one. The first non-null winner sticks, but the
// remaining deaths still land so the narration stays complete.
func (e *Engine) applyOutcome(st *GameState, out Outcome) Role {
	var winner Role
	for _, d := range out.Deaths {
		st.markDead(d.PlayerID)
		if winner == "" {
			winner = EvaluateWinner(st.Players)
		}
	}
	for _, event := range out.Events {
		e.say(st, ChannelVillage, KindModerator, event)
	}
	return winner
}

// recordFinding stores the seer's result and narrates it into the
// restricted log. Advisory only.
func (e *Engine) recordFinding(st *GameState, finding *SeerFinding) {
	if finding == nil {
		return
	}
	for _, p := range st.Players {
		if p.Role == RoleSeer {
			finding.SeerID = p.ID
			break
		}
	}
	finding.Night = st.DayCount
	st.SeerFindings = append(st.SeerFindings, *finding)

	target, _ := st.player(finding.TargetID)
	e.say(st, ChannelWolf, KindSystem, narrationSeerFinding(target.Name, finding.IsWolf))
}

func (e *Engine) finish(st *GameState, winner Role) {
	st.Winner = winner
	st.Phase = PhaseGameOver
	st.SpeakingPlayerID = ""
	e.say(st, ChannelVillage, KindModerator, narrationWinner(winner))
	e.log.Infow("game over", "gameId", st.GameID, "winner", winner, "day", st.DayCount)
}

// NextSpeaker advances the speaking rotation to the next living
// non-moderator player in roster order, wrapping. If the current speaker is
// gone (they died), the rotation restarts from the top. No-op when nobody
// is left to speak.
func (e *Engine) NextSpeaker() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := &e.state

	if st.Phase != PhaseDay {
		return &InvalidActionError{Reason: "speaking order only rotates during the day"}
	}
	speakers := st.livingSpeakers()
	if len(speakers) == 0 {
		return nil
	}

	next := speakers[0]
	for i, p := range speakers {
		if p.ID == st.SpeakingPlayerID {
			next = speakers[(i+1)%len(speakers)]
			break
		}
	}
	st.SpeakingPlayerID = next.ID
	e.say(st, ChannelVillage, KindModerator, narrationSpeakerTurn(next.Name))
	return nil
}

// CastVote records a ballot or a secret night choice for the voter. Casting
// again for the same action replaces the earlier ballot. Night actions also
// write their NightActions slot; the witch's save and poison consume her
// single-use powers. A no-op when the voter does not exist.
func (e *Engine) CastVote(voterID, targetID string, action ActionType) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := &e.state

	voter, ok := st.player(voterID)
	if !ok {
		return nil // no acting player, nothing to do
	}
	if !voter.Alive {
		return &InvalidActionError{Reason: "dead players cannot act"}
	}
	if !actionAllowed(voter.Role, action, st.Phase) {
		return &InvalidActionError{Reason: fmt.Sprintf("%s may not %s during %s", voter.Role, action, st.Phase)}
	}

	target, ok := st.player(targetID)
	if !ok {
		return &NotFoundError{PlayerID: targetID}
	}
	if !target.Alive {
		return &InvalidActionError{Reason: "cannot target a dead player"}
	}

	prior := st.voteIndex(voterID, action)

	switch action {
	case ActionGuardProtect:
		// The guard may not protect the same player two nights running.
		if st.Night.LastGuardTarget != "" && targetID == st.Night.LastGuardTarget {
			return &InvalidActionError{Reason: "the guard cannot protect the same player two nights in a row"}
		}
	case ActionWitchSave:
		if prior < 0 && !st.Witch.HasPotion {
			return &InvalidActionError{Reason: "the witch's potion is already spent"}
		}
	case ActionWitchKill:
		if prior < 0 && !st.Witch.HasPoison {
			return &InvalidActionError{Reason: "the witch's poison is already spent"}
		}
	}

	if prior >= 0 {
		st.Votes[prior].TargetID = targetID
	} else {
		st.Votes = append(st.Votes, VoteAction{VoterID: voterID, TargetID: targetID, Action: action})
	}

	switch action {
	case ActionWolfKill:
		st.Night.WolfKill = targetID
	case ActionSeerReveal:
		st.Night.SeerReveal = targetID
	case ActionWitchSave:
		st.Night.WitchSave = targetID
		st.Witch.HasPotion = false
	case ActionWitchKill:
		st.Night.WitchKill = targetID
		st.Witch.HasPoison = false
	case ActionGuardProtect:
		st.Night.GuardTarget = targetID
	case ActionHunterShoot:
		st.Night.HunterTarget = targetID
	case ActionWolfKingShoot:
		st.Night.WolfKingTarget = targetID
	}

	e.log.Debugw("vote cast", "voter", voter.Name, "target", target.Name, "action", action)
	return nil
}

// SendMessage appends a chat line from the given player to the given
// channel. The sender must be alive, must compose to their active channel,
// and during the day only the current speaker may talk (the moderator is
// exempt).
func (e *Engine) SendMessage(senderID, content string, ch Channel) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := &e.state

	sender, ok := st.player(senderID)
	if !ok {
		return &NotFoundError{PlayerID: senderID}
	}
	if !sender.Alive {
		return &InvalidActionError{Reason: "the dead do not speak"}
	}
	if ch != ActiveChannel(sender, st.Phase) {
		return &InvalidActionError{Reason: fmt.Sprintf("cannot write to the %s channel now", ch)}
	}
	if st.Phase == PhaseDay && sender.Role != RoleModerator && st.SpeakingPlayerID != senderID {
		return &InvalidActionError{Reason: "it is not your turn to speak"}
	}

	kind := KindVillage
	switch {
	case sender.Role == RoleModerator:
		kind = KindModerator
	case ch == ChannelWolf:
		kind = KindWolf
	}
	st.append(ChatMessage{
		ID:         e.newID(),
		SenderID:   sender.ID,
		SenderName: sender.Name,
		Content:    content,
		Timestamp:  e.now(),
		Channel:    ch,
		Kind:       kind,
	})
	return nil
}

// say appends a narration line spoken by the game itself.
func (e *Engine) say(st *GameState, ch Channel, kind MessageKind, content string) {
	st.append(ChatMessage{
		ID:         e.newID(),
		SenderName: "Moderator",
		Content:    content,
		Timestamp:  e.now(),
		Channel:    ch,
		Kind:       kind,
	})
}

// IsActionAllowed reports whether the player could cast the given action
// right now: alive, permitted by the capability table, and (for the witch)
// holding the power it spends.
func (e *Engine) IsActionAllowed(playerID string, action ActionType) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := &e.state

	p, ok := st.player(playerID)
	if !ok || !p.Alive || !actionAllowed(p.Role, action, st.Phase) {
		return false
	}
	switch action {
	case ActionWitchSave:
		return st.Witch.HasPotion
	case ActionWitchKill:
		return st.Witch.HasPoison
	}
	return true
}

// AlivePlayersWithRole returns the living players holding the role, in
// roster order.
func (e *Engine) AlivePlayersWithRole(role Role) []Player {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Player
	for _, p := range e.state.Players {
		if p.Alive && p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// AlivePlayersWithoutRole returns the living players not holding the role,
// in roster order.
func (e *Engine) AlivePlayersWithoutRole(role Role) []Player {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Player
	for _, p := range e.state.Players {
		if p.Alive && p.Role != role {
			out = append(out, p)
		}
	}
	return out
}

// ActiveChannel returns the player's default compose target for the
// current phase. Unknown players compose to the village.
func (e *Engine) ActiveChannel(playerID string) Channel {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.state.player(playerID)
	if !ok {
		return ChannelVillage
	}
	return ActiveChannel(p, e.state.Phase)
}

// CurrentWinner returns the winning side, or "" while the game continues.
func (e *Engine) CurrentWinner() Role {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Winner
}
