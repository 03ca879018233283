package engine

import (
	"slices"
	"time"
)

// Player is a roster entry. Status only ever moves alive -> dead, exactly
// once; players are removable only before the game starts.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
	Alive   bool   `json:"alive"`
	IsHuman bool   `json:"isHuman"`
}

// RosterEntry describes a player to seed via SetRoster.
type RosterEntry struct {
	Name    string
	Role    Role
	IsHuman bool
}

// WitchPowers tracks the witch's single-use potion and poison. Both flags
// are monotonic: once consumed they never come back.
type WitchPowers struct {
	HasPotion bool `json:"hasPotion"`
	HasPoison bool `json:"hasPoison"`
}

// NightActions is the per-night scratch record of secret choices, one slot
// per ability. Empty string means the slot is unset. Every slot resets at
// the start of a night except LastGuardTarget, which carries the previous
// night's guard target to enforce the no-consecutive-protect rule.
type NightActions struct {
	WolfKill        string `json:"wolfKill"`
	SeerReveal      string `json:"seerReveal"`
	WitchSave       string `json:"witchSave"`
	WitchKill       string `json:"witchKill"`
	HunterTarget    string `json:"hunterTarget"`
	WolfKingTarget  string `json:"wolfKingTarget"`
	GuardTarget     string `json:"guardTarget"`
	LastGuardTarget string `json:"lastGuardTarget"`
}

// VoteAction is one live ballot. At most one exists per (voter, action)
// pair; casting again replaces the earlier one.
type VoteAction struct {
	VoterID  string     `json:"voterId"`
	TargetID string     `json:"targetId"`
	Action   ActionType `json:"actionType"`
}

// MessageKind tags who a chat line speaks as.
type MessageKind string

const (
	KindVillage   MessageKind = "village"
	KindWolf      MessageKind = "wolf"
	KindModerator MessageKind = "moderator"
	KindSystem    MessageKind = "system"
)

// ChatMessage is one append-only chat line. Messages are never edited or
// deleted; ordering is by timestamp.
type ChatMessage struct {
	ID         string      `json:"id"`
	SenderID   string      `json:"senderId"`
	SenderName string      `json:"senderName"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	Channel    Channel     `json:"channel"`
	Kind       MessageKind `json:"kind"`
}

// MessageLog holds the two chat channels. The wolf log is only readable by
// wolf-aligned players, the moderator, and the dead.
type MessageLog struct {
	Village []ChatMessage `json:"village"`
	Wolf    []ChatMessage `json:"wolf"`
}

// SeerFinding records one night's investigation result. Advisory only; it
// never changes anyone's status.
type SeerFinding struct {
	Night    int    `json:"night"`
	SeerID   string `json:"seerId"`
	TargetID string `json:"targetId"`
	IsWolf   bool   `json:"isWolf"`
}

// GameState is the aggregate root. Exactly one instance is live per game;
// reset replaces it wholesale under a new GameID.
type GameState struct {
	GameID           string        `json:"gameId"`
	Phase            Phase         `json:"phase"`
	Players          []Player      `json:"players"`
	Messages         MessageLog    `json:"messages"`
	Votes            []VoteAction  `json:"votes"`
	DayCount         int           `json:"dayCount"`
	Night            NightActions  `json:"nightActions"`
	Witch            WitchPowers   `json:"witchPowers"`
	SpeakingPlayerID string        `json:"speakingPlayerId"`
	Winner           Role          `json:"winners"`
	SeerFindings     []SeerFinding `json:"seerFindings"`
}

func newGameState(id string) GameState {
	return GameState{GameID: id, Phase: PhaseLobby}
}

// clone returns an independent copy safe to hand outside the engine.
func (s GameState) clone() GameState {
	out := s
	out.Players = slices.Clone(s.Players)
	out.Votes = slices.Clone(s.Votes)
	out.Messages.Village = slices.Clone(s.Messages.Village)
	out.Messages.Wolf = slices.Clone(s.Messages.Wolf)
	out.SeerFindings = slices.Clone(s.SeerFindings)
	return out
}

func (s *GameState) player(id string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// livingSpeakers returns the living non-moderator players in roster
// (insertion) order. This is the day-phase speaking rotation.
func (s *GameState) livingSpeakers() []Player {
	var out []Player
	for _, p := range s.Players {
		if p.Alive && p.Role != RoleModerator {
			out = append(out, p)
		}
	}
	return out
}

func (s *GameState) markDead(id string) {
	for i := range s.Players {
		if s.Players[i].ID == id {
			s.Players[i].Alive = false
			return
		}
	}
}

func (s *GameState) append(msg ChatMessage) {
	if msg.Channel == ChannelWolf {
		s.Messages.Wolf = append(s.Messages.Wolf, msg)
	} else {
		s.Messages.Village = append(s.Messages.Village, msg)
	}
}

func (s *GameState) voteIndex(voterID string, action ActionType) int {
	for i, v := range s.Votes {
		if v.VoterID == voterID && v.Action == action {
			return i
		}
	}
	return -1
}
