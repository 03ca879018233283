package engine

// Role is a player's secret character.
type Role string

const (
	RoleVillager  Role = "villager"
	RoleWolf      Role = "wolf"
	RoleWolfKing  Role = "wolfKing"
	RoleSeer      Role = "seer"
	RoleWitch     Role = "witch"
	RoleHunter    Role = "hunter"
	RoleGuard     Role = "guard"
	RoleModerator Role = "moderator"
)

// Roles lists every playable role, in the order the roster form offers them.
var Roles = []Role{
	RoleVillager, RoleWolf, RoleWolfKing, RoleSeer,
	RoleWitch, RoleHunter, RoleGuard, RoleModerator,
}

// WolfAligned reports whether the role wins with the wolves.
func (r Role) WolfAligned() bool {
	return r == RoleWolf || r == RoleWolfKing
}

// Special reports whether the role is a non-wolf information or support
// role. The village loses when it runs out of these, even if plain
// villagers survive.
func (r Role) Special() bool {
	switch r {
	case RoleSeer, RoleWitch, RoleHunter, RoleGuard:
		return true
	}
	return false
}

func (r Role) valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Phase is the game's top-level state. Lobby is initial, gameOver terminal;
// a fresh game is a new GameState, not a transition out of gameOver.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseNight    Phase = "night"
	PhaseDay      Phase = "day"
	PhaseVoting   Phase = "voting"
	PhaseGameOver Phase = "gameOver"
)

// ActionType names a ballot or secret night choice.
type ActionType string

const (
	ActionVote          ActionType = "vote"
	ActionWolfKill      ActionType = "wolfKill"
	ActionSeerReveal    ActionType = "seerReveal"
	ActionWitchSave     ActionType = "witchSave"
	ActionWitchKill     ActionType = "witchKill"
	ActionGuardProtect  ActionType = "guardProtect"
	ActionHunterShoot   ActionType = "hunterShoot"
	ActionWolfKingShoot ActionType = "wolfKingShoot"
)

// IsNightAction reports whether the action writes a NightActions slot.
func (a ActionType) IsNightAction() bool {
	return a != ActionVote
}

type capKey struct {
	action ActionType
	role   Role
	phase  Phase
}

// capabilities is the permission table: actionType x role x phase -> allowed.
// Adding a role means adding rows here, not branches in the engine.
var capabilities = map[capKey]bool{}

func allow(action ActionType, phase Phase, roles ...Role) {
	for _, r := range roles {
		capabilities[capKey{action, r, phase}] = true
	}
}

func init() {
	allow(ActionVote, PhaseVoting,
		RoleVillager, RoleWolf, RoleWolfKing, RoleSeer, RoleWitch, RoleHunter, RoleGuard)
	allow(ActionWolfKill, PhaseNight, RoleWolf, RoleWolfKing)
	allow(ActionSeerReveal, PhaseNight, RoleSeer)
	allow(ActionWitchSave, PhaseNight, RoleWitch)
	allow(ActionWitchKill, PhaseNight, RoleWitch)
	allow(ActionGuardProtect, PhaseNight, RoleGuard)
	allow(ActionHunterShoot, PhaseNight, RoleHunter)
	allow(ActionWolfKingShoot, PhaseNight, RoleWolfKing)
}

func actionAllowed(role Role, action ActionType, phase Phase) bool {
	return capabilities[capKey{action, role, phase}]
}
