package engine

// EvaluateWinner inspects the living players and decides whether the game
// has reached a terminal outcome. Returns RoleWolf or RoleVillager for the
// winning side, or "" while the game continues. The moderator never counts.
//
// The wolves win when the village's plain population or its special
// (information/support) roles are exhausted, even if the other group
// survives; the villagers win when no wolf-aligned player remains.
// Idempotent and side-effect-free.
func EvaluateWinner(players []Player) Role {
	var wolves, villagers, specials int
	for _, p := range players {
		if !p.Alive || p.Role == RoleModerator {
			continue
		}
		switch {
		case p.Role.WolfAligned():
			wolves++
		case p.Role == RoleVillager:
			villagers++
		case p.Role.Special():
			specials++
		}
	}

	switch {
	case villagers == 0 || specials == 0:
		return RoleWolf
	case wolves == 0:
		return RoleVillager
	}
	return ""
}
