package engine

// Channel is a chat channel.
type Channel string

const (
	ChannelVillage Channel = "village"
	ChannelWolf    Channel = "wolf"
)

// ActiveChannel decides a player's default compose target for the given
// phase. During the day and the vote everyone speaks in the village; at
// night wolf-aligned players speak in the wolf den. The moderator always
// composes to the village (their superset view is the presentation
// layer's job, not the router's).
func ActiveChannel(p Player, phase Phase) Channel {
	if phase == PhaseNight && p.Role.WolfAligned() {
		return ChannelWolf
	}
	return ChannelVillage
}

// CanReadChannel reports whether a viewer may read the given channel.
// Wolf-channel messages must never reach a living non-wolf, non-moderator
// player; the dead spectate everything.
func CanReadChannel(viewer Player, ch Channel) bool {
	if ch == ChannelVillage {
		return true
	}
	return viewer.Role.WolfAligned() || viewer.Role == RoleModerator || !viewer.Alive
}
