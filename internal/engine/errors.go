package engine

// SetupError reports a roster that cannot start a game: too few players,
// missing required roles, or a missing/duplicated moderator. The game does
// not start and no state is mutated.
type SetupError struct {
	Reason string
}

func (e *SetupError) Error() string {
	return "cannot start game: " + e.Reason
}

// InvalidActionError reports an action rejected at the mutation boundary
// (wrong phase, wrong role, guard repeat-protect, spent witch power). Prior
// state is preserved.
type InvalidActionError struct {
	Reason string
}

func (e *InvalidActionError) Error() string {
	return "invalid action: " + e.Reason
}

// NotFoundError reports a reference to a player id that does not exist.
// The attempted action is a no-op.
type NotFoundError struct {
	PlayerID string
}

func (e *NotFoundError) Error() string {
	return "player not found: " + e.PlayerID
}
