package engine

import "fmt"

// Narration texts spoken by the moderator. Kept in one place so the
// presentation layer and the tests agree on the wording.

const (
	narrationWolvesAct  = "Wolves, open your eyes and choose your prey."
	narrationBeginVote  = "Discussion is over. The village will now vote."
	narrationNoVotes    = "Nobody raised a hand. The village is indecisive; no one is lynched."
	narrationTiedVote   = "The vote is tied. No one is lynched today."
	narrationNightAgain = "The sun sets. Everyone, close your eyes."
)

func narrationNightFalls(day int) string {
	return fmt.Sprintf("Night %d falls over the village. Everyone, close your eyes.", day)
}

func narrationDawn(day int) string {
	return fmt.Sprintf("Day %d breaks. The village wakes.", day)
}

func narrationQuietDawn(day int) string {
	return fmt.Sprintf("Day %d breaks. The night was quiet; everyone wakes.", day)
}

func narrationSpeakerTurn(name string) string {
	return fmt.Sprintf("It is %s's turn to speak.", name)
}

func narrationWinner(winner Role) string {
	if winner == RoleWolf {
		return "The game is over. The wolves have devoured the village."
	}
	return "The game is over. The village has driven out the last wolf."
}

// The restricted-channel text deliberately does not say who the seer is;
// wolves read this log and must not learn the seer's identity from it.
func narrationSeerFinding(targetName string, isWolf bool) string {
	if isWolf {
		return fmt.Sprintf("The seer peers at %s and sees a wolf.", targetName)
	}
	return fmt.Sprintf("The seer peers at %s and sees an innocent.", targetName)
}
