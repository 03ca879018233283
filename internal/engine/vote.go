package engine

import "sort"

// TallyResult is the outcome of counting the day's lynch ballots.
// Exactly one of three shapes: Eliminated set (a single plurality target),
// Tied holding two or more ids (no lynch), or both empty (nobody voted).
type TallyResult struct {
	Eliminated string
	Tied       []string
}

// TallyVotes counts ballots with actionType vote and resolves the lynch
// target. A single pass over the per-target counts tracks the running
// maximum and the set of targets tied at it: a strictly higher count
// resets the set, an equal count joins it. Pure.
func TallyVotes(votes []VoteAction) TallyResult {
	counts := make(map[string]int)
	for _, v := range votes {
		if v.Action != ActionVote {
			continue
		}
		counts[v.TargetID]++
	}

	maxVotes := 0
	var leaders []string
	for target, count := range counts {
		switch {
		case count > maxVotes:
			maxVotes = count
			leaders = []string{target}
		case count == maxVotes:
			leaders = append(leaders, target)
		}
	}

	var res TallyResult
	switch {
	case len(leaders) == 1:
		res.Eliminated = leaders[0]
	case len(leaders) > 1:
		sort.Strings(leaders)
		res.Tied = leaders
	}
	return res
}
