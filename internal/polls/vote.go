package polls

import "math"

// Action is the outcome of applying a vote request to the user's current
// selection. Voting is a toggle: picking the already-selected option removes
// the vote, picking another option moves it.
type Action string

const (
	ActionVote   Action = "vote"
	ActionUnvote Action = "unvote"
	ActionChange Action = "change"
)

// Transition decides the action for a vote on optionID given the user's
// current selection (nil = not voted).
func Transition(current *int64, optionID int64) Action {
	switch {
	case current == nil:
		return ActionVote
	case *current == optionID:
		return ActionUnvote
	default:
		return ActionChange
	}
}

// Percentage returns count as a whole percentage of total, rounded half up.
// A zero total yields 0 for every option. Because each option rounds
// independently the percentages need not sum to exactly 100.
func Percentage(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}
