package domain

// VoteType is the direction of a vote submission.
type VoteType string

const (
	VoteTypeUp   VoteType = "upvote"
	VoteTypeDown VoteType = "downvote"
)

// Valid reports whether the vote type is one of the two known directions.
func (v VoteType) Valid() bool {
	return v == VoteTypeUp || v == VoteTypeDown
}

// Ledger values for a (comment, user) pair.
const (
	VoteNone = 0
	VoteUp   = 1
	VoteDown = -1
)

// Value returns the ledger value a vote type writes.
func (v VoteType) Value() int {
	if v == VoteTypeDown {
		return VoteDown
	}
	return VoteUp
}

// NextVoteState applies one vote submission to the current ledger state of a
// (comment, user) pair. Repeating the same direction clears the vote,
// submitting the opposite direction switches it:
//
//	none      --upvote-->   upvoted
//	upvoted   --upvote-->   none
//	upvoted   --downvote--> downvoted
//	downvoted --downvote--> none
//	downvoted --upvote-->   upvoted
//	none      --downvote--> downvoted
func NextVoteState(current int, vote VoteType) int {
	v := vote.Value()
	if current == v {
		return VoteNone
	}
	return v
}
