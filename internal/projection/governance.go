package projection

import (
	"math/big"
	"time"

	"basebond/internal/model"
)

// Status is the derived state of a proposal.
type Status string

const (
	StatusActive    Status = "active"
	StatusPassed    Status = "passed"
	StatusRejected  Status = "rejected"
	StatusExecuted  Status = "executed"
	StatusCancelled Status = "cancelled"
)

// ProposalStatus checks, in order: cancelled, executed, deadline passed
// (passed when for > against, else rejected), active.
func ProposalStatus(p model.Proposal, now time.Time) Status {
	if p.Cancelled {
		return StatusCancelled
	}
	if p.Executed {
		return StatusExecuted
	}
	if now.Unix() > int64(p.Deadline) {
		if bigOrZero(p.VotesFor).Cmp(bigOrZero(p.VotesAgainst)) > 0 {
			return StatusPassed
		}
		return StatusRejected
	}
	return StatusActive
}

// VotePercentageFor returns 50 when no vote has been cast, otherwise the
// share of "for" votes in [0, 100], truncated.
func VotePercentageFor(p model.Proposal) int64 {
	votesFor := bigOrZero(p.VotesFor)
	total := new(big.Int).Add(votesFor, bigOrZero(p.VotesAgainst))
	if total.Sign() == 0 {
		return 50
	}
	pct := new(big.Int).Mul(votesFor, big.NewInt(100))
	pct.Quo(pct, total)
	return pct.Int64()
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
