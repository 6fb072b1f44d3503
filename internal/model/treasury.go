package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Proposal is a treasury spending proposal. Its status is always derived.
type Proposal struct {
	ID           uint64         `json:"id"`
	Proposer     common.Address `json:"proposer"`
	Description  string         `json:"description"`
	Recipient    common.Address `json:"recipient"`
	Amount       *big.Int       `json:"amount"`
	VotesFor     *big.Int       `json:"votes_for"`
	VotesAgainst *big.Int       `json:"votes_against"`
	Deadline     uint64         `json:"deadline"`
	Executed     bool           `json:"executed"`
	Cancelled    bool           `json:"cancelled"`
}

// TreasuryOverview holds the treasury-wide values.
type TreasuryOverview struct {
	Balance              *big.Int `json:"balance"`
	PlatformFeeBps       *big.Int `json:"platform_fee_bps"`
	MinProposalThreshold *big.Int `json:"min_proposal_threshold"`
}
