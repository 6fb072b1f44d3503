package model

import "math/big"

// StakePosition is a wallet's staking state.
type StakePosition struct {
	StakedAmount     *big.Int `json:"staked_amount"`
	StakingStartTime uint64   `json:"staking_start_time"`
	ClaimedPoints    *big.Int `json:"claimed_points"`
	PendingPoints    *big.Int `json:"pending_points"`
	TotalPoints      *big.Int `json:"total_points"`
}

// StakingParams are the pool-wide staking values.
type StakingParams struct {
	TotalStaked          *big.Int `json:"total_staked"`
	PointsPerTokenPerDay *big.Int `json:"points_per_token_per_day"`
	MinStakeAmount       *big.Int `json:"min_stake_amount"`
}

// UserPoints combines claimed event points with the pending staking accrual.
type UserPoints struct {
	EventPoints   *big.Int `json:"event_points"`
	PendingPoints *big.Int `json:"pending_points"`
}

// Rewards is a projection of staking rewards over time.
type Rewards struct {
	Daily   *big.Int `json:"daily"`
	Monthly *big.Int `json:"monthly"`
	Yearly  *big.Int `json:"yearly"`
}
