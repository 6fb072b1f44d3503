package projection

import (
	"math/big"

	"basebond/internal/model"
)

// DefaultRewardScale divides staked*rate in the daily projection.
const DefaultRewardScale = 100

// RewardProjection computes daily = staked*rate/scale, monthly = daily*30 and
// yearly = daily*365. A non-positive scale falls back to DefaultRewardScale.
func RewardProjection(staked, rate *big.Int, scale int64) model.Rewards {
	if scale <= 0 {
		scale = DefaultRewardScale
	}
	daily := new(big.Int).Mul(bigOrZero(staked), bigOrZero(rate))
	daily.Quo(daily, big.NewInt(scale))
	return model.Rewards{
		Daily:   daily,
		Monthly: new(big.Int).Mul(daily, big.NewInt(30)),
		Yearly:  new(big.Int).Mul(daily, big.NewInt(365)),
	}
}
