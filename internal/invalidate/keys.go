package invalidate

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Key builders. Addresses are lower-cased so keys compare byte for byte.

func addr(a common.Address) string {
	return strings.ToLower(a.Hex())
}

func AllowanceKey(token, owner, spender common.Address) string {
	return "allowance:" + addr(token) + ":" + addr(owner) + ":" + addr(spender)
}

func BalanceKey(token, owner common.Address) string {
	return "balance:" + addr(token) + ":" + addr(owner)
}

func EventKey(id uint64) string { return "event:" + strconv.FormatUint(id, 10) }

func CollectionKey(wallet common.Address) string { return "collection:" + addr(wallet) }

func OrganizerKey(wallet common.Address) string { return "organizer:" + addr(wallet) }

func OrganizerBalanceKey(wallet common.Address) string { return "organizer-balance:" + addr(wallet) }

func StakeKey(wallet common.Address) string { return "stake:" + addr(wallet) }

func PointsKey(wallet common.Address) string { return "points:" + addr(wallet) }

func ProposalKey(id uint64) string { return "proposal:" + strconv.FormatUint(id, 10) }

const (
	EventsKey    = "events"
	StakingKey   = "staking"
	ProposalsKey = "proposals"
	TreasuryKey  = "treasury"
)
