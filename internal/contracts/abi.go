package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const eventFactoryABIJSON = `[
  {
    "name": "createEvent", "type": "function", "stateMutability": "nonpayable",
    "inputs": [
      {"name": "name", "type": "string"},
      {"name": "description", "type": "string"},
      {"name": "location", "type": "string"},
      {"name": "imageUri", "type": "string"},
      {"name": "badgeUri", "type": "string"},
      {"name": "date", "type": "uint256"},
      {"name": "price", "type": "uint256"},
      {"name": "maxTickets", "type": "uint256"}
    ],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "name": "buyTicket", "type": "function", "stateMutability": "nonpayable",
    "inputs": [{"name": "eventId", "type": "uint256"}],
    "outputs": []
  },
  {
    "name": "checkIn", "type": "function", "stateMutability": "nonpayable",
    "inputs": [
      {"name": "eventId", "type": "uint256"},
      {"name": "attendee", "type": "address"}
    ],
    "outputs": []
  },
  {
    "name": "getEventDetails", "type": "function", "stateMutability": "view",
    "inputs": [{"name": "eventId", "type": "uint256"}],
    "outputs": [
      {"name": "name", "type": "string"},
      {"name": "description", "type": "string"},
      {"name": "location", "type": "string"},
      {"name": "imageUri", "type": "string"},
      {"name": "badgeUri", "type": "string"},
      {"name": "date", "type": "uint256"},
      {"name": "price", "type": "uint256"},
      {"name": "maxTickets", "type": "uint256"},
      {"name": "soldTickets", "type": "uint256"},
      {"name": "organizer", "type": "address"},
      {"name": "isActive", "type": "bool"}
    ]
  },
  {
    "name": "getOrganizerEvents", "type": "function", "stateMutability": "view",
    "inputs": [{"name": "organizer", "type": "address"}],
    "outputs": [
      {"name": "eventIds", "type": "uint256[]"},
      {"name": "names", "type": "string[]"},
      {"name": "dates", "type": "uint256[]"},
      {"name": "prices", "type": "uint256[]"},
      {"name": "imageUris", "type": "string[]"},
      {"name": "ticketsSold", "type": "uint256[]"},
      {"name": "maxTickets", "type": "uint256[]"},
      {"name": "activeStatus", "type": "bool[]"}
    ]
  },
  {
    "name": "getActiveEvents", "type": "function", "stateMutability": "view",
    "inputs": [
      {"name": "offset", "type": "uint256"},
      {"name": "limit", "type": "uint256"}
    ],
    "outputs": [
      {"name": "eventIds", "type": "uint256[]"},
      {"name": "names", "type": "string[]"},
      {"name": "locations", "type": "string[]"},
      {"name": "imageUris", "type": "string[]"},
      {"name": "dates", "type": "uint256[]"},
      {"name": "prices", "type": "uint256[]"},
      {"name": "total", "type": "uint256"}
    ]
  },
  {
    "name": "getEventCount", "type": "function", "stateMutability": "view",
    "inputs": [],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "name": "hasUserTicket", "type": "function", "stateMutability": "view",
    "inputs": [
      {"name": "eventId", "type": "uint256"},
      {"name": "user", "type": "address"}
    ],
    "outputs": [{"name": "", "type": "bool"}]
  },
  {
    "name": "hasUserCheckedIn", "type": "function", "stateMutability": "view",
    "inputs": [
      {"name": "eventId", "type": "uint256"},
      {"name": "user", "type": "address"}
    ],
    "outputs": [{"name": "", "type": "bool"}]
  }
]`

const loyaltyStakingABIJSON = `[
  {"name": "stake", "type": "function", "stateMutability": "nonpayable", "inputs": [{"name": "amount", "type": "uint256"}], "outputs": []},
  {"name": "unstake", "type": "function", "stateMutability": "nonpayable", "inputs": [{"name": "amount", "type": "uint256"}], "outputs": []},
  {"name": "claimPoints", "type": "function", "stateMutability": "nonpayable", "inputs": [], "outputs": []},
  {
    "name": "getStakeInfo", "type": "function", "stateMutability": "view",
    "inputs": [{"name": "user", "type": "address"}],
    "outputs": [
      {"name": "stakedAmount", "type": "uint256"},
      {"name": "stakingStartTime", "type": "uint256"},
      {"name": "claimedPoints", "type": "uint256"},
      {"name": "pendingPointsAmount", "type": "uint256"},
      {"name": "totalPoints", "type": "uint256"}
    ]
  },
  {"name": "eventPoints", "type": "function", "stateMutability": "view", "inputs": [{"name": "user", "type": "address"}], "outputs": [{"name": "", "type": "uint256"}]},
  {"name": "pendingPoints", "type": "function", "stateMutability": "view", "inputs": [{"name": "user", "type": "address"}], "outputs": [{"name": "", "type": "uint256"}]},
  {"name": "totalStaked", "type": "function", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
  {"name": "pointsPerTokenPerDay", "type": "function", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
  {"name": "minStakeAmount", "type": "function", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]}
]`

const eventTreasuryABIJSON = `[
  {
    "name": "createProposal", "type": "function", "stateMutability": "nonpayable",
    "inputs": [
      {"name": "description", "type": "string"},
      {"name": "recipient", "type": "address"},
      {"name": "amount", "type": "uint256"}
    ],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "name": "vote", "type": "function", "stateMutability": "nonpayable",
    "inputs": [
      {"name": "proposalId", "type": "uint256"},
      {"name": "support", "type": "bool"}
    ],
    "outputs": []
  },
  {"name": "withdrawOrganizerBalance", "type": "function", "stateMutability": "nonpayable", "inputs": [], "outputs": []},
  {"name": "proposalCount", "type": "function", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
  {
    "name": "getProposal", "type": "function", "stateMutability": "view",
    "inputs": [{"name": "proposalId", "type": "uint256"}],
    "outputs": [
      {"name": "proposer", "type": "address"},
      {"name": "description", "type": "string"},
      {"name": "recipient", "type": "address"},
      {"name": "amount", "type": "uint256"},
      {"name": "votesFor", "type": "uint256"},
      {"name": "votesAgainst", "type": "uint256"},
      {"name": "deadline", "type": "uint256"},
      {"name": "executed", "type": "bool"},
      {"name": "cancelled", "type": "bool"}
    ]
  },
  {"name": "organizerBalances", "type": "function", "stateMutability": "view", "inputs": [{"name": "organizer", "type": "address"}], "outputs": [{"name": "", "type": "uint256"}]},
  {"name": "getTreasuryBalance", "type": "function", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
  {"name": "platformFeeBps", "type": "function", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
  {"name": "minProposalThreshold", "type": "function", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]}
]`

const erc20ABIJSON = `[
  {
    "name": "approve", "type": "function", "stateMutability": "nonpayable",
    "inputs": [
      {"name": "spender", "type": "address"},
      {"name": "amount", "type": "uint256"}
    ],
    "outputs": [{"name": "", "type": "bool"}]
  },
  {
    "name": "allowance", "type": "function", "stateMutability": "view",
    "inputs": [
      {"name": "owner", "type": "address"},
      {"name": "spender", "type": "address"}
    ],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {"name": "balanceOf", "type": "function", "stateMutability": "view", "inputs": [{"name": "account", "type": "address"}], "outputs": [{"name": "", "type": "uint256"}]}
]`

// Ticket and POAP tokens are only queried for holdings here.
const erc721ABIJSON = `[
  {"name": "balanceOf", "type": "function", "stateMutability": "view", "inputs": [{"name": "owner", "type": "address"}], "outputs": [{"name": "", "type": "uint256"}]}
]`

type parsedABI struct {
	once sync.Once
	abi  abi.ABI
	err  error
	json string
}

func (p *parsedABI) get() (abi.ABI, error) {
	p.once.Do(func() {
		p.abi, p.err = abi.JSON(strings.NewReader(p.json))
	})
	return p.abi, p.err
}

var (
	eventFactoryABI   = &parsedABI{json: eventFactoryABIJSON}
	loyaltyStakingABI = &parsedABI{json: loyaltyStakingABIJSON}
	eventTreasuryABI  = &parsedABI{json: eventTreasuryABIJSON}
	erc20ABI          = &parsedABI{json: erc20ABIJSON}
	erc721ABI         = &parsedABI{json: erc721ABIJSON}
)

// EventFactoryABI returns the parsed event factory ABI.
func EventFactoryABI() (abi.ABI, error) { return eventFactoryABI.get() }

// LoyaltyStakingABI returns the parsed loyalty staking ABI.
func LoyaltyStakingABI() (abi.ABI, error) { return loyaltyStakingABI.get() }

// EventTreasuryABI returns the parsed treasury ABI.
func EventTreasuryABI() (abi.ABI, error) { return eventTreasuryABI.get() }

// ERC20ABI returns the parsed fungible token ABI subset.
func ERC20ABI() (abi.ABI, error) { return erc20ABI.get() }

// ERC721ABI returns the parsed ticket/POAP token ABI subset.
func ERC721ABI() (abi.ABI, error) { return erc721ABI.get() }
