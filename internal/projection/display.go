package projection

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ShortAddress renders 0x1234...abcd.
func ShortAddress(addr common.Address) string {
	hex := addr.Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}

// ExplorerTxURL links a transaction hash on the block explorer.
func ExplorerTxURL(base, hash string) string {
	if base == "" || hash == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/tx/" + hash
}

// Phase is the time-based state of an event used by list filters.
type Phase string

const (
	PhaseUpcoming Phase = "upcoming"
	PhaseOngoing  Phase = "ongoing"
	PhasePast     Phase = "past"
)

// OngoingWindow is how long after its start an event counts as ongoing.
const OngoingWindow = 24 * time.Hour

// EventPhase classifies an event by its unix start time.
func EventPhase(start uint64, now time.Time) Phase {
	startAt := time.Unix(int64(start), 0)
	switch {
	case now.Before(startAt):
		return PhaseUpcoming
	case now.Before(startAt.Add(OngoingWindow)):
		return PhaseOngoing
	default:
		return PhasePast
	}
}
