package reader

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"basebond/internal/contracts"
	"basebond/internal/model"
)

// callsPerEvent is the number of reads issued per event by CollectionCalls.
const callsPerEvent = 3

// CollectionCalls builds the 3×n calls for a wallet's collection, in the fixed
// per-event order hasUserTicket, hasUserCheckedIn, getEventDetails. Event ids
// run 0..n-1.
func CollectionCalls(n uint64, wallet common.Address) []Call {
	calls := make([]Call, 0, n*callsPerEvent)
	for i := uint64(0); i < n; i++ {
		id := new(big.Int).SetUint64(i)
		calls = append(calls,
			Call{Contract: contracts.EventFactory, Method: "hasUserTicket", Args: []interface{}{id, wallet}},
			Call{Contract: contracts.EventFactory, Method: "hasUserCheckedIn", Args: []interface{}{id, wallet}},
			Call{Contract: contracts.EventFactory, Method: "getEventDetails", Args: []interface{}{id}},
		)
	}
	return calls
}

// ProfileCollection reads the event count, then every ownership flag and
// event in one batch, and rebuilds the wallet's tickets and badges.
func (a *Aggregator) ProfileCollection(ctx context.Context, wallet common.Address) (model.Collection, error) {
	n, err := a.EventCount(ctx)
	if err != nil {
		return model.Collection{}, fmt.Errorf("event count: %w", err)
	}
	if n == 0 {
		return Reconstruct(0, nil), nil
	}
	results, err := a.Batch(ctx, CollectionCalls(n, wallet))
	if err != nil {
		return model.Collection{}, err
	}
	col := Reconstruct(int(n), results)
	a.logger.Debug("collection read",
		zap.String("wallet", wallet.Hex()),
		zap.Uint64("events", n),
		zap.Int("tickets", len(col.Tickets)),
		zap.Int("poaps", len(col.POAPs)),
	)
	return col, nil
}

// Reconstruct maps result i*3+k back to event i. A failed or malformed
// details read drops the event entirely; a failed ownership read counts as
// false.
func Reconstruct(n int, results []Result) model.Collection {
	col := model.Collection{
		Tickets: make([]model.CollectionTicket, 0),
		POAPs:   make([]model.POAP, 0),
	}
	at := func(idx int) (Result, bool) {
		if idx >= len(results) || !results[idx].OK() {
			return Result{}, false
		}
		return results[idx], true
	}
	flag := func(idx int) bool {
		r, ok := at(idx)
		if !ok {
			return false
		}
		v, err := singleBool("ownership", r.Values)
		return err == nil && v
	}

	for i := 0; i < n; i++ {
		base := i * callsPerEvent
		details, ok := at(base + 2)
		if !ok {
			continue
		}
		ev, err := decodeEvent(uint64(i), details.Values)
		if err != nil {
			continue
		}
		hasTicket := flag(base)
		checkedIn := flag(base + 1)

		if hasTicket {
			col.Tickets = append(col.Tickets, model.CollectionTicket{
				TicketID:  TicketID(uint64(i)),
				Event:     ev,
				CheckedIn: checkedIn,
			})
		}
		if checkedIn {
			image := ev.BadgeURI
			if image == "" {
				image = ev.ImageURI
			}
			col.POAPs = append(col.POAPs, model.POAP{
				EventID:   ev.ID,
				EventName: ev.Name,
				ImageURI:  image,
				EventDate: ev.StartTime,
			})
		}
	}
	return col
}

// TicketID renders the display id of a ticket, "#0007".
func TicketID(eventID uint64) string {
	return fmt.Sprintf("#%04d", eventID)
}
