package reader

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"basebond/internal/contracts"
	"basebond/internal/failure"
	"basebond/internal/model"
)

// decodeFailure marks a value that arrived but did not have the expected shape.
func decodeFailure(method string, err error) error {
	return &failure.Error{Kind: failure.PartialRead, Op: method, Err: err}
}

func (a *Aggregator) readBigInt(ctx context.Context, call Call) (*big.Int, error) {
	values, err := a.one(ctx, call)
	if err != nil {
		return nil, err
	}
	v, err := singleBigInt(call.Method, values)
	if err != nil {
		return nil, decodeFailure(call.Method, err)
	}
	return v, nil
}

func (a *Aggregator) readCount(ctx context.Context, call Call) (uint64, error) {
	v, err := a.readBigInt(ctx, call)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, decodeFailure(call.Method, fmt.Errorf("count overflow: %s", v))
	}
	return v.Uint64(), nil
}

// EventCount returns how many events the factory has created.
func (a *Aggregator) EventCount(ctx context.Context) (uint64, error) {
	return a.readCount(ctx, Call{Contract: contracts.EventFactory, Method: "getEventCount"})
}

// EventDetails reads one event.
func (a *Aggregator) EventDetails(ctx context.Context, id uint64) (model.EventRecord, error) {
	values, err := a.one(ctx, Call{
		Contract: contracts.EventFactory,
		Method:   "getEventDetails",
		Args:     []interface{}{new(big.Int).SetUint64(id)},
	})
	if err != nil {
		return model.EventRecord{}, err
	}
	ev, err := decodeEvent(id, values)
	if err != nil {
		return model.EventRecord{}, decodeFailure("getEventDetails", err)
	}
	return ev, nil
}

// ActiveEvents reads a page of active events.
func (a *Aggregator) ActiveEvents(ctx context.Context, offset, limit uint64) (model.EventPage, error) {
	values, err := a.one(ctx, Call{
		Contract: contracts.EventFactory,
		Method:   "getActiveEvents",
		Args:     []interface{}{new(big.Int).SetUint64(offset), new(big.Int).SetUint64(limit)},
	})
	if err != nil {
		return model.EventPage{}, err
	}
	page, err := decodeActiveEvents(values)
	if err != nil {
		return model.EventPage{}, decodeFailure("getActiveEvents", err)
	}
	return page, nil
}

// OrganizerEvents reads every event created by organizer.
func (a *Aggregator) OrganizerEvents(ctx context.Context, organizer common.Address) ([]model.EventSummary, error) {
	values, err := a.one(ctx, Call{
		Contract: contracts.EventFactory,
		Method:   "getOrganizerEvents",
		Args:     []interface{}{organizer},
	})
	if err != nil {
		return nil, err
	}
	events, err := decodeOrganizerEvents(values)
	if err != nil {
		return nil, decodeFailure("getOrganizerEvents", err)
	}
	return events, nil
}

// TicketOwnership reads whether wallet holds a ticket for the event and has
// checked in.
func (a *Aggregator) TicketOwnership(ctx context.Context, eventID uint64, wallet common.Address) (model.TicketOwnership, error) {
	id := new(big.Int).SetUint64(eventID)
	results, err := a.Batch(ctx, []Call{
		{Contract: contracts.EventFactory, Method: "hasUserTicket", Args: []interface{}{id, wallet}},
		{Contract: contracts.EventFactory, Method: "hasUserCheckedIn", Args: []interface{}{id, wallet}},
	})
	if err != nil {
		return model.TicketOwnership{}, err
	}
	out := model.TicketOwnership{EventID: eventID}
	for i, dst := range []*bool{&out.HasTicket, &out.HasCheckedIn} {
		if results[i].Err != nil {
			return model.TicketOwnership{}, results[i].Err
		}
		v, err := singleBool("ownership", results[i].Values)
		if err != nil {
			return model.TicketOwnership{}, decodeFailure("ownership", err)
		}
		*dst = v
	}
	return out, nil
}

// StakePosition reads a wallet's staking state.
func (a *Aggregator) StakePosition(ctx context.Context, wallet common.Address) (model.StakePosition, error) {
	values, err := a.one(ctx, Call{Contract: contracts.LoyaltyStaking, Method: "getStakeInfo", Args: []interface{}{wallet}})
	if err != nil {
		return model.StakePosition{}, err
	}
	pos, err := decodeStakeInfo(values)
	if err != nil {
		return model.StakePosition{}, decodeFailure("getStakeInfo", err)
	}
	return pos, nil
}

// UserPoints reads claimed event points and pending staking points together.
func (a *Aggregator) UserPoints(ctx context.Context, wallet common.Address) (model.UserPoints, error) {
	ints, err := a.bigInts(ctx, []Call{
		{Contract: contracts.LoyaltyStaking, Method: "eventPoints", Args: []interface{}{wallet}},
		{Contract: contracts.LoyaltyStaking, Method: "pendingPoints", Args: []interface{}{wallet}},
	})
	if err != nil {
		return model.UserPoints{}, err
	}
	return model.UserPoints{EventPoints: ints[0], PendingPoints: ints[1]}, nil
}

// StakingParams reads the pool-wide staking values in one batch.
func (a *Aggregator) StakingParams(ctx context.Context) (model.StakingParams, error) {
	ints, err := a.bigInts(ctx, []Call{
		{Contract: contracts.LoyaltyStaking, Method: "totalStaked"},
		{Contract: contracts.LoyaltyStaking, Method: "pointsPerTokenPerDay"},
		{Contract: contracts.LoyaltyStaking, Method: "minStakeAmount"},
	})
	if err != nil {
		return model.StakingParams{}, err
	}
	return model.StakingParams{TotalStaked: ints[0], PointsPerTokenPerDay: ints[1], MinStakeAmount: ints[2]}, nil
}

// TreasuryOverview reads the treasury-wide values in one batch.
func (a *Aggregator) TreasuryOverview(ctx context.Context) (model.TreasuryOverview, error) {
	ints, err := a.bigInts(ctx, []Call{
		{Contract: contracts.EventTreasury, Method: "getTreasuryBalance"},
		{Contract: contracts.EventTreasury, Method: "platformFeeBps"},
		{Contract: contracts.EventTreasury, Method: "minProposalThreshold"},
	})
	if err != nil {
		return model.TreasuryOverview{}, err
	}
	return model.TreasuryOverview{Balance: ints[0], PlatformFeeBps: ints[1], MinProposalThreshold: ints[2]}, nil
}

// OrganizerBalance reads the withdrawable balance of an organizer.
func (a *Aggregator) OrganizerBalance(ctx context.Context, organizer common.Address) (*big.Int, error) {
	return a.readBigInt(ctx, Call{Contract: contracts.EventTreasury, Method: "organizerBalances", Args: []interface{}{organizer}})
}

// Allowance reads token.allowance(owner, spender).
func (a *Aggregator) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return a.readBigInt(ctx, Call{
		Contract: contracts.IDRXToken,
		Address:  &token,
		Method:   "allowance",
		Args:     []interface{}{owner, spender},
	})
}

// TokenBalance reads token.balanceOf(owner).
func (a *Aggregator) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return a.readBigInt(ctx, Call{
		Contract: contracts.IDRXToken,
		Address:  &token,
		Method:   "balanceOf",
		Args:     []interface{}{owner},
	})
}

// AllProposals reads the proposal count, then every proposal 1..N in one
// batch. Proposals that fail to read are left out. Newest first.
func (a *Aggregator) AllProposals(ctx context.Context) ([]model.Proposal, error) {
	count, err := a.readCount(ctx, Call{Contract: contracts.EventTreasury, Method: "proposalCount"})
	if err != nil {
		return nil, err
	}
	out := make([]model.Proposal, 0, count)
	if count == 0 {
		return out, nil
	}
	calls := make([]Call, 0, count)
	for id := uint64(1); id <= count; id++ {
		calls = append(calls, Call{
			Contract: contracts.EventTreasury,
			Method:   "getProposal",
			Args:     []interface{}{new(big.Int).SetUint64(id)},
		})
	}
	results, err := a.Batch(ctx, calls)
	if err != nil {
		return nil, err
	}
	for i := len(results) - 1; i >= 0; i-- {
		if !results[i].OK() {
			continue
		}
		p, err := decodeProposal(uint64(i+1), results[i].Values)
		if err != nil {
			a.logger.Debug("proposal dropped", zap.Int("id", i+1), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// bigInts runs calls that each return one uint256. Any failure fails the read.
func (a *Aggregator) bigInts(ctx context.Context, calls []Call) ([]*big.Int, error) {
	results, err := a.Batch(ctx, calls)
	if err != nil {
		return nil, err
	}
	out := make([]*big.Int, len(results))
	for i, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
		v, err := singleBigInt(calls[i].Method, r.Values)
		if err != nil {
			return nil, decodeFailure(calls[i].Method, err)
		}
		out[i] = v
	}
	return out, nil
}
