package reader

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basebond/internal/chain/chaintest"
	"basebond/internal/contracts"
	"basebond/internal/failure"
)

var (
	factoryAddr  = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	stakingAddr  = common.HexToAddress("0x00000000000000000000000000000000000000f2")
	treasuryAddr = common.HexToAddress("0x00000000000000000000000000000000000000f3")
	tokenAddr    = common.HexToAddress("0x00000000000000000000000000000000000000f4")
	wallet       = common.HexToAddress("0x1111111111111111111111111111111111111111")
	organizer    = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func newTestAggregator(t *testing.T, node *chaintest.Node, addrs contracts.Addresses, maxBatch int) *Aggregator {
	t.Helper()
	if addrs == nil {
		addrs = contracts.Addresses{
			contracts.EventFactory:   factoryAddr.Hex(),
			contracts.LoyaltyStaking: stakingAddr.Hex(),
			contracts.EventTreasury:  treasuryAddr.Hex(),
			contracts.IDRXToken:      tokenAddr.Hex(),
		}
	}
	reg, err := contracts.NewRegistry(addrs)
	require.NoError(t, err)
	return New(reg, node, Options{MaxBatch: maxBatch, MaxRetries: 2, RetryBackoff: time.Millisecond}, nil)
}

func eventValues(name, badge string, date int64) []interface{} {
	return []interface{}{
		name, "desc", "Jakarta", "ipfs://image", badge,
		big.NewInt(date), big.NewInt(0), big.NewInt(100), big.NewInt(5),
		organizer, true,
	}
}

func TestBatchEmptyMakesNoRequest(t *testing.T) {
	node := chaintest.NewNode()
	agg := newTestAggregator(t, node, nil, 100)

	results, err := agg.Batch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, node.Requests)
}

func TestBatchPreservesOrderAcrossChunks(t *testing.T) {
	node := chaintest.NewNode()
	node.Handle("getEventDetails", func(c chaintest.Call) ([]interface{}, error) {
		id := c.Args[0].(*big.Int).Int64()
		return eventValues("event-"+big.NewInt(id).String(), "", 1000+id), nil
	})
	agg := newTestAggregator(t, node, nil, 2)

	calls := make([]Call, 5)
	for i := range calls {
		calls[i] = Call{Contract: contracts.EventFactory, Method: "getEventDetails", Args: []interface{}{big.NewInt(int64(i))}}
	}
	results, err := agg.Batch(context.Background(), calls)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		require.True(t, r.OK(), "index %d", i)
		assert.Equal(t, "event-"+big.NewInt(int64(i)).String(), r.Values[0])
	}
	assert.Equal(t, []int{2, 2, 1}, node.BatchSizes)
}

func TestBatchIsolatesFailures(t *testing.T) {
	node := chaintest.NewNode()
	node.Returns("getEventCount", big.NewInt(3))
	node.Handle("getEventDetails", func(chaintest.Call) ([]interface{}, error) {
		return nil, &chaintest.RevertError{Reason: "Event does not exist"}
	})
	agg := newTestAggregator(t, node, contracts.Addresses{contracts.EventFactory: factoryAddr.Hex()}, 100)

	results, err := agg.Batch(context.Background(), []Call{
		{Contract: contracts.EventFactory, Method: "getEventCount"},
		{Contract: contracts.EventFactory, Method: "getEventDetails", Args: []interface{}{big.NewInt(9)}},
		{Contract: contracts.LoyaltyStaking, Method: "totalStaked"},
		{Contract: contracts.EventFactory, Method: "noSuchMethod"},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.True(t, results[0].OK())
	assert.True(t, errors.Is(results[1].Err, failure.ErrPartialRead))
	var fe *failure.Error
	require.True(t, errors.As(results[1].Err, &fe))
	assert.Equal(t, 1, fe.Index)
	assert.True(t, errors.Is(results[2].Err, failure.ErrConfiguration))
	assert.True(t, errors.Is(results[3].Err, failure.ErrPartialRead))
	assert.Equal(t, 1, node.Requests)
	assert.Equal(t, []int{2}, node.BatchSizes)
}

func TestBatchRetriesTransportErrors(t *testing.T) {
	node := chaintest.NewNode()
	node.Returns("getEventCount", big.NewInt(4))
	node.TransportFailures = 2
	agg := newTestAggregator(t, node, nil, 100)

	n, err := agg.EventCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
	assert.Equal(t, 3, node.Requests)
}

func TestBatchTransportFailureSurfaces(t *testing.T) {
	node := chaintest.NewNode()
	node.TransportFailures = 10
	agg := newTestAggregator(t, node, nil, 100)

	_, err := agg.EventCount(context.Background())
	require.Error(t, err)
	assert.Equal(t, failure.Unclassified, failure.KindOf(err))
}

func TestBatchCancelled(t *testing.T) {
	node := chaintest.NewNode()
	agg := newTestAggregator(t, node, nil, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agg.EventCount(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProfileCollectionEmptyWallet(t *testing.T) {
	node := chaintest.NewNode()
	node.Returns("getEventCount", big.NewInt(5))
	node.Returns("hasUserTicket", false)
	node.Returns("hasUserCheckedIn", false)
	node.Handle("getEventDetails", func(chaintest.Call) ([]interface{}, error) {
		return eventValues("x", "", 1), nil
	})
	agg := newTestAggregator(t, node, nil, 100)

	col, err := agg.ProfileCollection(context.Background(), wallet)
	require.NoError(t, err)
	assert.NotNil(t, col.Tickets)
	assert.NotNil(t, col.POAPs)
	assert.Empty(t, col.Tickets)
	assert.Empty(t, col.POAPs)
	// One count read, then a single batch carrying all 15 calls.
	assert.Equal(t, []int{1, 15}, node.BatchSizes)
}

func TestProfileCollectionNoEvents(t *testing.T) {
	node := chaintest.NewNode()
	node.Returns("getEventCount", big.NewInt(0))
	agg := newTestAggregator(t, node, nil, 100)

	col, err := agg.ProfileCollection(context.Background(), wallet)
	require.NoError(t, err)
	assert.Empty(t, col.Tickets)
	assert.Equal(t, 1, node.Requests)
}

func TestProfileCollectionOwnership(t *testing.T) {
	node := chaintest.NewNode()
	node.Returns("getEventCount", big.NewInt(3))
	node.Handle("hasUserTicket", func(c chaintest.Call) ([]interface{}, error) {
		return []interface{}{c.Args[0].(*big.Int).Int64() != 1}, nil
	})
	node.Handle("hasUserCheckedIn", func(c chaintest.Call) ([]interface{}, error) {
		if c.Args[0].(*big.Int).Int64() == 2 {
			return nil, errors.New("rpc hiccup")
		}
		return []interface{}{c.Args[0].(*big.Int).Int64() == 0}, nil
	})
	node.Handle("getEventDetails", func(c chaintest.Call) ([]interface{}, error) {
		id := c.Args[0].(*big.Int).Int64()
		return eventValues("e", map[int64]string{0: "ipfs://badge"}[id], 1000+id), nil
	})
	agg := newTestAggregator(t, node, nil, 100)

	col, err := agg.ProfileCollection(context.Background(), wallet)
	require.NoError(t, err)
	require.Len(t, col.Tickets, 2)
	assert.Equal(t, "#0000", col.Tickets[0].TicketID)
	assert.True(t, col.Tickets[0].CheckedIn)
	assert.Equal(t, "#0002", col.Tickets[1].TicketID)
	assert.False(t, col.Tickets[1].CheckedIn, "failed check-in read counts as false")

	require.Len(t, col.POAPs, 1)
	assert.Equal(t, "ipfs://badge", col.POAPs[0].ImageURI)
}

func TestReconstructDropsFailedDetails(t *testing.T) {
	ok := func(v ...interface{}) Result { return Result{Values: v} }
	bad := Result{Err: errors.New("boom")}
	results := []Result{
		ok(true), ok(true), bad,
		ok(true), ok(true), ok(eventValues("second", "", 5)...),
	}
	col := Reconstruct(2, results)
	require.Len(t, col.Tickets, 1)
	assert.Equal(t, uint64(1), col.Tickets[0].Event.ID)
	require.Len(t, col.POAPs, 1)
	assert.Equal(t, "ipfs://image", col.POAPs[0].ImageURI, "falls back to the event image")
	assert.Equal(t, "second", col.POAPs[0].EventName)

	short := Reconstruct(3, results)
	assert.Len(t, short.Tickets, 1)
}

func TestAllProposalsNewestFirstSkipsFailures(t *testing.T) {
	node := chaintest.NewNode()
	node.Returns("proposalCount", big.NewInt(3))
	node.Handle("getProposal", func(c chaintest.Call) ([]interface{}, error) {
		id := c.Args[0].(*big.Int).Int64()
		if id == 2 {
			return nil, &chaintest.RevertError{Reason: "missing"}
		}
		return []interface{}{
			organizer, "fund stage", wallet, big.NewInt(10),
			big.NewInt(60), big.NewInt(40), big.NewInt(1_000), false, false,
		}, nil
	})
	agg := newTestAggregator(t, node, nil, 100)

	proposals, err := agg.AllProposals(context.Background())
	require.NoError(t, err)
	require.Len(t, proposals, 2)
	assert.Equal(t, uint64(3), proposals[0].ID)
	assert.Equal(t, uint64(1), proposals[1].ID)
	assert.Equal(t, "60", proposals[0].VotesFor.String())
}

func TestStakingAndTreasuryReads(t *testing.T) {
	node := chaintest.NewNode()
	node.Returns("getStakeInfo", big.NewInt(500), big.NewInt(1_700_000_000), big.NewInt(1), big.NewInt(2), big.NewInt(3))
	node.Returns("totalStaked", big.NewInt(10_000))
	node.Returns("pointsPerTokenPerDay", big.NewInt(5))
	node.Returns("minStakeAmount", big.NewInt(100))
	node.Returns("getTreasuryBalance", big.NewInt(42))
	node.Returns("platformFeeBps", big.NewInt(250))
	node.Returns("minProposalThreshold", big.NewInt(1_000))
	node.Returns("allowance", big.NewInt(77))
	agg := newTestAggregator(t, node, nil, 100)
	ctx := context.Background()

	pos, err := agg.StakePosition(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, "500", pos.StakedAmount.String())
	assert.Equal(t, uint64(1_700_000_000), pos.StakingStartTime)

	params, err := agg.StakingParams(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5", params.PointsPerTokenPerDay.String())

	tre, err := agg.TreasuryOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, "250", tre.PlatformFeeBps.String())

	allowance, err := agg.Allowance(ctx, tokenAddr, wallet, stakingAddr)
	require.NoError(t, err)
	assert.Equal(t, "77", allowance.String())
	last := node.Calls[len(node.Calls)-1]
	assert.Equal(t, tokenAddr, last.To)
	assert.Equal(t, []interface{}{wallet, stakingAddr}, last.Args)
}

func TestActiveAndOrganizerEvents(t *testing.T) {
	node := chaintest.NewNode()
	node.Returns("getActiveEvents",
		[]*big.Int{big.NewInt(4), big.NewInt(7)},
		[]string{"a", "b"},
		[]string{"Jakarta", "Bandung"},
		[]string{"ipfs://a", "ipfs://b"},
		[]*big.Int{big.NewInt(10), big.NewInt(20)},
		[]*big.Int{big.NewInt(0), big.NewInt(5)},
		big.NewInt(12),
	)
	node.Returns("getOrganizerEvents",
		[]*big.Int{big.NewInt(4)},
		[]string{"a"},
		[]*big.Int{big.NewInt(10)},
		[]*big.Int{big.NewInt(0)},
		[]string{"ipfs://a"},
		[]*big.Int{big.NewInt(3)},
		[]*big.Int{big.NewInt(50)},
		[]bool{false},
	)
	agg := newTestAggregator(t, node, nil, 100)
	ctx := context.Background()

	page, err := agg.ActiveEvents(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), page.Total)
	require.Len(t, page.Events, 2)
	assert.Equal(t, "Bandung", page.Events[1].Location)

	events, err := agg.OrganizerEvents(ctx, organizer)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].IsActive)
	assert.Equal(t, "50", events[0].MaxTickets.String())
}
