package main

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"basebond/internal/failure"
	"basebond/internal/model"
	"basebond/internal/projection"
)

type eventView struct {
	model.EventRecord
	PriceLabel string                 `json:"price_label"`
	SoldOut    bool                   `json:"sold_out"`
	Phase      projection.Phase       `json:"phase"`
	Short      string                 `json:"organizer_short"`
	Ownership  *model.TicketOwnership `json:"ownership,omitempty"`
}

func newEventView(ev model.EventRecord, f projection.Formatter, decimals uint8, now time.Time) eventView {
	return eventView{
		EventRecord: ev,
		PriceLabel:  f.CurrencyLabel(ev.Price, decimals),
		SoldOut:     ev.SoldOut(),
		Phase:       projection.EventPhase(ev.StartTime, now),
		Short:       projection.ShortAddress(ev.Organizer),
	}
}

type summaryView struct {
	model.EventSummary
	PriceLabel string           `json:"price_label"`
	Phase      projection.Phase `json:"phase"`
}

// summaryViews renders rows, keeping only those in phase when it is set.
func summaryViews(rows []model.EventSummary, f projection.Formatter, decimals uint8, now time.Time, phase string) []summaryView {
	out := make([]summaryView, 0, len(rows))
	for _, row := range rows {
		p := projection.EventPhase(row.StartTime, now)
		if phase != "" && string(p) != phase {
			continue
		}
		out = append(out, summaryView{
			EventSummary: row,
			PriceLabel:   f.CurrencyLabel(row.Price, decimals),
			Phase:        p,
		})
	}
	return out
}

type proposalView struct {
	model.Proposal
	Status      projection.Status `json:"status"`
	ForPercent  int64             `json:"for_percent"`
	AmountLabel string            `json:"amount_label"`
	Short       string            `json:"proposer_short"`
}

func newProposalViews(ps []model.Proposal, f projection.Formatter, decimals uint8, now time.Time) []proposalView {
	out := make([]proposalView, 0, len(ps))
	for _, p := range ps {
		out = append(out, proposalView{
			Proposal:    p,
			Status:      projection.ProposalStatus(p, now),
			ForPercent:  projection.VotePercentageFor(p),
			AmountLabel: f.CurrencyLabel(p.Amount, decimals),
			Short:       projection.ShortAddress(p.Proposer),
		})
	}
	return out
}

type stakeView struct {
	Wallet      common.Address       `json:"wallet"`
	Position    model.StakePosition  `json:"position"`
	StakedLabel string               `json:"staked_label"`
	Points      *model.UserPoints    `json:"points,omitempty"`
	Params      *model.StakingParams `json:"params,omitempty"`
	Rewards     *model.Rewards       `json:"rewards,omitempty"`
	MinLabel    string               `json:"min_stake_label,omitempty"`
}

func newStakeView(wallet common.Address, pos model.StakePosition, points *model.UserPoints, params *model.StakingParams, scale int64, f projection.Formatter, decimals uint8) stakeView {
	v := stakeView{
		Wallet:      wallet,
		Position:    pos,
		StakedLabel: f.CurrencyLabel(pos.StakedAmount, decimals),
		Points:      points,
		Params:      params,
	}
	if params != nil {
		rewards := projection.RewardProjection(pos.StakedAmount, params.PointsPerTokenPerDay, scale)
		v.Rewards = &rewards
		v.MinLabel = f.CurrencyLabel(params.MinStakeAmount, decimals)
	}
	return v
}

type treasuryView struct {
	model.TreasuryOverview
	BalanceLabel     string   `json:"balance_label"`
	FeeLabel         string   `json:"fee_label"`
	Organizer        string   `json:"organizer,omitempty"`
	OrganizerBalance *big.Int `json:"organizer_balance,omitempty"`
	OrganizerLabel   string   `json:"organizer_balance_label,omitempty"`
}

type operationView struct {
	Operation model.PendingOperation `json:"operation"`
	Message   string                 `json:"message"`
	Explorer  string                 `json:"explorer,omitempty"`
}

func newOperationView(op model.PendingOperation, err error, explorer string) operationView {
	msg := "Transaction confirmed."
	if err != nil {
		msg = failure.Message(err, "")
	} else if !op.Phase.Terminal() {
		msg = "Transaction submitted. Run basebond track to follow it."
	}
	return operationView{
		Operation: op,
		Message:   msg,
		Explorer:  projection.ExplorerTxURL(explorer, op.TxHash),
	}
}
