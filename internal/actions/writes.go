package actions

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"basebond/internal/contracts"
	"basebond/internal/invalidate"
	"basebond/internal/model"
	"basebond/internal/qr"
	"basebond/internal/tracker"
)

// BuyTicket buys one ticket. A priced event is approved first when needed.
func (s *Service) BuyTicket(ctx context.Context, eventID uint64) (*tracker.Tracker, error) {
	owner, err := s.wallet()
	if err != nil {
		return nil, err
	}
	ev, err := s.reader.EventDetails(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("read event %d: %w", eventID, err)
	}
	if ev.SoldOut() {
		return nil, fmt.Errorf("%w: event %d is sold out", ErrInvalidInput, eventID)
	}
	if !ev.Free() {
		if err := s.ensureAllowance(ctx, contracts.EventFactory, ev.Price); err != nil {
			return nil, err
		}
	}

	keys := []string{
		invalidate.EventKey(eventID),
		invalidate.CollectionKey(owner),
		invalidate.EventsKey,
	}
	if token := s.registry.Address(contracts.IDRXToken); token != (common.Address{}) {
		keys = append(keys, invalidate.BalanceKey(token, owner))
	}
	summary := fmt.Sprintf("Buy ticket for %q (%s)", ev.Name, s.label(ev.Price))
	return s.write(ctx, model.OpBuy, contracts.EventFactory, "buyTicket", summary, keys, new(big.Int).SetUint64(eventID))
}

// CheckIn validates scanned text against the event and checks the attendee in.
func (s *Service) CheckIn(ctx context.Context, eventID uint64, scanText string) (*tracker.Tracker, error) {
	scan := qr.Parse(scanText)
	if err := scan.CheckEvent(eventID); err != nil {
		return nil, err
	}
	attendee, err := scan.Address()
	if err != nil {
		return nil, err
	}
	keys := []string{invalidate.EventKey(eventID), invalidate.CollectionKey(attendee)}
	summary := fmt.Sprintf("Check in %s at event %d", attendee.Hex(), eventID)
	return s.write(ctx, model.OpCheckIn, contracts.EventFactory, "checkIn", summary, keys, new(big.Int).SetUint64(eventID), attendee)
}

// EventInput holds the fields of a new event. Price is a decimal token amount.
type EventInput struct {
	Name        string
	Description string
	Location    string
	ImageURI    string
	BadgeURI    string
	Date        uint64
	Price       string
	MaxTickets  uint64
}

// CreateEvent creates an event owned by the wallet.
func (s *Service) CreateEvent(ctx context.Context, in EventInput) (*tracker.Tracker, error) {
	owner, err := s.wallet()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: event name is required", ErrInvalidInput)
	}
	if in.MaxTickets == 0 {
		return nil, fmt.Errorf("%w: max tickets must be positive", ErrInvalidInput)
	}
	if in.Date == 0 {
		return nil, fmt.Errorf("%w: event date is required", ErrInvalidInput)
	}
	price := new(big.Int)
	if strings.TrimSpace(in.Price) != "" {
		if price, err = s.ParseAmount(in.Price); err != nil {
			return nil, err
		}
	}
	keys := []string{invalidate.EventsKey, invalidate.OrganizerKey(owner)}
	summary := fmt.Sprintf("Create event %q priced %s", in.Name, s.label(price))
	return s.write(ctx, model.OpCreateEvent, contracts.EventFactory, "createEvent", summary, keys,
		in.Name, in.Description, in.Location, in.ImageURI, in.BadgeURI,
		new(big.Int).SetUint64(in.Date), price, new(big.Int).SetUint64(in.MaxTickets),
	)
}

func (s *Service) stakeKeys(owner common.Address) []string {
	keys := []string{invalidate.StakeKey(owner), invalidate.StakingKey}
	if token := s.registry.Address(contracts.IDRXToken); token != (common.Address{}) {
		keys = append(keys, invalidate.BalanceKey(token, owner))
	}
	return keys
}

// Stake locks amountText tokens, approving the staking contract first when needed.
func (s *Service) Stake(ctx context.Context, amountText string) (*tracker.Tracker, error) {
	owner, err := s.wallet()
	if err != nil {
		return nil, err
	}
	amount, err := s.positiveAmount(amountText)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAllowance(ctx, contracts.LoyaltyStaking, amount); err != nil {
		return nil, err
	}
	return s.write(ctx, model.OpStake, contracts.LoyaltyStaking, "stake", "Stake "+s.label(amount), s.stakeKeys(owner), amount)
}

// Unstake releases amountText tokens.
func (s *Service) Unstake(ctx context.Context, amountText string) (*tracker.Tracker, error) {
	owner, err := s.wallet()
	if err != nil {
		return nil, err
	}
	amount, err := s.positiveAmount(amountText)
	if err != nil {
		return nil, err
	}
	return s.write(ctx, model.OpUnstake, contracts.LoyaltyStaking, "unstake", "Unstake "+s.label(amount), s.stakeKeys(owner), amount)
}

// Claim moves pending loyalty points to claimed.
func (s *Service) Claim(ctx context.Context) (*tracker.Tracker, error) {
	owner, err := s.wallet()
	if err != nil {
		return nil, err
	}
	keys := []string{invalidate.StakeKey(owner), invalidate.PointsKey(owner)}
	return s.write(ctx, model.OpClaim, contracts.LoyaltyStaking, "claimPoints", "Claim loyalty points", keys)
}

// Vote casts a vote on a proposal.
func (s *Service) Vote(ctx context.Context, proposalID uint64, support bool) (*tracker.Tracker, error) {
	if _, err := s.wallet(); err != nil {
		return nil, err
	}
	side := "against"
	if support {
		side = "for"
	}
	keys := []string{invalidate.ProposalKey(proposalID), invalidate.ProposalsKey}
	summary := fmt.Sprintf("Vote %s proposal #%d", side, proposalID)
	return s.write(ctx, model.OpVote, contracts.EventTreasury, "vote", summary, keys, new(big.Int).SetUint64(proposalID), support)
}

// CreateProposal proposes paying amountText tokens from the treasury to recipient.
func (s *Service) CreateProposal(ctx context.Context, description, recipient, amountText string) (*tracker.Tracker, error) {
	if _, err := s.wallet(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if !common.IsHexAddress(recipient) {
		return nil, fmt.Errorf("%w: recipient %q is not an address", ErrInvalidInput, recipient)
	}
	amount, err := s.positiveAmount(amountText)
	if err != nil {
		return nil, err
	}
	to := common.HexToAddress(recipient)
	summary := fmt.Sprintf("Propose %s to %s", s.label(amount), to.Hex())
	return s.write(ctx, model.OpCreateProposal, contracts.EventTreasury, "createProposal", summary,
		[]string{invalidate.ProposalsKey}, description, to, amount)
}

// Withdraw pays out the organizer's treasury balance.
func (s *Service) Withdraw(ctx context.Context) (*tracker.Tracker, error) {
	owner, err := s.wallet()
	if err != nil {
		return nil, err
	}
	keys := []string{invalidate.OrganizerBalanceKey(owner), invalidate.TreasuryKey}
	return s.write(ctx, model.OpWithdraw, contracts.EventTreasury, "withdrawOrganizerBalance", "Withdraw organizer balance", keys)
}

func (s *Service) positiveAmount(text string) (*big.Int, error) {
	amount, err := s.ParseAmount(text)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	return amount, nil
}
