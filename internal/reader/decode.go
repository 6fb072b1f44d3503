package reader

import (
	"fmt"
	"math/big"

	"basebond/internal/model"
)

// decodeEvent converts getEventDetails output.
func decodeEvent(id uint64, values []interface{}) (model.EventRecord, error) {
	if err := expectArity("getEventDetails", values, 11); err != nil {
		return model.EventRecord{}, err
	}
	var (
		ev  = model.EventRecord{ID: id}
		err error
	)
	strs := []*string{&ev.Name, &ev.Description, &ev.Location, &ev.ImageURI, &ev.BadgeURI}
	for i, dst := range strs {
		if *dst, err = asString(values[i]); err != nil {
			return model.EventRecord{}, fmt.Errorf("getEventDetails[%d]: %w", i, err)
		}
	}
	if ev.StartTime, err = asUint64(values[5]); err != nil {
		return model.EventRecord{}, fmt.Errorf("date: %w", err)
	}
	if ev.Price, err = asBigInt(values[6]); err != nil {
		return model.EventRecord{}, fmt.Errorf("price: %w", err)
	}
	if ev.MaxTickets, err = asBigInt(values[7]); err != nil {
		return model.EventRecord{}, fmt.Errorf("maxTickets: %w", err)
	}
	if ev.SoldTickets, err = asBigInt(values[8]); err != nil {
		return model.EventRecord{}, fmt.Errorf("soldTickets: %w", err)
	}
	if ev.Organizer, err = asAddress(values[9]); err != nil {
		return model.EventRecord{}, fmt.Errorf("organizer: %w", err)
	}
	if ev.IsActive, err = asBool(values[10]); err != nil {
		return model.EventRecord{}, fmt.Errorf("isActive: %w", err)
	}
	return ev, nil
}

// decodeActiveEvents converts the parallel arrays of getActiveEvents.
func decodeActiveEvents(values []interface{}) (model.EventPage, error) {
	if err := expectArity("getActiveEvents", values, 7); err != nil {
		return model.EventPage{}, err
	}
	ids, err := asBigInts(values[0])
	if err != nil {
		return model.EventPage{}, fmt.Errorf("eventIds: %w", err)
	}
	names, err := asStrings(values[1])
	if err != nil {
		return model.EventPage{}, fmt.Errorf("names: %w", err)
	}
	locations, err := asStrings(values[2])
	if err != nil {
		return model.EventPage{}, fmt.Errorf("locations: %w", err)
	}
	images, err := asStrings(values[3])
	if err != nil {
		return model.EventPage{}, fmt.Errorf("imageUris: %w", err)
	}
	dates, err := asBigInts(values[4])
	if err != nil {
		return model.EventPage{}, fmt.Errorf("dates: %w", err)
	}
	prices, err := asBigInts(values[5])
	if err != nil {
		return model.EventPage{}, fmt.Errorf("prices: %w", err)
	}
	total, err := asUint64(values[6])
	if err != nil {
		return model.EventPage{}, fmt.Errorf("total: %w", err)
	}
	n := len(ids)
	if len(names) != n || len(locations) != n || len(images) != n || len(dates) != n || len(prices) != n {
		return model.EventPage{}, fmt.Errorf("getActiveEvents: column lengths differ")
	}

	page := model.EventPage{Events: make([]model.EventSummary, 0, n), Total: total}
	for i := 0; i < n; i++ {
		page.Events = append(page.Events, model.EventSummary{
			ID:        ids[i].Uint64(),
			Name:      names[i],
			Location:  locations[i],
			ImageURI:  images[i],
			StartTime: dates[i].Uint64(),
			Price:     prices[i],
			IsActive:  true,
		})
	}
	return page, nil
}

// decodeOrganizerEvents converts the parallel arrays of getOrganizerEvents.
func decodeOrganizerEvents(values []interface{}) ([]model.EventSummary, error) {
	if err := expectArity("getOrganizerEvents", values, 8); err != nil {
		return nil, err
	}
	ids, err := asBigInts(values[0])
	if err != nil {
		return nil, fmt.Errorf("eventIds: %w", err)
	}
	names, err := asStrings(values[1])
	if err != nil {
		return nil, fmt.Errorf("names: %w", err)
	}
	dates, err := asBigInts(values[2])
	if err != nil {
		return nil, fmt.Errorf("dates: %w", err)
	}
	prices, err := asBigInts(values[3])
	if err != nil {
		return nil, fmt.Errorf("prices: %w", err)
	}
	images, err := asStrings(values[4])
	if err != nil {
		return nil, fmt.Errorf("imageUris: %w", err)
	}
	sold, err := asBigInts(values[5])
	if err != nil {
		return nil, fmt.Errorf("ticketsSold: %w", err)
	}
	maxTickets, err := asBigInts(values[6])
	if err != nil {
		return nil, fmt.Errorf("maxTickets: %w", err)
	}
	active, err := asBools(values[7])
	if err != nil {
		return nil, fmt.Errorf("activeStatus: %w", err)
	}
	n := len(ids)
	for _, l := range []int{len(names), len(dates), len(prices), len(images), len(sold), len(maxTickets), len(active)} {
		if l != n {
			return nil, fmt.Errorf("getOrganizerEvents: column lengths differ")
		}
	}

	out := make([]model.EventSummary, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.EventSummary{
			ID:          ids[i].Uint64(),
			Name:        names[i],
			ImageURI:    images[i],
			StartTime:   dates[i].Uint64(),
			Price:       prices[i],
			SoldTickets: sold[i],
			MaxTickets:  maxTickets[i],
			IsActive:    active[i],
		})
	}
	return out, nil
}

func decodeStakeInfo(values []interface{}) (model.StakePosition, error) {
	if err := expectArity("getStakeInfo", values, 5); err != nil {
		return model.StakePosition{}, err
	}
	ints := make([]*big.Int, 5)
	for i, v := range values {
		n, err := asBigInt(v)
		if err != nil {
			return model.StakePosition{}, fmt.Errorf("getStakeInfo[%d]: %w", i, err)
		}
		ints[i] = n
	}
	if !ints[1].IsUint64() {
		return model.StakePosition{}, fmt.Errorf("stakingStartTime overflow: %s", ints[1])
	}
	return model.StakePosition{
		StakedAmount:     ints[0],
		StakingStartTime: ints[1].Uint64(),
		ClaimedPoints:    ints[2],
		PendingPoints:    ints[3],
		TotalPoints:      ints[4],
	}, nil
}

func decodeProposal(id uint64, values []interface{}) (model.Proposal, error) {
	if err := expectArity("getProposal", values, 9); err != nil {
		return model.Proposal{}, err
	}
	var (
		p   = model.Proposal{ID: id}
		err error
	)
	if p.Proposer, err = asAddress(values[0]); err != nil {
		return model.Proposal{}, fmt.Errorf("proposer: %w", err)
	}
	if p.Description, err = asString(values[1]); err != nil {
		return model.Proposal{}, fmt.Errorf("description: %w", err)
	}
	if p.Recipient, err = asAddress(values[2]); err != nil {
		return model.Proposal{}, fmt.Errorf("recipient: %w", err)
	}
	if p.Amount, err = asBigInt(values[3]); err != nil {
		return model.Proposal{}, fmt.Errorf("amount: %w", err)
	}
	if p.VotesFor, err = asBigInt(values[4]); err != nil {
		return model.Proposal{}, fmt.Errorf("votesFor: %w", err)
	}
	if p.VotesAgainst, err = asBigInt(values[5]); err != nil {
		return model.Proposal{}, fmt.Errorf("votesAgainst: %w", err)
	}
	if p.Deadline, err = asUint64(values[6]); err != nil {
		return model.Proposal{}, fmt.Errorf("deadline: %w", err)
	}
	if p.Executed, err = asBool(values[7]); err != nil {
		return model.Proposal{}, fmt.Errorf("executed: %w", err)
	}
	if p.Cancelled, err = asBool(values[8]); err != nil {
		return model.Proposal{}, fmt.Errorf("cancelled: %w", err)
	}
	return p, nil
}

func singleBigInt(method string, values []interface{}) (*big.Int, error) {
	if err := expectArity(method, values, 1); err != nil {
		return nil, err
	}
	v, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return v, nil
}

func singleBool(method string, values []interface{}) (bool, error) {
	if err := expectArity(method, values, 1); err != nil {
		return false, err
	}
	v, err := asBool(values[0])
	if err != nil {
		return false, fmt.Errorf("%s: %w", method, err)
	}
	return v, nil
}
