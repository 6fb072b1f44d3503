package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EventRecord is the full on-chain view of one event.
type EventRecord struct {
	ID          uint64         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	ImageURI    string         `json:"image_uri"`
	BadgeURI    string         `json:"badge_uri"`
	StartTime   uint64         `json:"start_time"`
	Price       *big.Int       `json:"price"`
	MaxTickets  *big.Int       `json:"max_tickets"`
	SoldTickets *big.Int       `json:"sold_tickets"`
	Organizer   common.Address `json:"organizer"`
	IsActive    bool           `json:"is_active"`
}

// Free reports whether the event has no ticket price.
func (e EventRecord) Free() bool {
	return e.Price == nil || e.Price.Sign() == 0
}

// SoldOut reports whether every ticket has been sold.
func (e EventRecord) SoldOut() bool {
	if e.MaxTickets == nil || e.SoldTickets == nil || e.MaxTickets.Sign() == 0 {
		return false
	}
	return e.SoldTickets.Cmp(e.MaxTickets) >= 0
}

// EventSummary is one row of a list view. Columns that a given list does
// not carry stay zero.
type EventSummary struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Location    string   `json:"location,omitempty"`
	ImageURI    string   `json:"image_uri"`
	StartTime   uint64   `json:"start_time"`
	Price       *big.Int `json:"price"`
	SoldTickets *big.Int `json:"sold_tickets,omitempty"`
	MaxTickets  *big.Int `json:"max_tickets,omitempty"`
	IsActive    bool     `json:"is_active"`
}

// EventPage is a page of active events plus the total count.
type EventPage struct {
	Events []EventSummary `json:"events"`
	Total  uint64         `json:"total"`
}
