package model

// TicketOwnership is the per-event ownership state of one wallet.
type TicketOwnership struct {
	EventID      uint64 `json:"event_id"`
	HasTicket    bool   `json:"has_ticket"`
	HasCheckedIn bool   `json:"has_checked_in"`
}

// CollectionTicket is a ticket held by the wallet.
type CollectionTicket struct {
	TicketID  string      `json:"ticket_id"`
	Event     EventRecord `json:"event"`
	CheckedIn bool        `json:"checked_in"`
}

// POAP is an attendance badge earned by checking in.
type POAP struct {
	EventID   uint64 `json:"event_id"`
	EventName string `json:"event_name"`
	ImageURI  string `json:"image_uri"`
	EventDate uint64 `json:"event_date"`
}

// Collection is a wallet's tickets and badges. Both slices are non-nil.
type Collection struct {
	Tickets []CollectionTicket `json:"tickets"`
	POAPs   []POAP             `json:"poaps"`
}
