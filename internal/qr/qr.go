// Package qr encodes and decodes the ticket payload carried by attendee QR
// codes and read back at the check-in desk.
package qr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PayloadType tags basebond ticket payloads.
const PayloadType = "BASEBOND_TICKET"

var (
	ErrEventMismatch = errors.New("basebond: QR does not belong to this event")
	ErrInvalidWallet = errors.New("basebond: scanned wallet is not an address")
)

// Payload is the JSON document encoded in a ticket QR code.
type Payload struct {
	Type      string `json:"type"`
	EventID   string `json:"eventId"`
	TicketID  string `json:"ticketId"`
	Wallet    string `json:"wallet"`
	Timestamp int64  `json:"timestamp"`
}

// Issue renders the payload for a held ticket. The timestamp is in
// milliseconds since the epoch.
func Issue(eventID uint64, ticketID string, wallet common.Address, now time.Time) (string, error) {
	p := Payload{
		Type:      PayloadType,
		EventID:   strconv.FormatUint(eventID, 10),
		TicketID:  ticketID,
		Wallet:    wallet.Hex(),
		Timestamp: now.UnixMilli(),
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal qr payload: %w", err)
	}
	return string(data), nil
}

// Scan is the result of reading a QR code at check-in.
type Scan struct {
	Wallet   string `json:"wallet"`
	EventID  string `json:"event_id,omitempty"`
	TicketID string `json:"ticket_id,omitempty"`
	// FromPayload is false when the text was not a JSON object and was taken
	// verbatim as the wallet.
	FromPayload bool `json:"from_payload"`
}

type scanDoc struct {
	Wallet        string          `json:"wallet"`
	WalletAddress string          `json:"walletAddress"`
	EventID       json.RawMessage `json:"eventId"`
	TicketID      json.RawMessage `json:"ticketId"`
}

// Parse reads scanned text. A JSON object yields its wallet (or the older
// walletAddress field); anything else is used as the wallet verbatim.
func Parse(text string) Scan {
	text = strings.TrimSpace(text)
	var doc scanDoc
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return Scan{Wallet: text}
	}
	wallet := doc.Wallet
	if wallet == "" {
		wallet = doc.WalletAddress
	}
	if wallet == "" {
		wallet = text
	}
	return Scan{
		Wallet:      strings.TrimSpace(wallet),
		EventID:     rawScalar(doc.EventID),
		TicketID:    rawScalar(doc.TicketID),
		FromPayload: true,
	}
}

// rawScalar accepts both "12" and 12.
func rawScalar(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// CheckEvent rejects a payload that names a different event. Payloads
// without an event id pass.
func (s Scan) CheckEvent(eventID uint64) error {
	if s.EventID == "" {
		return nil
	}
	if s.EventID != strconv.FormatUint(eventID, 10) {
		return fmt.Errorf("%w: scanned %s, expected %d", ErrEventMismatch, s.EventID, eventID)
	}
	return nil
}

// Address validates the scanned wallet.
func (s Scan) Address() (common.Address, error) {
	if !common.IsHexAddress(s.Wallet) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidWallet, s.Wallet)
	}
	return common.HexToAddress(s.Wallet), nil
}
