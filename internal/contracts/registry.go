// Package contracts binds the logical contract names used across basebond to
// their deployed addresses and ABIs.
package contracts

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"basebond/internal/failure"
)

// Name is a logical contract name.
type Name string

const (
	EventFactory   Name = "eventFactory"
	TicketNFT      Name = "ticketNFT"
	EventPOAP      Name = "eventPOAP"
	LoyaltyStaking Name = "loyaltyStaking"
	EventTreasury  Name = "eventTreasury"
	IDRXToken      Name = "idrxToken"
)

// Names lists every logical name in a stable order.
var Names = []Name{EventFactory, TicketNFT, EventPOAP, LoyaltyStaking, EventTreasury, IDRXToken}

// Addresses holds the configured hex addresses keyed by logical name.
// Empty strings mean "not deployed".
type Addresses map[Name]string

// Descriptor is a resolved contract.
type Descriptor struct {
	Name      Name
	Address   common.Address
	ABI       abi.ABI
	Functions []string
}

// Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	entries map[Name]entry
}

type entry struct {
	address common.Address
	abi     abi.ABI
	set     bool
}

// NewRegistry parses the ABIs and validates every non-empty address.
func NewRegistry(addrs Addresses) (*Registry, error) {
	r := &Registry{entries: make(map[Name]entry, len(Names))}
	for _, name := range Names {
		parsed, err := ABIOf(name)
		if err != nil {
			return nil, fmt.Errorf("parse %s abi: %w", name, err)
		}
		e := entry{abi: parsed}
		raw := strings.TrimSpace(addrs[name])
		if raw != "" {
			if !common.IsHexAddress(raw) {
				return nil, fmt.Errorf("invalid %s address %q", name, raw)
			}
			e.address = common.HexToAddress(raw)
			e.set = e.address != (common.Address{})
		}
		r.entries[name] = e
	}
	for name := range addrs {
		if _, ok := r.entries[name]; !ok {
			return nil, fmt.Errorf("unknown contract name %q", name)
		}
	}
	return r, nil
}

// ABIOf returns the ABI bound to a logical name.
func ABIOf(name Name) (abi.ABI, error) {
	switch name {
	case EventFactory:
		return EventFactoryABI()
	case TicketNFT, EventPOAP:
		return ERC721ABI()
	case LoyaltyStaking:
		return LoyaltyStakingABI()
	case EventTreasury:
		return EventTreasuryABI()
	case IDRXToken:
		return ERC20ABI()
	default:
		return abi.ABI{}, fmt.Errorf("no abi for %q", name)
	}
}

var errNotDeployed = errors.New("contract address is not configured")

// Resolve returns the descriptor for name, or a ConfigurationError when the
// name is unknown or its address is unset or zero.
func (r *Registry) Resolve(name Name) (Descriptor, error) {
	e, ok := r.entries[name]
	if !ok {
		return Descriptor{}, failure.New(failure.Configuration, string(name), fmt.Errorf("unknown contract name"))
	}
	if !e.set {
		return Descriptor{}, failure.New(failure.Configuration, string(name), errNotDeployed)
	}
	fns := make([]string, 0, len(e.abi.Methods))
	for m := range e.abi.Methods {
		fns = append(fns, m)
	}
	sort.Strings(fns)
	return Descriptor{Name: name, Address: e.address, ABI: e.abi, Functions: fns}, nil
}

// Available reports whether the feature backed by name can be used.
func (r *Registry) Available(name Name) bool {
	e, ok := r.entries[name]
	return ok && e.set
}

// Address returns the configured address, zero when unavailable.
func (r *Registry) Address(name Name) common.Address {
	return r.entries[name].address
}
