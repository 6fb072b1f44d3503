package wallet

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NonceSource returns the next nonce known to the node.
type NonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// NonceManager hands out nonces locally so concurrent writes from one key do
// not collide. It loads the starting nonce from the node on first use and
// after every Reset.
type NonceManager struct {
	address common.Address
	source  NonceSource

	lock   sync.Mutex
	next   uint64
	loaded bool
}

// NewNonceManager creates a nonce manager for address.
func NewNonceManager(address common.Address, source NonceSource) *NonceManager {
	return &NonceManager{address: address, source: source}
}

// GetNonce returns the next nonce and increments it.
func (nm *NonceManager) GetNonce(ctx context.Context) (uint64, error) {
	nm.lock.Lock()
	defer nm.lock.Unlock()

	if !nm.loaded {
		n, err := nm.source.PendingNonceAt(ctx, nm.address)
		if err != nil {
			return 0, err
		}
		nm.next = n
		nm.loaded = true
	}
	current := nm.next
	nm.next++
	return current, nil
}

// Reset forgets the local counter; the next call asks the node again.
func (nm *NonceManager) Reset() {
	nm.lock.Lock()
	defer nm.lock.Unlock()
	nm.loaded = false
}
