// Package wallet signs and broadcasts transactions on behalf of the operator.
package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrDeclined is returned when the operator refuses to sign.
var ErrDeclined = errors.New("basebond: signer declined the transaction")

// TxRequest is a contract call to sign and broadcast.
type TxRequest struct {
	To    common.Address
	Data  []byte
	Value *big.Int
	// Summary is shown to the operator before signing.
	Summary string
}

// Sender signs and broadcasts a transaction and returns its hash as soon as
// the node accepted it.
type Sender interface {
	From() common.Address
	Send(ctx context.Context, req TxRequest) (common.Hash, error)
}
