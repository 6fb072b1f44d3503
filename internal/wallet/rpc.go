package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RawCaller performs a raw JSON-RPC call.
type RawCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// RPCSender lets the node (or a wallet proxy speaking JSON-RPC) sign with an
// account it manages, via eth_sendTransaction. Such signers may refuse with
// error code 4001.
type RPCSender struct {
	caller RawCaller
	from   common.Address
}

// NewRPCSender sends as from.
func NewRPCSender(caller RawCaller, from common.Address) *RPCSender {
	return &RPCSender{caller: caller, from: from}
}

func (s *RPCSender) From() common.Address {
	return s.from
}

func (s *RPCSender) Send(ctx context.Context, req TxRequest) (common.Hash, error) {
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	arg := map[string]interface{}{
		"from":  s.from,
		"to":    req.To,
		"data":  hexutil.Bytes(req.Data),
		"value": (*hexutil.Big)(value),
	}
	var hash common.Hash
	if err := s.caller.CallContext(ctx, &hash, "eth_sendTransaction", arg); err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendTransaction: %w", err)
	}
	return hash, nil
}
