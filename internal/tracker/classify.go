package tracker

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"basebond/internal/failure"
	"basebond/internal/wallet"
)

// codeUserRejected is the EIP-1193 "user rejected request" code.
const codeUserRejected = 4001

var nodeRefusals = []string{
	"execution reverted",
	"insufficient funds",
	"gas required exceeds",
	"intrinsic gas too low",
	"nonce too low",
	"replacement transaction underpriced",
}

// classify maps a submission error to the failure taxonomy.
func classify(op string, err error) *failure.Error {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, wallet.ErrDeclined) {
		return failure.New(failure.UserRejected, op, err)
	}
	var rpcErr rpc.Error
	isRPC := errors.As(err, &rpcErr)
	if isRPC && rpcErr.ErrorCode() == codeUserRejected {
		return failure.New(failure.UserRejected, op, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied") {
		return failure.New(failure.UserRejected, op, err)
	}

	reason := RevertReason(err)
	if reason != "" || isRPC || containsAny(msg, nodeRefusals) {
		return &failure.Error{Kind: failure.ExecutionReverted, Op: op, Reason: reason, Err: err}
	}
	return failure.New(failure.Unclassified, op, err)
}

// RevertReason extracts a human-readable revert reason from a node error,
// preferring ABI-encoded revert data over the message text.
func RevertReason(err error) string {
	if err == nil {
		return ""
	}
	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if data, decErr := hexutil.Decode(s); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason
				}
			}
		}
	}
	const marker = "execution reverted: "
	msg := err.Error()
	if i := strings.Index(msg, marker); i >= 0 {
		return strings.TrimSpace(msg[i+len(marker):])
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
