// Package chaintest provides an in-memory node for tests. Calls are packed and
// unpacked with the real contract ABIs so the encode and decode paths run.
package chaintest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"basebond/internal/contracts"
	"basebond/internal/wallet"
)

// Call is a decoded contract call seen by the node.
type Call struct {
	To     common.Address
	From   common.Address
	Method string
	Args   []interface{}
}

// Handler answers a view call with output values, or fails it.
type Handler func(call Call) ([]interface{}, error)

// RevertError mimics a node's "execution reverted" error with ABI-encoded
// Error(string) data.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string  { return "execution reverted: " + e.Reason }
func (e *RevertError) ErrorCode() int { return 3 }
func (e *RevertError) ErrorData() interface{} {
	stringType, _ := abi.NewType("string", "", nil)
	packed, _ := abi.Arguments{{Type: stringType}}.Pack(e.Reason)
	selector := []byte{0x08, 0xc3, 0x79, 0xa0}
	return hexutil.Encode(append(selector, packed...))
}

// Node is a fake JSON-RPC node.
type Node struct {
	mu sync.Mutex

	abis     []abi.ABI
	handlers map[string]Handler
	receipts map[common.Hash]*types.Receipt
	block    uint64

	// TransportFailures makes the next N batch requests fail as a whole.
	TransportFailures int
	// Requests counts batch requests, BatchSizes their element counts.
	Requests   int
	BatchSizes []int
	Calls      []Call
}

// NewNode creates a node that knows every basebond ABI.
func NewNode() *Node {
	n := &Node{
		handlers: make(map[string]Handler),
		receipts: make(map[common.Hash]*types.Receipt),
		block:    100,
	}
	for _, get := range []func() (abi.ABI, error){
		contracts.EventFactoryABI,
		contracts.LoyaltyStakingABI,
		contracts.EventTreasuryABI,
		contracts.ERC20ABI,
	} {
		parsed, err := get()
		if err != nil {
			panic(err)
		}
		n.abis = append(n.abis, parsed)
	}
	return n
}

// Handle registers the answer for a method name.
func (n *Node) Handle(method string, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

// Returns registers a constant answer.
func (n *Node) Returns(method string, values ...interface{}) {
	n.Handle(method, func(Call) ([]interface{}, error) { return values, nil })
}

// Mine stores a receipt for hash at the next block.
func (n *Node) Mine(hash common.Hash, status uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.block++
	n.receipts[hash] = &types.Receipt{
		Status:      status,
		TxHash:      hash,
		BlockNumber: new(big.Int).SetUint64(n.block),
	}
}

// AdvanceBlocks moves the head forward.
func (n *Node) AdvanceBlocks(k uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.block += k
}

func (n *Node) lookup(data []byte) (*abi.Method, error) {
	if len(data) < 4 {
		return nil, errors.New("calldata too short")
	}
	for i := range n.abis {
		if m, err := n.abis[i].MethodById(data[:4]); err == nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown selector %x", data[:4])
}

func (n *Node) call(from, to common.Address, data []byte) ([]byte, error) {
	method, err := n.lookup(data)
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	call := Call{To: to, From: from, Method: method.Name, Args: args}

	n.mu.Lock()
	n.Calls = append(n.Calls, call)
	h := n.handlers[method.Name]
	n.mu.Unlock()

	if h == nil {
		return nil, &RevertError{}
	}
	out, err := h(call)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

// BatchCallContext serves eth_call and eth_getTransactionReceipt elements.
func (n *Node) BatchCallContext(ctx context.Context, elems []rpc.BatchElem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	n.Requests++
	n.BatchSizes = append(n.BatchSizes, len(elems))
	if n.TransportFailures > 0 {
		n.TransportFailures--
		n.mu.Unlock()
		return errors.New("connection reset by peer")
	}
	n.mu.Unlock()

	for i := range elems {
		switch elems[i].Method {
		case "eth_call":
			arg := elems[i].Args[0].(map[string]interface{})
			to := arg["to"].(common.Address)
			data := arg["data"].(hexutil.Bytes)
			out, err := n.call(common.Address{}, to, data)
			if err != nil {
				elems[i].Error = err
				continue
			}
			*elems[i].Result.(*hexutil.Bytes) = out
		case "eth_getTransactionReceipt":
			hash := elems[i].Args[0].(common.Hash)
			r, _ := n.TransactionReceipt(ctx, hash)
			*elems[i].Result.(**types.Receipt) = r
		default:
			elems[i].Error = fmt.Errorf("method %s not supported", elems[i].Method)
		}
	}
	return nil
}

// CallContract serves a single eth_call, used for revert replays.
func (n *Node) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil {
		return nil, errors.New("contract creation not supported")
	}
	return n.call(msg.From, *msg.To, msg.Data)
}

// TransactionReceipt returns a mined receipt or ethereum.NotFound.
func (n *Node) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, ok := n.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// LatestBlockNumber returns the head.
func (n *Node) LatestBlockNumber(context.Context) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.block, nil
}

// Sender is a fake signer. OnSend decides what happens to each transaction:
// return a receipt status to mine it right away, or mine=false to leave it
// pending. A non-nil error refuses it at submission.
type Sender struct {
	Node   *Node
	Addr   common.Address
	OnSend func(call Call) (status uint64, mine bool, err error)

	mu   sync.Mutex
	sent []Call
	seq  uint64
}

func (s *Sender) From() common.Address { return s.Addr }

func (s *Sender) Send(_ context.Context, req wallet.TxRequest) (common.Hash, error) {
	call := Call{To: req.To, From: s.Addr}
	if method, err := s.Node.lookup(req.Data); err == nil {
		call.Method = method.Name
		call.Args, _ = method.Inputs.Unpack(req.Data[4:])
	}

	status, mine, err := uint64(types.ReceiptStatusSuccessful), true, error(nil)
	if s.OnSend != nil {
		status, mine, err = s.OnSend(call)
	}
	if err != nil {
		return common.Hash{}, err
	}

	s.mu.Lock()
	s.seq++
	hash := common.BigToHash(new(big.Int).SetUint64(0xb0b0_0000 + s.seq))
	s.sent = append(s.sent, call)
	s.mu.Unlock()

	if mine {
		s.Node.Mine(hash, status)
	}
	return hash, nil
}

// Sent returns the calls submitted so far.
func (s *Sender) Sent() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.sent...)
}
