package wallet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Confirmer asks the operator to approve a transaction.
type Confirmer interface {
	Confirm(ctx context.Context, summary string) (bool, error)
}

// AutoApprove approves everything (--yes).
type AutoApprove struct{}

func (AutoApprove) Confirm(context.Context, string) (bool, error) { return true, nil }

// Prompt asks on a terminal.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// Confirm accepts "y" or "yes". EOF counts as no.
func (p *Prompt) Confirm(_ context.Context, summary string) (bool, error) {
	fmt.Fprintf(p.out, "%s\nSign and send? [y/N]: ", summary)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Confirming asks before every send and returns ErrDeclined on refusal.
type Confirming struct {
	next      Sender
	confirmer Confirmer
}

// WithConfirmation wraps next.
func WithConfirmation(next Sender, confirmer Confirmer) *Confirming {
	return &Confirming{next: next, confirmer: confirmer}
}

func (c *Confirming) From() common.Address {
	return c.next.From()
}

func (c *Confirming) Send(ctx context.Context, req TxRequest) (common.Hash, error) {
	ok, err := c.confirmer.Confirm(ctx, req.Summary)
	if err != nil {
		return common.Hash{}, err
	}
	if !ok {
		return common.Hash{}, ErrDeclined
	}
	return c.next.Send(ctx, req)
}
