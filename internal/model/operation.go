package model

import "time"

// OperationKind names the user action behind a write.
type OperationKind string

const (
	OpApprove        OperationKind = "approve"
	OpBuy            OperationKind = "buy"
	OpStake          OperationKind = "stake"
	OpUnstake        OperationKind = "unstake"
	OpClaim          OperationKind = "claim"
	OpVote           OperationKind = "vote"
	OpCreateEvent    OperationKind = "createEvent"
	OpCheckIn        OperationKind = "checkIn"
	OpCreateProposal OperationKind = "createProposal"
	OpWithdraw       OperationKind = "withdraw"
)

// Phase is the lifecycle position of a write.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSubmitted  Phase = "submitted"
	PhaseConfirming Phase = "confirming"
	PhaseConfirmed  Phase = "confirmed"
	PhaseFailed     Phase = "failed"
)

// Terminal reports whether no further transition can happen.
func (p Phase) Terminal() bool {
	return p == PhaseConfirmed || p == PhaseFailed
}

// PendingOperation is the record of one write and its confirmation.
type PendingOperation struct {
	ID             string        `json:"id"`
	Kind           OperationKind `json:"kind"`
	TxHash         string        `json:"tx_hash,omitempty"`
	Phase          Phase         `json:"phase"`
	FailureKind    string        `json:"failure_kind,omitempty"`
	Reason         string        `json:"reason,omitempty"`
	Contract       string        `json:"contract"`
	Method         string        `json:"method"`
	To             string        `json:"to,omitempty"`
	Input          string        `json:"input,omitempty"`
	InvalidateKeys []string      `json:"invalidate_keys,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Resumable reports whether the confirmation watch can be restarted: a hash is
// known and the outcome is either unknown or a timeout.
func (o PendingOperation) Resumable() bool {
	if o.TxHash == "" {
		return false
	}
	if !o.Phase.Terminal() {
		return true
	}
	return o.Phase == PhaseFailed && o.FailureKind == "ConfirmationTimeout"
}
