package model

import (
	"math/big"
	"testing"
)

func TestResumable(t *testing.T) {
	cases := []struct {
		op   PendingOperation
		want bool
	}{
		{PendingOperation{Phase: PhaseSubmitting}, false},
		{PendingOperation{Phase: PhaseConfirming, TxHash: "0x1"}, true},
		{PendingOperation{Phase: PhaseConfirmed, TxHash: "0x1"}, false},
		{PendingOperation{Phase: PhaseFailed, TxHash: "0x1", FailureKind: "ExecutionReverted"}, false},
		{PendingOperation{Phase: PhaseFailed, TxHash: "0x1", FailureKind: "ConfirmationTimeout"}, true},
	}
	for i, tc := range cases {
		if got := tc.op.Resumable(); got != tc.want {
			t.Fatalf("case %d: got %v want %v", i, got, tc.want)
		}
	}
}

func TestEventSoldOut(t *testing.T) {
	ev := EventRecord{MaxTickets: big.NewInt(10), SoldTickets: big.NewInt(10)}
	if !ev.SoldOut() {
		t.Fatalf("expected sold out")
	}
	ev.SoldTickets = big.NewInt(9)
	if ev.SoldOut() {
		t.Fatalf("expected tickets left")
	}
	if !ev.Free() {
		t.Fatalf("nil price should be free")
	}
}
