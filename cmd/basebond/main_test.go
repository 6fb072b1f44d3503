package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"basebond/internal/actions"
	"basebond/internal/failure"
	"basebond/internal/model"
	"basebond/internal/projection"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), err
}

func TestQRRoundTripThroughCommands(t *testing.T) {
	wallet := "0x1111111111111111111111111111111111111111"
	text, err := runCommand(t, "qr", "issue", "7", "#0008", wallet)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.Contains(text, `"type":"BASEBOND_TICKET"`) {
		t.Fatalf("unexpected payload: %s", text)
	}

	out, err := runCommand(t, "qr", "parse", strings.TrimSpace(text))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var got struct {
		Scan struct {
			Wallet  string `json:"wallet"`
			EventID string `json:"event_id"`
		} `json:"scan"`
		ValidAddress bool `json:"valid_address"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if !got.ValidAddress || got.Scan.EventID != "7" || !strings.EqualFold(got.Scan.Wallet, wallet) {
		t.Fatalf("unexpected scan: %+v", got)
	}
}

func TestConfigCommandReportsAvailability(t *testing.T) {
	out, err := runCommand(t, "config",
		"--event-factory-address", "0x00000000000000000000000000000000000000f1",
		"--private-key", "secret",
		"--store", "none",
	)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	var got struct {
		Config    map[string]interface{} `json:"config"`
		Available map[string]bool        `json:"available"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if !got.Available["eventFactory"] || got.Available["loyaltyStaking"] {
		t.Fatalf("unexpected availability: %v", got.Available)
	}
	if got.Config["private-key"] != "***" {
		t.Fatalf("private key not redacted: %v", got.Config["private-key"])
	}
}

func TestMissingRPCIsConfigurationMessage(t *testing.T) {
	_, err := runCommand(t, "proposals", "--store", "none")
	if err == nil || !strings.Contains(err.Error(), "not available") {
		t.Fatalf("expected configuration message, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2030-01-02T03:04:05Z")
	if err != nil || got != 1893553445 {
		t.Fatalf("rfc3339: %d %v", got, err)
	}
	got, err = parseDate("1900000000")
	if err != nil || got != 1900000000 {
		t.Fatalf("unix: %d %v", got, err)
	}
	if _, err := parseDate("tomorrow"); !errors.Is(err, actions.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSummaryViewsFilterByPhase(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	rows := []model.EventSummary{
		{ID: 1, StartTime: 2_000_000, Price: big.NewInt(0)},
		{ID: 2, StartTime: 999_000, Price: big.NewInt(0)},
		{ID: 3, StartTime: 10, Price: big.NewInt(0)},
	}
	views := summaryViews(rows, projection.DefaultFormatter, 18, now, "ongoing")
	if len(views) != 1 || views[0].ID != 2 {
		t.Fatalf("unexpected views: %+v", views)
	}
	if views[0].PriceLabel != projection.FreeLabel {
		t.Fatalf("price label: %s", views[0].PriceLabel)
	}
	if all := summaryViews(rows, projection.DefaultFormatter, 18, now, ""); len(all) != 3 {
		t.Fatalf("expected all rows, got %d", len(all))
	}
}

func TestOperationViewMessages(t *testing.T) {
	op := model.PendingOperation{ID: "a", Phase: model.PhaseFailed, TxHash: "0xabc"}
	view := newOperationView(op, &failure.Error{Kind: failure.ExecutionReverted, Reason: "Sold out"}, "https://sepolia.basescan.org/")
	if view.Message != "Transaction reverted: Sold out" {
		t.Fatalf("message: %s", view.Message)
	}
	if view.Explorer != "https://sepolia.basescan.org/tx/0xabc" {
		t.Fatalf("explorer: %s", view.Explorer)
	}

	op.Phase = model.PhaseConfirming
	if v := newOperationView(op, nil, ""); !strings.Contains(v.Message, "basebond track") {
		t.Fatalf("pending message: %s", v.Message)
	}
}

func TestStakeViewProjectsRewards(t *testing.T) {
	pos := model.StakePosition{StakedAmount: big.NewInt(1000)}
	params := &model.StakingParams{PointsPerTokenPerDay: big.NewInt(5), MinStakeAmount: big.NewInt(0)}
	view := newStakeView(common.HexToAddress("0x1"), pos, nil, params, 100, projection.DefaultFormatter, 0)
	if view.Rewards == nil || view.Rewards.Daily.Int64() != 50 || view.Rewards.Yearly.Int64() != 50*365 {
		t.Fatalf("unexpected rewards: %+v", view.Rewards)
	}
}
