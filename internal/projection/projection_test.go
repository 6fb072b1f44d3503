package projection

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basebond/internal/model"
)

func units(t *testing.T, text string) *big.Int {
	t.Helper()
	v, err := ParseUnits(text, 18)
	require.NoError(t, err)
	return v
}

func TestCurrencyLabel(t *testing.T) {
	assert.Equal(t, "FREE", CurrencyLabel(big.NewInt(0), 18))
	assert.Equal(t, "FREE", CurrencyLabel(nil, 18))
	assert.Equal(t, "1.500 IDRX", CurrencyLabel(units(t, "1500"), 18))
	assert.Equal(t, "1.234.567,5 IDRX", CurrencyLabel(units(t, "1234567.5"), 18))
	assert.Equal(t, "0,01 IDRX", CurrencyLabel(units(t, "0.019"), 18))
}

func TestCurrencyLabelTinyAmountIsNeverFree(t *testing.T) {
	label := CurrencyLabel(big.NewInt(1), 18)
	assert.NotEqual(t, FreeLabel, label)
	assert.Equal(t, "<0,01 IDRX", label)
}

func TestCurrencyLabelEnglish(t *testing.T) {
	f := Formatter{Locale: LocaleEN, FractionDigits: 2}
	assert.Equal(t, "1,234,567.25", f.CurrencyLabel(units(t, "1234567.257"), 18))
	assert.Equal(t, "42", f.CurrencyLabel(big.NewInt(42), 0))
}

func TestFeePercent(t *testing.T) {
	assert.Equal(t, "2,5%", DefaultFormatter.FeePercent(big.NewInt(250)))
	assert.Equal(t, "3%", Formatter{Locale: LocaleEN}.FeePercent(big.NewInt(300)))
}

func TestParseUnits(t *testing.T) {
	v, err := ParseUnits("1.5", 6)
	require.NoError(t, err)
	assert.Equal(t, "1500000", v.String())

	v, err = ParseUnits("0,25", 2)
	require.NoError(t, err)
	assert.Equal(t, "25", v.String())

	v, err = ParseUnits(".5", 1)
	require.NoError(t, err)
	assert.Equal(t, "5", v.String())

	_, err = ParseUnits("1.234", 2)
	assert.ErrorIs(t, err, ErrTooManyDigits)
	_, err = ParseUnits("-1", 2)
	assert.ErrorIs(t, err, ErrNegativeAmount)
	_, err = ParseUnits("1e5", 2)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ParseUnits(" ", 2)
	assert.ErrorIs(t, err, ErrEmptyAmount)
}

func TestProposalStatus(t *testing.T) {
	now := time.Unix(2_000, 0)
	base := model.Proposal{Deadline: 1_000, VotesFor: big.NewInt(60), VotesAgainst: big.NewInt(40)}

	assert.Equal(t, StatusPassed, ProposalStatus(base, now))

	rejected := base
	rejected.VotesFor = big.NewInt(40)
	assert.Equal(t, StatusRejected, ProposalStatus(rejected, now))

	tie := base
	tie.VotesFor = big.NewInt(40)
	tie.VotesAgainst = big.NewInt(40)
	assert.Equal(t, StatusRejected, ProposalStatus(tie, now))

	active := base
	active.Deadline = 3_000
	assert.Equal(t, StatusActive, ProposalStatus(active, now))

	both := base
	both.Executed = true
	both.Cancelled = true
	assert.Equal(t, StatusCancelled, ProposalStatus(both, now))

	executed := active
	executed.Executed = true
	assert.Equal(t, StatusExecuted, ProposalStatus(executed, now))
}

func TestVotePercentageFor(t *testing.T) {
	assert.Equal(t, int64(50), VotePercentageFor(model.Proposal{}))
	assert.Equal(t, int64(60), VotePercentageFor(model.Proposal{VotesFor: big.NewInt(60), VotesAgainst: big.NewInt(40)}))
	assert.Equal(t, int64(0), VotePercentageFor(model.Proposal{VotesFor: big.NewInt(0), VotesAgainst: big.NewInt(5)}))

	huge, _ := new(big.Int).SetString("1000000000000000000000000000000", 10)
	assert.Equal(t, int64(100), VotePercentageFor(model.Proposal{VotesFor: huge, VotesAgainst: big.NewInt(0)}))
	assert.Equal(t, int64(33), VotePercentageFor(model.Proposal{VotesFor: huge, VotesAgainst: new(big.Int).Mul(huge, big.NewInt(2))}))
}

func TestRewardProjection(t *testing.T) {
	r := RewardProjection(big.NewInt(1_000), big.NewInt(5), 100)
	assert.Equal(t, "50", r.Daily.String())
	assert.Equal(t, "1500", r.Monthly.String())
	assert.Equal(t, "18250", r.Yearly.String())

	r = RewardProjection(big.NewInt(1_000), big.NewInt(5), 0)
	assert.Equal(t, "50", r.Daily.String())
}

func TestDisplayHelpers(t *testing.T) {
	addr := common.HexToAddress("0x1234567890abcdef1234567890abcdef12345678")
	short := ShortAddress(addr)
	assert.Len(t, short, 13)
	assert.Equal(t, "0x1234", short[:6])

	assert.Equal(t, "https://sepolia.basescan.org/tx/0xabc", ExplorerTxURL("https://sepolia.basescan.org/", "0xabc"))
	assert.Equal(t, "", ExplorerTxURL("", "0xabc"))
}

func TestEventPhase(t *testing.T) {
	start := uint64(1_000_000)
	assert.Equal(t, PhaseUpcoming, EventPhase(start, time.Unix(999_999, 0)))
	assert.Equal(t, PhaseOngoing, EventPhase(start, time.Unix(1_000_000+3600, 0)))
	assert.Equal(t, PhasePast, EventPhase(start, time.Unix(1_000_000+86_400, 0)))
}
