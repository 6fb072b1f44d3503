package qr

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wallet = common.HexToAddress("0x1111111111111111111111111111111111111111")

func TestIssueThenParse(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	text, err := Issue(7, "#0007", wallet, now)
	require.NoError(t, err)

	var p Payload
	require.NoError(t, json.Unmarshal([]byte(text), &p))
	assert.Equal(t, PayloadType, p.Type)
	assert.Equal(t, "7", p.EventID)
	assert.Equal(t, int64(1_700_000_000_123), p.Timestamp)

	scan := Parse(text)
	assert.True(t, scan.FromPayload)
	assert.Equal(t, wallet.Hex(), scan.Wallet)
	assert.Equal(t, "#0007", scan.TicketID)
	assert.NoError(t, scan.CheckEvent(7))
	assert.ErrorIs(t, scan.CheckEvent(8), ErrEventMismatch)

	addr, err := scan.Address()
	require.NoError(t, err)
	assert.Equal(t, wallet, addr)
}

func TestParseLegacyField(t *testing.T) {
	scan := Parse(`{"walletAddress":"0x1111111111111111111111111111111111111111","eventId":3}`)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", scan.Wallet)
	assert.Equal(t, "3", scan.EventID)
}

func TestParseRawTextFallback(t *testing.T) {
	scan := Parse("  0x1111111111111111111111111111111111111111\n")
	assert.False(t, scan.FromPayload)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", scan.Wallet)
	assert.NoError(t, scan.CheckEvent(99))
}

func TestAddressRejectsGarbage(t *testing.T) {
	_, err := Parse("hello").Address()
	assert.ErrorIs(t, err, ErrInvalidWallet)
}
