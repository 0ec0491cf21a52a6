package relay

import (
	"encoding/json"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSentRejectsZeroHash(t *testing.T) {
	_, err := NewSent(ethcommon.HexToHash("0x01"), ethcommon.Hash{})
	assert.ErrorIs(t, err, ErrZeroTxHash)
}

func TestResultResponse(t *testing.T) {
	txHash := ethcommon.HexToHash("0xabcd")
	sent, err := NewSent(ethcommon.HexToHash("0x01"), txHash)
	require.NoError(t, err)

	b, err := json.Marshal(sent.Response())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"sent","txHash":"`+txHash.Hex()+`"}`, string(b))

	b, err = json.Marshal(NewFail(ethcommon.HexToHash("0x01"), "insufficient gas", ErrSubmissionRejected).Response())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"fail","txHash":"","detail":"insufficient gas"}`, string(b))

	b, err = json.Marshal(NewError(DetailMissingTriplet, ErrBadRequest).Response())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","txHash":"","detail":"encryptedTriplet is required"}`, string(b))

	// an upstream error without a message still reports the detail key
	b, err = json.Marshal(NewFail(ethcommon.HexToHash("0x01"), "", ErrUpstreamUnavailable).Response())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"fail","txHash":"","detail":""}`, string(b))
	assert.Equal(t, "", NewFail(ethcommon.HexToHash("0x01"), "", ErrUpstreamUnavailable).Response().DetailText())
	assert.Equal(t, "", sent.Response().DetailText())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "sent", KindSent.String())
	assert.Equal(t, "fail", KindFail.String())
	assert.Equal(t, "error", KindError.String())
	assert.Equal(t, "unknown", Kind(0).String())
	assert.Equal(t, "unknown", Result{}.Kind().String())
}
