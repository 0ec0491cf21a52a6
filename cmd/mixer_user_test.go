package cmd

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blindly-cash/relay-go/claim"
	"github.com/blindly-cash/relay-go/client"
	"github.com/blindly-cash/relay-go/etherman"
)

func TestParseClaimFormat(t *testing.T) {
	f, err := parseClaimFormat("")
	require.NoError(t, err)
	assert.Equal(t, claim.FormatPacked, f)

	f, err = parseClaimFormat("abi")
	require.NoError(t, err)
	assert.Equal(t, claim.FormatABI, f)

	_, err = parseClaimFormat("json")
	assert.Error(t, err)
}

func TestMixerUserRedeem(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sim := etherman.NewSimulatedSuave()
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	srv, err := NewRelayServerWithBackend(testConfig(), sim, false, ctx, &wg)
	require.NoError(t, err)
	httpSrv := httptest.NewServer(srv.Reporter.SetupRouter())
	defer httpSrv.Close()

	mu, err := NewMixerUser(&MixerUserConfig{RelayUrl: httpSrv.URL, ClaimFormat: "abi"})
	require.NoError(t, err)
	defer mu.Close()

	_, _, err = mu.Deposit(ctx)
	assert.Error(t, err)

	note, err := claim.NewDepositNote()
	require.NoError(t, err)

	id, out, err := mu.Redeem(ctx, note.String(), "0x1111111111111111111111111111111111111111", 25)
	require.NoError(t, err)
	assert.True(t, out.Sent())

	st, err := mu.Status(ctx, id.Hex())
	require.NoError(t, err)
	assert.Equal(t, "sent", st.Status)
	assert.Equal(t, out.TxHash, st.TxHash)

	for _, bad := range []string{"", id.Hex()[2:], "0x1234", id.Hex() + "00", "0xzz" + id.Hex()[4:]} {
		_, err = mu.Status(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidRequestId, bad)
	}

	sim.SetSendError(&etherman.RPCError{Code: -32000, Message: "note already used"})
	_, out, err = mu.Redeem(ctx, note.String(), "0x1111111111111111111111111111111111111111", 25)
	require.NoError(t, err)
	assert.Equal(t, client.GenericFailureHint, out.Message)

	_, _, err = mu.Redeem(ctx, "0x1234", "0x1111111111111111111111111111111111111111", 25)
	assert.ErrorIs(t, err, claim.ErrInvalidField)
}
