package reporter

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blindly-cash/relay-go/claim"
	"github.com/blindly-cash/relay-go/etherman"
	"github.com/blindly-cash/relay-go/relay"
	"github.com/blindly-cash/relay-go/rsaenc"
	"github.com/blindly-cash/relay-go/tracker"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	testMixer    = ethcommon.HexToAddress("0xf1a2c0b2a5e3b6c2d9b1f4c7a8e2d3b4c5d6e7f8")
	testKettle   = ethcommon.HexToAddress("0x7d83e42b214b75bf1f3e57adc3415da573d97bff")
	testRedeemTo = ethcommon.HexToAddress("0x1111111111111111111111111111111111111111")
)

type testServer struct {
	sim    *etherman.SimulatedSuave
	tr     *tracker.Tracker
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	sim := etherman.NewSimulatedSuave()
	tr := tracker.NewInMemory()
	r, err := relay.New(&relay.Config{
		ChainID:       etherman.ChainIdToliman,
		MixerAddress:  testMixer,
		KettleAddress: testKettle,
	}, sim, tr)
	require.NoError(t, err)

	h := NewHttpReporter("127.0.0.1", "0", r, tr)
	return &testServer{sim: sim, tr: tr, router: h.SetupRouter()}
}

func (s *testServer) get(t *testing.T, path string, query url.Values) (int, map[string]interface{}) {
	target := path
	if query != nil {
		target += "?" + query.Encode()
	}
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	s.router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

// encryptedTestClaim encrypts a fresh claim under a test key and returns the
// hex payload together with the private key.
func encryptedTestClaim(t *testing.T) (string, *claim.RedeemClaim, *rsa.PrivateKey) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	pub, err := rsaenc.FromRSA(&priv.PublicKey)
	require.NoError(t, err)
	enc, err := rsaenc.NewEncryptor(pub)
	require.NoError(t, err)

	note, err := claim.NewDepositNote()
	require.NoError(t, err)
	c := note.Claim(testRedeemTo, 25)
	payload, err := claim.Encode(c)
	require.NoError(t, err)

	encrypted, err := enc.EncryptHex(payload)
	require.NoError(t, err)
	return encrypted, c, priv
}

func TestHello(t *testing.T) {
	s := newTestServer(t)
	code, body := s.get(t, ROUTE_HELLO, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "world", body["message"])
}

func TestRedeemSent(t *testing.T) {
	s := newTestServer(t)
	encrypted, c, priv := encryptedTestClaim(t)

	code, body := s.get(t, ROUTE_REDEEM, url.Values{QUERY_ENCRYPTED_TRIPLET: {encrypted}})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "sent", body["status"])
	txHash, _ := body["txHash"].(string)
	assert.Len(t, txHash, 66)

	id := tracker.RequestID(hexutil.MustDecode(encrypted))
	rec, ok, err := s.tr.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tracker.StatusSent, rec.Status)
	assert.Equal(t, txHash, rec.TxHash.Hex())

	// the kettle side recovers the claim with the private transform
	ct := new(big.Int).SetBytes(hexutil.MustDecode(encrypted))
	m := new(big.Int).Exp(ct, priv.D, priv.N)
	decoded, err := claim.Decode(m.FillBytes(make([]byte, claim.PackedSize)))
	require.NoError(t, err)
	assert.True(t, c.Equal(decoded))

	code, body = s.get(t, ROUTE_REDEEM_STATUS, url.Values{QUERY_REQUEST_ID: {id.Hex()}})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "sent", body["status"])
	assert.Equal(t, txHash, body["txHash"])
	assert.Equal(t, id.Hex(), body["requestId"])

	code, body = s.get(t, ROUTE_REDEEM_STATUS, url.Values{QUERY_ENCRYPTED_TRIPLET: {encrypted}})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, id.Hex(), body["requestId"])
}

func TestRedeemMissingTriplet(t *testing.T) {
	s := newTestServer(t)

	for _, q := range []url.Values{nil, {QUERY_ENCRYPTED_TRIPLET: {""}}} {
		code, body := s.get(t, ROUTE_REDEEM, q)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, "", body["txHash"])
		assert.Equal(t, "encryptedTriplet is required", body["detail"])
	}

	code, body := s.get(t, ROUTE_REDEEM, url.Values{QUERY_ENCRYPTED_TRIPLET: {"0xnothex"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", body["status"])
	assert.Empty(t, s.sim.Sent())
}

func TestRedeemUpstreamFailure(t *testing.T) {
	s := newTestServer(t)
	s.sim.SetSendError(&etherman.RPCError{Code: -32000, Message: "insufficient gas"})
	encrypted, _, _ := encryptedTestClaim(t)

	code, body := s.get(t, ROUTE_REDEEM, url.Values{QUERY_ENCRYPTED_TRIPLET: {encrypted}})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "", body["txHash"])
	assert.Equal(t, "insufficient gas", body["detail"])

	rec, ok, err := s.tr.Get(tracker.RequestID(hexutil.MustDecode(encrypted)))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tracker.StatusFail, rec.Status)
	assert.Equal(t, "insufficient gas", rec.Detail)
}

func TestRedeemSurvivesCallerDisconnect(t *testing.T) {
	s := newTestServer(t)
	encrypted, _, _ := encryptedTestClaim(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	s.sim.SetSendHook(func(ctx context.Context, _ *etherman.ConfidentialRequest) error {
		close(entered)
		<-release
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		ROUTE_REDEEM+"?"+url.Values{QUERY_ENCRYPTED_TRIPLET: {encrypted}}.Encode(), nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.router.ServeHTTP(w, req)
	}()

	<-entered
	cancel()
	close(release)
	<-done

	rec, ok, err := s.tr.Get(tracker.RequestID(hexutil.MustDecode(encrypted)))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tracker.StatusSent, rec.Status)
	assert.Empty(t, rec.Detail)
	assert.Len(t, s.sim.Sent(), 1)
}

func TestRedeemConcurrentIdenticalSubmissions(t *testing.T) {
	s := newTestServer(t)
	encrypted, _, _ := encryptedTestClaim(t)

	var (
		wg     sync.WaitGroup
		bodies = make([]map[string]interface{}, 2)
	)
	for i := range bodies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, bodies[i] = s.get(t, ROUTE_REDEEM, url.Values{QUERY_ENCRYPTED_TRIPLET: {encrypted}})
		}(i)
	}
	wg.Wait()

	for _, body := range bodies {
		assert.Equal(t, "sent", body["status"])
	}

	rec, ok, err := s.tr.Get(tracker.RequestID(hexutil.MustDecode(encrypted)))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rec.Status.Terminal())
	assert.Contains(t, []interface{}{bodies[0]["txHash"], bodies[1]["txHash"]}, rec.TxHash.Hex())
}

func TestStatusErrors(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.get(t, ROUTE_REDEEM_STATUS, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.get(t, ROUTE_REDEEM_STATUS, url.Values{QUERY_REQUEST_ID: {"0x1234"}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := s.get(t, ROUTE_REDEEM_STATUS, url.Values{QUERY_REQUEST_ID: {ethcommon.HexToHash("0x01").Hex()}})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "No redeem request found", body["error"])
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t)
	s.get(t, ROUTE_REDEEM, url.Values{QUERY_ENCRYPTED_TRIPLET: {"0xdeadbeef"}})

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, ROUTE_METRICS, nil)
	require.NoError(t, err)
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "blindly_relay_redeem_total")
}

func TestRun(t *testing.T) {
	h := NewHttpReporter("127.0.0.1", "0", nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- h.Run(ctx)
	}()
	cancel()
	assert.NoError(t, <-done)
}

func TestPublicKey(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.get(t, ROUTE_PUBKEY, nil)
	assert.Equal(t, http.StatusNotFound, code)

	pk, err := rsaenc.ParsePublicKeyHex(rsaenc.TolimanModulusHex, 0)
	require.NoError(t, err)
	h := NewHttpReporter("127.0.0.1", "0", nil, nil)
	h.SetPublicKey(pk)
	s.router = h.SetupRouter()

	code, body := s.get(t, ROUTE_PUBKEY, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(rsaenc.DefaultExponent), body["exponent"])

	got, err := rsaenc.ParsePublicKeyHex(body["modulus"].(string), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, pk.N.Cmp(got.N))
}
