// This is the http boundary of the relay.
// Redeem submissions are forwarded to the relay, status
// queries are answered from the request tracker.

package reporter

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"

	"github.com/blindly-cash/relay-go/common"
	"github.com/blindly-cash/relay-go/relay"
	"github.com/blindly-cash/relay-go/rsaenc"
	"github.com/blindly-cash/relay-go/tracker"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	ROUTE_HELLO         = "/hello"
	ROUTE_REDEEM        = "/redeem"
	ROUTE_REDEEM_STATUS = "/redeem/status"
	ROUTE_METRICS       = "/metrics"
	ROUTE_PUBKEY        = "/pubkey"

	QUERY_ENCRYPTED_TRIPLET = "encryptedTriplet"
	QUERY_REQUEST_ID        = "requestId"
)

// Redeemer relays one encrypted claim.
type Redeemer interface {
	Redeem(ctx context.Context, encryptedHex string) relay.Result
}

// StatusReader looks up redeem requests.
type StatusReader interface {
	Get(id ethcommon.Hash) (*tracker.Request, bool, error)
}

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	redeemer Redeemer
	statuses StatusReader

	// key clients encrypt claims with, optional
	pubKey *rsaenc.PublicKey
}

func NewHttpReporter(serverIP string, serverPort string, redeemer Redeemer, statuses StatusReader) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		redeemer:   redeemer,
		statuses:   statuses,
	}
}

// SetPublicKey publishes the claim encryption key on ROUTE_PUBKEY.
func (h *HttpReporter) SetPublicKey(pk *rsaenc.PublicKey) {
	h.pubKey = pk
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	router.GET(ROUTE_HELLO, Hello)
	router.GET(ROUTE_REDEEM, h.Redeem)
	router.GET(ROUTE_REDEEM_STATUS, h.Status)
	router.GET(ROUTE_PUBKEY, h.PublicKey)
	router.GET(ROUTE_METRICS, gin.WrapH(promhttp.Handler()))

	return router
}

func (h *HttpReporter) Address() string {
	return h.serverIP + ":" + h.serverPort
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (h *HttpReporter) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    h.Address(),
		Handler: h.SetupRouter(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("http reporter listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Liveness route.
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "world",
	})
}

// Redeem relays the encrypted triplet. Relay failures are a normal
// outcome and answered with 200, only malformed input gets 400.
//
// A disconnecting caller does not cancel the submission: once registered,
// the request runs to a recorded outcome bounded only by the relay's own
// submit timeout.
func (h *HttpReporter) Redeem(c *gin.Context) {
	encrypted := c.Query(QUERY_ENCRYPTED_TRIPLET)

	res := h.redeemer.Redeem(context.WithoutCancel(c.Request.Context()), encrypted)
	code := http.StatusOK
	if res.Kind() == relay.KindError {
		code = http.StatusBadRequest
	}
	c.JSON(code, res.Response())
}

// Status reports the tracked state of a redeem request, addressed either by
// its request id or by the encrypted triplet it was derived from.
func (h *HttpReporter) Status(c *gin.Context) {
	id, ok := requestIDFromQuery(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either requestId or encryptedTriplet must be provided as 0x-prefixed hex"})
		return
	}

	req, found, err := h.statuses.Get(id)
	if err != nil {
		logger.WithField("requestId", id.String()).Errorf("failed to read redeem request: err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "No redeem request found"})
		return
	}

	c.JSON(http.StatusOK, req.JSON())
}

type PublicKeyResponse struct {
	Modulus  string `json:"modulus"`
	Exponent int    `json:"exponent"`
}

func (h *HttpReporter) PublicKey(c *gin.Context) {
	if h.pubKey == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No public key configured"})
		return
	}
	c.JSON(http.StatusOK, &PublicKeyResponse{
		Modulus:  common.Prepend0xPrefix(common.BigIntToEvenHex(h.pubKey.N)),
		Exponent: h.pubKey.E,
	})
}

func requestIDFromQuery(c *gin.Context) (ethcommon.Hash, bool) {
	if idHex := c.Query(QUERY_REQUEST_ID); idHex != "" {
		if !common.Has0xPrefix(idHex) {
			return ethcommon.Hash{}, false
		}
		b, err := hexutil.Decode(idHex)
		if err != nil || len(b) != ethcommon.HashLength {
			return ethcommon.Hash{}, false
		}
		return ethcommon.BytesToHash(b), true
	}

	if encrypted := c.Query(QUERY_ENCRYPTED_TRIPLET); encrypted != "" {
		b, err := hexutil.Decode(encrypted)
		if err != nil || len(b) == 0 {
			return ethcommon.Hash{}, false
		}
		return tracker.RequestID(b), true
	}

	return ethcommon.Hash{}, false
}
