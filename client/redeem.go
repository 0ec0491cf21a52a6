package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/blindly-cash/relay-go/relay"
	"github.com/blindly-cash/relay-go/reporter"
	"github.com/blindly-cash/relay-go/rsaenc"
	"github.com/blindly-cash/relay-go/tracker"
)

// GenericFailureHint is shown for every relay failure. The true cause is
// deliberately not told apart.
const GenericFailureHint = "redeem failed, possible reasons: 1. invalid redeem note; " +
	"2. deposit tx for the redeem note not on chain yet; 3. used redeem note"

var (
	ErrRejected         = errors.New("redeem request rejected")
	ErrNotFound         = errors.New("redeem request not found")
	ErrUnexpectedStatus = errors.New("unexpected http status")
)

// Outcome is a relay answer as presented to the user.
type Outcome struct {
	Status string
	TxHash string
	// Detail is the relay's failure detail, kept for logs only
	Detail string
	// Message is what the user should see
	Message string
}

func (o *Outcome) Sent() bool {
	return o.Status == "sent"
}

// RedeemClient talks to the http boundary of the relay.
type RedeemClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRedeemClient(baseURL string, httpClient *http.Client) *RedeemClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &RedeemClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (rc *RedeemClient) Hello(ctx context.Context) error {
	code, _, err := rc.get(ctx, reporter.ROUTE_HELLO, nil)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	}
	return nil
}

// Redeem submits an encrypted claim. A relay failure is not an error: it
// comes back as an Outcome carrying GenericFailureHint. Malformed input
// yields ErrRejected.
func (rc *RedeemClient) Redeem(ctx context.Context, encryptedHex string) (*Outcome, error) {
	code, body, err := rc.get(ctx, reporter.ROUTE_REDEEM, url.Values{
		reporter.QUERY_ENCRYPTED_TRIPLET: {encryptedHex},
	})
	if err != nil {
		return nil, err
	}

	var resp relay.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, code, string(body))
	}

	out := &Outcome{Status: resp.Status, TxHash: resp.TxHash, Detail: resp.DetailText()}
	switch {
	case code == http.StatusBadRequest:
		out.Message = out.Detail
		return out, fmt.Errorf("%w: %s", ErrRejected, out.Detail)
	case code != http.StatusOK:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	case out.Sent():
		out.Message = "redeem sent, tx hash: " + resp.TxHash
	default:
		out.Message = GenericFailureHint
	}
	return out, nil
}

func (rc *RedeemClient) Status(ctx context.Context, requestID ethcommon.Hash) (*tracker.JSONRequest, error) {
	code, body, err := rc.get(ctx, reporter.ROUTE_REDEEM_STATUS, url.Values{
		reporter.QUERY_REQUEST_ID: {requestID.Hex()},
	})
	if err != nil {
		return nil, err
	}

	switch code {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, code, string(body))
	}

	var req tracker.JSONRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// PublicKey fetches the claim encryption key published by the relay.
func (rc *RedeemClient) PublicKey(ctx context.Context) (*rsaenc.PublicKey, error) {
	code, body, err := rc.get(ctx, reporter.ROUTE_PUBKEY, nil)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, code, string(body))
	}

	var resp reporter.PublicKeyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return rsaenc.ParsePublicKeyHex(resp.Modulus, resp.Exponent)
}

func (rc *RedeemClient) get(ctx context.Context, route string, query url.Values) (int, []byte, error) {
	target := rc.baseURL + route
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, err
	}

	resp, err := rc.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}
