// Server = confidential backend client + redeem tracker + relay
// + pending tx watcher + http reporter.
// All components are configured via envionment variables (strings!).

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"

	"github.com/blindly-cash/relay-go/etherman"
	"github.com/blindly-cash/relay-go/relay"
	"github.com/blindly-cash/relay-go/reporter"
	"github.com/blindly-cash/relay-go/rsaenc"
	"github.com/blindly-cash/relay-go/tracker"
	"github.com/blindly-cash/relay-go/watcher"
)

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type RelayServerConfig struct {
	// suave side
	SuaveRpcUrl       string // json rpc url
	SuaveWsUrl        string // websocket url, empty disables the watcher
	ChainId           string // decimal, empty = toliman
	RelayAccountPriv  string // private key of the account paying for confidential requests
	MixerContractAddr string
	KettleAddr        string

	// claim encryption key published to clients
	RsaModulusHex string
	RsaExponent   int

	// tracker side
	TrackerBackend   string // memory | sqlite
	DbFilePath       string
	TrackerCacheSize int

	// relay behaviour
	RejectInFlightDuplicates bool
	SubmitTimeout            time.Duration

	// watcher side
	NatsUrl        string
	WatcherWorkers int

	// Http side
	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 8080
}

// RelayServer holds the objects that consists of the relay server.
type RelayServer struct {
	Backend   etherman.Backend
	Tracker   *tracker.Tracker
	Relay     *relay.Relay
	Watcher   *watcher.Watcher // nil when disabled
	Publisher watcher.Publisher
	Reporter  *reporter.HttpReporter

	db *sql.DB
}

// NewRelayServer connects to the suave node and starts the relay server.
// ctx is used for parental context to cancel the operation of relay server.
// wg is used to wait for all the goroutines inside the server to finish.
func NewRelayServer(rsc *RelayServerConfig, ctx context.Context, wg *sync.WaitGroup) (*RelayServer, error) {
	chainId, err := ParseChainId(rsc.ChainId)
	if err != nil {
		return nil, err
	}

	sk, err := etherman.StringToPrivateKey(rsc.RelayAccountPriv)
	if err != nil {
		logger.Errorf("failed to load relay account: %v", err)
		return nil, err
	}

	client, err := etherman.NewSuaveClient(ctx, &etherman.Config{
		URL:           rsc.SuaveRpcUrl,
		WsURL:         rsc.SuaveWsUrl,
		ChainID:       chainId,
		KettleAddress: common.HexToAddress(rsc.KettleAddr),
	}, sk)
	if err != nil {
		logger.Errorf("failed to connect to suave node: %v", err)
		return nil, err
	}

	srv, err := NewRelayServerWithBackend(rsc, client, rsc.SuaveWsUrl != "", ctx, wg)
	if err != nil {
		client.Close()
		return nil, err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		client.Close()
	}()

	return srv, nil
}

// NewRelayServerWithBackend wires and starts every component over an
// existing backend.
func NewRelayServerWithBackend(rsc *RelayServerConfig, backend etherman.Backend, watch bool, ctx context.Context, wg *sync.WaitGroup) (*RelayServer, error) {
	chainId, err := ParseChainId(rsc.ChainId)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(rsc.MixerContractAddr) {
		return nil, fmt.Errorf("invalid mixer contract address: %q", rsc.MixerContractAddr)
	}
	if !common.IsHexAddress(rsc.KettleAddr) {
		return nil, fmt.Errorf("invalid kettle address: %q", rsc.KettleAddr)
	}
	mixerAddr := common.HexToAddress(rsc.MixerContractAddr)

	var pubKey *rsaenc.PublicKey
	if rsc.RsaModulusHex != "" {
		pubKey, err = rsaenc.ParsePublicKeyHex(rsc.RsaModulusHex, rsc.RsaExponent)
		if err != nil {
			return nil, err
		}
	}

	// 1) tracker
	myTracker, db, err := SetupTracker(rsc.TrackerBackend, rsc.DbFilePath, rsc.TrackerCacheSize)
	if err != nil {
		logger.Errorf("failed to create tracker: %v", err)
		return nil, err
	}

	// 2) relay
	myRelay, err := relay.New(&relay.Config{
		ChainID:                  chainId,
		MixerAddress:             mixerAddr,
		KettleAddress:            common.HexToAddress(rsc.KettleAddr),
		RejectInFlightDuplicates: rsc.RejectInFlightDuplicates,
		SubmitTimeout:            rsc.SubmitTimeout,
	}, backend, myTracker)
	if err != nil {
		myTracker.Close()
		return nil, err
	}

	// 3) watcher + audit sink
	publisher, err := SetupPublisher(rsc.NatsUrl)
	if err != nil {
		logger.Errorf("failed to connect to nats: %v", err)
		myTracker.Close()
		return nil, err
	}

	var myWatcher *watcher.Watcher
	if watch {
		myWatcher, err = watcher.New(&watcher.Config{
			MixerAddress: mixerAddr,
			Workers:      rsc.WatcherWorkers,
		}, backend, publisher)
		if err != nil {
			publisher.Close()
			myTracker.Close()
			return nil, err
		}
	}

	// 4) http reporter
	httpReporter := reporter.NewHttpReporter(rsc.HttpIp, rsc.HttpPort, myRelay, myTracker)
	if pubKey != nil {
		httpReporter.SetPublicKey(pubKey)
	}

	srv := &RelayServer{
		Backend:   backend,
		Tracker:   myTracker,
		Relay:     myRelay,
		Watcher:   myWatcher,
		Publisher: publisher,
		Reporter:  httpReporter,
		db:        db,
	}

	// Important: Turn on the components!
	var inner sync.WaitGroup
	if myWatcher != nil {
		inner.Add(1)
		go func() {
			defer inner.Done()
			if err := myWatcher.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Errorf("watcher stopped: %v", err)
			}
		}()
	}
	inner.Add(1)
	go func() {
		defer inner.Done()
		if err := httpReporter.Run(ctx); err != nil {
			logger.Errorf("http reporter stopped: %v", err)
		}
	}()

	// release resources once everything stopped
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		inner.Wait()
		srv.close()
	}()

	return srv, nil
}

func (srv *RelayServer) close() {
	if err := srv.Publisher.Close(); err != nil {
		logger.Warnf("failed to close publisher: %v", err)
	}
	if err := srv.Tracker.Close(); err != nil {
		logger.Warnf("failed to close tracker: %v", err)
	}
	if srv.db != nil {
		if err := srv.db.Close(); err != nil {
			logger.Warnf("failed to close db: %v", err)
		}
	}
	logger.Info("relay server stopped")
}

// Create, then start the relay server and wait.
// Press Ctrl-C to kill the server.
func StartRelayServerAndWait(rsc *RelayServerConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up a signal channel to listen for Ctrl-C (SIGINT) or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		fmt.Printf("Received signal: %v, cancelling context...\n", sig)
		cancel()
	}()

	var wg sync.WaitGroup

	_, err := NewRelayServer(rsc, ctx, &wg)
	if err != nil {
		logger.Fatalf("failed to create relay server: %v", err)
		return
	}

	// wait for all routines to finish
	wg.Wait()
}
