package cmd

import (
	"database/sql"
	"fmt"
	"math/big"
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/blindly-cash/relay-go/database"
	"github.com/blindly-cash/relay-go/etherman"
	"github.com/blindly-cash/relay-go/tracker"
	"github.com/blindly-cash/relay-go/watcher"
)

const (
	TRACKER_BACKEND_MEMORY = "memory"
	TRACKER_BACKEND_SQLITE = "sqlite"

	defaultTrackerCacheSize = 4096
)

// fileExists checks if a file exists and is readable
func FileExists(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer file.Close()
	return true
}

// ParseChainId reads a decimal chain id, empty means Toliman.
func ParseChainId(s string) (*big.Int, error) {
	if strings.TrimSpace(s) == "" {
		return new(big.Int).Set(etherman.ChainIdToliman), nil
	}
	id, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || id.Sign() <= 0 {
		return nil, fmt.Errorf("invalid chain id: %q", s)
	}
	return id, nil
}

// Shared Helper function. Create the redeem request tracker over the
// configured backend. The returned db is nil for the memory backend.
func SetupTracker(backend string, dbFilePath string, cacheSize int) (*tracker.Tracker, *sql.DB, error) {
	switch strings.ToLower(backend) {
	case "", TRACKER_BACKEND_MEMORY:
		return tracker.NewInMemory(), nil, nil
	case TRACKER_BACKEND_SQLITE:
	default:
		return nil, nil, fmt.Errorf("unknown tracker backend: %s", backend)
	}

	if dbFilePath == "" {
		return nil, nil, fmt.Errorf("sqlite tracker requires a db file path")
	}
	db, err := database.OpenSqlite(dbFilePath)
	if err != nil {
		return nil, nil, err
	}
	st, err := tracker.NewSQLStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if cacheSize <= 0 {
		cacheSize = defaultTrackerCacheSize
	}

	logger.WithFields(logger.Fields{
		"path":  dbFilePath,
		"cache": cacheSize,
	}).Info("using sqlite tracker")

	return tracker.New(tracker.NewCachedStore(st, cacheSize)), db, nil
}

// Shared Helper function. Log publisher, plus nats when an url is given.
func SetupPublisher(natsUrl string) (watcher.Publisher, error) {
	if natsUrl == "" {
		return watcher.LogPublisher{}, nil
	}
	np, err := watcher.NewNATSPublisher(natsUrl, 0)
	if err != nil {
		return nil, err
	}
	return watcher.MultiPublisher{watcher.LogPublisher{}, np}, nil
}
