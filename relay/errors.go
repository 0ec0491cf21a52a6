package relay

import (
	"errors"
	"fmt"
)

var (
	ErrBadRequest          = errors.New("bad request")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrSubmissionRejected  = errors.New("submission rejected")
	ErrInFlight            = errors.New("redeem request already in flight")
)

const (
	DetailMissingTriplet = "encryptedTriplet is required"
	DetailMalformed      = "encryptedTriplet must be 0x-prefixed hex"
	DetailInFlight       = "redeem request already in flight"
)

func ErrBadRequestf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
