package testvotes

import "errors"

// Verification errors.
var (
	ErrServiceUnhealthy = errors.New("service is not healthy")
	ErrNoVotes          = errors.New("no votes to submit")
	ErrBiasOutOfRange   = errors.New("bias out of range")
	ErrNudgedTwice      = errors.New("creator nudged more than once for the same content")
	ErrCreatorOrder     = errors.New("creators not ordered by absolute bias")
	ErrCreatorBias      = errors.New("creator bias does not match recorded nudges")
	ErrGlobalDrift      = errors.New("global bias moved more than the recorded nudges allow")
)
