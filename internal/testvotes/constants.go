package testvotes

// HTTP status code constants.
const (
	StatusOK              = 200
	StatusTooManyRequests = 429
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
)

// Verification constants.
const (
	biasTolerance = 1e-9
	// maxUnclampedNudges is how many creator steps fit between zero and a
	// bias bound, so a creator with at most this many nudges was never clamped.
	maxUnclampedNudges = 10
)

// Submission results.
const (
	resultSuccess     = "success"
	resultRateLimited = "rate_limited"
	resultFailed      = "failed"
)
