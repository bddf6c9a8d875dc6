package worker

import "time"

// Параметры повторов для загрузки календаря
const (
	feedFetchRetries      = 3
	feedFetchInitialDelay = 2 * time.Second
	feedFetchMaxDelay     = 30 * time.Second
)

// RetryPolicy describes the exponential backoff between feed fetch
// attempts.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func defaultFetchRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    feedFetchRetries,
		InitialDelay:  feedFetchInitialDelay,
		MaxDelay:      feedFetchMaxDelay,
		BackoffFactor: 2,
	}
}

// NextDelay returns the wait before the given attempt (1-based). The
// delay grows by BackoffFactor per attempt and is clamped to MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	initial := r.InitialDelay
	if initial <= 0 {
		initial = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	delay := float64(initial)
	for i := 1; i < attempt; i++ {
		delay *= factor
		if r.MaxDelay > 0 && delay >= float64(r.MaxDelay) {
			return r.MaxDelay
		}
	}

	d := time.Duration(delay)
	if d <= 0 {
		d = time.Second
	}
	return d
}
