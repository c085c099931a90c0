package chain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/rpc"
)

// revertCode is the JSON-RPC error code nodes use for "execution reverted".
const revertCode = 3

// Backoff retries transient RPC failures with exponentially growing delays.
type Backoff struct {
	MaxRetries int
	BaseDelay  time.Duration
	// OnRetry is called before each wait with the attempt that failed (1-based).
	OnRetry func(attempt int, err error)
}

// Do runs fn until it succeeds, fails permanently, spends MaxRetries retries or ctx is done.
func (b Backoff) Do(ctx context.Context, fn func(context.Context) error) error {
	delay := b.BaseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || IsPermanent(err) || attempt > b.MaxRetries {
			return err
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

// IsPermanent reports whether retrying err cannot help: contract reverts (the pool's OLD, NI
// and friends), missing blocks and cancelled contexts.
func IsPermanent(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, ethereum.NotFound):
		return true
	}
	return IsRevert(err)
}

// IsRevert reports whether err is an eth_call that reverted.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertCode {
		return true
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}
